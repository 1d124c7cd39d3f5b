package logger

import (
	"strings"
	"sync"
)

// Ring keeps the most recent log lines in memory for on-screen display.
type Ring struct {
	mu      sync.Mutex
	lines   []string
	next    int
	wrapped bool
	total   uint64
}

// NewRing creates a ring holding up to size lines.
func NewRing(size int) *Ring {
	if size <= 0 {
		size = 200
	}
	return &Ring{lines: make([]string, size)}
}

// Write implements io.Writer. Each call is expected to carry one encoded
// log entry, which is how zapcore writes.
func (r *Ring) Write(p []byte) (int, error) {
	line := strings.TrimRight(string(p), "\n")

	r.mu.Lock()
	defer r.mu.Unlock()

	r.lines[r.next] = line
	r.next = (r.next + 1) % len(r.lines)
	if r.next == 0 {
		r.wrapped = true
	}
	r.total++
	return len(p), nil
}

// Sync implements zapcore.WriteSyncer.
func (r *Ring) Sync() error { return nil }

// Recent returns up to limit lines, oldest first. limit <= 0 means all.
func (r *Ring) Recent(limit int) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := r.next
	start := 0
	if r.wrapped {
		count = len(r.lines)
		start = r.next
	}
	if limit > 0 && limit < count {
		start += count - limit
		count = limit
	}

	out := make([]string, count)
	for i := 0; i < count; i++ {
		out[i] = r.lines[(start+i)%len(r.lines)]
	}
	return out
}

// Total is the number of lines ever written.
func (r *Ring) Total() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.total
}
