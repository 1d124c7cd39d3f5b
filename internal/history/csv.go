package history

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

var errFileClosed = errors.New("csv file closed")

// tradeFile appends trade rows to a CSV file. Rows are buffered by the csv
// writer and reach the disk on every flush tick and on Close.
type tradeFile struct {
	path   string
	logger *zap.Logger

	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
	rows   uint64

	stop    chan struct{}
	stopped chan struct{}
}

// openTradeFile opens path for appending. The header row is written only
// when the file is new or empty.
func openTradeFile(path string, header []string, flushEvery time.Duration, logger *zap.Logger) (*tradeFile, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open journal file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat journal file: %w", err)
	}

	tf := &tradeFile{
		path:    path,
		logger:  logger,
		file:    f,
		writer:  csv.NewWriter(f),
		stop:    make(chan struct{}),
		stopped: make(chan struct{}),
	}

	if info.Size() == 0 && len(header) > 0 {
		tf.writer.Write(header)
		tf.writer.Flush()
		if err := tf.writer.Error(); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("write journal header: %w", err)
		}
	}

	if flushEvery <= 0 {
		flushEvery = 30 * time.Second
	}
	go tf.flushLoop(flushEvery)
	return tf, nil
}

func (tf *tradeFile) Append(row []string) error {
	tf.mu.Lock()
	defer tf.mu.Unlock()

	if tf.file == nil {
		return errFileClosed
	}
	if err := tf.writer.Write(row); err != nil {
		return fmt.Errorf("append row: %w", err)
	}
	tf.rows++
	return nil
}

// Flush pushes buffered rows to the file and syncs it.
func (tf *tradeFile) Flush() error {
	tf.mu.Lock()
	defer tf.mu.Unlock()
	return tf.flushLocked()
}

func (tf *tradeFile) flushLocked() error {
	if tf.file == nil {
		return errFileClosed
	}
	tf.writer.Flush()
	if err := tf.writer.Error(); err != nil {
		return err
	}
	return tf.file.Sync()
}

func (tf *tradeFile) Path() string { return tf.path }

func (tf *tradeFile) flushLoop(every time.Duration) {
	defer close(tf.stopped)

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-tf.stop:
			return
		case <-ticker.C:
			if err := tf.Flush(); err != nil && !errors.Is(err, errFileClosed) {
				tf.logger.Error("Journal flush failed", zap.String("file", tf.path), zap.Error(err))
			}
		}
	}
}

// Close flushes remaining rows and closes the file. Later calls are no-ops.
func (tf *tradeFile) Close() error {
	tf.mu.Lock()
	if tf.file == nil {
		tf.mu.Unlock()
		return nil
	}
	flushErr := tf.flushLocked()
	closeErr := tf.file.Close()
	tf.file = nil
	rows := tf.rows
	tf.mu.Unlock()

	close(tf.stop)
	<-tf.stopped

	tf.logger.Debug("Journal file closed", zap.String("file", tf.path), zap.Uint64("rows", rows))
	return errors.Join(flushErr, closeErr)
}
