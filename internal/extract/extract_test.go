package extract

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	usdc = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	wsol = "So11111111111111111111111111111111111111112"
	meme = "7GCihgDB8fe6KNjn2MYtkzZcRjQy3t9GHdC8uHYmW2hr"
)

func TestAll(t *testing.T) {
	tests := []struct {
		name  string
		texts []string
		want  []string
	}{
		{
			name:  "single address in a post",
			texts: []string{"new gem " + meme + " sending it"},
			want:  []string{meme},
		},
		{
			name:  "order follows inputs and duplicates stay",
			texts: []string{usdc + " and " + wsol, "again " + usdc},
			want:  []string{usdc, wsol, usdc},
		},
		{
			name:  "pump.fun link",
			texts: []string{"https://pump.fun/coin/" + meme},
			want:  []string{meme},
		},
		{
			name:  "too short",
			texts: []string{"abc " + meme[:31] + " def"},
			want:  nil,
		},
		{
			name:  "run longer than 44 is not split",
			texts: []string{meme + "abc"},
			want:  nil,
		},
		{
			name:  "excluded character glues the run together",
			texts: []string{meme[:20] + "0" + meme[20:]},
			want:  nil,
		},
		{
			name:  "ethereum style address",
			texts: []string{"0x52908400098527886E0F7030069857D2E4169EE7"},
			want:  nil,
		},
		{
			name:  "accented letter before the run",
			texts: []string{"é" + meme},
			want:  nil,
		},
		{
			name:  "non-latin letter after the run",
			texts: []string{meme + "ß", meme + "日本"},
			want:  nil,
		},
		{
			name:  "underscore is a word character",
			texts: []string{"_" + meme},
			want:  nil,
		},
		{
			name:  "unicode punctuation is an edge",
			texts: []string{"«" + meme + "»", "🚀" + wsol},
			want:  []string{meme, wsol},
		},
		{
			name:  "two runs back to back",
			texts: []string{meme + wsol},
			want:  nil,
		},
		{
			name:  "no inputs",
			texts: nil,
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, All(tt.texts...))
		})
	}
}

func TestAll_OnlyAlphabetMatches(t *testing.T) {
	const pool = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz .,:/$\n"
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 500; i++ {
		var sb strings.Builder
		n := rng.Intn(400)
		for j := 0; j < n; j++ {
			sb.WriteByte(pool[rng.Intn(len(pool))])
		}
		// seed some real addresses so matches actually happen
		if i%3 == 0 {
			sb.WriteString(" " + meme + " ")
		}

		for _, m := range All(sb.String()) {
			require.GreaterOrEqual(t, len(m), 32)
			require.LessOrEqual(t, len(m), 44)
			require.NotContainsf(t, m, "0", "match %q", m)
			require.NotContainsf(t, m, "O", "match %q", m)
			require.NotContainsf(t, m, "I", "match %q", m)
			require.NotContainsf(t, m, "l", "match %q", m)
		}
	}
}

func TestFirst(t *testing.T) {
	got, ok := First("Bought " + wsol + " then " + usdc)
	require.True(t, ok)
	assert.Equal(t, wsol, got)

	got, ok = First("é" + meme + " then " + usdc)
	require.True(t, ok)
	assert.Equal(t, usdc, got, "a run glued to a letter is skipped")

	_, ok = First("nothing to see here")
	assert.False(t, ok)
}

func TestPrice(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		want   float64
		wantOK bool
	}{
		{"labeled price", "Buy Success! Price: $0.00123 MC: $1.2M", 0.00123, true},
		{"labeled entry any case", "ENTRY at $1.5", 1.5, true},
		{"labeled integer", "price $3", 3, true},
		{"label wins over earlier bare amount", "MC $0.5 price $2.25", 2.25, true},
		{"bare sub-dollar", "filled at $0.000042 each", 0.000042, true},
		{"bare amount above one dollar ignored", "spent $12.50", 0, false},
		{"no amount", "Transaction sent", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Price(tt.text)
			assert.Equal(t, tt.wantOK, ok)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}
