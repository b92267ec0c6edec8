package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{
			name:  "native export timestamp",
			input: "2023-06-15 08:30:00 +0000",
			want:  "2023-06-15",
			ok:    true,
		},
		{
			name:  "rfc3339",
			input: "2023-06-15T08:30:00Z",
			want:  "2023-06-15",
			ok:    true,
		},
		{
			name:  "bare calendar day",
			input: "2023-06-15",
			want:  "2023-06-15",
			ok:    true,
		},
		{
			name:  "offset crossing midnight normalizes to utc day",
			input: "2023-06-15 23:30:00 -0200",
			want:  "2023-06-16",
			ok:    true,
		},
		{
			name:  "surrounding whitespace",
			input: "  2023-06-15 08:30:00 +0000  ",
			want:  "2023-06-15",
			ok:    true,
		},
		{
			name:  "iso prefix fallback",
			input: "2023-06-15 weird trailing garbage",
			want:  "2023-06-15",
			ok:    true,
		},
		{
			name:  "empty",
			input: "",
			ok:    false,
		},
		{
			name:  "whitespace only",
			input: "   ",
			ok:    false,
		},
		{
			name:  "no date at all",
			input: "not a date",
			ok:    false,
		},
		{
			name:  "partial prefix",
			input: "2023-06",
			ok:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizeDate(tt.input)
			require.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestNormalizeDateTime(t *testing.T) {
	t.Run("parses native layout", func(t *testing.T) {
		got, ok := NormalizeDateTime("2023-06-15 08:30:00 +0100")
		require.True(t, ok)
		assert.Equal(t, "2023-06-15T07:30:00Z", got.UTC().Format("2006-01-02T15:04:05Z"))
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, ok := NormalizeDateTime("yesterday")
		assert.False(t, ok)
	})

	t.Run("rejects empty", func(t *testing.T) {
		_, ok := NormalizeDateTime("")
		assert.False(t, ok)
	})
}

func TestNormalizeNumber(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  float64
	}{
		{"integer", "1234", 1234},
		{"decimal", "72.5", 72.5},
		{"negative", "-3.2", -3.2},
		{"whitespace", " 10 ", 10},
		{"empty defaults to zero", "", 0},
		{"garbage defaults to zero", "lots", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeNumber(tt.input))
		})
	}
}
