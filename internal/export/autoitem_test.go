package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAutoItemWriter_Format(t *testing.T) {
	var buf bytes.Buffer
	w := NewAutoItemWriter(&buf)

	require.NoError(t, w.WriteHeader(12))
	points := []struct {
		grid  int
		value float64
	}{
		{0, 0.5}, {1, 0.1235}, {1, 1}, {4, -0.25}, {6, 0},
	}
	for _, p := range points {
		require.NoError(t, w.WritePoint(p.grid, p.value), "WritePoint(%d, %v)", p.grid, p.value)
	}
	require.NoError(t, w.Flush())

	want := strings.Join([]string{
		"SRCLEN 12",
		"LFO 0 0 0 0 0 0 0",
		"PPT 0 0.5 0",
		"PPT 1 0.1235 0",
		"PPT 1 1 0",
		"PPT 4 -0.25 0",
		"PPT 6 0 0",
		"",
	}, "\n")
	assert.Equal(t, want, buf.String())
	assert.Equal(t, len(points), w.Points())
}

func TestAutoItemWriter_LineCount(t *testing.T) {
	for _, n := range []int{0, 1, 17} {
		var buf bytes.Buffer
		w := NewAutoItemWriter(&buf)
		require.NoError(t, w.WriteHeader(n))
		for i := 0; i < n; i++ {
			require.NoError(t, w.WritePoint(i, 0.5))
		}
		require.NoError(t, w.Flush())

		lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
		assert.Len(t, lines, n+2, "n=%d", n)
	}
}

func TestAutoItemWriter_RejectsGridGoingBack(t *testing.T) {
	w := NewAutoItemWriter(&bytes.Buffer{})
	require.NoError(t, w.WriteHeader(3))
	require.NoError(t, w.WritePoint(2, 0))
	assert.ErrorIs(t, w.WritePoint(1, 0), ErrGridOrder)
}

func TestAutoItemWriter_HeaderOrdering(t *testing.T) {
	w := NewAutoItemWriter(&bytes.Buffer{})
	assert.Error(t, w.WritePoint(0, 0), "point before header")
	require.NoError(t, w.WriteHeader(0))
	assert.Error(t, w.WriteHeader(0), "second header")
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{in: 0, want: "0"},
		{in: 1, want: "1"},
		{in: 0.5, want: "0.5"},
		{in: 0.1235, want: "0.1235"},
		{in: -2.0001, want: "-2.0001"},
		{in: 12345.6789, want: "12345.6789"},
		{in: 1e-4, want: "0.0001"},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, FormatValue(tc.in), "FormatValue(%v)", tc.in)
	}
}
