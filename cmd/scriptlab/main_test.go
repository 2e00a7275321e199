package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/scriptlab/internal/datasource"
	"github.com/yourusername/scriptlab/internal/optimizer"
)

func TestParseOverrides(t *testing.T) {
	values, err := parseOverrides(map[string]string{"RSI Length": "21", "Mult": "1.5"})
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"RSI Length": 21, "Mult": 1.5}, values)

	_, err = parseOverrides(map[string]string{"Bad": "x"})
	assert.Error(t, err)
}

func TestLoadRanges(t *testing.T) {
	ranges, err := loadRanges("")
	require.NoError(t, err)
	assert.Nil(t, ranges)

	path := filepath.Join(t.TempDir(), "ranges.yaml")
	require.NoError(t, os.WriteFile(path, []byte("RSI Length:\n  start: 5\n  end: 20\n  step: 5\n"), 0o644))
	ranges, err = loadRanges(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]optimizer.Range{"RSI Length": {Start: 5, End: 20, Step: 5}}, ranges)
}

func TestConvertBars(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "bars.csv")
	require.NoError(t, os.WriteFile(src, []byte("time,open,high,low,close\n"+
		"2024-01-01T01:00:00Z,102,103,101,102\n"+
		"2024-01-01T00:00:00Z,100,101,99,100\n"), 0o644))
	dst := filepath.Join(dir, "out", "bars.parquet")

	n, err := convertBars(context.Background(), src, dst)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	bars, err := datasource.LoadBars(context.Background(), dst)
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, 100.0, bars[0].Close)
	assert.Equal(t, 102.0, bars[1].Close)

	_, err = convertBars(context.Background(), src, filepath.Join(dir, "bars.json"))
	assert.Error(t, err)
}

func TestRender(t *testing.T) {
	defer func(prev string) { outputFormat = prev }(outputFormat)
	value := map[string]int{"trades": 3}

	tests := []struct {
		format string
		want   string
	}{
		{format: "json", want: "{\n  \"trades\": 3\n}\n"},
		{format: "yaml", want: "trades: 3\n"},
		{format: "text", want: "summary"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			outputFormat = tt.format
			var buf bytes.Buffer
			require.NoError(t, render(&buf, value, func() string { return "summary" }))
			assert.Equal(t, tt.want, buf.String())
		})
	}

	outputFormat = "xml"
	assert.Error(t, render(&bytes.Buffer{}, value, nil))
}
