package datasource

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/scriptlab/internal/models"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCSVSource(t *testing.T) {
	path := writeFile(t, "bars.csv", `Date,Open,High,Low,Close,Volume
2024-01-02,101,103,100,102,2000
2024-01-01,100,102,99,101,1000
1704240000,102,104,101,103,
`)

	bars, err := LoadBars(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, bars, 3)

	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), bars[0].Time)
	assert.Equal(t, 101.0, bars[0].Close)
	assert.Equal(t, 1000.0, bars[0].Volume)
	assert.Equal(t, time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), bars[2].Time)
	assert.Equal(t, 0.0, bars[2].Volume)
}

func TestCSVSourceErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "missing close column", content: "time,open,high,low\n2024-01-01,1,1,1\n"},
		{name: "bad number", content: "time,open,high,low,close\n2024-01-01,x,1,1,1\n"},
		{name: "bad time", content: "time,open,high,low,close\nyesterday,1,1,1,1\n"},
		{name: "negative price", content: "time,open,high,low,close\n2024-01-01,1,1,1,-1\n"},
		{name: "high below low", content: "time,open,high,low,close\n2024-01-01,1,1,2,1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadBars(context.Background(), writeFile(t, "bars.csv", tt.content))
			require.Error(t, err)
			var dsErr DataSourceError
			require.True(t, errors.As(err, &dsErr))
			assert.Equal(t, ErrCodeInvalidData, dsErr.Code)
		})
	}
}

func TestJSONSource(t *testing.T) {
	path := writeFile(t, "bars.json", `[
  {"time": 1704067200, "open": 100, "high": 102, "low": 99, "close": 101},
  {"time": 1704070800000, "open": 101, "high": 103, "low": 100, "close": 102, "volume": 5},
  {"time": "2024-01-01T02:00:00Z", "open": 102, "high": 104, "low": 101, "close": 103}
]`)

	bars, err := LoadBars(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, bars, 3)

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, b := range bars {
		assert.Equal(t, start.Add(time.Duration(i)*time.Hour), b.Time)
	}
	assert.Equal(t, 5.0, bars[1].Volume)
}

func TestParquetRoundTrip(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := []models.Bar{
		{Time: start, Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 10},
		{Time: start.Add(time.Hour), Open: 1.5, High: 2.5, Low: 1, Close: 2, Volume: 20},
	}
	path := filepath.Join(t.TempDir(), "nested", "bars.parquet")
	require.NoError(t, WriteParquet(path, bars))

	got, err := LoadBars(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, bars, got)
}

func TestLoadBarsNotFound(t *testing.T) {
	for _, name := range []string{"missing.csv", "missing.json", "missing.parquet"} {
		_, err := LoadBars(context.Background(), filepath.Join(t.TempDir(), name))
		assert.ErrorIs(t, err, ErrNotFound, name)
	}
}

func TestDetectType(t *testing.T) {
	kind, err := DetectType("data/BTC.PARQUET")
	require.NoError(t, err)
	assert.Equal(t, ParquetSourceType, kind)

	_, err = DetectType("bars.xlsx")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestLoadAuxiliary(t *testing.T) {
	path := writeFile(t, "daily.csv", "time,open,high,low,close\n2024-01-01,1,1,1,1\n")
	aux, err := LoadAuxiliary(context.Background(), map[string]string{"1D": path})
	require.NoError(t, err)
	assert.Len(t, aux["1D"], 1)

	_, err = LoadAuxiliary(context.Background(), map[string]string{"1W": "nope.csv"})
	assert.Error(t, err)
}
