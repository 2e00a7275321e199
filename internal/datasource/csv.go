package datasource

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/yourusername/scriptlab/internal/models"
)

var csvColumns = map[string]string{
	"time":      "time",
	"timestamp": "time",
	"date":      "time",
	"datetime":  "time",
	"open":      "open",
	"high":      "high",
	"low":       "low",
	"close":     "close",
	"volume":    "volume",
}

// CSVSource reads bars from a headed CSV file. The time column may be named
// time, timestamp, date or datetime; volume is optional.
type CSVSource struct {
	path string
}

// NewCSVSource creates a CSV bar source
func NewCSVSource(path string) *CSVSource {
	return &CSVSource{path: path}
}

// Name returns the name of the data source
func (s *CSVSource) Name() string {
	return "csv:" + s.path
}

// FetchBars reads the whole file
func (s *CSVSource) FetchBars(ctx context.Context) ([]models.Bar, error) {
	f, err := openFile(s.Name(), s.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return s.read(ctx, f)
}

func (s *CSVSource) read(ctx context.Context, r io.Reader) ([]models.Bar, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, NewDataSourceError(s.Name(), ErrCodeInvalidData, "missing header", err)
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		if col, ok := csvColumns[strings.ToLower(strings.TrimSpace(h))]; ok {
			index[col] = i
		}
	}
	for _, col := range []string{"time", "open", "high", "low", "close"} {
		if _, ok := index[col]; !ok {
			return nil, NewDataSourceError(s.Name(), ErrCodeInvalidData, "missing column "+col, ErrInvalidData)
		}
	}

	var bars []models.Bar
	for line := 2; ; line++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, NewDataSourceError(s.Name(), ErrCodeInvalidData, fmt.Sprintf("line %d", line), err)
		}
		bar, err := parseCSVBar(record, index)
		if err != nil {
			return nil, NewDataSourceError(s.Name(), ErrCodeInvalidData, fmt.Sprintf("line %d", line), err)
		}
		bars = append(bars, bar)
	}
	return finalize(s.Name(), bars)
}

func parseCSVBar(record []string, index map[string]int) (models.Bar, error) {
	field := func(col string) (float64, error) {
		i, ok := index[col]
		if !ok || i >= len(record) || strings.TrimSpace(record[i]) == "" {
			return 0, nil
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(record[i]), 64)
		if err != nil {
			return 0, fmt.Errorf("column %s: %w", col, err)
		}
		return v, nil
	}

	var bar models.Bar
	if index["time"] >= len(record) {
		return bar, fmt.Errorf("short record")
	}
	t, err := parseTime(record[index["time"]])
	if err != nil {
		return bar, err
	}
	bar.Time = t
	for col, dst := range map[string]*float64{
		"open":   &bar.Open,
		"high":   &bar.High,
		"low":    &bar.Low,
		"close":  &bar.Close,
		"volume": &bar.Volume,
	} {
		v, err := field(col)
		if err != nil {
			return bar, err
		}
		*dst = v
	}
	return bar, nil
}
