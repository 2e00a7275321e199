package datasource

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/yourusername/scriptlab/internal/models"
)

// BarRecord is the Parquet schema for bar data
type BarRecord struct {
	Timestamp int64   `parquet:"timestamp,timestamp(millisecond)"` // Unix ms
	Open      float64 `parquet:"open"`
	High      float64 `parquet:"high"`
	Low       float64 `parquet:"low"`
	Close     float64 `parquet:"close"`
	Volume    float64 `parquet:"volume"`
}

// ParquetSource reads bars from a Parquet file
type ParquetSource struct {
	path string
}

// NewParquetSource creates a Parquet bar source
func NewParquetSource(path string) *ParquetSource {
	return &ParquetSource{path: path}
}

// Name returns the name of the data source
func (s *ParquetSource) Name() string {
	return "parquet:" + s.path
}

// FetchBars reads the whole file
func (s *ParquetSource) FetchBars(ctx context.Context) ([]models.Bar, error) {
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return nil, NewDataSourceError(s.Name(), ErrCodeNotFound, s.path, ErrNotFound)
	}
	rows, err := parquet.ReadFile[BarRecord](s.path)
	if err != nil {
		return nil, NewDataSourceError(s.Name(), ErrCodeInvalidData, "read failed", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bars := make([]models.Bar, len(rows))
	for i, r := range rows {
		bars[i] = models.Bar{
			Time:   time.UnixMilli(r.Timestamp).UTC(),
			Open:   r.Open,
			High:   r.High,
			Low:    r.Low,
			Close:  r.Close,
			Volume: r.Volume,
		}
	}
	return finalize(s.Name(), bars)
}

// WriteParquet stores bars at path, creating parent directories
func WriteParquet(path string, bars []models.Bar) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	records := make([]BarRecord, len(bars))
	for i, b := range bars {
		records[i] = BarRecord{
			Timestamp: b.Time.UnixMilli(),
			Open:      b.Open,
			High:      b.High,
			Low:       b.Low,
			Close:     b.Close,
			Volume:    b.Volume,
		}
	}
	return parquet.WriteFile(path, records)
}
