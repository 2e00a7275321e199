package datasource

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/yourusername/scriptlab/internal/models"
)

// SourceType represents the file format of a data source
type SourceType string

const (
	CSVSourceType     SourceType = "csv"
	JSONSourceType    SourceType = "json"
	ParquetSourceType SourceType = "parquet"
)

var barValidator = validator.New()

// DetectType infers the source type from a file extension
func DetectType(path string) (SourceType, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return CSVSourceType, nil
	case ".json":
		return JSONSourceType, nil
	case ".parquet":
		return ParquetSourceType, nil
	default:
		return "", NewDataSourceError(path, ErrCodeUnsupported, "cannot infer format from extension", ErrUnsupportedFormat)
	}
}

// NewFileSource creates a DataSource for path based on its extension
func NewFileSource(path string) (DataSource, error) {
	kind, err := DetectType(path)
	if err != nil {
		return nil, err
	}
	switch kind {
	case CSVSourceType:
		return NewCSVSource(path), nil
	case JSONSourceType:
		return NewJSONSource(path), nil
	default:
		return NewParquetSource(path), nil
	}
}

// LoadBars is a shortcut for NewFileSource(path).FetchBars(ctx)
func LoadBars(ctx context.Context, path string) ([]models.Bar, error) {
	src, err := NewFileSource(path)
	if err != nil {
		return nil, err
	}
	return src.FetchBars(ctx)
}

// LoadAuxiliary loads one file per resolution label
func LoadAuxiliary(ctx context.Context, paths map[string]string) (map[string][]models.Bar, error) {
	out := make(map[string][]models.Bar, len(paths))
	for res, path := range paths {
		bars, err := LoadBars(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("resolution %s: %w", res, err)
		}
		out[res] = bars
	}
	return out, nil
}

// openFile maps a missing file to ErrNotFound
func openFile(source, path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, NewDataSourceError(source, ErrCodeNotFound, path, ErrNotFound)
		}
		return nil, err
	}
	return f, nil
}

// finalize validates each bar and sorts the series by time
func finalize(source string, bars []models.Bar) ([]models.Bar, error) {
	for i := range bars {
		if err := barValidator.Struct(bars[i]); err != nil {
			return nil, NewDataSourceError(source, ErrCodeInvalidData, fmt.Sprintf("bar %d", i), err)
		}
		if bars[i].High < bars[i].Low {
			return nil, NewDataSourceError(source, ErrCodeInvalidData, fmt.Sprintf("bar %d: high below low", i), ErrInvalidData)
		}
	}
	sort.SliceStable(bars, func(i, j int) bool {
		return bars[i].Time.Before(bars[j].Time)
	})
	return bars, nil
}
