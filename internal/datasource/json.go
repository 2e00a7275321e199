package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/yourusername/scriptlab/internal/models"
)

// jsonBar accepts time as unix seconds, unix milliseconds or a string
type jsonBar struct {
	Time   json.RawMessage `json:"time"`
	Open   float64         `json:"open"`
	High   float64         `json:"high"`
	Low    float64         `json:"low"`
	Close  float64         `json:"close"`
	Volume float64         `json:"volume"`
}

// JSONSource reads bars from a JSON array
type JSONSource struct {
	path string
}

// NewJSONSource creates a JSON bar source
func NewJSONSource(path string) *JSONSource {
	return &JSONSource{path: path}
}

// Name returns the name of the data source
func (s *JSONSource) Name() string {
	return "json:" + s.path
}

// FetchBars reads the whole file
func (s *JSONSource) FetchBars(ctx context.Context) ([]models.Bar, error) {
	f, err := openFile(s.Name(), s.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var raw []jsonBar
	if err := json.NewDecoder(f).Decode(&raw); err != nil {
		return nil, NewDataSourceError(s.Name(), ErrCodeInvalidData, "decode failed", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bars := make([]models.Bar, 0, len(raw))
	for i, r := range raw {
		t, err := decodeJSONTime(r.Time)
		if err != nil {
			return nil, NewDataSourceError(s.Name(), ErrCodeInvalidData, fmt.Sprintf("bar %d", i), err)
		}
		bars = append(bars, models.Bar{
			Time:   t,
			Open:   r.Open,
			High:   r.High,
			Low:    r.Low,
			Close:  r.Close,
			Volume: r.Volume,
		})
	}
	return finalize(s.Name(), bars)
}

func decodeJSONTime(raw json.RawMessage) (time.Time, error) {
	if len(raw) == 0 {
		return time.Time{}, fmt.Errorf("missing time")
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return parseTime(s)
	}
	n, err := strconv.ParseFloat(string(raw), 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized time %s", raw)
	}
	return unixTime(n), nil
}
