package optimizer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/scriptlab/internal/scanner"
)

func TestRangeSweep(t *testing.T) {
	tests := []struct {
		name   string
		r      Range
		limit  int
		values []float64
		count  int
	}{
		{name: "integer steps", r: Range{Start: 5, End: 10, Step: 1}, limit: 100, values: []float64{5, 6, 7, 8, 9, 10}, count: 6},
		{name: "fractional steps stay exact", r: Range{Start: 0.1, End: 0.5, Step: 0.1}, limit: 100, values: []float64{0.1, 0.2, 0.3, 0.4, 0.5}, count: 5},
		{name: "non-positive step defaults to one", r: Range{Start: 1, End: 3, Step: 0}, limit: 100, values: []float64{1, 2, 3}, count: 3},
		{name: "end before start", r: Range{Start: 3, End: 1, Step: 1}, limit: 100, values: nil, count: 0},
		{name: "limited", r: Range{Start: 1, End: 1000, Step: 1}, limit: 3, values: []float64{1, 2, 3}, count: 1000},
		{name: "infinite end", r: Range{Start: 1, End: math.Inf(1), Step: 1}, limit: 100, values: nil, count: 0},
		{name: "NaN step", r: Range{Start: 1, End: 5, Step: math.NaN()}, limit: 100, values: nil, count: 0},
		{name: "count saturates", r: Range{Start: 1, End: 1e300, Step: 1}, limit: 3, values: []float64{1, 2, 3}, count: math.MaxInt32},
		{name: "rounded to cents", r: Range{Start: 0, End: 0.01, Step: 0.003}, limit: 100, values: []float64{0, 0, 0.01, 0.01}, count: 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, count := tt.r.sweep(tt.limit)
			assert.Equal(t, tt.count, count)
			if tt.values == nil {
				assert.Empty(t, values)
				return
			}
			assert.Equal(t, tt.values, values)
		})
	}
}

func TestEnumerateOrder(t *testing.T) {
	ranges := map[string]Range{
		"A": {Start: 1, End: 2, Step: 1},
		"B": {Start: 10, End: 30, Step: 10},
	}
	combos, total := enumerate([]string{"A", "B"}, ranges, 200)
	assert.Equal(t, 6, total)
	require.Len(t, combos, 6)
	assert.Equal(t, map[string]float64{"A": 1, "B": 10}, combos[0])
	assert.Equal(t, map[string]float64{"A": 1, "B": 30}, combos[2])
	assert.Equal(t, map[string]float64{"A": 2, "B": 10}, combos[3])

	combos, total = enumerate([]string{"A", "B"}, ranges, 4)
	assert.Equal(t, 6, total)
	assert.Len(t, combos, 4)

	combos, total = enumerate([]string{"A"}, map[string]Range{"A": {Start: 2, End: 1}}, 10)
	assert.Equal(t, 0, total)
	assert.Empty(t, combos)
}

func TestDefaultRanges(t *testing.T) {
	decl := scanner.Scan(`
const len = input(14, "RSI Length", {min: 5, max: 20});
const mult = input(3, "Mult");
const big = input(50, "Big", {step: 5});
const again = input(99, "Mult");
`)
	ranges := DefaultRanges(decl)
	assert.Equal(t, map[string]Range{
		"RSI Length": {Start: 5, End: 20, Step: 1},
		"Mult":       {Start: 1, End: 8, Step: 1},
		"Big":        {Start: 45, End: 55, Step: 5},
	}, ranges)
}
