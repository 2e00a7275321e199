package optimizer

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/yourusername/scriptlab/internal/scanner"
)

// DefaultMaxCombinations is the ceiling on combinations explored per search
const DefaultMaxCombinations = 200

// Range is an inclusive start..end sweep for one parameter
type Range struct {
	Start float64 `json:"start" yaml:"start"`
	End   float64 `json:"end" yaml:"end"`
	Step  float64 `json:"step" yaml:"step"`
}

// DefaultRanges derives a sweep for every declared parameter from its
// options, falling back to default±5 (floored at 1) with step 1.
func DefaultRanges(decl scanner.Declarations) map[string]Range {
	first := decl.FirstByTitle()
	out := make(map[string]Range, len(first))
	for title, p := range first {
		r := Range{
			Start: math.Max(1, p.DefaultValue-5),
			End:   p.DefaultValue + 5,
			Step:  1,
		}
		if p.Min != nil {
			r.Start = *p.Min
		}
		if p.Max != nil {
			r.End = *p.Max
		}
		if p.Step != nil {
			r.Step = *p.Step
		}
		out[title] = r
	}
	return out
}

// finite reports whether every bound of r is a real number
func (r Range) finite() bool {
	for _, v := range []float64{r.Start, r.End, r.Step} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// sweep returns at most limit values of r and the full count. Values are
// start + i*step rounded to two decimals; a non-positive step counts as 1.
// A range with a NaN or infinite bound is empty.
func (r Range) sweep(limit int) ([]float64, int) {
	if !r.finite() {
		return nil, 0
	}
	step := decimal.NewFromFloat(r.Step)
	if !step.IsPositive() {
		step = decimal.NewFromInt(1)
	}
	start := decimal.NewFromFloat(r.Start)
	end := decimal.NewFromFloat(r.End)
	if end.LessThan(start) {
		return nil, 0
	}

	count := int64(math.MaxInt32)
	if steps := end.Sub(start).Div(step).Floor(); steps.LessThan(decimal.NewFromInt(math.MaxInt32)) {
		count = steps.IntPart() + 1
	}
	n := int(count)
	if n > limit {
		n = limit
	}

	values := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		v := start.Add(step.Mul(decimal.NewFromInt(int64(i)))).Round(2)
		values = append(values, v.InexactFloat64())
	}
	return values, int(count)
}

// enumerate builds the cartesian product over keys with the first key varying
// slowest, keeping only the first limit combinations. total is the size of
// the full product, saturating at math.MaxInt32.
func enumerate(keys []string, ranges map[string]Range, limit int) (combos []map[string]float64, total int) {
	if len(keys) == 0 || limit <= 0 {
		return nil, 0
	}

	values := make([][]float64, len(keys))
	total = 1
	for i, k := range keys {
		vals, count := ranges[k].sweep(limit)
		if count == 0 {
			return nil, 0
		}
		values[i] = vals
		if total > math.MaxInt32/count {
			total = math.MaxInt32
		} else {
			total *= count
		}
	}

	current := make(map[string]float64, len(keys))
	var generate func(depth int) bool
	generate = func(depth int) bool {
		if depth == len(keys) {
			combo := make(map[string]float64, len(current))
			for k, v := range current {
				combo[k] = v
			}
			combos = append(combos, combo)
			return len(combos) < limit
		}
		for _, v := range values[depth] {
			current[keys[depth]] = v
			if !generate(depth + 1) {
				return false
			}
		}
		return true
	}
	generate(0)
	return combos, total
}
