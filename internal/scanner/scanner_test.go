package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanInputWithOptions(t *testing.T) {
	decl := Scan(`const len = input(14, "RSI Length", {min: 5, max: 20});`)

	require.Len(t, decl.Parameters, 1)
	p := decl.Parameters[0]
	assert.Equal(t, "RSI Length", p.Title)
	assert.Equal(t, 14.0, p.DefaultValue)
	require.NotNil(t, p.Min)
	require.NotNil(t, p.Max)
	assert.Equal(t, 5.0, *p.Min)
	assert.Equal(t, 20.0, *p.Max)
	assert.Nil(t, p.Step)
}

func TestScanOrderAndDuplicates(t *testing.T) {
	src := `
const fast = input(9, 'Fast')
const slow = input(21.5, "Slow", { step: 0.5 })
const again = input(10, "Fast")
`
	decl := Scan(src)

	require.Len(t, decl.Parameters, 3)
	assert.Equal(t, "Fast", decl.Parameters[0].Title)
	assert.Equal(t, "Slow", decl.Parameters[1].Title)
	assert.Equal(t, 21.5, decl.Parameters[1].DefaultValue)
	assert.Equal(t, 0.5, *decl.Parameters[1].Step)
	assert.Equal(t, "Fast", decl.Parameters[2].Title)
	assert.Less(t, decl.Parameters[0].Offset, decl.Parameters[1].Offset)

	assert.Equal(t, []string{"Fast", "Slow"}, decl.Titles())
	assert.Equal(t, 9.0, decl.FirstByTitle()["Fast"].DefaultValue)
}

func TestScanSkipsMalformed(t *testing.T) {
	decl := Scan(`
const a = input(abc, "Bad")
const b = input(3, "Good")
const c = input(, "Empty")
`)
	require.Len(t, decl.Parameters, 1)
	assert.Equal(t, "Good", decl.Parameters[0].Title)
}

func TestScanSkipsNonNumericDefaults(t *testing.T) {
	decl := Scan(`
const a = input(Infinity, "Inf")
const b = input(-Infinity, "NegInf")
const c = input(NaN, "NaN")
const d = input(Inf, "Short")
const e = input(1e999, "Overflow")
const f = input(.5, "Half", {max: 1e999})
`)
	require.Len(t, decl.Parameters, 1)
	p := decl.Parameters[0]
	assert.Equal(t, "Half", p.Title)
	assert.Equal(t, 0.5, p.DefaultValue)
	assert.Nil(t, p.Max)
}

func TestScanIgnoresComments(t *testing.T) {
	decl := Scan(`
// const a = input(1, "Commented")
/* input(2, "Block") */
const url = "http://example.com" // trailing
const b = input(3, "Live")
`)
	require.Len(t, decl.Parameters, 1)
	assert.Equal(t, "Live", decl.Parameters[0].Title)
}

func TestScanResolutions(t *testing.T) {
	decl := Scan(`
const d = security("1D")
const dc = security('1D', 'close')
const w = security("1W", "high")
`)
	assert.Equal(t, []string{"1D", "1W"}, decl.Resolutions)
}

func TestStripCommentsKeepsOffsets(t *testing.T) {
	src := "a // x\nb /* y */ 'c // d'"
	out := StripComments(src)
	assert.Len(t, out, len(src))
	assert.Equal(t, "a     \nb         'c // d'", out)
}

func TestOrderedKeys(t *testing.T) {
	decl := Scan(`input(1, "B"); input(2, "A")`)
	keys := OrderedKeys(decl, map[string]float64{"A": 1, "B": 2, "Z": 0, "C": 0})
	assert.Equal(t, []string{"B", "A", "C", "Z"}, keys)
}
