// Package scanner statically extracts input() and security() declarations from
// strategy script text. It never executes the script.
package scanner

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/yourusername/scriptlab/internal/models"
)

var (
	inputPattern      = regexp.MustCompile(`\binput\s*\(\s*([^,()]+?)\s*,\s*(?:"([^"]*)"|'([^']*)')\s*(?:,\s*(\{[^}]*\}))?\s*\)`)
	numberPattern     = regexp.MustCompile(`^[-+]?(?:\d+(?:\.\d*)?|\.\d+)(?:[eE][-+]?\d+)?$`)
	optionPattern     = regexp.MustCompile(`\b(min|max|step)\s*:\s*(-?\d+(?:\.\d+)?(?:[eE][-+]?\d+)?)`)
	resolutionPattern = regexp.MustCompile(`\bsecurity\s*\(\s*(["'])([^"']+)(["'])`)
)

// Declarations is the static view of a script
type Declarations struct {
	Parameters  []models.ScriptParameter `json:"parameters"`
	Resolutions []string                 `json:"resolutions"`
}

// Scan returns every parseable input() declaration in source order and the
// unique auxiliary resolutions requested through security().
// Declarations with an unparseable default are skipped.
func Scan(src string) Declarations {
	code := StripComments(src)

	decl := Declarations{
		Parameters:  []models.ScriptParameter{},
		Resolutions: []string{},
	}

	for _, m := range inputPattern.FindAllStringSubmatchIndex(code, -1) {
		raw := strings.TrimSpace(code[m[2]:m[3]])
		if !numberPattern.MatchString(raw) {
			continue
		}
		def, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			continue
		}
		var title string
		if m[4] >= 0 {
			title = code[m[4]:m[5]]
		} else {
			title = code[m[6]:m[7]]
		}
		param := models.ScriptParameter{
			Title:        title,
			DefaultValue: def,
			Offset:       m[0],
		}
		if m[8] >= 0 {
			applyOptions(&param, code[m[8]:m[9]])
		}
		decl.Parameters = append(decl.Parameters, param)
	}

	seen := make(map[string]bool)
	for _, m := range resolutionPattern.FindAllStringSubmatch(code, -1) {
		if m[1] != m[3] {
			continue
		}
		res := strings.TrimSpace(m[2])
		if res == "" || seen[res] {
			continue
		}
		seen[res] = true
		decl.Resolutions = append(decl.Resolutions, res)
	}

	return decl
}

func applyOptions(param *models.ScriptParameter, opts string) {
	for _, m := range optionPattern.FindAllStringSubmatch(opts, -1) {
		v, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			continue
		}
		switch m[1] {
		case "min":
			param.Min = &v
		case "max":
			param.Max = &v
		case "step":
			param.Step = &v
		}
	}
}

// FirstByTitle indexes parameters by title, keeping the first declaration of each
func (d Declarations) FirstByTitle() map[string]models.ScriptParameter {
	out := make(map[string]models.ScriptParameter, len(d.Parameters))
	for _, p := range d.Parameters {
		if _, ok := out[p.Title]; !ok {
			out[p.Title] = p
		}
	}
	return out
}

// Titles lists unique titles in declaration order
func (d Declarations) Titles() []string {
	seen := make(map[string]bool, len(d.Parameters))
	titles := make([]string, 0, len(d.Parameters))
	for _, p := range d.Parameters {
		if seen[p.Title] {
			continue
		}
		seen[p.Title] = true
		titles = append(titles, p.Title)
	}
	return titles
}

// OrderedKeys returns the keys of values ordered by declaration in d,
// followed by undeclared keys sorted alphabetically.
func OrderedKeys[V any](d Declarations, values map[string]V) []string {
	keys := make([]string, 0, len(values))
	for _, t := range d.Titles() {
		if _, ok := values[t]; ok {
			keys = append(keys, t)
		}
	}
	declared := make(map[string]bool, len(keys))
	for _, k := range keys {
		declared[k] = true
	}
	var rest []string
	for k := range values {
		if !declared[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}
