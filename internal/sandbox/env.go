package sandbox

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/dop251/goja"

	"github.com/yourusername/scriptlab/internal/models"
	"github.com/yourusername/scriptlab/internal/scanner"
	"github.com/yourusername/scriptlab/internal/series"
)

// env is the state of one execution. It is owned by the goroutine running the
// script and discarded afterwards.
type env struct {
	vm        *goja.Runtime
	market    *series.Market
	aux       map[string][]models.Bar
	auxMarket map[string]*series.Market
	overrides map[string]float64
	decl      scanner.Declarations

	signals   []models.Signal
	plots     []models.Plot
	plotNames map[string]bool
	shapes    []models.Shape
	marks     []models.BackgroundMark
	logs      []string

	stringify goja.Callable
	freezeFn  goja.Callable
	setErr    error
}

func newEnv(vm *goja.Runtime, req Request, decl scanner.Declarations) *env {
	return &env{
		vm:        vm,
		market:    series.FromBars(req.Bars),
		aux:       req.AuxBars,
		auxMarket: make(map[string]*series.Market),
		overrides: req.Overrides,
		decl:      decl,
		signals:   []models.Signal{},
		plots:     []models.Plot{},
		plotNames: make(map[string]bool),
		shapes:    []models.Shape{},
		marks:     []models.BackgroundMark{},
		logs:      []string{},
	}
}

// run installs the builtin surface and executes prog
func (e *env) run(prog *goja.Program) (res *models.ScriptResult) {
	defer func() {
		if r := recover(); r != nil {
			res = models.NewFailedResult(models.ScriptErrorRuntime, fmt.Sprintf("internal error: %v", r), e.logs)
		}
	}()

	if err := e.install(); err != nil {
		return models.NewFailedResult(models.ScriptErrorRuntime, err.Error(), e.logs)
	}
	if _, err := e.vm.RunProgram(prog); err != nil {
		return e.failure(err)
	}

	return &models.ScriptResult{
		Signals:         e.signals,
		Plots:           e.plots,
		Shapes:          e.shapes,
		BackgroundMarks: e.marks,
		Logs:            e.logs,
	}
}

func (e *env) failure(err error) *models.ScriptResult {
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		if interrupted.Value() == models.ErrScriptCanceled {
			return models.NewFailedResult(models.ScriptErrorCanceled, models.ErrScriptCanceled.Error(), e.logs)
		}
		return models.NewFailedResult(models.ScriptErrorTimeout, models.ErrScriptTimeout.Error(), e.logs)
	}

	var ex *goja.Exception
	if errors.As(err, &ex) {
		return models.NewFailedResult(models.ScriptErrorRuntime, ex.Value().String(), e.logs)
	}
	return models.NewFailedResult(models.ScriptErrorRuntime, err.Error(), e.logs)
}

func (e *env) install() error {
	json := e.vm.Get("JSON").ToObject(e.vm)
	stringify, ok := goja.AssertFunction(json.Get("stringify"))
	if !ok {
		return errors.New("JSON.stringify unavailable")
	}
	object := e.vm.Get("Object").ToObject(e.vm)
	freeze, ok := goja.AssertFunction(object.Get("freeze"))
	if !ok {
		return errors.New("Object.freeze unavailable")
	}
	e.stringify = stringify
	e.freezeFn = freeze

	e.installSeries()
	e.installHelpers()
	e.installIndicators()
	e.installAnnotations()
	e.installInputs()
	return e.setErr
}

func (e *env) set(name string, value interface{}) {
	if err := e.vm.Set(name, value); err != nil && e.setErr == nil {
		e.setErr = fmt.Errorf("install %s: %w", name, err)
	}
}

func (e *env) throw(format string, args ...interface{}) {
	panic(e.vm.NewTypeError(append([]interface{}{format}, args...)...))
}

// Conversions between goja values and Go slices.

func isNil(v goja.Value) bool {
	return v == nil || goja.IsUndefined(v) || goja.IsNull(v)
}

func asArray(v goja.Value) (*goja.Object, bool) {
	if isNil(v) {
		return nil, false
	}
	obj, ok := v.(*goja.Object)
	if !ok || obj.ClassName() != "Array" {
		return nil, false
	}
	return obj, true
}

// numberValue reports v as a float when it is a JS number
func numberValue(v goja.Value) (float64, bool) {
	if isNil(v) {
		return 0, false
	}
	switch v.Export().(type) {
	case int64, float64:
		return v.ToFloat(), true
	default:
		return 0, false
	}
}

func exportedNumber(x interface{}) float64 {
	switch n := x.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case int:
		return float64(n)
	case bool:
		if n {
			return 1
		}
		return 0
	default:
		return math.NaN()
	}
}

// floats converts a JS array to []float64. Non-numeric elements become NaN.
func (e *env) floats(v goja.Value) ([]float64, bool) {
	obj, ok := asArray(v)
	if !ok {
		return nil, false
	}
	if raw, ok := obj.Export().([]interface{}); ok {
		out := make([]float64, len(raw))
		for i, x := range raw {
			out[i] = exportedNumber(x)
		}
		return out, true
	}
	elems := e.elements(obj)
	out := make([]float64, len(elems))
	for i, el := range elems {
		if f, ok := numberValue(el); ok {
			out[i] = f
		} else {
			out[i] = math.NaN()
		}
	}
	return out, true
}

func (e *env) elements(obj *goja.Object) []goja.Value {
	l := obj.Get("length")
	if l == nil {
		return nil
	}
	out := make([]goja.Value, int(l.ToInteger()))
	for i := range out {
		out[i] = obj.Get(strconv.Itoa(i))
	}
	return out
}

func (e *env) array(xs []float64) *goja.Object {
	items := make([]interface{}, len(xs))
	for i, x := range xs {
		items[i] = x
	}
	return e.vm.NewArray(items...)
}

func (e *env) boolArray(xs []bool) *goja.Object {
	items := make([]interface{}, len(xs))
	for i, x := range xs {
		items[i] = x
	}
	return e.vm.NewArray(items...)
}

func (e *env) freeze(obj *goja.Object) *goja.Object {
	if _, err := e.freezeFn(goja.Undefined(), obj); err != nil && e.setErr == nil {
		e.setErr = err
	}
	return obj
}

func (e *env) object(fields map[string][]float64, order ...string) *goja.Object {
	obj := e.vm.NewObject()
	for _, k := range order {
		_ = obj.Set(k, e.array(fields[k]))
	}
	return obj
}

// Argument helpers.

func (e *env) seriesArg(call goja.FunctionCall, i int, fn string) []float64 {
	xs, ok := e.floats(call.Argument(i))
	if !ok {
		e.throw("%s: argument %d must be an array", fn, i+1)
	}
	return xs
}

func intArg(call goja.FunctionCall, i, def int) int {
	v := call.Argument(i)
	if isNil(v) {
		return def
	}
	f := v.ToFloat()
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return def
	}
	return int(f)
}

func floatArg(call goja.FunctionCall, i int, def float64) float64 {
	v := call.Argument(i)
	if isNil(v) {
		return def
	}
	f := v.ToFloat()
	if math.IsNaN(f) {
		return def
	}
	return f
}

func stringArg(call goja.FunctionCall, i int, def string) string {
	v := call.Argument(i)
	if isNil(v) {
		return def
	}
	return v.String()
}

// barIndex validates a script-supplied bar index
func (e *env) barIndex(v goja.Value) (int, bool) {
	f, ok := numberValue(v)
	if !ok || math.IsNaN(f) {
		return 0, false
	}
	i := int(f)
	if i < 0 || i >= e.market.Len() {
		return 0, false
	}
	return i, true
}

func prop(obj *goja.Object, name string) goja.Value {
	if obj == nil {
		return goja.Undefined()
	}
	v := obj.Get(name)
	if v == nil {
		return goja.Undefined()
	}
	return v
}
