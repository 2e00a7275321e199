package sandbox

import (
	"fmt"
	"math"
	"strings"

	"github.com/dop251/goja"

	"github.com/yourusername/scriptlab/internal/models"
	"github.com/yourusername/scriptlab/internal/scanner"
)

// plotValueKeys is the lookup order for numbers inside plotted objects
var plotValueKeys = []string{"value", "close", "price", "histogram", "signal", "macd"}

func (e *env) installAnnotations() {
	e.set("signal", func(call goja.FunctionCall) goja.Value {
		idx, ok := e.barIndex(call.Argument(0))
		if !ok {
			return goja.Undefined()
		}
		kind, err := models.ParseSignalKind(stringArg(call, 1, ""))
		if err != nil {
			e.throw("signal: %s", err.Error())
		}
		e.addSignal(idx, kind, stringArg(call, 2, ""))
		return goja.Undefined()
	})

	e.set("autoSignal", func(call goja.FunctionCall) goja.Value {
		buy, ok := asArray(call.Argument(0))
		if !ok {
			return goja.Undefined()
		}
		sell, hasSell := asArray(call.Argument(1))
		var sells []goja.Value
		if hasSell {
			sells = e.elements(sell)
		}
		for i, b := range e.elements(buy) {
			if i >= e.market.Len() {
				break
			}
			switch {
			case b != nil && b.ToBoolean():
				e.addSignal(i, models.SignalBuy, fmt.Sprintf("BUY @ %.2f", e.market.Close[i]))
			case i < len(sells) && sells[i] != nil && sells[i].ToBoolean():
				e.addSignal(i, models.SignalSell, fmt.Sprintf("SELL @ %.2f", e.market.Close[i]))
			}
		}
		return goja.Undefined()
	})

	e.set("plot", func(call goja.FunctionCall) goja.Value {
		e.plot(stringArg(call, 0, ""), call.Argument(1), call.Argument(2))
		return goja.Undefined()
	})

	e.set("plotShape", func(call goja.FunctionCall) goja.Value {
		idx, ok := e.barIndex(call.Argument(0))
		if !ok {
			return goja.Undefined()
		}
		idx += intArg(call, 6, 0)
		if idx < 0 || idx >= e.market.Len() {
			return goja.Undefined()
		}
		e.shapes = append(e.shapes, models.Shape{
			ID:        fmt.Sprintf("shape-%d", len(e.shapes)),
			Title:     stringArg(call, 1, ""),
			Time:      e.market.Times[idx],
			Style:     stringArg(call, 2, "circle"),
			Location:  stringArg(call, 3, "aboveBar"),
			Color:     stringArg(call, 4, "blue"),
			Size:      stringArg(call, 5, "small"),
			Text:      stringArg(call, 7, ""),
			TextColor: stringArg(call, 8, "white"),
		})
		return goja.Undefined()
	})

	e.set("bgcolor", func(call goja.FunctionCall) goja.Value {
		idx, ok := e.barIndex(call.Argument(0))
		color := stringArg(call, 1, "")
		if !ok || color == "" {
			return goja.Undefined()
		}
		e.marks = append(e.marks, models.BackgroundMark{Time: e.market.Times[idx], Color: color})
		return goja.Undefined()
	})

	e.set("log", func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = e.format(arg)
		}
		e.logs = append(e.logs, strings.Join(parts, " "))
		return goja.Undefined()
	})
}

func (e *env) addSignal(idx int, kind models.SignalKind, label string) {
	e.signals = append(e.signals, models.Signal{
		Time:  e.market.Times[idx],
		Kind:  kind,
		Price: e.market.Close[idx],
		Label: label,
	})
}

// format renders a log argument the way JSON.stringify does; values it
// cannot represent print as an empty string.
func (e *env) format(v goja.Value) string {
	out, err := e.stringify(goja.Undefined(), v)
	if err != nil {
		return v.String()
	}
	if isNil(out) {
		return ""
	}
	return out.String()
}

// plot records a named series. The first plot with a given name wins.
func (e *env) plot(name string, values goja.Value, options goja.Value) {
	arr, ok := asArray(values)
	if !ok {
		return
	}
	elems := e.elements(arr)
	if len(elems) == 0 {
		return
	}
	if e.plotNames[name] {
		e.logs = append(e.logs, fmt.Sprintf("plot %q already defined, ignoring", name))
		return
	}

	var opts *goja.Object
	if !isNil(options) {
		opts = options.ToObject(e.vm)
	}
	color := ""
	if c := prop(opts, "color"); !isNil(c) {
		color = c.String()
	}
	kind := "line"
	if t := prop(opts, "type"); !isNil(t) {
		kind = t.String()
	}

	data := make([]models.PlotPoint, 0, len(elems))
	for i, el := range elems {
		if i >= e.market.Len() {
			break
		}
		v, ok := e.plotValue(el)
		if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		data = append(data, models.PlotPoint{Time: e.market.Times[i], Value: v, Color: color})
	}

	e.plotNames[name] = true
	e.plots = append(e.plots, models.Plot{Name: name, Type: kind, Color: color, Data: data})
}

func (e *env) plotValue(v goja.Value) (float64, bool) {
	if f, ok := numberValue(v); ok {
		return f, true
	}
	obj, ok := v.(*goja.Object)
	if !ok || isNil(v) {
		return 0, false
	}
	for _, key := range plotValueKeys {
		if f := prop(obj, key); !isNil(f) {
			return numberValue(f)
		}
	}
	if keys := obj.Keys(); len(keys) > 0 {
		return numberValue(prop(obj, keys[0]))
	}
	return 0, false
}

// installInputs binds input() and the frozen params object
func (e *env) installInputs() {
	e.set("input", func(call goja.FunctionCall) goja.Value {
		def := call.Argument(0)
		title := call.Argument(1)
		if isNil(title) {
			return def
		}
		if v, ok := e.overrides[title.String()]; ok && !math.IsNaN(v) {
			return e.vm.ToValue(v)
		}
		return def
	})

	values := make(map[string]float64)
	for title, p := range e.decl.FirstByTitle() {
		values[title] = p.DefaultValue
	}
	for title, v := range e.overrides {
		values[title] = v
	}
	params := e.vm.NewObject()
	for _, k := range scanner.OrderedKeys(e.decl, values) {
		_ = params.Set(k, values[k])
	}
	e.set("params", e.freeze(params))
}
