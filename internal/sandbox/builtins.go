package sandbox

import (
	"math"

	"github.com/dop251/goja"

	"github.com/yourusername/scriptlab/internal/indicators"
	"github.com/yourusername/scriptlab/internal/series"
)

// installSeries binds the read-only price arrays
func (e *env) installSeries() {
	m := e.market
	e.set("open", e.freeze(e.array(m.Open)))
	e.set("high", e.freeze(e.array(m.High)))
	e.set("low", e.freeze(e.array(m.Low)))
	e.set("close", e.freeze(e.array(m.Close)))
	e.set("volume", e.freeze(e.array(m.Volume)))
	e.set("times", e.freeze(e.array(m.UnixTimes())))
	e.set("bar_index", e.freeze(e.array(m.BarIndex())))
	e.set("hl2", e.freeze(e.array(m.HL2())))
	e.set("hlc3", e.freeze(e.array(m.HLC3())))
	e.set("ohlc4", e.freeze(e.array(m.OHLC4())))
	e.set("tr", e.freeze(e.array(m.TrueRange())))
}

func (e *env) installHelpers() {
	e.set("na", func(call goja.FunctionCall) goja.Value {
		v := call.Argument(0)
		return e.vm.ToValue(isNil(v) || math.IsNaN(v.ToFloat()))
	})

	e.set("nz", func(call goja.FunctionCall) goja.Value {
		v := call.Argument(0)
		repl := call.Argument(1)
		if isNil(repl) {
			repl = e.vm.ToValue(0)
		}
		if xs, ok := e.floats(v); ok {
			r := repl.ToFloat()
			for i, x := range xs {
				if math.IsNaN(x) {
					xs[i] = r
				}
			}
			return e.array(xs)
		}
		if isNil(v) || math.IsNaN(v.ToFloat()) {
			return repl
		}
		return v
	})

	e.set("change", func(call goja.FunctionCall) goja.Value {
		return e.array(indicators.Change(e.seriesArg(call, 0, "change"), intArg(call, 1, 1)))
	})
	e.set("highest", func(call goja.FunctionCall) goja.Value {
		return e.array(indicators.Highest(e.seriesArg(call, 0, "highest"), intArg(call, 1, 14)))
	})
	e.set("lowest", func(call goja.FunctionCall) goja.Value {
		return e.array(indicators.Lowest(e.seriesArg(call, 0, "lowest"), intArg(call, 1, 14)))
	})
	e.set("rising", func(call goja.FunctionCall) goja.Value {
		return e.boolArray(indicators.Rising(e.seriesArg(call, 0, "rising"), intArg(call, 1, 1)))
	})
	e.set("falling", func(call goja.FunctionCall) goja.Value {
		return e.boolArray(indicators.Falling(e.seriesArg(call, 0, "falling"), intArg(call, 1, 1)))
	})
	e.set("crossover", func(call goja.FunctionCall) goja.Value {
		a, b := e.crossArgs(call.Argument(0), call.Argument(1))
		return e.boolArray(indicators.Crossover(a, b))
	})
	e.set("crossunder", func(call goja.FunctionCall) goja.Value {
		a, b := e.crossArgs(call.Argument(0), call.Argument(1))
		return e.boolArray(indicators.Crossunder(a, b))
	})
}

// crossArgs accepts arrays or numbers; a number is held constant across the
// other argument's length. Two numbers produce empty series.
func (e *env) crossArgs(a, b goja.Value) ([]float64, []float64) {
	as, aok := e.floats(a)
	bs, bok := e.floats(b)
	switch {
	case aok && bok:
		return as, bs
	case aok:
		return as, indicators.Constant(b.ToFloat(), len(as))
	case bok:
		return indicators.Constant(a.ToFloat(), len(bs)), bs
	default:
		return nil, nil
	}
}

func (e *env) installIndicators() {
	m := e.market

	e.set("sma", func(call goja.FunctionCall) goja.Value {
		return e.array(indicators.SMA(e.seriesArg(call, 0, "sma"), intArg(call, 1, 14)))
	})
	e.set("ema", func(call goja.FunctionCall) goja.Value {
		return e.array(indicators.EMA(e.seriesArg(call, 0, "ema"), intArg(call, 1, 14)))
	})
	e.set("rsi", func(call goja.FunctionCall) goja.Value {
		return e.array(indicators.RSI(e.seriesArg(call, 0, "rsi"), intArg(call, 1, 14)))
	})
	e.set("wma", func(call goja.FunctionCall) goja.Value {
		return e.array(indicators.WMA(e.seriesArg(call, 0, "wma"), intArg(call, 1, 14)))
	})
	e.set("atr", func(call goja.FunctionCall) goja.Value {
		return e.array(indicators.ATR(m.High, m.Low, m.Close, intArg(call, 0, 14)))
	})
	e.set("cci", func(call goja.FunctionCall) goja.Value {
		return e.array(indicators.CCI(m.High, m.Low, m.Close, intArg(call, 0, 20)))
	})
	e.set("macd", func(call goja.FunctionCall) goja.Value {
		macd, sig, hist := indicators.MACD(e.seriesArg(call, 0, "macd"),
			intArg(call, 1, 12), intArg(call, 2, 26), intArg(call, 3, 9))
		return e.object(map[string][]float64{"macd": macd, "signal": sig, "histogram": hist},
			"macd", "signal", "histogram")
	})
	e.set("bb", func(call goja.FunctionCall) goja.Value {
		upper, middle, lower := indicators.Bollinger(e.seriesArg(call, 0, "bb"),
			intArg(call, 1, 20), floatArg(call, 2, 2))
		return e.object(map[string][]float64{"upper": upper, "middle": middle, "lower": lower},
			"upper", "middle", "lower")
	})
	e.set("stoch", func(call goja.FunctionCall) goja.Value {
		k, d := indicators.Stochastic(m.High, m.Low, m.Close, intArg(call, 0, 14), intArg(call, 1, 3))
		return e.object(map[string][]float64{"k": k, "d": d}, "k", "d")
	})
	e.set("supertrend", func(call goja.FunctionCall) goja.Value {
		line, dir := indicators.SuperTrend(m.High, m.Low, m.Close, intArg(call, 0, 10), floatArg(call, 1, 3))
		return e.object(map[string][]float64{"supertrend": line, "direction": dir}, "supertrend", "direction")
	})

	e.set("security", func(call goja.FunctionCall) goja.Value {
		res := stringArg(call, 0, "")
		field := stringArg(call, 1, "close")
		aux, ok := e.auxSeries(res)
		if !ok {
			e.throw("security: no bars supplied for resolution %q", res)
		}
		values := aux.Field(field)
		if values == nil {
			e.throw("security: unknown field %q", field)
		}
		return e.freeze(e.array(series.AlignTo(m.Times, aux.Times, values)))
	})

	e.installRawIndicators()
}

func (e *env) auxSeries(res string) (*series.Market, bool) {
	if m, ok := e.auxMarket[res]; ok {
		return m, true
	}
	bars, ok := e.aux[res]
	if !ok || len(bars) == 0 {
		return nil, false
	}
	m := series.FromBars(bars)
	e.auxMarket[res] = m
	return m, true
}

// installRawIndicators binds NAME.calculate(input) objects taking a single
// options object. Price inputs default to the primary series.
func (e *env) installRawIndicators() {
	m := e.market

	movingAverage := func(name string, fn func([]float64, int) []float64) {
		e.calculator(name, func(in *goja.Object) goja.Value {
			return e.array(fn(e.inputSeries(in, "values", m.Close), intArg(argOf(in, "period"), 0, 14)))
		})
	}
	movingAverage("SMA", indicators.SMA)
	movingAverage("EMA", indicators.EMA)
	movingAverage("RSI", indicators.RSI)
	movingAverage("WMA", indicators.WMA)

	e.calculator("ATR", func(in *goja.Object) goja.Value {
		return e.array(indicators.ATR(e.inputSeries(in, "high", m.High), e.inputSeries(in, "low", m.Low),
			e.inputSeries(in, "close", m.Close), intArg(argOf(in, "period"), 0, 14)))
	})
	e.calculator("CCI", func(in *goja.Object) goja.Value {
		return e.array(indicators.CCI(e.inputSeries(in, "high", m.High), e.inputSeries(in, "low", m.Low),
			e.inputSeries(in, "close", m.Close), intArg(argOf(in, "period"), 0, 20)))
	})
	e.calculator("MACD", func(in *goja.Object) goja.Value {
		macd, sig, hist := indicators.MACD(e.inputSeries(in, "values", m.Close),
			intArg(argOf(in, "fastPeriod"), 0, 12), intArg(argOf(in, "slowPeriod"), 0, 26),
			intArg(argOf(in, "signalPeriod"), 0, 9))
		return e.records(len(macd), func(i int, o *goja.Object) {
			_ = o.Set("MACD", macd[i])
			_ = o.Set("signal", sig[i])
			_ = o.Set("histogram", hist[i])
		})
	})
	e.calculator("BollingerBands", func(in *goja.Object) goja.Value {
		upper, middle, lower := indicators.Bollinger(e.inputSeries(in, "values", m.Close),
			intArg(argOf(in, "period"), 0, 20), floatArg(argOf(in, "stdDev"), 0, 2))
		return e.records(len(middle), func(i int, o *goja.Object) {
			_ = o.Set("upper", upper[i])
			_ = o.Set("middle", middle[i])
			_ = o.Set("lower", lower[i])
		})
	})
	e.calculator("Stochastic", func(in *goja.Object) goja.Value {
		k, d := indicators.Stochastic(e.inputSeries(in, "high", m.High), e.inputSeries(in, "low", m.Low),
			e.inputSeries(in, "close", m.Close), intArg(argOf(in, "period"), 0, 14),
			intArg(argOf(in, "signalPeriod"), 0, 3))
		return e.records(len(k), func(i int, o *goja.Object) {
			_ = o.Set("k", k[i])
			_ = o.Set("d", d[i])
		})
	})
}

func (e *env) calculator(name string, fn func(in *goja.Object) goja.Value) {
	obj := e.vm.NewObject()
	_ = obj.Set("calculate", func(call goja.FunctionCall) goja.Value {
		v := call.Argument(0)
		if isNil(v) {
			e.throw("%s.calculate: input object required", name)
		}
		return fn(v.ToObject(e.vm))
	})
	e.set(name, e.freeze(obj))
}

func (e *env) inputSeries(in *goja.Object, key string, def []float64) []float64 {
	v := prop(in, key)
	if isNil(v) {
		return def
	}
	xs, ok := e.floats(v)
	if !ok {
		e.throw("input.%s must be an array", key)
	}
	return xs
}

func (e *env) records(n int, fill func(i int, o *goja.Object)) *goja.Object {
	items := make([]interface{}, n)
	for i := range items {
		o := e.vm.NewObject()
		fill(i, o)
		items[i] = o
	}
	return e.vm.NewArray(items...)
}

// argOf adapts an object property to the positional argument helpers
func argOf(obj *goja.Object, key string) goja.FunctionCall {
	return goja.FunctionCall{Arguments: []goja.Value{prop(obj, key)}}
}
