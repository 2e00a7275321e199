package models

import "time"

// ScriptParameter describes a tunable numeric knob declared with input()
type ScriptParameter struct {
	Title        string   `json:"title"`
	DefaultValue float64  `json:"default_value"`
	Min          *float64 `json:"min,omitempty"`
	Max          *float64 `json:"max,omitempty"`
	Step         *float64 `json:"step,omitempty"`
	Offset       int      `json:"offset"`
}

// PlotPoint is one value of a plotted series
type PlotPoint struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
	Color string    `json:"color,omitempty"`
}

// Plot is a named series produced by plot()
type Plot struct {
	Name  string      `json:"name"`
	Type  string      `json:"type"`
	Color string      `json:"color,omitempty"`
	Data  []PlotPoint `json:"data"`
}

// Shape is a marker annotation produced by plotShape()
type Shape struct {
	ID        string    `json:"id"`
	Title     string    `json:"title,omitempty"`
	Time      time.Time `json:"time"`
	Style     string    `json:"type"`
	Location  string    `json:"position"`
	Color     string    `json:"color"`
	Size      string    `json:"size"`
	Text      string    `json:"text,omitempty"`
	TextColor string    `json:"text_color,omitempty"`
}

// BackgroundMark colors the chart background behind one bar
type BackgroundMark struct {
	Time  time.Time `json:"time"`
	Color string    `json:"color"`
}

// ScriptErrorKind classifies why an execution failed
type ScriptErrorKind string

const (
	ScriptErrorCompile      ScriptErrorKind = "compile"
	ScriptErrorRuntime      ScriptErrorKind = "runtime"
	ScriptErrorTimeout      ScriptErrorKind = "timeout"
	ScriptErrorCanceled     ScriptErrorKind = "canceled"
	ScriptErrorInvalidInput ScriptErrorKind = "invalid_input"
)

// ScriptResult is the terminal output of one executor invocation.
// A non-empty Error means Signals, Plots, Shapes and BackgroundMarks are unusable
// and are left empty; Logs collected before the failure are kept.
type ScriptResult struct {
	Signals         []Signal         `json:"signals"`
	Plots           []Plot           `json:"plots"`
	Shapes          []Shape          `json:"shapes"`
	BackgroundMarks []BackgroundMark `json:"background_marks"`
	Logs            []string         `json:"logs"`
	Error           string           `json:"error,omitempty"`
	ErrorKind       ScriptErrorKind  `json:"error_kind,omitempty"`
	Duration        time.Duration    `json:"duration"`
}

// Failed reports whether the execution produced an error
func (r *ScriptResult) Failed() bool {
	return r.Error != ""
}

// NewFailedResult builds an error result that keeps the supplied logs
func NewFailedResult(kind ScriptErrorKind, msg string, logs []string) *ScriptResult {
	if logs == nil {
		logs = []string{}
	}
	return &ScriptResult{
		Signals:         []Signal{},
		Plots:           []Plot{},
		Shapes:          []Shape{},
		BackgroundMarks: []BackgroundMark{},
		Logs:            logs,
		Error:           msg,
		ErrorKind:       kind,
	}
}
