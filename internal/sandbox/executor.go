// Package sandbox runs untrusted strategy scripts in an isolated ECMAScript
// interpreter. Each execution gets a fresh runtime on its own goroutine and is
// bounded by a supervisor-side timeout.
package sandbox

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/dop251/goja"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/scriptlab/internal/logger"
	"github.com/yourusername/scriptlab/internal/metrics"
	"github.com/yourusername/scriptlab/internal/models"
	"github.com/yourusername/scriptlab/internal/scanner"
	"github.com/yourusername/scriptlab/internal/series"
)

const (
	DefaultTimeout = 5 * time.Second

	maxCallStackSize = 4096
)

// Options configures an Executor
type Options struct {
	Timeout      time.Duration
	CacheTTL     time.Duration
	CacheCleanup time.Duration
}

// Request is one script invocation
type Request struct {
	Script string
	Bars   []models.Bar
	// AuxBars holds other resolutions keyed by the label passed to security()
	AuxBars map[string][]models.Bar
	// Overrides retargets input() declarations by title
	Overrides map[string]float64
}

// Executor runs scripts. It holds no per-execution state and is safe for
// concurrent use.
type Executor struct {
	timeout  time.Duration
	programs *cache.Cache
	log      *logger.ScriptLogger
}

// NewExecutor creates an executor. A zero timeout uses DefaultTimeout.
func NewExecutor(opts Options, log *logrus.Logger) *Executor {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 10 * time.Minute
	}
	if opts.CacheCleanup <= 0 {
		opts.CacheCleanup = 2 * opts.CacheTTL
	}
	return &Executor{
		timeout:  opts.Timeout,
		programs: cache.New(opts.CacheTTL, opts.CacheCleanup),
		log:      logger.NewScriptLogger(log),
	}
}

// Timeout returns the supervisor timeout applied to every execution
func (e *Executor) Timeout() time.Duration {
	return e.timeout
}

type outcome struct {
	result *models.ScriptResult
}

// Execute runs the script against the bars and always returns a result.
// Script failures, timeouts and cancellation are reported through
// ScriptResult.Error rather than a Go error.
func (e *Executor) Execute(ctx context.Context, req Request) *models.ScriptResult {
	start := time.Now()
	res := e.execute(ctx, req)
	res.Duration = time.Since(start)
	e.record(res, len(req.Bars))
	return res
}

func (e *Executor) execute(ctx context.Context, req Request) *models.ScriptResult {
	if strings.TrimSpace(req.Script) == "" {
		return models.NewFailedResult(models.ScriptErrorInvalidInput, models.ErrEmptyScript.Error(), nil)
	}
	if err := series.Validate(req.Bars); err != nil {
		return models.NewFailedResult(models.ScriptErrorInvalidInput, err.Error(), nil)
	}
	if err := ctx.Err(); err != nil {
		return models.NewFailedResult(models.ScriptErrorCanceled, models.ErrScriptCanceled.Error(), nil)
	}

	prog, err := e.compile(req.Script)
	if err != nil {
		return models.NewFailedResult(models.ScriptErrorCompile, err.Error(), nil)
	}

	e.log.LogParameterOverrides(req.Overrides)

	vm := goja.New()
	vm.SetMaxCallStackSize(maxCallStackSize)
	sb := newEnv(vm, req, scanner.Scan(req.Script))

	done := make(chan outcome, 1)
	go func() {
		done <- outcome{result: sb.run(prog)}
	}()

	timer := time.NewTimer(e.timeout)
	defer timer.Stop()

	select {
	case out := <-done:
		return out.result
	case <-timer.C:
		vm.Interrupt(models.ErrScriptTimeout)
		msg := fmt.Sprintf("%s after %s", models.ErrScriptTimeout.Error(), e.timeout)
		return models.NewFailedResult(models.ScriptErrorTimeout, msg, nil)
	case <-ctx.Done():
		vm.Interrupt(models.ErrScriptCanceled)
		return models.NewFailedResult(models.ScriptErrorCanceled, models.ErrScriptCanceled.Error(), nil)
	}
}

// compile wraps the script in a function body so top-level return works and
// caches the program by content hash. Line numbers are preserved.
func (e *Executor) compile(src string) (*goja.Program, error) {
	sum := sha256.Sum256([]byte(src))
	key := hex.EncodeToString(sum[:])
	if p, ok := e.programs.Get(key); ok {
		return p.(*goja.Program), nil
	}

	prog, err := goja.Compile("script.js", "(function(){"+src+"\n})();", false)
	if err != nil {
		return nil, fmt.Errorf("compile failed: %w", err)
	}
	e.programs.SetDefault(key, prog)
	return prog, nil
}

func (e *Executor) record(res *models.ScriptResult, bars int) {
	status := "success"
	if res.Failed() {
		status = string(res.ErrorKind)
		e.log.LogExecutionFailure(status, res.Error, res.Duration)
	} else {
		e.log.LogExecution(bars, len(res.Signals), len(res.Plots), len(res.Logs), res.Duration)
	}
	metrics.RecordScriptExecution(status, len(res.Signals), res.Duration)
}
