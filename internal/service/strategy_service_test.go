package service

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/scriptlab/internal/backtest"
	"github.com/yourusername/scriptlab/internal/models"
	"github.com/yourusername/scriptlab/internal/optimizer"
	"github.com/yourusername/scriptlab/internal/sandbox"
)

func testBars(n int) []models.Bar {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]models.Bar, n)
	for i := range bars {
		p := 100 + 2*float64(i)
		bars[i] = models.Bar{Time: start.Add(time.Duration(i) * time.Hour), Open: p, High: p + 1, Low: p - 1, Close: p}
	}
	return bars
}

func newTestService(t *testing.T, cfg backtest.Config) *StrategyService {
	t.Helper()
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	executor := sandbox.NewExecutor(sandbox.Options{Timeout: 2 * time.Second}, log)
	engine, err := backtest.NewEngine(cfg, log)
	require.NoError(t, err)

	opts := optimizer.DefaultOptions()
	opts.YieldInterval = 0
	opt, err := optimizer.New(executor, opts, log)
	require.NoError(t, err)
	return NewStrategyService(executor, engine, opt, log)
}

const entryScript = `
const at = input(2, "Entry Bar", {min: 1, max: 3});
signal(at, "BUY");
`

func TestBacktestPipeline(t *testing.T) {
	cfg := backtest.Config{InitialCapital: 1000, MonteCarloIterations: 50, MonteCarloSeed: 1}
	svc := newTestService(t, cfg)

	run, err := svc.Backtest(context.Background(), ScriptInput{Script: entryScript, Bars: testBars(20)})
	require.NoError(t, err)

	require.Len(t, run.Declarations.Parameters, 1)
	assert.Equal(t, "Entry Bar", run.Declarations.Parameters[0].Title)
	require.False(t, run.Script.Failed())
	require.NotNil(t, run.Backtest)
	require.Len(t, run.Backtest.Trades, 1)
	assert.Equal(t, testBars(20)[3].Time, run.Backtest.Trades[0].EntryTime)
	require.NotNil(t, run.MonteCarlo)
	assert.Equal(t, 50, run.MonteCarlo.Iterations)

	fields := run.Summary()
	assert.Equal(t, 1, fields["trades"])
}

func TestBacktestPipelineOverrides(t *testing.T) {
	svc := newTestService(t, backtest.Config{InitialCapital: 1000})
	run, err := svc.Backtest(context.Background(), ScriptInput{
		Script:    entryScript,
		Bars:      testBars(20),
		Overrides: map[string]float64{"Entry Bar": 5},
	})
	require.NoError(t, err)
	require.NotNil(t, run.Backtest)
	assert.Equal(t, testBars(20)[6].Time, run.Backtest.Trades[0].EntryTime)
	assert.Nil(t, run.MonteCarlo)
}

func TestBacktestPipelineScriptFailure(t *testing.T) {
	svc := newTestService(t, backtest.DefaultConfig())
	run, err := svc.Backtest(context.Background(), ScriptInput{
		Script: `log("before"); throw new Error("nope");`,
		Bars:   testBars(5),
	})
	require.NoError(t, err)
	assert.True(t, run.Script.Failed())
	assert.Equal(t, models.ScriptErrorRuntime, run.Script.ErrorKind)
	assert.Equal(t, []string{`"before"`}, run.Script.Logs)
	assert.Nil(t, run.Backtest)
	assert.Contains(t, run.Summary(), "error")
}

func TestBacktestPipelineMissingResolution(t *testing.T) {
	svc := newTestService(t, backtest.DefaultConfig())
	run, err := svc.Backtest(context.Background(), ScriptInput{
		Script: `const d = security("1D"); log(d.length);`,
		Bars:   testBars(5),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"1D"}, run.Declarations.Resolutions)
	assert.True(t, run.Script.Failed())
}

func TestOptimizeWithDefaultRanges(t *testing.T) {
	svc := newTestService(t, backtest.DefaultConfig())
	report, err := svc.Optimize(context.Background(), ScriptInput{Script: entryScript, Bars: testBars(20)}, nil)
	require.NoError(t, err)

	require.Len(t, report.Results, 3)
	assert.False(t, report.Truncated)
	// earlier entries ride the trend longer
	assert.Equal(t, 1.0, report.Results[0].Params["Entry Bar"])
	assert.Equal(t, 3.0, report.Results[2].Params["Entry Bar"])
}

func TestOptimizeWithoutDeclarations(t *testing.T) {
	svc := newTestService(t, backtest.DefaultConfig())
	_, err := svc.Optimize(context.Background(), ScriptInput{Script: `log(1)`, Bars: testBars(5)}, nil)
	assert.ErrorIs(t, err, models.ErrEmptyRanges)
}
