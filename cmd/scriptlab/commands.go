package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/yourusername/scriptlab/internal/backtest"
	"github.com/yourusername/scriptlab/internal/datasource"
	"github.com/yourusername/scriptlab/internal/health"
	"github.com/yourusername/scriptlab/internal/optimizer"
	"github.com/yourusername/scriptlab/internal/scheduler"
	"github.com/yourusername/scriptlab/internal/service"
)

var (
	scriptPath string
	barsPath   string
	auxPaths   map[string]string
	overrides  map[string]string

	rangesPath string
	reportPath string
	curvePath  string
	watchName  string
	outPath    string
)

func init() {
	for _, cmd := range []*cobra.Command{scanCmd, runCmd, backtestCmd, optimizeCmd, walkForwardCmd, watchCmd} {
		cmd.Flags().StringVarP(&scriptPath, "script", "s", "", "Path to the strategy script")
		_ = cmd.MarkFlagRequired("script")
	}
	for _, cmd := range []*cobra.Command{runCmd, backtestCmd, optimizeCmd, walkForwardCmd, watchCmd} {
		cmd.Flags().StringVarP(&barsPath, "bars", "b", "", "Bar file (.csv, .json or .parquet)")
		cmd.Flags().StringToStringVar(&auxPaths, "aux", nil, "Auxiliary bars by resolution, e.g. 1D=daily.csv")
		_ = cmd.MarkFlagRequired("bars")
	}
	for _, cmd := range []*cobra.Command{runCmd, backtestCmd, watchCmd} {
		cmd.Flags().StringToStringVar(&overrides, "set", nil, "Parameter overrides by title, e.g. \"RSI Length=21\"")
	}
	for _, cmd := range []*cobra.Command{optimizeCmd, walkForwardCmd} {
		cmd.Flags().StringVar(&rangesPath, "ranges", "", "YAML file of ranges by title; defaults come from input() options")
	}
	backtestCmd.Flags().StringVar(&reportPath, "report", "", "Write a metrics CSV to this path")
	backtestCmd.Flags().StringVar(&curvePath, "equity", "", "Write the equity curve to this path (.csv or .json)")
	watchCmd.Flags().StringVar(&watchName, "name", "watch", "Job name used in logs")

	convertCmd.Flags().StringVarP(&barsPath, "bars", "b", "", "Bar file to read (.csv, .json or .parquet)")
	convertCmd.Flags().StringVarP(&outPath, "out", "o", "", "Parquet file to write")
	_ = convertCmd.MarkFlagRequired("bars")
	_ = convertCmd.MarkFlagRequired("out")
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "List input() and security() declarations without running the script",
	RunE: func(cmd *cobra.Command, args []string) error {
		script, err := readScript()
		if err != nil {
			return err
		}
		decl := strategySvc.Scan(script)
		return render(cmd.OutOrStdout(), decl, func() string {
			out := ""
			for _, p := range decl.Parameters {
				out += fmt.Sprintf("%-24s default=%g", p.Title, p.DefaultValue)
				if p.Min != nil {
					out += fmt.Sprintf(" min=%g", *p.Min)
				}
				if p.Max != nil {
					out += fmt.Sprintf(" max=%g", *p.Max)
				}
				if p.Step != nil {
					out += fmt.Sprintf(" step=%g", *p.Step)
				}
				out += "\n"
			}
			for _, r := range decl.Resolutions {
				out += fmt.Sprintf("resolution %s\n", r)
			}
			return out
		})
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute a script once and print its signals, plots and logs",
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := scriptInput(cmd)
		if err != nil {
			return err
		}
		_, result := strategySvc.Execute(cmd.Context(), in)
		err = render(cmd.OutOrStdout(), result, func() string {
			out := ""
			for _, line := range result.Logs {
				out += "log: " + line + "\n"
			}
			for _, s := range result.Signals {
				out += fmt.Sprintf("%s %s @ %.4f %s\n", s.Time.UTC().Format(time.RFC3339), s.Kind, s.Price, s.Label)
			}
			out += fmt.Sprintf("%d signals, %d plots, %d shapes in %s\n", len(result.Signals), len(result.Plots), len(result.Shapes), result.Duration)
			return out
		})
		if err != nil {
			return err
		}
		if result.Failed() {
			return fmt.Errorf("script failed (%s): %s", result.ErrorKind, result.Error)
		}
		return nil
	},
}

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Execute a script and simulate its signals",
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := scriptInput(cmd)
		if err != nil {
			return err
		}
		run, err := strategySvc.Backtest(cmd.Context(), in)
		if err != nil {
			return err
		}
		if run.Script.Failed() {
			return fmt.Errorf("script failed (%s): %s", run.Script.ErrorKind, run.Script.Error)
		}
		if reportPath != "" {
			if err := backtest.GenerateCSVExport(run.Backtest, reportPath); err != nil {
				return fmt.Errorf("failed to write report: %w", err)
			}
		}
		if curvePath != "" {
			if err := backtest.WriteEquityCurve(run.Backtest.EquityCurve, curvePath); err != nil {
				return fmt.Errorf("failed to write equity curve: %w", err)
			}
		}
		return render(cmd.OutOrStdout(), run, func() string {
			out := backtest.GenerateConsoleReport(run.Backtest)
			if run.MonteCarlo != nil {
				out += "\n" + backtest.GenerateMonteCarloReport(*run.MonteCarlo)
			}
			return out
		})
	},
}

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Sweep declared parameters and rank combinations by net profit",
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := scriptInput(cmd)
		if err != nil {
			return err
		}
		ranges, err := loadRanges(rangesPath)
		if err != nil {
			return err
		}
		report, err := strategySvc.Optimize(cmd.Context(), in, ranges)
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), report, func() string {
			out := fmt.Sprintf("explored %d of %d combinations (%d failed)\n", report.Explored, report.Total, report.Failed)
			if report.Truncated {
				out += "search was truncated at the combination cap\n"
			}
			for i, r := range report.Results {
				out += fmt.Sprintf("%3d. net=%.2f (%.2f%%) trades=%d params=%v\n", i+1, r.NetProfit, r.NetProfitPercent, r.TradeCount, r.Params)
			}
			return out
		})
	},
}

var walkForwardCmd = &cobra.Command{
	Use:   "walkforward",
	Short: "Optimize on rolling training windows and replay on the following bars",
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := scriptInput(cmd)
		if err != nil {
			return err
		}
		ranges, err := loadRanges(rangesPath)
		if err != nil {
			return err
		}
		result, err := strategySvc.WalkForward(cmd.Context(), in, ranges, optimizer.WalkForwardFromConfig(&cfg.WalkForward))
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), result, func() string {
			out := ""
			for _, w := range result.Windows {
				out += fmt.Sprintf("window %d: test %s..%s params=%v test net=%.2f%%\n",
					w.WindowID, w.TestStart.Format(time.RFC3339), w.TestEnd.Format(time.RFC3339),
					w.Best.Params, w.TestMetrics.NetProfitPercent)
			}
			out += fmt.Sprintf("consistency=%.2f overfit=%.2f\n", result.ConsistencyScore, result.OverfitScore)
			return out
		})
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-run the backtest on the configured schedule as the bar file changes",
	RunE: func(cmd *cobra.Command, args []string) error {
		script, err := readScript()
		if err != nil {
			return err
		}
		values, err := parseOverrides(overrides)
		if err != nil {
			return err
		}

		sched := scheduler.NewScheduler(strategySvc, appLogger)
		job := scheduler.WatchJob{
			Name:       watchName,
			Script:     script,
			BarsPath:   barsPath,
			AuxPaths:   auxPaths,
			Overrides:  values,
			JobTimeout: 10 * cfg.ExecutionTimeout(),
		}
		if _, err := sched.ScheduleWatch(cfg.Watch.Schedule, job); err != nil {
			return err
		}
		if err := sched.Start(); err != nil {
			return err
		}

		if cfg.Watch.HealthPort > 0 {
			probe := health.NewServer(health.Config{
				ServiceName: cfg.App.Name,
				Version:     Version,
				Commit:      GitCommit,
				Port:        cfg.Watch.HealthPort,
				Logger:      appLogger,
				Checks:      map[string]health.Checker{"scheduler": sched},
			})
			if err := probe.Start(cmd.Context()); err != nil {
				return err
			}
			probe.SetReady(true)
		}

		<-cmd.Context().Done()
		return sched.Stop()
	},
}

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Validate a bar file and rewrite it as Parquet",
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := convertBars(cmd.Context(), barsPath, outPath)
		if err != nil {
			return err
		}
		appLogger.WithFields(logrus.Fields{"bars": n, "out": outPath}).Info("Converted bars")
		return nil
	},
}

// convertBars loads src through the validating loaders and writes it to dst
// as Parquet, returning the number of bars written.
func convertBars(ctx context.Context, src, dst string) (int, error) {
	if t, err := datasource.DetectType(dst); err != nil || t != datasource.ParquetSourceType {
		return 0, fmt.Errorf("output %q must be a .parquet file", dst)
	}
	bars, err := datasource.LoadBars(ctx, src)
	if err != nil {
		return 0, err
	}
	if err := datasource.WriteParquet(dst, bars); err != nil {
		return 0, fmt.Errorf("failed to write parquet: %w", err)
	}
	return len(bars), nil
}

func readScript() (string, error) {
	data, err := os.ReadFile(scriptPath)
	if err != nil {
		return "", fmt.Errorf("failed to read script: %w", err)
	}
	return string(data), nil
}

func scriptInput(cmd *cobra.Command) (service.ScriptInput, error) {
	script, err := readScript()
	if err != nil {
		return service.ScriptInput{}, err
	}
	bars, err := datasource.LoadBars(cmd.Context(), barsPath)
	if err != nil {
		return service.ScriptInput{}, err
	}
	aux, err := datasource.LoadAuxiliary(cmd.Context(), auxPaths)
	if err != nil {
		return service.ScriptInput{}, err
	}
	values, err := parseOverrides(overrides)
	if err != nil {
		return service.ScriptInput{}, err
	}
	return service.ScriptInput{Script: script, Bars: bars, AuxBars: aux, Overrides: values}, nil
}

func parseOverrides(raw map[string]string) (map[string]float64, error) {
	values := make(map[string]float64, len(raw))
	for title, s := range raw {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value for %q: %w", title, err)
		}
		values[title] = v
	}
	return values, nil
}

// loadRanges reads a title -> {start, end, step} YAML map. An empty path
// returns nil so the service derives ranges from the script.
func loadRanges(path string) (map[string]optimizer.Range, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read ranges: %w", err)
	}
	var ranges map[string]optimizer.Range
	if err := yaml.Unmarshal(data, &ranges); err != nil {
		return nil, fmt.Errorf("failed to parse ranges: %w", err)
	}
	return ranges, nil
}
