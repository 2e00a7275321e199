// Package scheduler re-runs a strategy on a cron schedule against a bar file
// that is refreshed out of band.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/scriptlab/internal/datasource"
	"github.com/yourusername/scriptlab/internal/service"
)

// WatchJob describes one watched strategy
type WatchJob struct {
	Name       string
	Script     string
	BarsPath   string
	AuxPaths   map[string]string
	Overrides  map[string]float64
	JobTimeout time.Duration
}

// Scheduler manages scheduled watch jobs
type Scheduler struct {
	cron            *cron.Cron
	strategySvc     *service.StrategyService
	logger          *logrus.Logger
	mu              sync.RWMutex
	isRunning       bool
	jobIDs          []cron.EntryID
	gracefulTimeout time.Duration
	lastErr         error
	lastRun         time.Time

	// onRun observes each completed pass
	onRun func(name string, run *service.BacktestRun, err error)
}

// NewScheduler creates a new scheduler
func NewScheduler(strategySvc *service.StrategyService, logger *logrus.Logger) *Scheduler {
	if logger == nil {
		logger = logrus.New()
	}
	return &Scheduler{
		cron:            cron.New(cron.WithLocation(time.UTC)),
		strategySvc:     strategySvc,
		logger:          logger,
		jobIDs:          make([]cron.EntryID, 0),
		gracefulTimeout: 30 * time.Second,
	}
}

// OnRun registers a callback invoked after every pass
func (s *Scheduler) OnRun(fn func(name string, run *service.BacktestRun, err error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onRun = fn
}

// ScheduleWatch adds a job that reloads the bars and re-runs the backtest
func (s *Scheduler) ScheduleWatch(cronExpression string, job WatchJob) (cron.EntryID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return 0, fmt.Errorf("cannot schedule job while scheduler is running")
	}
	if job.JobTimeout <= 0 {
		job.JobTimeout = time.Minute
	}

	entryID, err := s.cron.AddFunc(cronExpression, func() {
		ctx, cancel := context.WithTimeout(context.Background(), job.JobTimeout)
		defer cancel()
		s.RunOnce(ctx, job)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to add job: %w", err)
	}

	s.jobIDs = append(s.jobIDs, entryID)
	s.logger.WithFields(logrus.Fields{
		"job":      job.Name,
		"schedule": cronExpression,
	}).Info("Scheduled watch job")
	return entryID, nil
}

// RunOnce performs a single pass of job
func (s *Scheduler) RunOnce(ctx context.Context, job WatchJob) (*service.BacktestRun, error) {
	run, err := s.runOnce(ctx, job)
	entry := s.logger.WithField("job", job.Name)
	if err != nil {
		entry.WithError(err).Error("Watch pass failed")
	} else {
		entry.WithFields(run.Summary()).Info("Watch pass completed")
	}

	s.mu.Lock()
	s.lastErr = err
	s.lastRun = time.Now().UTC()
	onRun := s.onRun
	s.mu.Unlock()
	if onRun != nil {
		onRun(job.Name, run, err)
	}
	return run, err
}

func (s *Scheduler) runOnce(ctx context.Context, job WatchJob) (*service.BacktestRun, error) {
	bars, err := datasource.LoadBars(ctx, job.BarsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load bars: %w", err)
	}
	aux, err := datasource.LoadAuxiliary(ctx, job.AuxPaths)
	if err != nil {
		return nil, fmt.Errorf("failed to load auxiliary bars: %w", err)
	}
	return s.strategySvc.Backtest(ctx, service.ScriptInput{
		Script:    job.Script,
		Bars:      bars,
		AuxBars:   aux,
		Overrides: job.Overrides,
	})
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}
	if len(s.jobIDs) == 0 {
		return fmt.Errorf("no jobs scheduled")
	}

	s.cron.Start()
	s.isRunning = true
	s.logger.WithField("jobs", len(s.jobIDs)).Info("Scheduler started")
	return nil
}

// Stop waits for running jobs to finish, up to the graceful timeout
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	timer := time.NewTimer(s.gracefulTimeout)
	defer timer.Stop()

	var err error
	select {
	case <-s.cron.Stop().Done():
	case <-timer.C:
		err = fmt.Errorf("scheduler stop timed out after %s", s.gracefulTimeout)
	}
	s.isRunning = false
	s.logger.Info("Scheduler stopped")
	return err
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Check reports an error when the scheduler is stopped or the most recent
// pass failed. It satisfies health.Checker.
func (s *Scheduler) Check(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return fmt.Errorf("scheduler is not running")
	}
	if s.lastErr != nil {
		return fmt.Errorf("last pass at %s failed: %w", s.lastRun.Format(time.RFC3339), s.lastErr)
	}
	return nil
}

// GetNextRun returns the time of the next scheduled job run
func (s *Scheduler) GetNextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning || len(s.jobIDs) == 0 {
		return time.Time{}
	}

	nextRun := time.Time{}
	for _, jobID := range s.jobIDs {
		entry := s.cron.Entry(jobID)
		if entry.Valid() {
			if nextRun.IsZero() || entry.Next.Before(nextRun) {
				nextRun = entry.Next
			}
		}
	}
	return nextRun
}

// RemoveJob removes a scheduled job
func (s *Scheduler) RemoveJob(jobID cron.EntryID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot remove job while scheduler is running")
	}

	s.cron.Remove(jobID)
	for i, id := range s.jobIDs {
		if id == jobID {
			s.jobIDs = append(s.jobIDs[:i], s.jobIDs[i+1:]...)
			break
		}
	}
	s.logger.WithField("job_id", jobID).Info("Removed job")
	return nil
}
