package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/frostdev-ops/pma-goveelife/internal/adapters/goveelife"
	"github.com/frostdev-ops/pma-goveelife/internal/config"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// JobFunc is the work of a scheduled job
type JobFunc func(ctx context.Context) error

// ScheduledJob represents one registered job
type ScheduledJob struct {
	Name      string       `json:"name"`
	Schedule  string       `json:"schedule"`
	EntryID   cron.EntryID `json:"-"`
	NextRun   time.Time    `json:"next_run"`
	LastRun   *time.Time   `json:"last_run,omitempty"`
	LastError string       `json:"last_error,omitempty"`
	RunCount  int64        `json:"run_count"`
}

// Scheduler runs periodic jobs
type Scheduler struct {
	cron    *cron.Cron
	jobs    map[string]*ScheduledJob
	logger  *logrus.Logger
	mu      sync.RWMutex
	running bool

	// ctx is handed to every job run and cancelled by Stop
	ctx    context.Context
	cancel context.CancelFunc
}

// NewScheduler creates a new scheduler instance
func NewScheduler(cfg config.SchedulerConfig, logger *logrus.Logger) *Scheduler {
	timezone := time.UTC
	if cfg.Timezone != "" {
		tz, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			logger.WithError(err).Warnf("Invalid timezone %s, using UTC", cfg.Timezone)
		} else {
			timezone = tz
		}
	}

	cronLogger := cron.VerbosePrintfLogger(logger.WithField("component", "scheduler"))
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(timezone),
			cron.WithSeconds(),
			cron.WithChain(
				cron.SkipIfStillRunning(cronLogger),
				cron.Recover(cronLogger),
			),
		),
		jobs:   make(map[string]*ScheduledJob),
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// AddJob registers fn under name on a six-field cron schedule
func (s *Scheduler) AddJob(name, schedule string, fn JobFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %s is already scheduled", name)
	}

	job := &ScheduledJob{Name: name, Schedule: schedule}
	entryID, err := s.cron.AddFunc(schedule, func() { s.run(job, fn) })
	if err != nil {
		return fmt.Errorf("invalid schedule %q for job %s: %w", schedule, name, err)
	}
	job.EntryID = entryID
	s.jobs[name] = job

	s.logger.WithFields(logrus.Fields{
		"job":      name,
		"schedule": schedule,
	}).Info("Scheduled job registered")
	return nil
}

func (s *Scheduler) run(job *ScheduledJob, fn JobFunc) {
	start := time.Now()
	err := fn(s.ctx)

	s.mu.Lock()
	job.LastRun = &start
	job.RunCount++
	job.LastError = ""
	if err != nil {
		job.LastError = err.Error()
	}
	s.mu.Unlock()

	entry := s.logger.WithFields(logrus.Fields{
		"job":      job.Name,
		"duration": time.Since(start),
	})
	if err != nil {
		entry.WithError(err).Error("Scheduled job failed")
		return
	}
	entry.Debug("Scheduled job completed")
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler is already running")
	}

	s.cron.Start()
	s.running = true
	s.logger.WithField("jobs", len(s.jobs)).Info("Scheduler started")
	return nil
}

// Stop cancels running jobs and waits for them until ctx is done
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return fmt.Errorf("scheduler is not running")
	}
	s.running = false
	s.mu.Unlock()

	s.cancel()
	stopped := s.cron.Stop()

	select {
	case <-stopped.Done():
		s.logger.Info("Scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Timeout waiting for scheduled jobs to complete")
		return ctx.Err()
	}
}

// IsRunning returns whether the scheduler is running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Jobs returns a snapshot of the registered jobs sorted by name
func (s *Scheduler) Jobs() []ScheduledJob {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make([]ScheduledJob, 0, len(s.jobs))
	for _, job := range s.jobs {
		snapshot := *job
		snapshot.NextRun = s.cron.Entry(job.EntryID).Next
		jobs = append(jobs, snapshot)
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].Name < jobs[j].Name })
	return jobs
}

// ClimateSource lists the registered climate entities
type ClimateSource interface {
	Climates() []*goveelife.Climate
}

// BroadcastRecorder receives broadcast measurements
type BroadcastRecorder interface {
	RecordStateBroadcast(entities int)
}

// BroadcastStates returns a job publishing the state of every climate entity
func BroadcastStates(source ClimateSource, notifier goveelife.StateNotifier, recorder BroadcastRecorder) JobFunc {
	return func(ctx context.Context) error {
		climates := source.Climates()
		for _, climate := range climates {
			if err := ctx.Err(); err != nil {
				return err
			}
			notifier.NotifyStateChanged(climate.State())
		}
		if recorder != nil {
			recorder.RecordStateBroadcast(len(climates))
		}
		return nil
	}
}
