// Package scheduler implements background job scheduling for the progress
// engine, currently a single periodic task: rebuilding the leaderboard
// projection from Postgres.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/lingua-hub/lingua-progress-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// JOB INTERFACE
// ══════════════════════════════════════════════════════════════════════════════

// Job defines the interface that all scheduled jobs must implement.
type Job interface {
	// Name returns the unique name of the job.
	Name() string

	// Run executes the job.
	// The context is cancelled when the scheduler is stopping.
	Run(ctx context.Context) error

	// Description returns a human-readable description of the job.
	Description() string
}

// Schedule defines when a job should run.
type Schedule interface {
	// Next returns the next time the job should run after the given time.
	Next(t time.Time) time.Time

	// String returns a human-readable representation of the schedule.
	String() string
}

// IntervalSchedule schedules a job to run at a fixed interval.
type IntervalSchedule struct {
	Interval time.Duration
}

// NewIntervalSchedule creates a new IntervalSchedule.
func NewIntervalSchedule(interval time.Duration) *IntervalSchedule {
	return &IntervalSchedule{Interval: interval}
}

// Next returns the next scheduled time.
func (s *IntervalSchedule) Next(t time.Time) time.Time {
	return t.Add(s.Interval)
}

// String returns the string representation of the schedule.
func (s *IntervalSchedule) String() string {
	return fmt.Sprintf("@every %s", s.Interval.String())
}

// JobResult contains the result of a job execution.
type JobResult struct {
	JobName     string
	StartedAt   time.Time
	CompletedAt time.Time
	Duration    time.Duration
	Success     bool
	Error       error
}

// ══════════════════════════════════════════════════════════════════════════════
// SCHEDULER
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrNilJob is returned when registering a nil job.
	ErrNilJob = errors.New("scheduler: job cannot be nil")

	// ErrNilSchedule is returned when registering with a nil schedule.
	ErrNilSchedule = errors.New("scheduler: schedule cannot be nil")

	// ErrJobAlreadyExists is returned when a job name is already registered.
	ErrJobAlreadyExists = errors.New("scheduler: job already registered")

	// ErrJobNotFound is returned when a job name is unknown.
	ErrJobNotFound = errors.New("scheduler: job not found")

	// ErrAlreadyRunning is returned when starting a running scheduler.
	ErrAlreadyRunning = errors.New("scheduler: already running")
)

// tickInterval bounds how late a due job can fire.
const tickInterval = time.Second

// Scheduler manages and executes periodic jobs.
type Scheduler struct {
	mu sync.RWMutex

	log      *logger.Logger
	timezone *time.Location

	jobs     map[string]*scheduledJob
	running  bool
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	lastRuns map[string]*JobResult
}

// scheduledJob wraps a Job with scheduling information.
type scheduledJob struct {
	job       Job
	schedule  Schedule
	nextRun   time.Time
	runCount  int64
	failCount int64
}

// New creates a new Scheduler.
func New(log *logger.Logger) *Scheduler {
	if log == nil {
		log = logger.Default()
	}
	return &Scheduler{
		log:      log.With(logger.Component("scheduler")),
		timezone: time.UTC,
		jobs:     make(map[string]*scheduledJob),
		lastRuns: make(map[string]*JobResult),
	}
}

// Register adds a job to the scheduler with the given schedule.
func (s *Scheduler) Register(job Job, schedule Schedule) error {
	if job == nil {
		return ErrNilJob
	}
	if schedule == nil {
		return ErrNilSchedule
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	name := job.Name()
	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("%w: %s", ErrJobAlreadyExists, name)
	}

	now := time.Now().In(s.timezone)
	s.jobs[name] = &scheduledJob{
		job:      job,
		schedule: schedule,
		nextRun:  schedule.Next(now),
	}

	s.log.Info("job registered",
		logger.String("job", name),
		logger.String("schedule", schedule.String()))

	return nil
}

// Start begins the scheduler loop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.running = true
	s.mu.Unlock()

	s.log.Info("scheduler started", logger.Int("jobs_count", len(s.jobs)))

	s.wg.Add(1)
	go s.runLoop(ctx)

	return nil
}

// Stop gracefully stops the scheduler, waiting for running jobs.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel := s.cancel
	s.mu.Unlock()

	cancel()
	s.wg.Wait()
	s.log.Info("scheduler stopped")
}

// RunNow executes a job immediately, outside its schedule.
func (s *Scheduler) RunNow(ctx context.Context, jobName string) (*JobResult, error) {
	s.mu.RLock()
	sj, exists := s.jobs[jobName]
	s.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, jobName)
	}

	result := s.execute(ctx, sj)
	return &result, nil
}

// LastRun returns the most recent result for a job, if any.
func (s *Scheduler) LastRun(jobName string) (*JobResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result, ok := s.lastRuns[jobName]
	return result, ok
}

func (s *Scheduler) runLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.runDue(ctx, now.In(s.timezone))
		}
	}
}

func (s *Scheduler) runDue(ctx context.Context, now time.Time) {
	s.mu.Lock()
	var due []*scheduledJob
	for _, sj := range s.jobs {
		if !sj.nextRun.After(now) {
			sj.nextRun = sj.schedule.Next(now)
			due = append(due, sj)
		}
	}
	s.mu.Unlock()

	for _, sj := range due {
		sj := sj
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.execute(ctx, sj)
		}()
	}
}

func (s *Scheduler) execute(ctx context.Context, sj *scheduledJob) JobResult {
	name := sj.job.Name()
	started := time.Now()

	s.log.Debug("job starting", logger.String("job", name))

	err := sj.job.Run(ctx)
	completed := time.Now()

	result := JobResult{
		JobName:     name,
		StartedAt:   started,
		CompletedAt: completed,
		Duration:    completed.Sub(started),
		Success:     err == nil,
		Error:       err,
	}

	s.mu.Lock()
	sj.runCount++
	if err != nil {
		sj.failCount++
	}
	s.lastRuns[name] = &result
	s.mu.Unlock()

	if err != nil {
		s.log.Error("job failed",
			logger.String("job", name),
			logger.Duration("duration", result.Duration),
			logger.Err(err))
	} else {
		s.log.Info("job completed",
			logger.String("job", name),
			logger.Duration("duration", result.Duration))
	}

	return result
}
