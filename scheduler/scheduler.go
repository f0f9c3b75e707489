package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/openclaw/picoclaw/internal/store"
)

// Executor runs one kind of job.
type Executor interface {
	// Type returns the job_type this executor handles.
	Type() string
	// Execute runs the job and returns a short result summary.
	Execute(ctx context.Context, job store.Job) (string, error)
}

// resultLimit caps stored last_result text.
const resultLimit = 500

// Scheduler polls the store for enabled jobs and fires those whose trigger
// is due. Fire times are tracked in memory; after a restart each job's
// schedule restarts from its persisted last run.
type Scheduler struct {
	store     *store.Store
	executors map[string]Executor
	tick      time.Duration
	logger    *zap.Logger
	now       func() time.Time

	mu       sync.Mutex
	nextRuns map[string]time.Time
}

// New creates a scheduler polling at the given tick interval.
func New(st *store.Store, tick time.Duration, logger *zap.Logger) *Scheduler {
	if tick <= 0 {
		tick = time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		store:     st,
		executors: make(map[string]Executor),
		tick:      tick,
		logger:    logger,
		now:       time.Now,
		nextRuns:  make(map[string]time.Time),
	}
}

// RegisterExecutor adds an executor for a job type.
func (s *Scheduler) RegisterExecutor(e Executor) {
	s.executors[e.Type()] = e
}

// CreateJob validates the trigger spec and persists the job.
func (s *Scheduler) CreateJob(ctx context.Context, job *store.Job) error {
	if _, ok := s.executors[job.JobType]; !ok {
		return fmt.Errorf("no executor for job type %q", job.JobType)
	}
	if _, err := ParseTrigger(job.TriggerType, job.TriggerSpec); err != nil {
		return err
	}
	return s.store.CreateJob(ctx, job)
}

// Run polls until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	s.logger.Info("scheduler started", zap.Duration("tick", s.tick))
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.RunDue(ctx)
		}
	}
}

// RunDue fires every enabled job whose trigger time has passed. Jobs run
// sequentially; a slow job delays later ones rather than piling up
// concurrent runs of itself.
func (s *Scheduler) RunDue(ctx context.Context) {
	now := s.now()

	jobs, err := s.store.ListJobs(ctx, true)
	if err != nil {
		s.logger.Error("list jobs", zap.Error(err))
		return
	}

	for _, job := range jobs {
		due, trigger := s.isDue(job, now)
		if !due {
			continue
		}
		s.execute(ctx, job, now)

		next := trigger.Next(now)
		if next.IsZero() {
			// One-shot triggers are disabled after firing.
			if err := s.store.SetJobEnabled(ctx, job.ID, false); err != nil {
				s.logger.Warn("disable finished job", zap.String("job", job.ID), zap.Error(err))
			}
			s.forget(job.ID)
			continue
		}
		s.setNext(job.ID, next)
	}
}

// isDue reports whether the job should fire now and returns its trigger.
func (s *Scheduler) isDue(job store.Job, now time.Time) (bool, Trigger) {
	trigger, err := ParseTrigger(job.TriggerType, job.TriggerSpec)
	if err != nil {
		s.logger.Warn("invalid trigger on stored job",
			zap.String("job", job.ID),
			zap.Error(err),
		)
		return false, nil
	}

	s.mu.Lock()
	next, seen := s.nextRuns[job.ID]
	s.mu.Unlock()

	if !seen {
		// First sighting: schedule from the persisted last run, or from
		// now for a job that never ran.
		base := job.LastRun
		if base.IsZero() {
			base = now
		}
		next = trigger.Next(base)
		if next.IsZero() {
			return false, trigger
		}
		s.setNext(job.ID, next)
	}

	return !next.After(now), trigger
}

func (s *Scheduler) execute(ctx context.Context, job store.Job, now time.Time) {
	exec, ok := s.executors[job.JobType]
	if !ok {
		s.logger.Warn("no executor for job", zap.String("job", job.ID), zap.String("type", job.JobType))
		return
	}

	if err := s.store.UpdateJobExecution(ctx, job.ID, store.JobStatusRunning, "", now); err != nil {
		s.logger.Warn("mark job running", zap.String("job", job.ID), zap.Error(err))
	}

	result, err := exec.Execute(ctx, job)
	status := store.JobStatusCompleted
	if err != nil {
		status = store.JobStatusFailed
		result = err.Error()
	}
	result = truncateResult(result)

	if err := s.store.UpdateJobExecution(ctx, job.ID, status, result, now); err != nil {
		s.logger.Warn("record job result", zap.String("job", job.ID), zap.Error(err))
	}

	s.logger.Info("job executed",
		zap.String("job", job.ID),
		zap.String("name", job.Name),
		zap.String("status", status),
	)
}

func (s *Scheduler) setNext(id string, next time.Time) {
	s.mu.Lock()
	s.nextRuns[id] = next
	s.mu.Unlock()
}

func (s *Scheduler) forget(id string) {
	s.mu.Lock()
	delete(s.nextRuns, id)
	s.mu.Unlock()
}

func truncateResult(s string) string {
	if len(s) <= resultLimit {
		return s
	}
	return s[:resultLimit]
}
