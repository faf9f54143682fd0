package schedulerengine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"gitlab.com/appserver.net/internal/core/ports/primary"
)

// Task is a background action run on a schedule
type Task func(ctx context.Context) error

// SchedulerEngine runs named background tasks on cron schedules.
// A run that is still going when its next tick fires is skipped.
type SchedulerEngine struct {
	cron    *cron.Cron
	logger  primary.Logger
	timeout time.Duration

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	entries map[string]cron.EntryID
}

// NewSchedulerEngine creates an engine; each run is bounded by timeout
func NewSchedulerEngine(logger primary.Logger, timeout time.Duration) *SchedulerEngine {
	ctx, cancel := context.WithCancel(context.Background())
	return &SchedulerEngine{
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		logger:  logger.With("component", "scheduler"),
		timeout: timeout,
		ctx:     ctx,
		cancel:  cancel,
		entries: make(map[string]cron.EntryID),
	}
}

// Schedule adds or replaces the task called name. schedule is a standard
// five-field cron expression or a descriptor such as "@every 30s".
func (s *SchedulerEngine) Schedule(name, schedule string, task Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entryID, ok := s.entries[name]; ok {
		s.cron.Remove(entryID)
		delete(s.entries, name)
	}

	entryID, err := s.cron.AddFunc(schedule, func() {
		s.run(name, task)
	})
	if err != nil {
		s.logger.Error("Failed to schedule task", "task", name, "schedule", schedule, "error", err)
		return fmt.Errorf("invalid schedule %q for %s: %w", schedule, name, err)
	}

	s.entries[name] = entryID
	s.logger.Info("Task scheduled", "task", name, "schedule", schedule)
	return nil
}

func (s *SchedulerEngine) run(name string, task Task) {
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	start := time.Now()
	if err := task(ctx); err != nil {
		s.logger.Warn("Scheduled task failed", "task", name, "error", err, "duration", time.Since(start))
		return
	}
	s.logger.Debug("Scheduled task done", "task", name, "duration", time.Since(start))
}

// Len returns the number of scheduled tasks
func (s *SchedulerEngine) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Start begins firing scheduled tasks in the background
func (s *SchedulerEngine) Start() {
	s.cron.Start()
}

// Stop cancels running tasks and waits for them to return
func (s *SchedulerEngine) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	s.logger.Info("Scheduler stopped")
}
