// Package maintenance runs recurring housekeeping jobs on cron schedules.
package maintenance

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// JobFunc is one housekeeping task. It must respect the context deadline.
type JobFunc func(ctx context.Context) error

type job struct {
	name string
	spec string
	run  JobFunc

	lastRunAt  time.Time
	lastStatus string
	lastError  string
}

// Scheduler fires registered jobs on their cron schedules. Register before
// Start; jobs added later are not picked up.
type Scheduler struct {
	cron    *cron.Cron
	logger  zerolog.Logger
	timeout time.Duration

	mu      sync.Mutex
	jobs    map[string]*job
	running bool
}

// New creates a scheduler. Jobs run with a 5 minute timeout.
func New(logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		logger:  logger.With().Str("component", "maintenance").Logger(),
		timeout: 5 * time.Minute,
		jobs:    make(map[string]*job),
	}
}

// Register schedules a named job. spec is a robfig/cron expression or a
// descriptor like "@hourly".
func (s *Scheduler) Register(name, spec string, fn JobFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %s already registered", name)
	}

	j := &job{name: name, spec: spec, run: fn}
	if _, err := s.cron.AddFunc(spec, func() { s.execJob(j) }); err != nil {
		return fmt.Errorf("failed to schedule %s: %w", name, err)
	}
	s.jobs[name] = j
	return nil
}

// RunNow executes a registered job immediately, outside its schedule.
func (s *Scheduler) RunNow(name string) error {
	s.mu.Lock()
	j, exists := s.jobs[name]
	s.mu.Unlock()

	if !exists {
		return fmt.Errorf("job %s not found", name)
	}
	s.execJob(j)
	return nil
}

func (s *Scheduler) execJob(j *job) {
	start := time.Now()
	s.logger.Info().Str("job", j.name).Msg("Executing scheduled job")

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	err := j.run(ctx)

	s.mu.Lock()
	j.lastRunAt = start
	if err != nil {
		j.lastStatus = "error"
		j.lastError = err.Error()
	} else {
		j.lastStatus = "ok"
		j.lastError = ""
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Error().Err(err).Str("job", j.name).Msg("Job execution failed")
		return
	}
	s.logger.Info().Str("job", j.name).Dur("took", time.Since(start)).Msg("Job execution completed")
}

// Start begins firing jobs on their schedules.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.cron.Start()
	s.running = true
}

// Stop halts scheduling and waits up to timeout for in-flight jobs.
func (s *Scheduler) Stop(timeout time.Duration) {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(timeout):
		s.logger.Warn().Msg("Maintenance jobs still running at shutdown")
	}
}
