package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// JobFunc is the work executed on every tick of a job.
type JobFunc func(ctx context.Context) error

// Job is a named periodic task.
type Job struct {
	Name     string
	Interval time.Duration
	Run      JobFunc
}

// Scheduler runs registered jobs on their own tickers under one lifecycle.
// It is the explicit replacement for annotation-driven scheduling: each job
// is registered in the composition root and triggered on a wall-clock timer.
type Scheduler struct {
	jobs   []Job
	logger *slog.Logger

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// New creates a scheduler.
func New(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Register adds a job. Must be called before Start.
func (s *Scheduler) Register(job Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = append(s.jobs, job)
	s.logger.Debug("registered scheduled job",
		"job", job.Name,
		"interval", job.Interval,
	)
}

// Start launches one goroutine per job. Returns immediately.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.stopChan = make(chan struct{})
	jobs := make([]Job, len(s.jobs))
	copy(jobs, s.jobs)
	s.mu.Unlock()

	for _, job := range jobs {
		s.wg.Add(1)
		go s.runJob(ctx, job)
	}

	s.logger.Info("scheduler started", "jobs", len(jobs))
}

// Stop stops all job loops and waits for in-flight runs to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopChan)
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) runJob(ctx context.Context, job Job) {
	defer s.wg.Done()

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.execute(ctx, job)
		}
	}
}

func (s *Scheduler) execute(ctx context.Context, job Job) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("scheduled job panicked",
				"job", job.Name,
				"panic", r,
			)
		}
	}()

	start := time.Now()
	if err := job.Run(ctx); err != nil {
		s.logger.Error("scheduled job failed",
			"job", job.Name,
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err,
		)
		return
	}

	s.logger.Debug("scheduled job completed",
		"job", job.Name,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
