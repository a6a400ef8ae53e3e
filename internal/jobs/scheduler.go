package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Job is a unit of background work
type Job interface {
	Run(ctx context.Context) error
}

// Scheduler is responsible for running background jobs
type Scheduler struct {
	logger    *slog.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	isRunning bool
	wg        sync.WaitGroup

	// Mutex to prevent concurrent job executions
	processingMutex sync.Mutex
	isProcessing    bool

	cleanupJob      Job
	cleanupInterval time.Duration
	warmJob         Job
	warmInterval    time.Duration

	tickers []*time.Ticker
}

// NewScheduler creates a scheduler. A nil job is skipped.
func NewScheduler(cleanup Job, cleanupInterval time.Duration, warm Job, warmInterval time.Duration, logger *slog.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		logger:          logger,
		ctx:             ctx,
		cancel:          cancel,
		cleanupJob:      cleanup,
		cleanupInterval: cleanupInterval,
		warmJob:         warm,
		warmInterval:    warmInterval,
	}
}

// executeJobSafely runs a job only if no other job is currently executing
func (s *Scheduler) executeJobSafely(jobName string, job Job) {
	s.processingMutex.Lock()
	if s.isProcessing {
		s.logger.Debug("Skipping job execution - previous job still running", slog.String("job", jobName))
		s.processingMutex.Unlock()
		return
	}
	s.isProcessing = true
	s.processingMutex.Unlock()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Panic recovered in background job",
				slog.String("job", jobName),
				slog.Any("panic", r))
		}

		s.processingMutex.Lock()
		s.isProcessing = false
		s.processingMutex.Unlock()
	}()

	if err := job.Run(s.ctx); err != nil && s.ctx.Err() == nil {
		s.logger.Error("Error executing job", slog.String("job", jobName), slog.Any("error", err))
	}
}

// Start begins all background jobs
func (s *Scheduler) Start() error {
	if s.isRunning {
		s.logger.Info("Background jobs already running.")
		return nil
	}

	s.logger.Info("Starting background jobs...")
	s.isRunning = true

	s.startJob("snapshot_cleanup", s.cleanupJob, s.cleanupInterval)
	s.startJob("snapshot_warm", s.warmJob, s.warmInterval)

	s.logger.Info("Background jobs started", slog.Bool("isRunning", s.isRunning))
	return nil
}

func (s *Scheduler) startJob(name string, job Job, interval time.Duration) {
	if job == nil || interval <= 0 {
		s.logger.Debug("Background job disabled", slog.String("job", name))
		return
	}

	s.logger.Info("Starting job", slog.String("job", name), slog.Duration("interval", interval))
	ticker := time.NewTicker(interval)
	s.tickers = append(s.tickers, ticker)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		s.executeJobSafely(name, job)

		for {
			select {
			case <-ticker.C:
				s.executeJobSafely(name, job)
			case <-s.ctx.Done():
				s.logger.Info("Job stopped", slog.String("job", name))
				return
			}
		}
	}()
}

// Stop halts all background jobs and waits for running ones to return
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping background jobs...")

	for _, ticker := range s.tickers {
		ticker.Stop()
	}

	s.cancel()
	s.wg.Wait()
	s.isRunning = false
	s.logger.Info("Background jobs stopped")
}

// IsRunning returns whether jobs are currently running
func (s *Scheduler) IsRunning() bool {
	return s.isRunning
}
