package service

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"

	"vidscribe/internal/config"
	"vidscribe/internal/core/domain"
	"vidscribe/internal/core/ports"
	"vidscribe/internal/logging"
)

// BatchOptions tunes the batch scheduler.
type BatchOptions struct {
	// MaxWorkers is the requested concurrency. Values outside 1..8 are
	// clamped, and the pool never exceeds the number of jobs.
	MaxWorkers int
	// Sequential forces one-at-a-time processing regardless of MaxWorkers.
	Sequential bool
}

// Batches this small gain nothing from a pool.
const sequentialThreshold = 2

// RunBatch processes every job and returns a summary holding exactly one
// outcome per job, in input order. Per-job failures are contained in the
// outcomes; the returned error is reserved for structural problems with
// the batch itself.
func RunBatch(ctx context.Context, jobs []domain.Job, runner ports.JobRunner, log *logging.Logger, opts BatchOptions) (*domain.BatchSummary, error) {
	if runner == nil {
		return nil, fmt.Errorf("batch: runner must not be nil")
	}

	summary := &domain.BatchSummary{Total: len(jobs)}
	if len(jobs) == 0 {
		return summary, nil
	}

	if opts.Sequential || len(jobs) <= sequentialThreshold {
		log.Infof("processing %d video(s) sequentially", len(jobs))
		for i, job := range jobs {
			log.Infof("==> processing %d/%d: %s", i+1, len(jobs), job.URL)
			outcome := runJob(ctx, runner, job)
			logProgress(log, i+1, len(jobs), outcome)
			summary.Add(outcome)
		}
		logSummary(log, summary)
		return summary, nil
	}

	workers := config.ClampWorkers(opts.MaxWorkers)
	if workers > len(jobs) {
		workers = len(jobs)
	}
	log.Infof("processing %d videos with %d workers", len(jobs), workers)

	outcomes := make([]domain.Outcome, len(jobs))
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	var completed atomic.Int64

	for i, job := range jobs {
		wg.Add(1)
		go func(idx int, job domain.Job) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			outcome := runJob(ctx, runner, job)
			outcomes[idx] = outcome
			logProgress(log, int(completed.Add(1)), len(jobs), outcome)
		}(i, job)
	}
	wg.Wait()

	for _, outcome := range outcomes {
		summary.Add(outcome)
	}
	logSummary(log, summary)
	return summary, nil
}

// runJob invokes the runner and converts a worker panic into a failed
// outcome so one bad job cannot take the batch down.
func runJob(ctx context.Context, runner ports.JobRunner, job domain.Job) (outcome domain.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			outcome = domain.Outcome{
				Job:     job,
				Status:  domain.StatusFailed,
				Kind:    domain.FailureInternal,
				Message: fmt.Sprintf("panic while processing %s: %v", job.URL, r),
			}
		}
	}()
	outcome = runner.Run(ctx, job)
	if !outcome.Status.IsTerminal() {
		outcome.Status = domain.StatusFailed
		outcome.Kind = domain.FailureInternal
		outcome.Message = "runner returned without a terminal status"
	}
	return outcome
}

// logProgress emits exactly one line per finished job. done counts
// completions, not input positions, so parallel runs stay readable.
func logProgress(log *logging.Logger, done, total int, outcome domain.Outcome) {
	switch outcome.Status {
	case domain.StatusSucceeded:
		log.Infof("[%d/%d] done: %s", done, total, filepath.Base(outcome.ArtifactPath()))
	case domain.StatusSkipped:
		log.Infof("[%d/%d] skipped (exists): %s", done, total, filepath.Base(outcome.ArtifactPath()))
	default:
		log.Warnf("[%d/%d] failed: %s -> %s", done, total, outcome.Job.URL, outcome.Message)
	}
}

func logSummary(log *logging.Logger, s *domain.BatchSummary) {
	log.Infof("batch finished: %d succeeded, %d skipped, %d failed (total %d)",
		s.Succeeded, s.Skipped, s.Failed, s.Total)
	for _, line := range s.Failures() {
		log.Warnf("  failed: %s", line)
	}
}
