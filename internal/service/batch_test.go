package service

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vidscribe/internal/core/domain"
	"vidscribe/internal/core/ports"
	"vidscribe/internal/logging"
)

func testJobs(n int) []domain.Job {
	jobs := make([]domain.Job, n)
	for i := range jobs {
		jobs[i] = domain.Job{
			ID:  fmt.Sprintf("job-%d", i),
			URL: fmt.Sprintf("https://example.com/v/%d", i),
		}
	}
	return jobs
}

func succeedingRunner(delay time.Duration) ports.JobRunnerFunc {
	return func(ctx context.Context, job domain.Job) domain.Outcome {
		if delay > 0 {
			time.Sleep(delay)
		}
		return domain.Outcome{
			Job:    job,
			Status: domain.StatusSucceeded,
			Results: []domain.ProcessResult{
				{MarkdownPath: job.ID + ".md"},
			},
		}
	}
}

func TestRunBatchNilRunner(t *testing.T) {
	log := logging.New(&bytes.Buffer{}, false)
	_, err := RunBatch(context.Background(), testJobs(1), nil, log, BatchOptions{})
	require.Error(t, err)
}

func TestRunBatchEmpty(t *testing.T) {
	log := logging.New(&bytes.Buffer{}, false)
	summary, err := RunBatch(context.Background(), nil, succeedingRunner(0), log, BatchOptions{MaxWorkers: 3})
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Total)
	assert.Empty(t, summary.Outcomes)
}

func TestRunBatchOneOutcomePerJobInInputOrder(t *testing.T) {
	jobs := testJobs(7)
	log := logging.New(&bytes.Buffer{}, false)

	summary, err := RunBatch(context.Background(), jobs, succeedingRunner(time.Millisecond), log, BatchOptions{MaxWorkers: 4})
	require.NoError(t, err)

	require.Len(t, summary.Outcomes, len(jobs))
	for i, outcome := range summary.Outcomes {
		assert.Equal(t, jobs[i].ID, outcome.Job.ID)
		assert.Equal(t, domain.StatusSucceeded, outcome.Status)
	}
	assert.Equal(t, len(jobs), summary.Succeeded)
	assert.Zero(t, summary.Failed)
}

func TestRunBatchFailureIsolation(t *testing.T) {
	jobs := testJobs(5)
	runner := ports.JobRunnerFunc(func(ctx context.Context, job domain.Job) domain.Outcome {
		switch job.ID {
		case "job-1":
			return domain.Outcome{
				Job:     job,
				Status:  domain.StatusFailed,
				Kind:    domain.FailureNetwork,
				Message: "connection reset",
			}
		case "job-3":
			panic("boom")
		default:
			return domain.Outcome{Job: job, Status: domain.StatusSucceeded}
		}
	})

	var buf bytes.Buffer
	log := logging.New(&buf, false)
	summary, err := RunBatch(context.Background(), jobs, runner, log, BatchOptions{MaxWorkers: 3})
	require.NoError(t, err)

	require.Len(t, summary.Outcomes, 5)
	assert.Equal(t, 3, summary.Succeeded)
	assert.Equal(t, 2, summary.Failed)

	assert.Equal(t, domain.FailureNetwork, summary.Outcomes[1].Kind)
	assert.Equal(t, domain.StatusFailed, summary.Outcomes[3].Status)
	assert.Equal(t, domain.FailureInternal, summary.Outcomes[3].Kind)
	assert.Contains(t, summary.Outcomes[3].Message, "panic")

	lines := regexp.MustCompile(`\[\d/5\]`).FindAllString(buf.String(), -1)
	assert.Len(t, lines, 5, "exactly one progress line per job")
}

func TestRunBatchSmallBatchesRunSequentially(t *testing.T) {
	var current, peak atomic.Int64
	runner := ports.JobRunnerFunc(func(ctx context.Context, job domain.Job) domain.Outcome {
		n := current.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		current.Add(-1)
		return domain.Outcome{Job: job, Status: domain.StatusSucceeded}
	})

	log := logging.New(&bytes.Buffer{}, false)
	summary, err := RunBatch(context.Background(), testJobs(2), runner, log, BatchOptions{MaxWorkers: 8})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Succeeded)
	assert.Equal(t, int64(1), peak.Load())
}

func TestRunBatchSequentialOptionForcesOneAtATime(t *testing.T) {
	var current, peak atomic.Int64
	runner := ports.JobRunnerFunc(func(ctx context.Context, job domain.Job) domain.Outcome {
		n := current.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		current.Add(-1)
		return domain.Outcome{Job: job, Status: domain.StatusSucceeded}
	})

	log := logging.New(&bytes.Buffer{}, false)
	_, err := RunBatch(context.Background(), testJobs(6), runner, log, BatchOptions{MaxWorkers: 4, Sequential: true})
	require.NoError(t, err)
	assert.Equal(t, int64(1), peak.Load())
}

func TestRunBatchClampsWorkers(t *testing.T) {
	var current, peak atomic.Int64
	runner := ports.JobRunnerFunc(func(ctx context.Context, job domain.Job) domain.Outcome {
		n := current.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		current.Add(-1)
		return domain.Outcome{Job: job, Status: domain.StatusSucceeded}
	})

	log := logging.New(&bytes.Buffer{}, false)
	_, err := RunBatch(context.Background(), testJobs(20), runner, log, BatchOptions{MaxWorkers: 99})
	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int64(8))
}

func TestRunBatchParallelMatchesSequential(t *testing.T) {
	jobs := testJobs(9)
	runner := ports.JobRunnerFunc(func(ctx context.Context, job domain.Job) domain.Outcome {
		if strings.HasSuffix(job.ID, "2") || strings.HasSuffix(job.ID, "7") {
			return domain.Outcome{Job: job, Status: domain.StatusFailed, Kind: domain.FailureUnsupported, Message: "no transcript"}
		}
		return domain.Outcome{Job: job, Status: domain.StatusSucceeded}
	})

	log := logging.New(&bytes.Buffer{}, false)
	seq, err := RunBatch(context.Background(), jobs, runner, log, BatchOptions{Sequential: true})
	require.NoError(t, err)
	par, err := RunBatch(context.Background(), jobs, runner, log, BatchOptions{MaxWorkers: 4})
	require.NoError(t, err)

	require.Len(t, par.Outcomes, len(seq.Outcomes))
	for i := range seq.Outcomes {
		assert.Equal(t, seq.Outcomes[i].Job.ID, par.Outcomes[i].Job.ID)
		assert.Equal(t, seq.Outcomes[i].Status, par.Outcomes[i].Status)
	}
	assert.Equal(t, seq.Succeeded, par.Succeeded)
	assert.Equal(t, seq.Failed, par.Failed)
}

func TestRunBatchCountsSkipped(t *testing.T) {
	jobs := testJobs(3)
	runner := ports.JobRunnerFunc(func(ctx context.Context, job domain.Job) domain.Outcome {
		if job.ID == "job-0" {
			return domain.Outcome{
				Job:    job,
				Status: domain.StatusSkipped,
				Results: []domain.ProcessResult{
					{Meta: domain.VideoMeta{Source: domain.SourceSkipped}, MarkdownPath: "existing.md"},
				},
			}
		}
		return domain.Outcome{Job: job, Status: domain.StatusSucceeded}
	})

	log := logging.New(&bytes.Buffer{}, false)
	summary, err := RunBatch(context.Background(), jobs, runner, log, BatchOptions{MaxWorkers: 3})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 2, summary.Succeeded)
}

func TestRunBatchNonTerminalOutcomeIsFailed(t *testing.T) {
	runner := ports.JobRunnerFunc(func(ctx context.Context, job domain.Job) domain.Outcome {
		return domain.Outcome{Job: job, Status: domain.StatusRunning}
	})

	log := logging.New(&bytes.Buffer{}, false)
	summary, err := RunBatch(context.Background(), testJobs(1), runner, log, BatchOptions{})
	require.NoError(t, err)
	require.Len(t, summary.Outcomes, 1)
	assert.Equal(t, domain.StatusFailed, summary.Outcomes[0].Status)
	assert.Equal(t, domain.FailureInternal, summary.Outcomes[0].Kind)
}
