package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

type fakeJob struct {
	id    string
	value any
	err   error
	delay time.Duration
	runs  *atomic.Int32
}

func (j *fakeJob) ID() string { return j.id }

func (j *fakeJob) Execute(_ context.Context) (any, error) {
	if j.runs != nil {
		j.runs.Add(1)
	}
	if j.delay > 0 {
		time.Sleep(j.delay)
	}
	return j.value, j.err
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestRunPreservesOrder(t *testing.T) {
	jobs := make([]Job, 6)
	for i := range jobs {
		jobs[i] = &fakeJob{id: fmt.Sprintf("job-%d", i), value: i * 10}
	}

	results := NewRunner(3, quietLogger()).Run(context.Background(), jobs)

	if len(results) != 6 {
		t.Fatalf("expected 6 results, got %d", len(results))
	}
	for i, res := range results {
		if res.JobID != fmt.Sprintf("job-%d", i) {
			t.Errorf("result %d carries job %s", i, res.JobID)
		}
		if res.Value != i*10 {
			t.Errorf("result %d value = %v, want %d", i, res.Value, i*10)
		}
	}
}

func TestRunFailedJobDoesNotStopSiblings(t *testing.T) {
	boom := errors.New("upload rejected")
	var runs atomic.Int32
	jobs := []Job{
		&fakeJob{id: "a", value: "ok-a", runs: &runs},
		&fakeJob{id: "b", err: boom, runs: &runs},
		&fakeJob{id: "c", value: "ok-c", runs: &runs},
	}

	results := NewRunner(2, quietLogger()).Run(context.Background(), jobs)

	if runs.Load() != 3 {
		t.Errorf("expected all 3 jobs to run, got %d", runs.Load())
	}
	if !errors.Is(results[1].Err, boom) {
		t.Errorf("result b err = %v, want %v", results[1].Err, boom)
	}
	if results[0].Err != nil || results[2].Err != nil {
		t.Errorf("siblings failed: %v, %v", results[0].Err, results[2].Err)
	}
}

func TestRunBoundsConcurrency(t *testing.T) {
	const workers = 2
	var mu sync.Mutex
	var active, peak int

	jobs := make([]Job, 8)
	for i := range jobs {
		i := i
		jobs[i] = &countingJob{
			id: fmt.Sprintf("job-%d", i),
			fn: func() {
				mu.Lock()
				active++
				if active > peak {
					peak = active
				}
				mu.Unlock()
				time.Sleep(10 * time.Millisecond)
				mu.Lock()
				active--
				mu.Unlock()
			},
		}
	}

	NewRunner(workers, quietLogger()).Run(context.Background(), jobs)

	if peak > workers {
		t.Errorf("observed %d concurrent jobs, limit is %d", peak, workers)
	}
}

type countingJob struct {
	id string
	fn func()
}

func (j *countingJob) ID() string { return j.id }

func (j *countingJob) Execute(_ context.Context) (any, error) {
	j.fn()
	return nil, nil
}

func TestRunCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	jobs := []Job{
		&fakeJob{id: "a", delay: 50 * time.Millisecond},
		&fakeJob{id: "b", delay: 50 * time.Millisecond},
	}

	results := NewRunner(1, quietLogger()).Run(ctx, jobs)

	for i, res := range results {
		if res.Err != nil && !errors.Is(res.Err, context.Canceled) {
			t.Errorf("result %d err = %v", i, res.Err)
		}
	}
	if results[len(results)-1].Err == nil {
		t.Error("expected at least the last job to report cancellation")
	}
}
