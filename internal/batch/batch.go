// Package batch runs a fixed set of jobs across a bounded pool of workers
// and collects the results in submission order.
package batch

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

// Job is a unit of work. It carries its own inputs; Execute returns whatever
// the caller wants back out.
type Job interface {
	ID() string
	Execute(ctx context.Context) (any, error)
}

// Result pairs a job's output (or error) with its identifier. Results keep
// the submission order of the jobs that produced them.
type Result struct {
	JobID string
	Value any
	Err   error
}

// Runner executes job batches with at most Workers running at once.
type Runner struct {
	Workers int
	Log     *logrus.Logger
}

// NewRunner returns a Runner with the given concurrency. workers below 1 is
// treated as 1.
func NewRunner(workers int, log *logrus.Logger) *Runner {
	if workers < 1 {
		workers = 1
	}
	if log == nil {
		log = logrus.New()
	}
	return &Runner{Workers: workers, Log: log}
}

// Run executes all jobs and returns one Result per job, in the same order
// the jobs were given. A failed job never stops its siblings; its Result
// carries the error. Run returns once every job has finished or the context
// is cancelled, in which case unstarted jobs report ctx.Err().
func (r *Runner) Run(ctx context.Context, jobs []Job) []Result {
	results := make([]Result, len(jobs))

	type indexed struct {
		idx int
		job Job
	}
	queue := make(chan indexed)

	var wg sync.WaitGroup
	for w := 0; w < r.Workers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for item := range queue {
				r.Log.WithFields(logrus.Fields{
					"worker": workerID,
					"job_id": item.job.ID(),
				}).Info("Worker started job")

				value, err := item.job.Execute(ctx)
				results[item.idx] = Result{JobID: item.job.ID(), Value: value, Err: err}

				if err != nil {
					r.Log.WithFields(logrus.Fields{
						"worker": workerID,
						"job_id": item.job.ID(),
					}).WithError(err).Error("Worker job failed")
				} else {
					r.Log.WithFields(logrus.Fields{
						"worker": workerID,
						"job_id": item.job.ID(),
					}).Info("Worker finished job")
				}
			}
		}(w + 1)
	}

submit:
	for i, job := range jobs {
		select {
		case <-ctx.Done():
			for j := i; j < len(jobs); j++ {
				results[j] = Result{JobID: jobs[j].ID(), Err: ctx.Err()}
			}
			break submit
		case queue <- indexed{idx: i, job: job}:
		}
	}
	close(queue)
	wg.Wait()

	return results
}
