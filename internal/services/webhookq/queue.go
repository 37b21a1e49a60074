package webhookq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Handler processes one dequeued job. A nil return (including a swallowed
// duplicate) counts as success.
type Handler interface {
	Process(ctx context.Context, job *Job) error
}

// Queue is a bounded in-process FIFO with a single drain goroutine. Enqueue
// never blocks: past capacity it fails fast with ErrQueueFull so the HTTP
// boundary can tell the carrier to retry.
type Queue struct {
	jobs    chan *Job
	handler Handler

	jobTimeout  time.Duration
	maxAttempts int
	baseBackoff time.Duration

	enqueued  atomic.Int64
	processed atomic.Int64
	failed    atomic.Int64
}

func NewQueue(h Handler, capacity int) *Queue {
	if capacity <= 0 {
		capacity = 1000
	}
	return &Queue{
		jobs:        make(chan *Job, capacity),
		handler:     h,
		jobTimeout:  30 * time.Second,
		maxAttempts: 3,
		baseBackoff: 500 * time.Millisecond,
	}
}

func (q *Queue) WithSettings(jobTimeout time.Duration, maxAttempts int, baseBackoff time.Duration) *Queue {
	if jobTimeout > 0 {
		q.jobTimeout = jobTimeout
	}
	if maxAttempts > 0 {
		q.maxAttempts = maxAttempts
	}
	if baseBackoff > 0 {
		q.baseBackoff = baseBackoff
	}
	return q
}

// Enqueue accepts a job and returns its id without waiting for processing.
func (q *Queue) Enqueue(kind Kind, payload []byte) (string, error) {
	job := &Job{
		ID:         uuid.NewString(),
		Kind:       kind,
		Payload:    json.RawMessage(payload),
		EnqueuedAt: time.Now().UTC(),
	}
	select {
	case q.jobs <- job:
		q.enqueued.Add(1)
		return job.ID, nil
	default:
		return "", ErrQueueFull
	}
}

func (q *Queue) Len() int { return len(q.jobs) }

type QueueStats struct {
	Depth     int   `json:"depth"`
	Enqueued  int64 `json:"enqueued"`
	Processed int64 `json:"processed"`
	Failed    int64 `json:"failed"`
}

func (q *Queue) Stats() QueueStats {
	return QueueStats{
		Depth:     len(q.jobs),
		Enqueued:  q.enqueued.Load(),
		Processed: q.processed.Load(),
		Failed:    q.failed.Load(),
	}
}

// Run drains the queue one job at a time until ctx is cancelled. Per-waybill
// ordering matters for scan events, so there is exactly one drain loop.
func (q *Queue) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case job := <-q.jobs:
			q.runJob(ctx, job)
		}
	}
}

func (q *Queue) runJob(ctx context.Context, job *Job) {
	for job.Attempts < q.maxAttempts {
		job.Attempts++

		err := q.attempt(ctx, job)
		if err == nil {
			q.processed.Add(1)
			return
		}
		job.LastError = err.Error()
		slog.Warn("webhook job attempt failed",
			"job_id", job.ID, "kind", string(job.Kind),
			"attempt", job.Attempts, "error", err.Error())

		if job.Attempts >= q.maxAttempts {
			break
		}
		backoff := q.baseBackoff << (job.Attempts - 1)
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
	}

	q.failed.Add(1)
	slog.Error("webhook job dropped",
		"job_id", job.ID, "kind", string(job.Kind),
		"attempts", job.Attempts, "error", job.LastError)
}

// attempt runs the handler under the per-job timeout with a panic boundary.
// Shutdown does not cancel an in-flight job; it finishes or hits its timeout.
func (q *Queue) attempt(ctx context.Context, job *Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	jctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), q.jobTimeout)
	defer cancel()
	return q.handler.Process(jctx, job)
}
