package dsr

import (
	"context"
	"encoding/json"
	"log"
	"time"

	redis "github.com/redis/go-redis/v9"

	"placement-crm/backend/internal/models"
)

const queueKey = "dsr:queue"

// Queue holds pending generation jobs in Redis so a nightly run over every
// user does not hold the triggering request open.
type Queue struct {
	client *redis.Client
}

type Job struct {
	UserID    int64     `json:"user_id"`
	Date      string    `json:"date"`
	Force     bool      `json:"force"`
	CreatedAt time.Time `json:"created_at"`
}

func NewQueue(redisURL string) (*Queue, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	return &Queue{client: redis.NewClient(opt)}, nil
}

func (q *Queue) Enqueue(ctx context.Context, job Job) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return q.client.LPush(ctx, queueKey, payload).Err()
}

func (q *Queue) DequeueBatch(ctx context.Context, batchSize int) ([][]byte, error) {
	var items [][]byte
	for i := 0; i < batchSize; i++ {
		item, err := q.client.RPop(ctx, queueKey).Bytes()
		if err == redis.Nil {
			break
		}
		if err != nil {
			return items, err
		}
		items = append(items, item)
	}
	return items, nil
}

// reportRunner is the slice of Service the worker needs.
type reportRunner interface {
	GenerateForUser(ctx context.Context, userID int64, date string, force bool) (*models.DSR, UserResult)
}

// Worker drains the queue, honoring the shared limiter between jobs. When
// the limiter rejects, the rest of the batch is pushed back and the worker
// pauses before polling again.
type Worker struct {
	Queue     *Queue
	Service   reportRunner
	Limiter   *Limiter
	BatchSize int
}

func (w *Worker) Start(ctx context.Context) {
	batch := w.BatchSize
	if batch <= 0 {
		batch = 50
	}

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		items, err := w.Queue.DequeueBatch(ctx, batch)
		if err != nil {
			if !w.wait(ctx, 2*time.Second) {
				return
			}
			continue
		}
		if len(items) == 0 {
			if !w.wait(ctx, 500*time.Millisecond) {
				return
			}
			continue
		}

		remaining := w.drain(ctx, items)
		if len(remaining) == 0 {
			continue
		}
		for _, raw := range remaining {
			if err := w.Queue.client.LPush(ctx, queueKey, raw).Err(); err != nil {
				log.Printf("dsr: requeue failed: %v", err)
			}
		}
		if !w.wait(ctx, 5*time.Second) {
			return
		}
	}
}

// drain runs jobs until the limiter rejects one, then returns that item and
// everything after it untouched so Start can push them back.
func (w *Worker) drain(ctx context.Context, items [][]byte) [][]byte {
	for i, raw := range items {
		var job Job
		if err := json.Unmarshal(raw, &job); err != nil {
			continue
		}
		if w.Limiter != nil && !w.Limiter.Allow() {
			return items[i:]
		}
		ctxTimeout, cancel := context.WithTimeout(ctx, 2*time.Minute)
		_, result := w.Service.GenerateForUser(ctxTimeout, job.UserID, job.Date, job.Force)
		cancel()
		if result.Status == "error" {
			log.Printf("dsr: generation for user %d failed: %s", job.UserID, result.Error)
		}
	}
	return nil
}

// wait sleeps for d unless the context ends first; false means shut down.
func (w *Worker) wait(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
