package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrMalformedTask is returned by Dequeue when the popped payload cannot be
// decoded. The payload is already removed from the list.
var ErrMalformedTask = errors.New("malformed task payload")

// Task asks a worker to ingest one pending job loading.
type Task struct {
	JobLoadingID uuid.UUID `json:"job_loading_id"`
	SourceURL    string    `json:"source_url"`
	EnqueuedAt   time.Time `json:"enqueued_at"`
}

// Queue is a FIFO of ingestion tasks shared by the API and the workers.
type Queue interface {
	Enqueue(ctx context.Context, task Task) error
	// Dequeue blocks up to wait for a task. It returns nil, nil when none arrived.
	Dequeue(ctx context.Context, wait time.Duration) (*Task, error)
	Len(ctx context.Context) (int64, error)
	Ping(ctx context.Context) error
}

// RedisQueue implements Queue on a Redis list: LPUSH to enqueue, BRPOP to dequeue.
type RedisQueue struct {
	client *redis.Client
	name   string
}

// NewRedisQueue creates a RedisQueue on the list called name.
func NewRedisQueue(redisURL, name string) (*RedisQueue, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, fmt.Errorf("queue name is required")
	}
	return &RedisQueue{client: redis.NewClient(opts), name: name}, nil
}

func (q *RedisQueue) Enqueue(ctx context.Context, task Task) error {
	if task.EnqueuedAt.IsZero() {
		task.EnqueuedAt = time.Now().UTC()
	}
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("encode task: %w", err)
	}
	if err := q.client.LPush(ctx, q.name, payload).Err(); err != nil {
		return fmt.Errorf("enqueue task: %w", err)
	}
	return nil
}

func (q *RedisQueue) Dequeue(ctx context.Context, wait time.Duration) (*Task, error) {
	res, err := q.client.BRPop(ctx, wait, q.name).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("dequeue task: %w", err)
	}
	// res is [list name, payload]
	if len(res) != 2 {
		return nil, fmt.Errorf("%w: unexpected reply %q", ErrMalformedTask, res)
	}

	var task Task
	if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedTask, err)
	}
	if task.JobLoadingID == uuid.Nil {
		return nil, fmt.Errorf("%w: missing job_loading_id", ErrMalformedTask)
	}
	return &task, nil
}

func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.name).Result()
}

func (q *RedisQueue) Ping(ctx context.Context) error {
	return q.client.Ping(ctx).Err()
}

func (q *RedisQueue) Close() error {
	return q.client.Close()
}
