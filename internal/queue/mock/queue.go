// Package mock provides an in-memory queue.Queue for tests.
package mock

import (
	"context"
	"sync"
	"time"

	"github.com/kiranshivaraju/jobloader/internal/queue"
)

// Queue is a FIFO slice. Dequeue does not block.
type Queue struct {
	mu    sync.Mutex
	tasks []queue.Task

	EnqueueErr error
	PingErr    error
}

func (q *Queue) Enqueue(_ context.Context, task queue.Task) error {
	if q.EnqueueErr != nil {
		return q.EnqueueErr
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tasks = append(q.tasks, task)
	return nil
}

func (q *Queue) Dequeue(_ context.Context, _ time.Duration) (*queue.Task, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.tasks) == 0 {
		return nil, nil
	}
	t := q.tasks[0]
	q.tasks = q.tasks[1:]
	return &t, nil
}

func (q *Queue) Len(_ context.Context) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return int64(len(q.tasks)), nil
}

func (q *Queue) Ping(_ context.Context) error { return q.PingErr }

// Tasks returns a copy of the queued tasks.
func (q *Queue) Tasks() []queue.Task {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]queue.Task(nil), q.tasks...)
}

// Compile-time check that Queue implements queue.Queue.
var _ queue.Queue = (*Queue)(nil)
