package queue_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/jobloader/internal/queue"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedis spins up a Redis container and returns its URL.
func setupRedis(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, container.Terminate(ctx)) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	return "redis://" + host + ":" + port.Port()
}

func newQueue(t *testing.T, url string) *queue.RedisQueue {
	t.Helper()
	q, err := queue.NewRedisQueue(url, "jobloader:test:"+uuid.NewString()[:8])
	require.NoError(t, err)
	t.Cleanup(func() { _ = q.Close() })
	return q
}

func TestNewRedisQueue_Validation(t *testing.T) {
	_, err := queue.NewRedisQueue("redis://localhost:6379", "")
	assert.Error(t, err)

	_, err = queue.NewRedisQueue("::bad::", "q")
	assert.Error(t, err)
}

func TestRedisQueue_FIFO(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	q := newQueue(t, setupRedis(t))
	ctx := context.Background()

	first := queue.Task{JobLoadingID: uuid.New(), SourceURL: "https://example.com/1"}
	second := queue.Task{JobLoadingID: uuid.New(), SourceURL: "https://example.com/2"}
	require.NoError(t, q.Enqueue(ctx, first))
	require.NoError(t, q.Enqueue(ctx, second))

	n, err := q.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	got, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, first.JobLoadingID, got.JobLoadingID)
	assert.Equal(t, "https://example.com/1", got.SourceURL)
	assert.False(t, got.EnqueuedAt.IsZero())

	got, err = q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, second.JobLoadingID, got.JobLoadingID)
}

func TestRedisQueue_DequeueTimeout(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	q := newQueue(t, setupRedis(t))

	start := time.Now()
	got, err := q.Dequeue(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.GreaterOrEqual(t, time.Since(start), 900*time.Millisecond)
}

func TestRedisQueue_MalformedPayload(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	url := setupRedis(t)
	name := "jobloader:test:malformed"
	q, err := queue.NewRedisQueue(url, name)
	require.NoError(t, err)
	t.Cleanup(func() { _ = q.Close() })

	opts, err := redis.ParseURL(url)
	require.NoError(t, err)
	raw := redis.NewClient(opts)
	t.Cleanup(func() { _ = raw.Close() })
	require.NoError(t, raw.LPush(context.Background(), name, "not json").Err())

	_, err = q.Dequeue(context.Background(), time.Second)
	assert.ErrorIs(t, err, queue.ErrMalformedTask)

	// the bad payload is consumed
	n, err := q.Len(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRedisQueue_Ping(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	q := newQueue(t, setupRedis(t))
	assert.NoError(t, q.Ping(context.Background()))
}
