package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/jobloader/internal/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedis spins up a Redis container and returns a connected RedisCache.
func setupRedis(t *testing.T) *cache.RedisCache {
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

	rc, err := cache.NewRedisCache("redis://" + host + ":" + port.Port())
	require.NoError(t, err)
	t.Cleanup(func() { _ = rc.Close() })

	return rc
}

func TestNewRedisCache_InvalidURL(t *testing.T) {
	_, err := cache.NewRedisCache("not a url")
	assert.Error(t, err)
}

func TestPing(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	rc := setupRedis(t)
	assert.NoError(t, rc.Ping(context.Background()))
}

// --- Job loading status ---

func TestSetGetJobLoadingStatus(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	rc := setupRedis(t)
	ctx := context.Background()
	id := uuid.New()

	require.NoError(t, rc.SetJobLoadingStatus(ctx, id, "pending", 10*time.Second))
	require.NoError(t, rc.SetJobLoadingStatus(ctx, id, "completed", 10*time.Second))

	status, found, err := rc.GetJobLoadingStatus(ctx, id)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "completed", status)
}

func TestGetJobLoadingStatus_NotFound(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	rc := setupRedis(t)

	status, found, err := rc.GetJobLoadingStatus(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, "", status)
}

func TestJobLoadingStatus_TTLExpiry(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	rc := setupRedis(t)
	ctx := context.Background()
	id := uuid.New()

	require.NoError(t, rc.SetJobLoadingStatus(ctx, id, "pending", time.Second))
	time.Sleep(1500 * time.Millisecond)

	_, found, err := rc.GetJobLoadingStatus(ctx, id)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDeleteJobLoadingStatus(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	rc := setupRedis(t)
	ctx := context.Background()
	id := uuid.New()

	require.NoError(t, rc.SetJobLoadingStatus(ctx, id, "error", 10*time.Second))
	require.NoError(t, rc.DeleteJobLoadingStatus(ctx, id))
	// deleting a missing key is fine
	require.NoError(t, rc.DeleteJobLoadingStatus(ctx, id))

	_, found, err := rc.GetJobLoadingStatus(ctx, id)
	require.NoError(t, err)
	assert.False(t, found)
}

// --- IncrWithExpiry ---

func TestIncrWithExpiry(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	rc := setupRedis(t)
	ctx := context.Background()
	key := cache.RateLimitKey(uuid.New())

	for want := int64(1); want <= 3; want++ {
		val, err := rc.IncrWithExpiry(ctx, key, 10*time.Second)
		require.NoError(t, err)
		assert.Equal(t, want, val)
	}
}

func TestIncrWithExpiry_Expires(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	rc := setupRedis(t)
	ctx := context.Background()
	key := cache.RateLimitKey(uuid.New())

	_, err := rc.IncrWithExpiry(ctx, key, time.Second)
	require.NoError(t, err)

	time.Sleep(1500 * time.Millisecond)

	// After expiry, should start from 1 again
	val, err := rc.IncrWithExpiry(ctx, key, 10*time.Second)
	require.NoError(t, err)
	assert.Equal(t, int64(1), val)
}

// --- Key builders ---

func TestJobLoadingStatusKey(t *testing.T) {
	id := uuid.MustParse("22222222-2222-2222-2222-222222222222")
	assert.Equal(t, "jobloading:status:22222222-2222-2222-2222-222222222222", cache.JobLoadingStatusKey(id))
}

func TestRateLimitKey(t *testing.T) {
	org := uuid.MustParse("33333333-3333-3333-3333-333333333333")
	assert.Equal(t, "ratelimit:org:33333333-3333-3333-3333-333333333333", cache.RateLimitKey(org))
}

func TestKeyBuilders_NonColliding(t *testing.T) {
	id := uuid.New()
	assert.NotEqual(t, cache.JobLoadingStatusKey(id), cache.RateLimitKey(id))
}
