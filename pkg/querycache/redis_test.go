package querycache_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/tenantguard/pkg/querycache"
)

func TestRedisBackend_ClearTenantScoped(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	opts, err := redis.ParseURL(url)
	require.NoError(t, err)
	client := redis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	require.NoError(t, client.Ping(ctx).Err())

	namespace := "qc-test-" + uuid.NewString()
	backend := querycache.NewRedisBackend(client, namespace, time.Minute)
	c := querycache.New(backend, nil)
	c.SetContext("tenant:A")

	populate(t, c, "A")
	_, err = c.Fetch(ctx, "/api/superadmin/tenants", value("directory"))
	require.NoError(t, err)

	n, err := c.ClearTenantScoped(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(tenantKeys), n)

	for _, k := range tenantKeys {
		_, ok, err := c.Get(ctx, k)
		require.NoError(t, err)
		assert.False(t, ok, k)
	}
	_, ok, err := c.Get(ctx, "/api/superadmin/tenants")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = c.ClearPlatformScoped(ctx)
	require.NoError(t, err)
}
