package querycache_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/tenantguard/pkg/querycache"
)

func value(s string) querycache.Fetcher {
	return func(context.Context) ([]byte, error) { return []byte(s), nil }
}

var tenantKeys = []string{
	"/api/projects",
	"/api/clients",
	"/api/tasks?project=1",
	"/api/time-entries",
	"/api/auth/me",
	"/api/analytics/summary",
	"/api/records/projects",
	"/api/unregistered-feature",
}

func populate(t *testing.T, c *querycache.Cache, label string) {
	t.Helper()
	ctx := context.Background()
	for _, k := range tenantKeys {
		_, err := c.Fetch(ctx, k, value(label+k))
		require.NoError(t, err)
	}
}

func TestCache_TransitionLeavesNoTenantSurvivors(t *testing.T) {
	ctx := context.Background()
	backend := querycache.NewMemoryBackend()
	c := querycache.New(backend, nil)

	c.SetContext("tenant:A")
	populate(t, c, "A")
	_, err := c.Fetch(ctx, "/api/superadmin/tenants", value("directory"))
	require.NoError(t, err)

	n, err := c.ClearTenantScoped(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(tenantKeys), n)
	c.SetContext("tenant:B")

	for _, k := range tenantKeys {
		_, ok, err := c.Get(ctx, k)
		require.NoError(t, err)
		assert.False(t, ok, k)
	}
	assert.Zero(t, backend.Len(querycache.ScopeTenant))

	dir, ok, err := c.Get(ctx, "/api/superadmin/tenants")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "directory", string(dir))
}

func TestCache_StampRejectsEntriesFromAnotherContext(t *testing.T) {
	ctx := context.Background()
	c := querycache.New(querycache.NewMemoryBackend(), nil)

	c.SetContext("tenant:A")
	populate(t, c, "A")

	// No clear: the stamp alone keeps A's data from surfacing under B.
	c.SetContext("tenant:B")
	for _, k := range tenantKeys {
		got, err := c.Fetch(ctx, k, value("B"+k))
		require.NoError(t, err)
		assert.Equal(t, "B"+k, string(got))
	}
}

func TestCache_StartStopStartNeverLeaks(t *testing.T) {
	ctx := context.Background()
	c := querycache.New(querycache.NewMemoryBackend(), nil)

	transition := func(stamp string) {
		_, err := c.ClearTenantScoped(ctx)
		require.NoError(t, err)
		c.SetContext(stamp)
	}

	transition("impersonating:T1")
	populate(t, c, "T1")

	transition("platform")
	for _, k := range tenantKeys {
		_, ok, err := c.Get(ctx, k)
		require.NoError(t, err)
		assert.False(t, ok, k)
	}

	transition("impersonating:T2")
	for i, k := range tenantKeys {
		got, err := c.Fetch(ctx, k, value(fmt.Sprintf("T2-%d", i)))
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("T2-%d", i), string(got))
	}
}

func TestCache_LateResponseDropped(t *testing.T) {
	ctx := context.Background()
	c := querycache.New(querycache.NewMemoryBackend(), nil)
	c.SetContext("tenant:A")

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	var cancelled bool
	go func() {
		_, err := c.Fetch(ctx, "/api/projects", func(fctx context.Context) ([]byte, error) {
			close(started)
			<-release
			cancelled = fctx.Err() != nil
			// A slow backend that ignores cancellation still answers.
			return []byte("stale"), nil
		})
		done <- err
	}()

	<-started
	_, err := c.ClearTenantScoped(ctx)
	require.NoError(t, err)
	c.SetContext("tenant:B")
	close(release)

	select {
	case err := <-done:
		require.ErrorIs(t, err, querycache.ErrStale)
	case <-time.After(2 * time.Second):
		t.Fatal("fetch did not return")
	}
	assert.True(t, cancelled)

	_, ok, err := c.Get(ctx, "/api/projects")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCache_PlatformClearKeepsTenantEntries(t *testing.T) {
	ctx := context.Background()
	c := querycache.New(querycache.NewMemoryBackend(), nil)
	c.SetContext("tenant:A")

	_, err := c.Fetch(ctx, "/api/projects", value("p"))
	require.NoError(t, err)
	_, err = c.Fetch(ctx, "/api/superadmin/tenants", value("d"))
	require.NoError(t, err)

	n, err := c.ClearPlatformScoped(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, ok, _ := c.Get(ctx, "/api/projects")
	assert.True(t, ok)
	_, ok, _ = c.Get(ctx, "/api/superadmin/tenants")
	assert.False(t, ok)
}

func TestCache_Invalidate(t *testing.T) {
	ctx := context.Background()
	c := querycache.New(querycache.NewMemoryBackend(), nil)

	_, err := c.Fetch(ctx, "/api/superadmin/tenants", value("v1"))
	require.NoError(t, err)
	require.NoError(t, c.Invalidate(ctx, "/api/superadmin/tenants"))

	got, err := c.Fetch(ctx, "/api/superadmin/tenants", value("v2"))
	require.NoError(t, err)
	assert.Equal(t, "v2", string(got))
}

func TestCache_FetchErrorNotStored(t *testing.T) {
	ctx := context.Background()
	c := querycache.New(querycache.NewMemoryBackend(), nil)

	_, err := c.Fetch(ctx, "/api/tasks", func(context.Context) ([]byte, error) {
		return nil, fmt.Errorf("boom")
	})
	require.Error(t, err)
	_, ok, _ := c.Get(ctx, "/api/tasks")
	assert.False(t, ok)
}
