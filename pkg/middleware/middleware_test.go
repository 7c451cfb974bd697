package middleware_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/tenantguard/modules/core/domain/aggregates/user"
	"github.com/iota-uz/tenantguard/modules/core/domain/entities/session"
	"github.com/iota-uz/tenantguard/modules/core/domain/entities/tenant"
	"github.com/iota-uz/tenantguard/modules/core/testhelpers"
	"github.com/iota-uz/tenantguard/pkg/composables"
	"github.com/iota-uz/tenantguard/pkg/httpapi"
	"github.com/iota-uz/tenantguard/pkg/middleware"
)

const overrideHeader = "X-Tenant-Id"

type observed struct {
	reached bool
	context string
	noScope bool
}

func capture(o *observed) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		o.reached = true
		tc, err := composables.UseTenantContext(r.Context())
		if err != nil {
			o.noScope = true
		} else {
			o.context = tc.String()
		}
		w.WriteHeader(http.StatusOK)
	})
}

func withUser(u *user.User, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if u != nil {
			r = r.WithContext(composables.WithUser(r.Context(), u))
		}
		next.ServeHTTP(w, r)
	})
}

func decodeCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var env httpapi.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env.Code
}

func TestResolveTenant(t *testing.T) {
	home := tenant.New("Home")
	other := tenant.New("Other")
	suspended := tenant.New("Suspended", tenant.WithStatus(tenant.StatusSuspended))
	tenants := testhelpers.NewTenantRepository(home, other, suspended)
	mw := middleware.ResolveTenant(tenants, overrideHeader)

	member := user.New("Mia", "Member", "mia@example.com", user.WithID(1), user.WithTenantID(home.ID()))
	admin := user.New("Ada", "Admin", "ada@example.com", user.WithID(2), user.WithType(user.TypeSuperAdmin))

	run := func(u *user.User, override string) (*httptest.ResponseRecorder, *observed) {
		o := &observed{}
		req := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
		if override != "" {
			req.Header.Set(overrideHeader, override)
		}
		rec := httptest.NewRecorder()
		withUser(u, mw(capture(o))).ServeHTTP(rec, req)
		return rec, o
	}

	t.Run("Tenant_Principal_Ignores_Override", func(t *testing.T) {
		for _, override := range []string{"", other.ID().String(), "garbage", uuid.Nil.String()} {
			rec, o := run(member, override)
			require.Equal(t, http.StatusOK, rec.Code, override)
			assert.Equal(t, "tenant:"+home.ID().String(), o.context, override)
		}
	})

	t.Run("Platform_Without_Override_Is_Platform_Scope", func(t *testing.T) {
		rec, o := run(admin, "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "platform", o.context)
	})

	t.Run("Platform_Impersonates_Existing_Tenant", func(t *testing.T) {
		rec, o := run(admin, suspended.ID().String())
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "impersonating:"+suspended.ID().String(), o.context)
	})

	t.Run("Platform_Impersonating_Missing_Tenant", func(t *testing.T) {
		rec, o := run(admin, uuid.New().String())
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, httpapi.CodeTenantNotFound, decodeCode(t, rec))
		assert.False(t, o.reached)
	})

	t.Run("Platform_Malformed_Override", func(t *testing.T) {
		rec, o := run(admin, "not-a-uuid")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, httpapi.CodeInvalidTenantOverride, decodeCode(t, rec))
		assert.False(t, o.reached)
	})

	t.Run("Inactive_Home_Tenant_Refused", func(t *testing.T) {
		stranded := user.New("Sam", "", "sam@example.com", user.WithID(3), user.WithTenantID(suspended.ID()))
		rec, o := run(stranded, "")
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, httpapi.CodeTenantInactive, decodeCode(t, rec))
		assert.False(t, o.reached)
	})

	t.Run("Anonymous_Passes_Without_Context", func(t *testing.T) {
		rec, o := run(nil, other.ID().String())
		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, o.noScope)
	})
}

type brokenLookup struct{}

func (brokenLookup) GetByID(context.Context, uuid.UUID) (*tenant.Tenant, error) {
	return nil, errors.New("connection reset")
}

func (brokenLookup) Exists(context.Context, uuid.UUID) (bool, error) {
	return false, errors.New("connection reset")
}

func TestResolveTenant_HomeLookupFailure(t *testing.T) {
	member := user.New("Mia", "", "mia@example.com", user.WithID(1), user.WithTenantID(uuid.New()))
	o := &observed{}
	rec := httptest.NewRecorder()
	withUser(member, middleware.ResolveTenant(brokenLookup{}, overrideHeader)(capture(o))).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/projects", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, httpapi.CodeInternal, decodeCode(t, rec))
	assert.False(t, o.reached)
}

func TestResolveTenant_PlatformPrefixDropsOverride(t *testing.T) {
	kept := tenant.New("Kept")
	gone := tenant.New("Gone")
	tenants := testhelpers.NewTenantRepository(kept, gone)
	tenants.Delete(gone.ID())
	mw := middleware.ResolveTenant(tenants, overrideHeader, "/api/superadmin")

	admin := user.New("Ada", "", "ada@example.com", user.WithID(2), user.WithType(user.TypeSuperAdmin))
	member := user.New("Mia", "", "mia@example.com", user.WithID(1), user.WithTenantID(kept.ID()))

	run := func(u *user.User, path, override string) (*httptest.ResponseRecorder, *observed) {
		o := &observed{}
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set(overrideHeader, override)
		rec := httptest.NewRecorder()
		withUser(u, mw(capture(o))).ServeHTTP(rec, req)
		return rec, o
	}

	rec, o := run(admin, "/api/superadmin/tenants/"+kept.ID().String(), gone.ID().String())
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "platform", o.context)

	rec, _ = run(admin, "/api/superadmin-extra", gone.ID().String())
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = run(admin, "/api/projects", gone.ID().String())
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, httpapi.CodeTenantNotFound, decodeCode(t, rec))

	rec, o = run(member, "/api/superadmin/tenants", gone.ID().String())
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "tenant:"+kept.ID().String(), o.context)
}

func TestGuards(t *testing.T) {
	home := tenant.New("Home")
	tenants := testhelpers.NewTenantRepository(home)
	member := user.New("Mia", "", "mia@example.com", user.WithID(1), user.WithTenantID(home.ID()))
	admin := user.New("Ada", "", "ada@example.com", user.WithID(2), user.WithType(user.TypeSuperAdmin))

	chain := func(u *user.User, guard mux.MiddlewareFunc, override string) int {
		o := &observed{}
		h := withUser(u, middleware.ResolveTenant(tenants, overrideHeader)(guard(capture(o))))
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if override != "" {
			req.Header.Set(overrideHeader, override)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	t.Run("RequireSuperAdmin", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, chain(nil, middleware.RequireSuperAdmin(), ""))
		assert.Equal(t, http.StatusForbidden, chain(member, middleware.RequireSuperAdmin(), ""))
		assert.Equal(t, http.StatusOK, chain(admin, middleware.RequireSuperAdmin(), ""))
		assert.Equal(t, http.StatusOK, chain(admin, middleware.RequireSuperAdmin(), home.ID().String()))
	})

	t.Run("RequireTenantScope", func(t *testing.T) {
		assert.Equal(t, http.StatusForbidden, chain(admin, middleware.RequireTenantScope(), ""))
		assert.Equal(t, http.StatusOK, chain(admin, middleware.RequireTenantScope(), home.ID().String()))
		assert.Equal(t, http.StatusOK, chain(member, middleware.RequireTenantScope(), ""))
	})

	t.Run("RequireAuth", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, chain(nil, middleware.RequireAuth(), ""))
		assert.Equal(t, http.StatusOK, chain(member, middleware.RequireAuth(), ""))
	})
}

type fakeAuthorizer struct {
	token string
	user  *user.User
}

func (f *fakeAuthorizer) Authorize(_ context.Context, token string) (*session.Session, *user.User, error) {
	if token != f.token {
		return nil, nil, errors.New("unknown session")
	}
	return &session.Session{Token: token, UserID: f.user.ID()}, f.user, nil
}

func TestAuthorize(t *testing.T) {
	u := user.New("Mia", "", "mia@example.com", user.WithID(9), user.WithTenantID(uuid.New()))
	mw := middleware.Authorize(&fakeAuthorizer{token: "tok", user: u}, "sid")

	var got *user.User
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = composables.UseUser(r.Context())
	}))

	t.Run("Cookie", func(t *testing.T) {
		got = nil
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "sid", Value: "tok"})
		h.ServeHTTP(httptest.NewRecorder(), req)
		require.NotNil(t, got)
		assert.Equal(t, int64(9), got.ID())
	})

	t.Run("Bearer", func(t *testing.T) {
		got = nil
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer tok")
		h.ServeHTTP(httptest.NewRecorder(), req)
		require.NotNil(t, got)
	})

	t.Run("Invalid_Token_Is_Anonymous", func(t *testing.T) {
		got = nil
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer nope")
		h.ServeHTTP(httptest.NewRecorder(), req)
		assert.Nil(t, got)
	})
}

func TestRateLimit(t *testing.T) {
	mw, err := middleware.RateLimit(middleware.RateLimitConfig{Rate: "2-M", Store: middleware.NewMemoryStore()})
	require.NoError(t, err)
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	_, err = middleware.RateLimit(middleware.RateLimitConfig{Rate: "often"})
	require.Error(t, err)
}

func TestCors_AllowsOverrideHeader(t *testing.T) {
	h := middleware.Cors(overrideHeader, "http://app.example.com")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodOptions, "/api/projects", nil)
	req.Header.Set("Origin", "http://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	// Browsers send the requested header names lowercased.
	req.Header.Set("Access-Control-Request-Headers", strings.ToLower(overrideHeader))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "http://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, strings.ToLower(rec.Header().Get("Access-Control-Allow-Headers")), strings.ToLower(overrideHeader))
}

func TestWithLogger_RecoversPanics(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	h := middleware.WithLogger(logger, middleware.LoggerOptions{RequestIDHeader: "X-Request-ID"})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		}),
	)

	req := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
	req.Header.Set("X-Request-ID", "req-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "req-1", rec.Header().Get("X-Request-Id"))
	assert.Equal(t, httpapi.CodeInternal, decodeCode(t, rec))
}
