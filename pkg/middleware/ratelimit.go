package middleware

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	mhttp "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/iota-uz/tenantguard/pkg/composables"
	"github.com/iota-uz/tenantguard/pkg/httpapi"
)

type RateLimitConfig struct {
	// Formatted rate such as "10-M" or "100-H".
	Rate         string
	Store        limiter.Store
	RealIPHeader string
}

func NewMemoryStore() limiter.Store {
	return memory.NewStoreWithOptions(limiter.StoreOptions{Prefix: "tenantguard"})
}

func NewRedisStore(redisURL string) (limiter.Store, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse rate limit redis url")
	}
	return sredis.NewStoreWithOptions(redis.NewClient(opts), limiter.StoreOptions{Prefix: "tenantguard:limiter"})
}

// RateLimit throttles per client IP. It guards the unauthenticated auth endpoints.
func RateLimit(cfg RateLimitConfig) (mux.MiddlewareFunc, error) {
	rate, err := limiter.NewRateFromFormatted(cfg.Rate)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid rate %q", cfg.Rate)
	}
	store := cfg.Store
	if store == nil {
		store = NewMemoryStore()
	}
	mw := mhttp.NewMiddleware(
		limiter.New(store, rate),
		mhttp.WithKeyGetter(func(r *http.Request) string {
			return getRealIP(r, cfg.RealIPHeader)
		}),
		mhttp.WithLimitReachedHandler(func(w http.ResponseWriter, r *http.Request) {
			composables.UseLogger(r.Context()).Warn("rate limit reached")
			_ = httpapi.WriteError(w, http.StatusTooManyRequests, httpapi.CodeRateLimited, "too many requests", nil)
		}),
	)
	return mw.Handler, nil
}
