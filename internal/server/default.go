package server

import (
	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/ulule/limiter/v3"

	"github.com/iota-uz/tenantguard/modules/core/services"
	"github.com/iota-uz/tenantguard/pkg/application"
	"github.com/iota-uz/tenantguard/pkg/configuration"
	"github.com/iota-uz/tenantguard/pkg/httpapi"
	"github.com/iota-uz/tenantguard/pkg/middleware"
	"github.com/iota-uz/tenantguard/pkg/server"
)

type DefaultOptions struct {
	Logger        *logrus.Logger
	Configuration *configuration.Configuration
	Application   application.Application
	DB            *sqlx.DB
}

// Default builds the HTTP server from the registered modules. The core module must be
// registered first: session authorization and tenant resolution come from its services.
func Default(options *DefaultOptions) (*server.HTTPServer, error) {
	app := options.Application
	conf := options.Configuration

	authService := app.Service(services.AuthService{}).(*services.AuthService)
	tenantService := app.Service(services.TenantService{}).(*services.TenantService)

	// Core middleware stack with tracing capabilities
	middlewares := []mux.MiddlewareFunc{
		middleware.WithLogger(options.Logger, middleware.LoggerOptions{
			RequestIDHeader: conf.RequestIDHeader,
			RealIPHeader:    conf.RealIPHeader,
		}),

		middleware.TracedMiddleware("cors"),
		middleware.Cors(conf.Tenancy.OverrideHeader, conf.CORSOrigins...),

		middleware.TracedMiddleware("database"),
		middleware.ProvideDB(options.DB, conf.RLSEnforce),

		middleware.TracedMiddleware("requestParams"),
		middleware.RequestParams(conf.RealIPHeader),

		middleware.TracedMiddleware("authorize"),
		middleware.Authorize(authService, conf.SidCookieKey),

		middleware.TracedMiddleware("tenancy"),
		middleware.ResolveTenant(tenantService, conf.Tenancy.OverrideHeader, "/api/superadmin"),
	}
	app.RegisterMiddleware(middlewares...)

	return server.NewHTTPServer(app, httpapi.NotFound(), httpapi.MethodNotAllowed()), nil
}

// AuthLimiter builds the throttle for the unauthenticated auth endpoints, or nil when disabled.
func AuthLimiter(conf *configuration.Configuration, logger *logrus.Logger) (mux.MiddlewareFunc, error) {
	if !conf.RateLimit.Enabled {
		return nil, nil
	}
	var store limiter.Store
	switch conf.RateLimit.Storage {
	case "redis":
		s, err := middleware.NewRedisStore(conf.RateLimit.RedisURL)
		if err != nil {
			logger.WithError(err).Warn("Failed to create Redis store for rate limiting, falling back to memory")
			s = middleware.NewMemoryStore()
		}
		store = s
	default:
		store = middleware.NewMemoryStore()
	}
	return middleware.RateLimit(middleware.RateLimitConfig{
		Rate:         conf.RateLimit.AuthRate,
		Store:        store,
		RealIPHeader: conf.RealIPHeader,
	})
}
