package core

import (
	"embed"
	"io/fs"
	"time"

	"github.com/go-faster/errors"
	"github.com/gorilla/mux"

	"github.com/iota-uz/tenantguard/modules/core/infrastructure/persistence"
	"github.com/iota-uz/tenantguard/modules/core/presentation/controllers"
	"github.com/iota-uz/tenantguard/modules/core/services"
	"github.com/iota-uz/tenantguard/pkg/application"
	"github.com/iota-uz/tenantguard/pkg/tenancy"
)

//go:embed infrastructure/persistence/schema/*.sql
var MigrationFiles embed.FS

// Schema is the goose migration set with the files at its root.
func Schema() fs.FS {
	sub, err := fs.Sub(MigrationFiles, "infrastructure/persistence/schema")
	if err != nil {
		panic(err)
	}
	return sub
}

type ModuleOptions struct {
	Registry        *tenancy.Registry
	SessionDuration time.Duration
	SidCookieKey    string
	SecureCookie    bool
	// AuthLimiter throttles bootstrap registration and login; nil disables throttling.
	AuthLimiter mux.MiddlewareFunc
	// RecordLimit caps rows returned by record listings.
	RecordLimit int
	// ConsoleOnly mounts health and auth only; the superadmin console binary uses it.
	ConsoleOnly bool
}

func NewModule(opts *ModuleOptions) application.Module {
	if opts == nil {
		opts = &ModuleOptions{}
	}
	if opts.Registry == nil {
		opts.Registry = tenancy.Default()
	}
	if opts.SessionDuration <= 0 {
		opts.SessionDuration = 30 * 24 * time.Hour
	}
	return &Module{
		options: opts,
	}
}

type Module struct {
	options *ModuleOptions
}

func (m *Module) Register(app application.Application) error {
	if app.Migrations() == nil {
		return errors.New("migration manager is not configured")
	}
	app.Migrations().RegisterSchema(Schema())

	userRepo := persistence.NewUserRepository()
	tenantRepo := persistence.NewTenantRepository()
	sessionRepo := persistence.NewSessionRepository()
	recordRepo := persistence.NewRecordRepository(m.options.Registry, m.options.RecordLimit)

	app.RegisterServices(
		services.NewBootstrapService(userRepo),
		services.NewAuthService(userRepo, sessionRepo, m.options.SessionDuration),
		services.NewTenantService(tenantRepo),
		services.NewRecordService(recordRepo),
	)

	app.RegisterControllers(
		controllers.NewHealthController(app),
		controllers.NewAuthController(app, controllers.AuthControllerOptions{
			SidCookieKey: m.options.SidCookieKey,
			SecureCookie: m.options.SecureCookie,
			Limiter:      m.options.AuthLimiter,
		}),
	)
	if m.options.ConsoleOnly {
		return nil
	}
	app.RegisterControllers(
		controllers.NewBootstrapController(app, m.options.AuthLimiter),
		controllers.NewRecordsController(app),
	)
	return nil
}

func (m *Module) Name() string {
	return "core"
}
