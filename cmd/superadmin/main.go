package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/iota-uz/tenantguard/internal/server"
	"github.com/iota-uz/tenantguard/modules"
	"github.com/iota-uz/tenantguard/modules/core"
	"github.com/iota-uz/tenantguard/pkg/application"
	"github.com/iota-uz/tenantguard/pkg/configuration"
	"github.com/iota-uz/tenantguard/pkg/logging"
	"github.com/iota-uz/tenantguard/pkg/repo"
)

// The super admin console runs apart from the tenant-facing server: it mounts login and the
// tenant directory only, and every route past login requires a platform principal.
func main() {
	defer func() {
		if r := recover(); r != nil {
			log.Println(r)
			debug.PrintStack()
			os.Exit(1)
		}
	}()

	conf := configuration.Use()
	logger := conf.Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if conf.OpenTelemetry.Enabled {
		tracingCleanup := logging.SetupTracing(ctx, conf.OpenTelemetry.ServiceName+"-superadmin", conf.OpenTelemetry.TempoURL)
		defer tracingCleanup()
		logger.Info("OpenTelemetry tracing enabled for Super Admin, exporting to Tempo at " + conf.OpenTelemetry.TempoURL)
	}

	db, err := repo.Open(ctx, conf.Database.Opts)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	authLimiter, err := server.AuthLimiter(conf, logger)
	if err != nil {
		log.Fatalf("failed to configure rate limiting: %v", err)
	}

	app := application.New(&application.ApplicationOptions{DB: db, Logger: logger})
	coreOpts := &core.ModuleOptions{
		SessionDuration: conf.SessionDuration,
		SidCookieKey:    conf.SidCookieKey,
		SecureCookie:    conf.GoAppEnvironment == configuration.Production,
		AuthLimiter:     authLimiter,
		ConsoleOnly:     true,
	}
	if err := modules.Load(app, modules.BuiltInModules(coreOpts)...); err != nil {
		log.Fatalf("failed to load modules: %v", err)
	}

	serverInstance, err := server.Default(&server.DefaultOptions{
		Logger:        logger,
		Configuration: conf,
		Application:   app,
		DB:            db,
	})
	if err != nil {
		log.Fatalf("failed to create server: %v", err)
	}
	// Platform principals only; the superadmin routes repeat the check themselves.
	serverInstance.Middlewares = append(serverInstance.Middlewares, consoleGate())

	logger.Info("Super Admin Server starting...")
	logger.Info("Listening on: " + conf.SocketAddress)
	if err := serverInstance.Start(ctx, conf.SocketAddress); err != nil {
		log.Printf("server stopped: %v", err)
	}
}
