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
	"github.com/iota-uz/tenantguard/pkg/metrics"
	"github.com/iota-uz/tenantguard/pkg/repo"
	"github.com/iota-uz/tenantguard/pkg/tenancy"
)

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

	// Set up OpenTelemetry if enabled
	if conf.OpenTelemetry.Enabled {
		tracingCleanup := logging.SetupTracing(ctx, conf.OpenTelemetry.ServiceName, conf.OpenTelemetry.TempoURL)
		defer tracingCleanup()
		logger.Info("OpenTelemetry tracing enabled, exporting to Tempo at " + conf.OpenTelemetry.TempoURL)
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

	app := application.New(&application.ApplicationOptions{
		DB:     db,
		Logger: logger,
	})
	coreOpts := &core.ModuleOptions{
		Registry:        tenancy.Default(),
		SessionDuration: conf.SessionDuration,
		SidCookieKey:    conf.SidCookieKey,
		SecureCookie:    conf.GoAppEnvironment == configuration.Production,
		AuthLimiter:     authLimiter,
	}
	if err := modules.Load(app, modules.BuiltInModules(coreOpts)...); err != nil {
		log.Fatalf("failed to load modules: %v", err)
	}
	if conf.MigrateOnStart {
		if err := app.Migrations().Up(ctx); err != nil {
			log.Fatalf("failed to apply migrations: %v", err)
		}
	}
	if conf.Prometheus.Enabled {
		app.RegisterControllers(metrics.NewPrometheusController(conf.Prometheus.Path))
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
	log.Printf("Listening on: %s\n", conf.SocketAddress)
	if err := serverInstance.Start(ctx, conf.SocketAddress); err != nil {
		log.Printf("server stopped: %v", err)
	}
}
