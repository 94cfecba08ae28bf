package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/playpalm/playpalm-backend/api/controllers"
	"github.com/playpalm/playpalm-backend/api/routes"
	"github.com/playpalm/playpalm-backend/internal/audit"
	authsvc "github.com/playpalm/playpalm-backend/internal/auth"
	"github.com/playpalm/playpalm-backend/internal/catalog"
	"github.com/playpalm/playpalm-backend/internal/users"
	"github.com/playpalm/playpalm-backend/pkg/config"
	"github.com/playpalm/playpalm-backend/pkg/db"
	"github.com/playpalm/playpalm-backend/pkg/logger"
	"github.com/playpalm/playpalm-backend/pkg/metrics"
	"github.com/playpalm/playpalm-backend/pkg/migrate"
	"github.com/playpalm/playpalm-backend/pkg/redis"
	"gorm.io/gorm"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	// The remote store is optional. Without a DSN the API serves everything
	// from the local JSON files.
	var dbClient *db.Client
	var gormDB *gorm.DB
	if cfg.DB.Configured() {
		dbClient, err = db.New(context.Background(), cfg.DB, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap database", err)
			os.Exit(1)
		}
		defer func() {
			if err := dbClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing database", err)
			}
		}()
		gormDB = dbClient.DB()

		if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
			logg.Error(context.Background(), "failed to run dev migrations", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(context.Background(), "no database configured, serving from local store only")
	}

	var redisClient *redis.Client
	if cfg.Redis.Configured() {
		redisClient, err = redis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	catalogMetrics := metrics.NewCatalogMetrics(registry)

	auditLog := audit.NewLogger(gormDB, logg, catalogMetrics)

	productLocal, err := catalog.NewLocalStore(cfg.Catalog.ProductsFile(), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to open local product store", err)
		os.Exit(1)
	}
	var productRemote catalog.Store
	if gormDB != nil {
		remote, err := catalog.NewRemoteStore(gormDB, cfg.Catalog.RemoteTimeout)
		if err != nil {
			logg.Error(context.Background(), "failed to create remote product store", err)
			os.Exit(1)
		}
		productRemote = remote
	}
	catalogService, err := catalog.NewService(
		productRemote,
		productLocal,
		catalog.NewCache(cfg.Catalog.CacheTTL),
		auditLog,
		catalogMetrics,
		logg,
		cfg.Catalog.DefaultCategory,
		cfg.Catalog.SearchLimit,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	userLocal, err := users.NewLocalStore(cfg.Catalog.UsersFile(), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to open local user store", err)
		os.Exit(1)
	}
	var userRemote users.Store
	if gormDB != nil {
		remote, err := users.NewRemoteStore(gormDB, cfg.Catalog.RemoteTimeout)
		if err != nil {
			logg.Error(context.Background(), "failed to create remote user store", err)
			os.Exit(1)
		}
		userRemote = remote
	}
	userService, err := users.NewService(userRemote, userLocal, auditLog, logg, cfg.Password)
	if err != nil {
		logg.Error(context.Background(), "failed to create user service", err)
		os.Exit(1)
	}

	authService, err := authsvc.NewService(userService, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	var dbPinger controllers.Pinger
	if dbClient != nil {
		dbPinger = dbClient
	}

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:   cfg,
			Logger:   logg,
			DB:       dbPinger,
			Redis:    redisClient,
			Registry: registry,
			Catalog:  catalogService,
			Users:    userService,
			Auth:     authService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
