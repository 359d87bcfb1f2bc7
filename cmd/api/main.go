package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/angelmondragon/libraria-backend/api/routes"
	"github.com/angelmondragon/libraria-backend/internal/books"
	"github.com/angelmondragon/libraria-backend/internal/borrows"
	"github.com/angelmondragon/libraria-backend/internal/members"
	"github.com/angelmondragon/libraria-backend/pkg/config"
	"github.com/angelmondragon/libraria-backend/pkg/db"
	"github.com/angelmondragon/libraria-backend/pkg/logger"
	"github.com/angelmondragon/libraria-backend/pkg/metrics"
	"github.com/angelmondragon/libraria-backend/pkg/migrate"
	pkgredis "github.com/angelmondragon/libraria-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

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

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbClient, dbErr := db.New(ctx, cfg.DB, logg)
	if dbErr != nil {
		return dbErr
	}
	defer func() {
		err = multierr.Append(err, dbClient.Close())
	}()

	if migrateErr := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); migrateErr != nil {
		return migrateErr
	}

	var redisClient *pkgredis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = pkgredis.New(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer func() {
			err = multierr.Append(err, redisClient.Close())
		}()
	} else {
		logg.Warn(ctx, "redis not configured, borrow idempotency disabled")
	}

	booksSvc, err := books.NewService(books.NewRepository(dbClient.DB()))
	if err != nil {
		return err
	}
	membersSvc, err := members.NewService(members.NewRepository(dbClient.DB()), dbClient)
	if err != nil {
		return err
	}
	borrowsSvc, err := borrows.NewService(borrows.NewRepository(dbClient.DB()), dbClient, cfg.Circulation)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics := metrics.NewHTTPMetrics(registry)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Logger:      logg,
			DB:          dbClient,
			Redis:       redisClient,
			Books:       booksSvc,
			Members:     membersSvc,
			Borrows:     borrowsSvc,
			HTTPMetrics: httpMetrics,
			Registry:    registry,
		}),
	}

	serveErr := make(chan error, 1)
	go func() {
		startCtx := logg.WithFields(ctx, map[string]any{
			"env":  cfg.App.Env,
			"addr": addr,
		})
		logg.Info(startCtx, "starting api server")
		serveErr <- server.ListenAndServe()
	}()

	select {
	case listenErr := <-serveErr:
		if listenErr != nil && !errors.Is(listenErr, http.ErrServerClosed) {
			return listenErr
		}
		return nil
	case <-ctx.Done():
	}

	logg.Info(context.Background(), "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return server.Shutdown(shutdownCtx)
}
