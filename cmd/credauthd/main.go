// Command credauthd serves the credauth engine over HTTP, backed by
// PostgreSQL, Redis and optionally NATS for notifications.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"

	"github.com/MrEthical07/credauth"
	"github.com/MrEthical07/credauth/credential/postgres"
	"github.com/MrEthical07/credauth/httpapi"
	otelexport "github.com/MrEthical07/credauth/metrics/export/otel"
	"github.com/MrEthical07/credauth/metrics/export/prometheus"
	"github.com/MrEthical07/credauth/notify"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("credauthd exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	svc, err := loadServiceConfig()
	if err != nil {
		return err
	}
	cfg, err := credauth.LoadConfigFromEnv(envPrefix)
	if err != nil {
		return err
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(svc.LogLevel)); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	pool, err := pgxpool.New(ctx, svc.PostgresDSN)
	if err != nil {
		return fmt.Errorf("postgres pool: %w", err)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres ping: %w", err)
	}
	store := postgres.New(pool)
	if !svc.SkipMigrations {
		if err := store.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     svc.RedisAddr,
		Password: svc.RedisPassword,
		DB:       svc.RedisDB,
	})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}

	var publisher notify.Publisher = notify.Discard{}
	if svc.NATSURL != "" {
		nc, err := nats.Connect(svc.NATSURL, nats.Name("credauthd"))
		if err != nil {
			return fmt.Errorf("nats connect: %w", err)
		}
		defer nc.Drain()
		publisher = notify.NewNATSPublisher(nc)
	} else {
		logger.Warn("NATS_URL not set, notifications are discarded")
	}

	engine, err := credauth.New().
		WithConfig(cfg).
		WithStore(store).
		WithRedis(rdb).
		WithPublisher(publisher).
		WithLogger(logger).
		WithAuditSink(credauth.NewSlogSink(logger.With("component", "audit"))).
		Build()
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}
	defer engine.Close()

	exporter, err := otelexport.NewExporter(otel.GetMeterProvider().Meter("github.com/MrEthical07/credauth"), engine)
	if err != nil {
		return fmt.Errorf("otel exporter: %w", err)
	}
	defer exporter.Close()

	gin.SetMode(gin.ReleaseMode)
	router, err := httpapi.NewRouter(engine, httpapi.Options{
		Logger:         logger,
		Metrics:        prometheus.NewExporter(engine).Handler(),
		TrustedProxies: svc.TrustedProxies,
	})
	if err != nil {
		return fmt.Errorf("router: %w", err)
	}

	srv := &http.Server{
		Addr:              svc.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go purgeLoop(ctx, engine, svc.PurgeInterval, logger)

	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", svc.HTTPAddr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), svc.ShutdownGrace)
	defer cancel()
	logger.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

// purgeLoop deletes expired refresh and reset tokens every interval.
func purgeLoop(ctx context.Context, engine *credauth.Engine, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			refresh, reset, err := engine.PurgeExpiredTokens(ctx)
			if err != nil {
				logger.Error("purge expired tokens", "error", err)
				continue
			}
			logger.Info("purged expired tokens", "refresh", refresh, "reset", reset)
		}
	}
}
