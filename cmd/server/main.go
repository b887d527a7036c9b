package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dom/studyhub/internal/api"
	"github.com/dom/studyhub/internal/chatpdf"
	"github.com/dom/studyhub/internal/config"
	"github.com/dom/studyhub/internal/logging"
	"github.com/dom/studyhub/internal/presence"
	"github.com/dom/studyhub/internal/repository/postgres"
	"github.com/dom/studyhub/internal/revocation"
	"github.com/dom/studyhub/internal/rtc"
	"github.com/dom/studyhub/internal/service"
	"github.com/dom/studyhub/internal/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

const redisKeyPrefix = "studyhub:"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.New("studyhub", cfg.LogLevel)

	// Initialize database
	dbLogLevel := gormLogger.Warn
	if cfg.IsProduction() {
		dbLogLevel = gormLogger.Error
	}
	db, err := postgres.NewConnection(cfg.DatabaseURL, dbLogLevel)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	repos := postgres.NewRepositories(db)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	revoked, registry, closeRedis := newSharedState(ctx, cfg, db, logger)
	defer closeRedis()

	var store storage.ObjectStore = storage.Disabled{}
	if cfg.AWSBucketName != "" {
		s3Store, err := storage.NewS3Store(ctx, storage.S3Options{
			Region:          cfg.AWSRegion,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
			Bucket:          cfg.AWSBucketName,
			Endpoint:        cfg.AWSEndpoint,
		})
		if err != nil {
			logger.Error("failed to configure object storage", "error", err)
			os.Exit(1)
		}
		store = s3Store
	} else {
		logger.Warn("AWS_BUCKET_NAME not set, pdf uploads are disabled")
	}

	// Initialize services
	services := service.NewServices(repos, cfg, service.Deps{
		Revoked:  revoked,
		Registry: registry,
		Store:    store,
		QA:       chatpdf.NewClient(cfg.ChatPDFBaseURL, cfg.ChatPDFAPIKey),
		Issuer:   rtc.NewAgoraIssuer(cfg.AgoraAppID, cfg.AgoraAppCert, rtc.DefaultTokenTTL),
		Logger:   logger,
	})

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Initialize router
	router := api.NewRouter(services, cfg, logger, reg)

	// WriteTimeout is left unset so channel feeds are not cut off; the feed
	// sets its own per-write deadlines.
	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("server starting", "port", cfg.Port, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	stop()

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server stopped")
}

// newSharedState returns the Redis-backed denylist and presence registry.
// Without REDIS_ADDR the denylist lives in Postgres and presence is in-memory.
func newSharedState(ctx context.Context, cfg *config.Config, db *gorm.DB, logger *slog.Logger) (revocation.Store, presence.Registry, func()) {
	if cfg.RedisAddr == "" {
		logger.Warn("REDIS_ADDR not set, using database token denylist and in-memory channel presence")
		denylist := postgres.NewRevokedTokenRepository(db)
		go purgeRevokedTokens(ctx, denylist, logger)
		return denylist, presence.NewMemoryRegistry(cfg.ChannelTTL), func() {}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Error("failed to connect to redis", "addr", cfg.RedisAddr, "error", err)
		os.Exit(1)
	}

	logger.Info("connected to redis", "addr", cfg.RedisAddr)
	return revocation.NewRedisStore(client, redisKeyPrefix),
		presence.NewRedisRegistry(client, redisKeyPrefix, cfg.ChannelTTL, logger),
		func() { client.Close() }
}

type revokedTokenPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

func purgeRevokedTokens(ctx context.Context, purger revokedTokenPurger, logger *slog.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := purger.PurgeExpired(ctx)
			if err != nil {
				logger.Error("failed to purge revoked tokens", "error", err)
				continue
			}
			if n > 0 {
				logger.Debug("purged revoked tokens", "count", n)
			}
		}
	}
}
