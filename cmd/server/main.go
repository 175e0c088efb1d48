package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"shoezclean/backend/internal/auth"
	"shoezclean/backend/internal/cache"
	"shoezclean/backend/internal/catalog"
	"shoezclean/backend/internal/config"
	"shoezclean/backend/internal/httpapi"
	"shoezclean/backend/internal/logger"
	"shoezclean/backend/internal/notify"
	"shoezclean/backend/internal/service"
	"shoezclean/backend/internal/store"
	"shoezclean/backend/internal/store/memory"
	pgstore "shoezclean/backend/internal/store/postgres"
	"shoezclean/backend/internal/syncer"
)

func main() {
	cfg := config.Load()

	baseLog, logCloser, err := logger.New(cfg.Log)
	if err != nil {
		logrus.Fatalf("logger setup failed: %v", err)
	}
	defer logCloser.Close()
	log := logger.Module(baseLog, "server")

	if err := validateSecurityConfig(cfg); err != nil {
		log.Fatalf("invalid security configuration: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var repo store.Repository
	closers := make([]func() error, 0, 2)

	if cfg.DatabaseURL != "" {
		pg, err := pgstore.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("postgres unavailable (%v) and DATABASE_URL is set; refusing to start with in-memory fallback", err)
		}
		if cfg.DatabaseMigrate {
			if err := pg.Migrate(ctx); err != nil {
				log.Fatalf("schema migration failed: %v", err)
			}
		}
		repo = pg
		closers = append(closers, pg.Close)
		log.Info("repository: postgres")
	} else {
		repo = memory.NewSeeded()
		log.Info("repository: in-memory")
	}

	sessions := cache.SessionCache(cache.NewMemorySessionCache())
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisSessionCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := redisCache.Ping(ctx); err != nil {
			log.WithError(err).Warn("redis unavailable, keeping sessions in memory")
		} else {
			sessions = redisCache
			closers = append(closers, redisCache.Close)
			log.Info("session cache: redis")
		}
	} else {
		log.Info("session cache: memory")
	}

	var notifier syncer.Notifier = notify.NewLogNotifier(logger.Module(baseLog, "notify"))
	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != 0 {
		tg, err := notify.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID, logger.Module(baseLog, "notify"))
		if err != nil {
			log.WithError(err).Warn("telegram unavailable, new records are only logged")
		} else {
			notifier = tg
			log.Info("notifier: telegram")
		}
	}

	syncLog := logger.Module(baseLog, "syncer")
	svc := service.New(repo, catalog.Default(),
		service.WithLogger(logger.Module(baseLog, "service")),
		service.WithSessionCache(sessions),
		service.WithTokenIssuer(auth.NewTokenIssuer(cfg.AuthSecret, cfg.SessionTTL)),
		service.WithSessionTTL(cfg.SessionTTL),
		service.WithIdleTimeout(cfg.IdleTimeout),
		service.WithLocation(cfg.Location()),
		service.WithSyncOptions(
			syncer.WithLogger(syncLog),
			syncer.WithNotifier(notifier),
			syncer.WithMetrics(syncer.NewMetrics(prometheus.DefaultRegisterer)),
			syncer.WithErrorHook(func(op string, err error) {
				syncLog.WithField("op", op).WithError(err).Error("remote write failed, local change kept")
			}),
		),
	)
	if svc.Resume(ctx) {
		log.Info("previous session resumed")
	}

	api := httpapi.New(svc, httpapi.Options{
		AllowedOrigin:      cfg.AllowedOrigin,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Log:                logger.Module(baseLog, "http"),
	})

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Infof("shoe-cleaning POS backend listening on %s", cfg.Address())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("shutdown error")
	}
	svc.Close()

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			log.WithError(err).Warn("close error")
		}
	}

	log.Info("server stopped")
}

func validateSecurityConfig(cfg config.Config) error {
	if len(cfg.AuthSecret) < 32 {
		return fmt.Errorf("AUTH_SECRET must be set and at least 32 characters")
	}
	if cfg.IdleTimeout <= 0 || cfg.SessionTTL <= 0 {
		return fmt.Errorf("session lifetimes must be positive")
	}
	if cfg.IdleTimeout > cfg.SessionTTL {
		return fmt.Errorf("IDLE_TIMEOUT_MINUTES must not exceed SESSION_TTL_MINUTES")
	}
	return nil
}
