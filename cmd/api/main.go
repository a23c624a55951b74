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

	"golang.org/x/sync/errgroup"

	"kpr/internal/config"
	"kpr/internal/database"
	"kpr/internal/kv"
	"kpr/internal/logger"
	"kpr/internal/notify"
	"kpr/internal/rates"
	"kpr/internal/server"
	"kpr/internal/storage"
)

// @title           KPR API
// @version         1.0
// @description     Mortgage (KPR) simulator, affordability estimator and application wizard.
// @termsOfService  http://swagger.io/terms/

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key

const shutdownTimeout = 10 * time.Second

func main() {
	logger.Init(os.Getenv("APP_ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	dbManager, err := database.NewManager(database.NewConfig(appConfig))
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer dbManager.Close()

	if err := dbManager.RunMigrations(database.DefaultMigrationsSource); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, appConfig)
	if err != nil {
		return err
	}
	defer closeStore()

	entries, err := rates.Load(appConfig.RateCatalogPath)
	if err != nil {
		return fmt.Errorf("failed to load rate catalog: %w", err)
	}
	registry := rates.NewRegistry(entries)
	if appConfig.RateCatalogPath != "" {
		watcher, err := rates.NewWatcher(appConfig.RateCatalogPath, registry)
		if err != nil {
			return err
		}
		if err := watcher.Start(ctx); err != nil {
			return err
		}
		defer watcher.Stop()
	}

	srv := server.New(server.Dependencies{
		Config:    appConfig,
		DB:        dbManager.DB(),
		Store:     store,
		Rates:     registry,
		Documents: storage.NewLocalStorage(appConfig.DocumentStorageDir),
		Mailer:    notify.NewLogMailer(log),
	})
	defer srv.Close()

	httpServer := &http.Server{
		Addr:         ":" + appConfig.Port,
		Handler:      srv.Router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Infof("Starting KPR backend server on port %s", appConfig.Port)
		log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// openStore picks Redis when an address is configured and the in-process
// store otherwise.
func openStore(ctx context.Context, cfg *config.Config) (kv.Store, func(), error) {
	if cfg.RedisAddr == "" {
		logger.Get().Warn("REDIS_ADDR not set, drafts and codes are kept in memory")
		return kv.NewMemoryStore(), func() {}, nil
	}
	store := kv.NewRedisStore(kv.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB))
	if err := store.Ping(ctx); err != nil {
		_ = store.Close()
		return nil, nil, fmt.Errorf("failed to reach redis: %w", err)
	}
	closeFn := func() {
		if err := store.Close(); err != nil {
			logger.Get().Warnf("redis close error: %v", err)
		}
	}
	return store, closeFn, nil
}
