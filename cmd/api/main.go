package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	httptransport "github.com/spec-kit/audioclean-service/internal/api/http"
	"github.com/spec-kit/audioclean-service/internal/api/http/handlers"
	"github.com/spec-kit/audioclean-service/internal/auth"
	"github.com/spec-kit/audioclean-service/internal/config"
	"github.com/spec-kit/audioclean-service/internal/events"
	"github.com/spec-kit/audioclean-service/internal/observability"
	"github.com/spec-kit/audioclean-service/internal/persistence"
	"github.com/spec-kit/audioclean-service/internal/repository"
	"github.com/spec-kit/audioclean-service/internal/service"
	"github.com/spec-kit/audioclean-service/internal/storage"
)

func main() {
	os.Exit(run())
}

// run returns the process exit code so deferred cleanup always executes.
func run() int {
	cfg, err := config.Load()
	if err != nil {
		log.Printf("failed to load config: %v", err)
		return 1
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Printf("failed to init logger: %v", err)
		return 1
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Auth.JWTSecret == "" {
		logger.Error("JWT_SECRET is not defined; login and protected routes will fail until it is set")
	}

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Error("failed to connect postgres", zap.Error(err))
		return 1
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Error("failed to run migrations", zap.Error(err))
			return 1
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	if err := storage.EnsureDir(cfg.Upload.Dir); err != nil {
		logger.Error("upload directory unavailable", zap.Error(err))
		return 1
	}
	backend, err := newStorageBackend(ctx, cfg.Upload)
	if err != nil {
		logger.Error("failed to init storage backend", zap.String("backend", cfg.Upload.Backend), zap.Error(err))
		return 1
	}

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	uploadRepo := repository.NewUploadRepository(pool)

	dispatcher := events.NewInMemoryDispatcher(logger)
	var forwarder service.EventForwarder
	if cfg.Events.Enabled {
		forwarder = events.NewRedisStream(redis.Client, cfg.Events.StreamKey, cfg.Events.MaxLen)
	}
	activity := service.NewActivityService(dispatcher, forwarder, logger)
	activity.RegisterHandlers()

	authService, err := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		UserRepo:   userRepo,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	if err != nil {
		logger.Error("failed to init auth service", zap.Error(err))
		return 1
	}
	uploadService := service.NewUploadService(cfg.Upload, backend, uploadRepo, dispatcher, logger)
	authMiddleware := auth.NewAuthMiddleware(auth.NewVerifier(authService.TokenManager()), logger)

	metrics := observability.NewMetrics()
	appOpts := httptransport.AppOptions{
		Name:           cfg.App.Name,
		MaxUploadBytes: cfg.Upload.MaxBytes,
		Logger:         logger,
		Metrics:        metrics,
	}
	app := httptransport.NewApp(appOpts)
	httptransport.RegisterMiddlewares(app, appOpts, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, metrics),
		Users:          handlers.NewUsersHandler(authService),
		Uploads:        handlers.NewUploadHandler(uploadService),
		AuthMiddleware: authMiddleware,
	})

	listenErr := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()), zap.String("env", cfg.App.Env))
		listenErr <- app.Listen(cfg.App.Addr())
	}()

	healthErr := persistence.WatchHealth(ctx, pg, cfg.Postgres.HealthInterval(), cfg.Postgres.HealthFailures, logger)

	exitCode := waitForShutdown(logger, listenErr, healthErr)

	if err := app.ShutdownWithTimeout(cfg.App.ShutdownTimeout()); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	activity.Wait()
	logger.Info("shutdown complete", zap.Int("exit_code", exitCode))
	return exitCode
}

func newStorageBackend(ctx context.Context, cfg config.UploadConfig) (storage.Backend, error) {
	switch cfg.Backend {
	case config.StorageBackendLocal:
		return storage.NewLocalBackend(cfg.Dir), nil
	case config.StorageBackendMinio:
		return storage.NewMinioBackend(ctx, cfg.Minio, cfg.Dir)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// waitForShutdown blocks until a signal, a listener failure or a broken
// database pool, and returns the exit code to use.
func waitForShutdown(logger *zap.Logger, listenErr <-chan error, healthErr <-chan error) int {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	for {
		select {
		case sig := <-sigCh:
			logger.Info("shutting down", zap.String("signal", sig.String()))
			return 0
		case err := <-listenErr:
			if err == nil || errors.Is(err, context.Canceled) {
				return 0
			}
			logger.Error("fiber listen", zap.Error(err))
			return 1
		case err, ok := <-healthErr:
			if !ok {
				healthErr = nil
				continue
			}
			logger.Error("database pool broken; shutting down", zap.Error(err))
			return 1
		}
	}
}
