package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"groupcam/internal/core/ports"
	"groupcam/internal/core/services"
	handlers "groupcam/internal/handlers/http"
	"groupcam/internal/infrastructure/conference"
	"groupcam/internal/infrastructure/devices"
	"groupcam/internal/infrastructure/events"
	"groupcam/internal/infrastructure/monitoring"
	"groupcam/internal/infrastructure/repositories"
	"groupcam/internal/infrastructure/repositories/redis"
	"groupcam/pkg/config"
	"groupcam/pkg/logger"
	"groupcam/pkg/tracing"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		os.Stderr.WriteString("failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("groupcam failed", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := monitoring.NewCollector()

	if cfg.Tracing.Enabled {
		shutdown, err := tracing.InitTracer(tracing.Config{
			ServiceName: cfg.Tracing.ServiceName,
			JaegerURL:   cfg.Tracing.JaegerURL,
			SampleRate:  cfg.Tracing.SampleRate,
		})
		if err != nil {
			return err
		}
		defer shutdown(context.Background())
	}

	repo, redisClient, err := repositories.NewCameraRepository(ctx, repositories.Config{
		UseRedis: cfg.Redis.Enabled,
		Redis: redis.Config{
			Address:  cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		},
	}, log)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	pool, err := services.ParseDeviceRanges(cfg.Devices.Ranges)
	if err != nil {
		return err
	}

	if !cfg.Servers.Mock {
		return errors.New("no conferencing gateway binding is bundled; set servers.mock: true")
	}
	log.Warn("running with the mock conferencing gateway")
	factory := conference.NewMockFactory().Factory()

	var opener ports.SinkOpener = devices.NewV4L2Opener(log.Named("devices"))
	if cfg.Devices.NullSink {
		opener = devices.NullOpener{}
	}

	hub := events.NewHub(log.Named("events"))
	defer hub.Close()

	manager := conference.NewManager(conference.ManagerConfig{
		Geometry:          cfg.Geometry(),
		UserTimeout:       cfg.Camera.UserTimeout,
		NoUsersMsg:        cfg.Camera.NoUsersMessage,
		DeviceTemplate:    cfg.Devices.Template,
		DevicePool:        pool,
		Source:            cfg.Servers.Source.Server(),
		Destination:       cfg.Servers.Destination.Server(),
		ReconnectInterval: cfg.Servers.ReconnectInterval,
	}, repo, opener, factory, hub, metrics, log.Named("conference"))

	if err := manager.Startup(ctx); err != nil {
		return err
	}

	authService := services.NewAuthService(cfg.Auth.Username, cfg.Auth.Password,
		cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, log.Named("auth"))

	router := handlers.NewRouter(handlers.RouterConfig{
		RateLimitEnabled:  cfg.RateLimiting.Enabled,
		RequestsPerSecond: cfg.RateLimiting.RequestsPerSecond,
		Burst:             cfg.RateLimiting.Burst,
		TracingEnabled:    cfg.Tracing.Enabled,
		ServiceName:       cfg.Tracing.ServiceName,
	},
		handlers.NewCameraHandler(manager, log.Named("http")),
		handlers.NewAuthHandler(authService, log.Named("http")),
		authService, hub, metrics, log.Named("http"))

	server := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("management API listening", zap.String("address", cfg.HTTP.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		log.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", zap.Error(err))
	}
	return manager.Shutdown(shutdownCtx)
}
