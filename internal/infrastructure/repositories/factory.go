package repositories

import (
	"context"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"groupcam/internal/core/ports"
	"groupcam/internal/infrastructure/repositories/memory"
	"groupcam/internal/infrastructure/repositories/redis"
)

// Config selects the camera store backend.
type Config struct {
	UseRedis bool
	Redis    redis.Config
}

// NewCameraRepository builds the configured camera store. The returned
// client is nil for the memory backend.
func NewCameraRepository(ctx context.Context, cfg Config, logger *zap.Logger) (ports.CameraRepository, *goredis.Client, error) {
	if !cfg.UseRedis {
		logger.Info("using in-memory camera repository")
		return memory.NewCameraRepository(), nil, nil
	}

	client, err := redis.NewClient(ctx, cfg.Redis, logger)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("using redis camera repository")
	return redis.NewCameraRepository(client), client, nil
}
