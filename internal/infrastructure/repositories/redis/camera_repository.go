package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"groupcam/internal/core/domain"
	"groupcam/internal/core/ports"
)

const (
	cameraKeyPrefix = "groupcam:camera:"
	cameraIndexKey  = "groupcam:cameras"
)

// CameraRepository stores camera documents as JSON values with an id
// index set for listing.
type CameraRepository struct {
	client *redis.Client
}

func NewCameraRepository(client *redis.Client) *CameraRepository {
	return &CameraRepository{client: client}
}

var _ ports.CameraRepository = (*CameraRepository)(nil)

func cameraKey(id domain.CameraID) string {
	return cameraKeyPrefix + string(id)
}

func (r *CameraRepository) List(ctx context.Context) ([]*domain.Camera, error) {
	ids, err := r.client.SMembers(ctx, cameraIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read camera index: %w", err)
	}

	cameras := make([]*domain.Camera, 0, len(ids))
	for _, id := range ids {
		cam, err := r.GetByID(ctx, domain.CameraID(id))
		if errors.Is(err, domain.ErrCameraNotFound) {
			// Index entry without a document; skip it.
			continue
		}
		if err != nil {
			return nil, err
		}
		cameras = append(cameras, cam)
	}
	return cameras, nil
}

func (r *CameraRepository) GetByID(ctx context.Context, id domain.CameraID) (*domain.Camera, error) {
	data, err := r.client.Get(ctx, cameraKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrCameraNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read camera %s: %w", id, err)
	}

	var cam domain.Camera
	if err := json.Unmarshal(data, &cam); err != nil {
		return nil, fmt.Errorf("failed to decode camera %s: %w", id, err)
	}
	return &cam, nil
}

func (r *CameraRepository) Insert(ctx context.Context, camera *domain.Camera) error {
	exists, err := r.client.Exists(ctx, cameraKey(camera.ID)).Result()
	if err != nil {
		return fmt.Errorf("failed to check camera %s: %w", camera.ID, err)
	}
	if exists > 0 {
		return domain.ErrCameraExists
	}
	return r.write(ctx, camera)
}

func (r *CameraRepository) Update(ctx context.Context, camera *domain.Camera) error {
	exists, err := r.client.Exists(ctx, cameraKey(camera.ID)).Result()
	if err != nil {
		return fmt.Errorf("failed to check camera %s: %w", camera.ID, err)
	}
	if exists == 0 {
		return domain.ErrCameraNotFound
	}
	return r.write(ctx, camera)
}

func (r *CameraRepository) Delete(ctx context.Context, id domain.CameraID) error {
	deleted, err := r.client.Del(ctx, cameraKey(id)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete camera %s: %w", id, err)
	}
	if deleted == 0 {
		return domain.ErrCameraNotFound
	}
	if err := r.client.SRem(ctx, cameraIndexKey, string(id)).Err(); err != nil {
		return fmt.Errorf("failed to update camera index: %w", err)
	}
	return nil
}

func (r *CameraRepository) write(ctx context.Context, camera *domain.Camera) error {
	data, err := json.Marshal(camera)
	if err != nil {
		return fmt.Errorf("failed to encode camera %s: %w", camera.ID, err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, cameraKey(camera.ID), data, 0)
	pipe.SAdd(ctx, cameraIndexKey, string(camera.ID))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store camera %s: %w", camera.ID, err)
	}
	return nil
}
