package memory

import (
	"context"
	"sync"
	"time"

	"groupcam/internal/core/domain"
	"groupcam/internal/core/ports"
)

// CameraRepository is an in-memory camera store, used when Redis is
// disabled and as the test double.
type CameraRepository struct {
	mu      sync.RWMutex
	cameras map[domain.CameraID]*domain.Camera
}

func NewCameraRepository() *CameraRepository {
	return &CameraRepository{
		cameras: make(map[domain.CameraID]*domain.Camera),
	}
}

var _ ports.CameraRepository = (*CameraRepository)(nil)

func (r *CameraRepository) List(ctx context.Context) ([]*domain.Camera, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cameras := make([]*domain.Camera, 0, len(r.cameras))
	for _, cam := range r.cameras {
		cameras = append(cameras, cloneCamera(cam))
	}
	return cameras, nil
}

func (r *CameraRepository) GetByID(ctx context.Context, id domain.CameraID) (*domain.Camera, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cam, ok := r.cameras[id]
	if !ok {
		return nil, domain.ErrCameraNotFound
	}
	return cloneCamera(cam), nil
}

func (r *CameraRepository) Insert(ctx context.Context, camera *domain.Camera) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.cameras[camera.ID]; ok {
		return domain.ErrCameraExists
	}
	camera.CreatedAt = time.Now()
	camera.UpdatedAt = camera.CreatedAt
	r.cameras[camera.ID] = cloneCamera(camera)
	return nil
}

func (r *CameraRepository) Update(ctx context.Context, camera *domain.Camera) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.cameras[camera.ID]; !ok {
		return domain.ErrCameraNotFound
	}
	camera.UpdatedAt = time.Now()
	r.cameras[camera.ID] = cloneCamera(camera)
	return nil
}

func (r *CameraRepository) Delete(ctx context.Context, id domain.CameraID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.cameras[id]; !ok {
		return domain.ErrCameraNotFound
	}
	delete(r.cameras, id)
	return nil
}

func cloneCamera(cam *domain.Camera) *domain.Camera {
	clone := *cam
	clone.Presets = make([]domain.Preset, len(cam.Presets))
	copy(clone.Presets, cam.Presets)
	return &clone
}
