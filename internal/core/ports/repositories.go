package ports

import (
	"context"

	"groupcam/internal/core/domain"
)

// CameraRepository persists camera documents. Implementations must be
// safe for concurrent use.
type CameraRepository interface {
	List(ctx context.Context) ([]*domain.Camera, error)
	GetByID(ctx context.Context, id domain.CameraID) (*domain.Camera, error)
	Insert(ctx context.Context, camera *domain.Camera) error
	Update(ctx context.Context, camera *domain.Camera) error
	Delete(ctx context.Context, id domain.CameraID) error
}
