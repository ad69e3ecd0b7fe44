package ports

import (
	"context"

	"groupcam/internal/core/domain"
)

// CameraInput is the validated payload for creating a camera. Device
// allocation happens inside the manager.
type CameraInput struct {
	Title      string
	NicknameRE string
	Presets    []domain.Preset
}

// CameraManager is the management surface exposed to the HTTP layer.
type CameraManager interface {
	ListCameras(ctx context.Context) ([]*domain.Camera, error)
	AddCamera(ctx context.Context, input CameraInput) (*domain.Camera, error)

	ListPresets(ctx context.Context, cameraID domain.CameraID) ([]domain.Preset, error)
	AddPreset(ctx context.Context, cameraID domain.CameraID, preset domain.Preset) error
	UpdatePreset(ctx context.Context, cameraID domain.CameraID, number int, preset domain.Preset) error
	DeletePreset(ctx context.Context, cameraID domain.CameraID, number int) error
	ActivatePreset(ctx context.Context, cameraID domain.CameraID, number int) error

	// ActiveParticipants returns the nicknames of channel members that
	// produced a video frame recently.
	ActiveParticipants() []string
}

// EventPublisher fans application events out to subscribers, such as
// the websocket feed.
type EventPublisher interface {
	Publish(event map[string]interface{})
}
