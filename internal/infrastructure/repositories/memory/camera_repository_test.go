package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"groupcam/internal/core/domain"
)

func testCamera(id string, device int) *domain.Camera {
	return &domain.Camera{
		ID:         domain.CameraID(id),
		Title:      "Scandinavian Room",
		NicknameRE: ".*scandinavia.*",
		Device:     domain.DeviceID(device),
		DeviceName: "/dev/video0",
		Presets: []domain.Preset{
			{Number: 1, Name: "grid", Type: domain.PresetGrid3x3, Active: true},
		},
	}
}

func TestInsertAndGet(t *testing.T) {
	repo := NewCameraRepository()
	ctx := context.Background()

	cam := testCamera("cam-1", 0)
	require.NoError(t, repo.Insert(ctx, cam))

	got, err := repo.GetByID(ctx, "cam-1")
	require.NoError(t, err)
	assert.Equal(t, cam.Title, got.Title)
	assert.Equal(t, cam.NicknameRE, got.NicknameRE)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestInsertDuplicate(t *testing.T) {
	repo := NewCameraRepository()
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, testCamera("cam-1", 0)))
	assert.ErrorIs(t, repo.Insert(ctx, testCamera("cam-1", 1)), domain.ErrCameraExists)
}

func TestGetMissing(t *testing.T) {
	repo := NewCameraRepository()
	_, err := repo.GetByID(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrCameraNotFound)
}

func TestUpdate(t *testing.T) {
	repo := NewCameraRepository()
	ctx := context.Background()

	cam := testCamera("cam-1", 0)
	require.NoError(t, repo.Insert(ctx, cam))

	cam.Title = "Renamed"
	require.NoError(t, repo.Update(ctx, cam))

	got, err := repo.GetByID(ctx, "cam-1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)
}

func TestUpdateMissing(t *testing.T) {
	repo := NewCameraRepository()
	err := repo.Update(context.Background(), testCamera("nope", 0))
	assert.ErrorIs(t, err, domain.ErrCameraNotFound)
}

func TestDelete(t *testing.T) {
	repo := NewCameraRepository()
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, testCamera("cam-1", 0)))
	require.NoError(t, repo.Delete(ctx, "cam-1"))

	_, err := repo.GetByID(ctx, "cam-1")
	assert.ErrorIs(t, err, domain.ErrCameraNotFound)
}

func TestListReturnsCopies(t *testing.T) {
	repo := NewCameraRepository()
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, testCamera("cam-1", 0)))
	require.NoError(t, repo.Insert(ctx, testCamera("cam-2", 1)))

	cameras, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, cameras, 2)

	cameras[0].Title = "mutated"
	got, err := repo.GetByID(ctx, cameras[0].ID)
	require.NoError(t, err)
	assert.NotEqual(t, "mutated", got.Title)
}
