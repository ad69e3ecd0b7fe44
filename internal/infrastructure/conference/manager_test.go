package conference

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"groupcam/internal/core/domain"
	"groupcam/internal/core/ports"
	"groupcam/internal/core/services"
	"groupcam/internal/infrastructure/repositories/memory"
)

type safeSink struct {
	mu     sync.Mutex
	frames [][]byte
	closed bool
}

func (s *safeSink) Write(frame []byte) error {
	buf := make([]byte, len(frame))
	copy(buf, frame)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = append(s.frames, buf)
	return nil
}

func (s *safeSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *safeSink) lastFrame() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.frames) == 0 {
		return nil
	}
	return s.frames[len(s.frames)-1]
}

type safeOpener struct {
	mu    sync.Mutex
	sinks map[string]*safeSink
}

func newSafeOpener() *safeOpener {
	return &safeOpener{sinks: make(map[string]*safeSink)}
}

func (o *safeOpener) Open(deviceName string, width, height int) (ports.FrameSink, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	sink := &safeSink{}
	o.sinks[deviceName] = sink
	return sink, nil
}

func (o *safeOpener) sink(deviceName string) *safeSink {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sinks[deviceName]
}

func destinationConfig() domain.ServerConfig {
	cfg := testServerConfig()
	cfg.ChannelPath = "/broadcast"
	return cfg
}

func newTestManager(t *testing.T, repo ports.CameraRepository, ranges string) (*Manager, *MockFactory, *safeOpener) {
	t.Helper()

	pool, err := services.ParseDeviceRanges(ranges)
	require.NoError(t, err)

	factory := NewMockFactory()
	opener := newSafeOpener()
	manager := NewManager(ManagerConfig{
		Geometry:          domain.NewGeometry(640, 480, 10, 20, 1),
		UserTimeout:       5 * time.Second,
		NoUsersMsg:        "No users with video",
		DeviceTemplate:    "/dev/video%d",
		DevicePool:        pool,
		Source:            testServerConfig(),
		Destination:       destinationConfig(),
		ReconnectInterval: 10 * time.Millisecond,
	}, repo, opener, factory.Factory(), nil, nil, zap.NewNop())

	require.NoError(t, manager.Startup(context.Background()))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		manager.Shutdown(ctx)
	})
	return manager, factory, opener
}

func (f *MockFactory) sourceGateway(t *testing.T) *MockGateway {
	t.Helper()
	for _, gw := range f.Created() {
		if gw.Config().ChannelPath == testServerConfig().ChannelPath {
			return gw
		}
	}
	t.Fatal("no source gateway created")
	return nil
}

func scandinavianRecord() *domain.Camera {
	return &domain.Camera{
		ID:         "cam-1",
		Title:      "Scandinavian Room",
		NicknameRE: ".*scandinavia.*",
		Device:     0,
		DeviceName: "/dev/video0",
	}
}

func redImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.RGBA{R: 255, A: 255}), image.Point{}, draw.Src)
	return img
}

func TestStartupBringsCameraOnline(t *testing.T) {
	repo := memory.NewCameraRepository()
	require.NoError(t, repo.Insert(context.Background(), scandinavianRecord()))

	manager, factory, opener := newTestManager(t, repo, "0-9")

	conn, ok := manager.DestinationConnection("cam-1")
	require.True(t, ok)

	require.Eventually(t, func() bool {
		return conn.State() == StateInChannel && conn.Broadcasting()
	}, time.Second, 5*time.Millisecond)

	var destGW *MockGateway
	for _, gw := range factory.Created() {
		if gw.Config().ChannelPath == "/broadcast" {
			destGW = gw
		}
	}
	require.NotNil(t, destGW)
	assert.Equal(t, "/dev/video0", destGW.BroadcastDevice())
	assert.Equal(t, domain.StatusVideoTX, destGW.Status())

	// The initial recompose already wrote a frame.
	assert.NotNil(t, opener.sink("/dev/video0").lastFrame())
}

func TestFindFreeDevicePicksLowestFree(t *testing.T) {
	repo := memory.NewCameraRepository()
	ctx := context.Background()
	for i, id := range []string{"a", "b", "c"} {
		cam := scandinavianRecord()
		cam.ID = domain.CameraID(id)
		cam.Device = domain.DeviceID(i + 1)
		cam.DeviceName = "/dev/video0"
		require.NoError(t, repo.Insert(ctx, cam))
	}

	manager, _, _ := newTestManager(t, repo, "1-9")

	device, name, err := manager.FindFreeDevice(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.DeviceID(4), device)
	assert.Equal(t, "/dev/video4", name)
}

func TestAddCameraAllocatesAndSpawnsDestination(t *testing.T) {
	repo := memory.NewCameraRepository()
	manager, _, _ := newTestManager(t, repo, "0-1")
	ctx := context.Background()

	first, err := manager.AddCamera(ctx, ports.CameraInput{
		Title:      "Room A",
		NicknameRE: ".*room-a.*",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.DeviceID(0), first.Device)
	assert.Equal(t, "/dev/video0", first.DeviceName)

	second, err := manager.AddCamera(ctx, ports.CameraInput{
		Title:      "Room B",
		NicknameRE: ".*room-b.*",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.DeviceID(1), second.Device)

	// Each camera gets its own broadcasting destination connection.
	for _, cam := range []*domain.Camera{first, second} {
		conn, ok := manager.DestinationConnection(cam.ID)
		require.True(t, ok)
		require.Eventually(t, func() bool {
			return conn.State() == StateInChannel && conn.Broadcasting()
		}, time.Second, 5*time.Millisecond, "camera %s", cam.ID)
	}

	_, err = manager.AddCamera(ctx, ports.CameraInput{
		Title:      "Room C",
		NicknameRE: ".*room-c.*",
	})
	assert.ErrorIs(t, err, domain.ErrNoFreeDevice)
}

func TestAddCameraRejectsInvalidPattern(t *testing.T) {
	repo := memory.NewCameraRepository()
	manager, _, _ := newTestManager(t, repo, "0-9")

	_, err := manager.AddCamera(context.Background(), ports.CameraInput{
		Title:      "Broken",
		NicknameRE: "[",
	})
	require.Error(t, err)

	cameras, err := manager.ListCameras(context.Background())
	require.NoError(t, err)
	assert.Empty(t, cameras, "invalid camera must not be persisted")
}

func TestEndToEndNicknameFiltering(t *testing.T) {
	repo := memory.NewCameraRepository()
	require.NoError(t, repo.Insert(context.Background(), scandinavianRecord()))

	manager, factory, opener := newTestManager(t, repo, "0-9")
	source := factory.sourceGateway(t)

	require.Eventually(t, func() bool {
		return manager.SourceConnection().State() == StateInChannel
	}, time.Second, 5*time.Millisecond)

	format := &domain.VideoFormat{Width: 320, Height: 240, FPS: 10}
	source.AddParticipant(domain.Profile{ID: 7, Nickname: "alice@scandinavian"}, format)
	source.AddParticipant(domain.Profile{ID: 8, Nickname: "bob"}, format)
	source.PushUserJoined(7)
	source.PushUserJoined(8)
	source.PushVideoFrames(7, redImage(320, 240), 1)

	// Alice lands on the camera as a single centred tile.
	require.Eventually(t, func() bool {
		frame := opener.sink("/dev/video0").lastFrame()
		if frame == nil {
			return false
		}
		idx := (300*640 + 317) * 4
		return frame[idx+2] == 255 && frame[idx] == 0
	}, time.Second, 5*time.Millisecond)

	require.Eventually(t, func() bool {
		names := manager.ActiveParticipants()
		return len(names) == 1 && names[0] == "alice@scandinavian"
	}, time.Second, 5*time.Millisecond)

	// Bob matched no camera and lost his whole subscription; Alice
	// kept video only.
	assert.Equal(t, domain.SubscribeAll, source.UnsubscribedMask(8))
	assert.Equal(t, domain.SubscribeAll&^domain.SubscribeVideo, source.UnsubscribedMask(7))
}

func TestReconnectDoesNotDuplicateParticipants(t *testing.T) {
	repo := memory.NewCameraRepository()
	require.NoError(t, repo.Insert(context.Background(), scandinavianRecord()))

	manager, factory, _ := newTestManager(t, repo, "0-9")
	source := factory.sourceGateway(t)

	require.Eventually(t, func() bool {
		return manager.SourceConnection().State() == StateInChannel
	}, time.Second, 5*time.Millisecond)

	format := &domain.VideoFormat{Width: 320, Height: 240, FPS: 10}
	source.AddParticipant(domain.Profile{ID: 7, Nickname: "alice@scandinavian"}, format)
	source.PushUserJoined(7)
	source.PushVideoFrames(7, redImage(320, 240), 1)

	require.Eventually(t, func() bool {
		return len(manager.ActiveParticipants()) == 1
	}, time.Second, 5*time.Millisecond)

	source.DropConnection()
	require.Eventually(t, func() bool {
		return source.ConnectCount() == 2 &&
			manager.SourceConnection().State() == StateInChannel
	}, time.Second, 5*time.Millisecond)

	// The channel replays its member list after the rejoin.
	source.PushUserJoined(7)
	source.PushVideoFrames(7, redImage(320, 240), 1)

	require.Eventually(t, func() bool {
		names := manager.ActiveParticipants()
		return len(names) == 1 && names[0] == "alice@scandinavian"
	}, time.Second, 5*time.Millisecond)
}

func TestActivatePreset(t *testing.T) {
	repo := memory.NewCameraRepository()
	cam := scandinavianRecord()
	cam.Presets = []domain.Preset{
		{Number: 1, Name: "grid", Type: domain.PresetGrid3x3},
		{Number: 2, Name: "big", Type: domain.PresetFivePlusOne},
	}
	require.NoError(t, repo.Insert(context.Background(), cam))

	manager, _, _ := newTestManager(t, repo, "0-9")
	ctx := context.Background()

	require.NoError(t, manager.ActivatePreset(ctx, "cam-1", 1))

	stored, err := repo.GetByID(ctx, "cam-1")
	require.NoError(t, err)
	preset, ok := stored.PresetByNumber(1)
	require.True(t, ok)
	assert.True(t, preset.Active)

	assert.ErrorIs(t, manager.ActivatePreset(ctx, "cam-1", 2), domain.ErrLayoutNotImplemented)
	assert.ErrorIs(t, manager.ActivatePreset(ctx, "cam-1", 9), domain.ErrPresetNotFound)
	assert.ErrorIs(t, manager.ActivatePreset(ctx, "missing", 1), domain.ErrCameraNotFound)
}

func TestPresetCRUD(t *testing.T) {
	repo := memory.NewCameraRepository()
	require.NoError(t, repo.Insert(context.Background(), scandinavianRecord()))

	manager, _, _ := newTestManager(t, repo, "0-9")
	ctx := context.Background()

	require.NoError(t, manager.AddPreset(ctx, "cam-1", domain.Preset{Name: "grid", Type: domain.PresetGrid3x3}))
	require.NoError(t, manager.AddPreset(ctx, "cam-1", domain.Preset{Name: "dense", Type: domain.PresetGrid4x4}))

	presets, err := manager.ListPresets(ctx, "cam-1")
	require.NoError(t, err)
	require.Len(t, presets, 2)
	assert.Equal(t, 1, presets[0].Number)
	assert.Equal(t, 2, presets[1].Number)

	require.NoError(t, manager.UpdatePreset(ctx, "cam-1", 2, domain.Preset{Name: "auto", Type: domain.PresetAuto}))
	presets, err = manager.ListPresets(ctx, "cam-1")
	require.NoError(t, err)
	assert.Equal(t, domain.PresetAuto, presets[1].Type)

	assert.ErrorIs(t, manager.UpdatePreset(ctx, "cam-1", 9, domain.Preset{}), domain.ErrPresetNotFound)
	assert.ErrorIs(t, manager.DeletePreset(ctx, "cam-1", 9), domain.ErrPresetNotFound)

	require.NoError(t, manager.DeletePreset(ctx, "cam-1", 1))
	presets, err = manager.ListPresets(ctx, "cam-1")
	require.NoError(t, err)
	require.Len(t, presets, 1)
	assert.Equal(t, 2, presets[0].Number)
}
