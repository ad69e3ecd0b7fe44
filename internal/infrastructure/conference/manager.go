package conference

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"groupcam/internal/core/domain"
	"groupcam/internal/core/ports"
	"groupcam/internal/core/services"
	"groupcam/internal/infrastructure/compositor"
	"groupcam/internal/infrastructure/monitoring"
)

// ManagerConfig carries everything the manager needs to run cameras
// and connections.
type ManagerConfig struct {
	Geometry          domain.Geometry
	UserTimeout       time.Duration
	NoUsersMsg        string
	DeviceTemplate    string
	DevicePool        []domain.DeviceID
	Source            domain.ServerConfig
	Destination       domain.ServerConfig
	ReconnectInterval time.Duration
}

// Manager owns the running cameras and their connections: one shared
// source connection for the watched channel, one destination
// connection per camera.
type Manager struct {
	cfg       ManagerConfig
	repo      ports.CameraRepository
	opener    ports.SinkOpener
	gateways  ports.GatewayFactory
	publisher ports.EventPublisher
	metrics   *monitoring.Collector
	logger    *zap.Logger

	tracker *Tracker
	cameras *CameraSet

	mu           sync.Mutex
	source       *Connection
	destinations map[domain.CameraID]*Connection
	runCtx       context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
}

func NewManager(cfg ManagerConfig, repo ports.CameraRepository, opener ports.SinkOpener,
	gateways ports.GatewayFactory, publisher ports.EventPublisher,
	metrics *monitoring.Collector, logger *zap.Logger) *Manager {
	return &Manager{
		cfg:          cfg,
		repo:         repo,
		opener:       opener,
		gateways:     gateways,
		publisher:    publisher,
		metrics:      metrics,
		logger:       logger,
		cameras:      NewCameraSet(),
		destinations: make(map[domain.CameraID]*Connection),
	}
}

var _ ports.CameraManager = (*Manager)(nil)

// Startup loads persisted cameras, builds a compositor for each, then
// starts the shared source connection and one destination connection
// per camera. Connection loops outlive the startup context; Shutdown
// stops them.
func (m *Manager) Startup(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.runCtx, m.cancel = context.WithCancel(context.Background())

	persisted, err := m.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to load cameras: %w", err)
	}

	for _, camera := range persisted {
		if err := m.startCameraLocked(camera); err != nil {
			return err
		}
	}

	sourceGW := m.gateways(m.cfg.Source)
	m.tracker = NewTracker(sourceGW, m.cfg.UserTimeout, m.logger.Named("tracker"))
	role := NewSourceRole(m.tracker, m.cameras, m.publisher, m.metrics, m.logger.Named("source"))
	m.source = NewConnection(sourceGW, m.cfg.Source, role,
		m.cfg.ReconnectInterval, m.metrics, m.logger.Named("source"))
	m.runConnection(m.source, "source")

	m.metrics.SetCameras(m.cameras.Len())
	m.logger.Info("manager started", zap.Int("cameras", len(persisted)))
	return nil
}

// Shutdown stops every connection loop and closes the camera sinks.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	cancel := m.cancel
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	m.cameras.CloseAll()
	m.logger.Info("manager stopped")
	return nil
}

// SourceConnection returns the shared source connection.
func (m *Manager) SourceConnection() *Connection {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.source
}

// DestinationConnection returns the destination connection of a
// running camera.
func (m *Manager) DestinationConnection(id domain.CameraID) (*Connection, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	conn, ok := m.destinations[id]
	return conn, ok
}

func (m *Manager) ListCameras(ctx context.Context) ([]*domain.Camera, error) {
	return m.repo.List(ctx)
}

// AddCamera allocates the lowest free device, persists the camera and
// brings it online. The free-device check reads the store freshly;
// two concurrent calls may race for the same device number.
func (m *Manager) AddCamera(ctx context.Context, input ports.CameraInput) (*domain.Camera, error) {
	device, deviceName, err := m.FindFreeDevice(ctx)
	if err != nil {
		return nil, err
	}

	camera := &domain.Camera{
		ID:         domain.CameraID(uuid.NewString()),
		Title:      input.Title,
		NicknameRE: input.NicknameRE,
		Device:     device,
		DeviceName: deviceName,
		Presets:    input.Presets,
	}
	if _, err := camera.CompilePattern(); err != nil {
		return nil, err
	}

	if err := m.repo.Insert(ctx, camera); err != nil {
		return nil, err
	}

	m.mu.Lock()
	err = m.startCameraLocked(camera)
	m.mu.Unlock()
	if err != nil {
		m.repo.Delete(ctx, camera.ID)
		return nil, err
	}

	m.metrics.SetCameras(m.cameras.Len())
	if m.publisher != nil {
		m.publisher.Publish(map[string]interface{}{
			"type":      "camera_added",
			"camera_id": string(camera.ID),
			"device":    deviceName,
		})
	}
	m.logger.Info("camera added",
		zap.String("camera_id", string(camera.ID)),
		zap.String("device", deviceName))
	return camera, nil
}

// FindFreeDevice reads the store and returns the lowest pool device
// no camera holds, with its node name.
func (m *Manager) FindFreeDevice(ctx context.Context) (domain.DeviceID, string, error) {
	persisted, err := m.repo.List(ctx)
	if err != nil {
		return 0, "", fmt.Errorf("failed to load cameras: %w", err)
	}

	device, err := services.FreeDevice(m.cfg.DevicePool, persisted)
	if err != nil {
		return 0, "", err
	}
	return device, fmt.Sprintf(m.cfg.DeviceTemplate, int(device)), nil
}

func (m *Manager) ListPresets(ctx context.Context, cameraID domain.CameraID) ([]domain.Preset, error) {
	camera, err := m.repo.GetByID(ctx, cameraID)
	if err != nil {
		return nil, err
	}
	return camera.Presets, nil
}

func (m *Manager) AddPreset(ctx context.Context, cameraID domain.CameraID, preset domain.Preset) error {
	camera, err := m.repo.GetByID(ctx, cameraID)
	if err != nil {
		return err
	}

	if preset.Number == 0 {
		max := 0
		for _, p := range camera.Presets {
			if p.Number > max {
				max = p.Number
			}
		}
		preset.Number = max + 1
	} else if _, exists := camera.PresetByNumber(preset.Number); exists {
		return fmt.Errorf("preset %d already exists on camera %s", preset.Number, cameraID)
	}

	camera.Presets = append(camera.Presets, preset)
	return m.repo.Update(ctx, camera)
}

func (m *Manager) UpdatePreset(ctx context.Context, cameraID domain.CameraID, number int, preset domain.Preset) error {
	camera, err := m.repo.GetByID(ctx, cameraID)
	if err != nil {
		return err
	}

	for i, p := range camera.Presets {
		if p.Number == number {
			preset.Number = number
			camera.Presets[i] = preset
			return m.repo.Update(ctx, camera)
		}
	}
	return domain.ErrPresetNotFound
}

func (m *Manager) DeletePreset(ctx context.Context, cameraID domain.CameraID, number int) error {
	camera, err := m.repo.GetByID(ctx, cameraID)
	if err != nil {
		return err
	}

	for i, p := range camera.Presets {
		if p.Number == number {
			camera.Presets = append(camera.Presets[:i], camera.Presets[i+1:]...)
			return m.repo.Update(ctx, camera)
		}
	}
	return domain.ErrPresetNotFound
}

// ActivatePreset switches the running camera to a stored preset and
// persists the active flag.
func (m *Manager) ActivatePreset(ctx context.Context, cameraID domain.CameraID, number int) error {
	camera, err := m.repo.GetByID(ctx, cameraID)
	if err != nil {
		return err
	}

	preset, ok := camera.PresetByNumber(number)
	if !ok {
		return domain.ErrPresetNotFound
	}

	if comp, running := m.cameras.Get(cameraID); running {
		if err := comp.ActivatePreset(preset); err != nil {
			return err
		}
	}

	for i := range camera.Presets {
		camera.Presets[i].Active = camera.Presets[i].Number == number
	}
	if err := m.repo.Update(ctx, camera); err != nil {
		return err
	}

	if m.publisher != nil {
		m.publisher.Publish(map[string]interface{}{
			"type":      "preset_activated",
			"camera_id": string(cameraID),
			"preset":    number,
		})
	}
	return nil
}

func (m *Manager) ActiveParticipants() []string {
	m.mu.Lock()
	tracker := m.tracker
	m.mu.Unlock()

	if tracker == nil {
		return nil
	}
	return tracker.ActiveNicknames()
}

// startCameraLocked builds the compositor and spawns the destination
// connection. Callers hold m.mu.
func (m *Manager) startCameraLocked(camera *domain.Camera) error {
	comp, err := compositor.New(camera, m.opener, compositor.Options{
		Geometry:    m.cfg.Geometry,
		UserTimeout: m.cfg.UserTimeout,
		NoUsersMsg:  m.cfg.NoUsersMsg,
		Logger:      m.logger.Named("compositor"),
	})
	if err != nil {
		return err
	}
	m.cameras.Add(comp)

	role := NewDestinationRole(camera.DeviceName, m.logger.Named("destination"))
	conn := NewConnection(m.gateways(m.cfg.Destination), m.cfg.Destination, role,
		m.cfg.ReconnectInterval, m.metrics, m.logger.Named("destination"))
	m.destinations[camera.ID] = conn
	m.runConnection(conn, "destination")
	return nil
}

// runConnection spawns the blocking poll loop. Callers hold m.mu.
func (m *Manager) runConnection(conn *Connection, kind string) {
	ctx := m.runCtx
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		if err := conn.Run(ctx); err != nil {
			m.logger.Error("connection terminated",
				zap.String("kind", kind), zap.Error(err))
		}
	}()
}
