package conference

import (
	"context"
	"image"
	"image/draw"
	"sync"

	"groupcam/internal/core/domain"
	"groupcam/internal/core/ports"
)

// MockGateway is an in-memory gateway used when servers.mock is set
// and as the test double. Events are scripted through the push
// methods and delivered in order.
type MockGateway struct {
	cfg    domain.ServerConfig
	events chan domain.Event

	mu           sync.Mutex
	connected    bool
	connectCount int
	selfID       domain.UserID
	nextCommand  domain.CommandID
	nextChannel  domain.ChannelID
	channels     map[string]domain.ChannelID
	profiles     map[domain.UserID]domain.Profile
	formats      map[domain.UserID]*domain.VideoFormat
	pending      map[domain.UserID]int
	frameSources map[domain.UserID]*image.RGBA
	unsubscribed map[domain.UserID]int
	status       int

	broadcastDevice string
	broadcastErr    error
}

func NewMockGateway(cfg domain.ServerConfig) *MockGateway {
	return &MockGateway{
		cfg:          cfg,
		selfID:       1,
		events:       make(chan domain.Event, 256),
		channels:     make(map[string]domain.ChannelID),
		profiles:     make(map[domain.UserID]domain.Profile),
		formats:      make(map[domain.UserID]*domain.VideoFormat),
		pending:      make(map[domain.UserID]int),
		frameSources: make(map[domain.UserID]*image.RGBA),
		unsubscribed: make(map[domain.UserID]int),
	}
}

var _ ports.Gateway = (*MockGateway)(nil)

// MockFactory builds mock gateways and keeps handles to every gateway
// it created, so scripts can reach connections spawned at runtime.
type MockFactory struct {
	mu      sync.Mutex
	created []*MockGateway
}

func NewMockFactory() *MockFactory {
	return &MockFactory{}
}

func (f *MockFactory) Factory() ports.GatewayFactory {
	return func(cfg domain.ServerConfig) ports.Gateway {
		gw := NewMockGateway(cfg)
		f.mu.Lock()
		f.created = append(f.created, gw)
		f.mu.Unlock()
		return gw
	}
}

// Created returns every gateway built so far, in creation order.
func (f *MockFactory) Created() []*MockGateway {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*MockGateway, len(f.created))
	copy(out, f.created)
	return out
}

func (g *MockGateway) Connect() error {
	g.mu.Lock()
	g.connected = true
	g.connectCount++
	g.mu.Unlock()
	g.events <- domain.Event{Type: domain.EventConnectSuccess}
	return nil
}

// Config returns the server settings this gateway was built for.
func (g *MockGateway) Config() domain.ServerConfig {
	return g.cfg
}

// ConnectCount returns how many times Connect was called.
func (g *MockGateway) ConnectCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.connectCount
}

func (g *MockGateway) Disconnect() {
	g.mu.Lock()
	g.connected = false
	g.mu.Unlock()
}

func (g *MockGateway) IsConnected() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.connected
}

func (g *MockGateway) Login() (domain.CommandID, error) {
	id := g.issueCommand()
	g.mu.Lock()
	self := g.selfID
	g.mu.Unlock()
	g.events <- domain.Event{Type: domain.EventLoggedIn, UserID: self}
	g.events <- domain.Event{Type: domain.EventCommandProcessing, CommandID: id, Complete: true}
	return id, nil
}

func (g *MockGateway) ChangeStatus(mode int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.status = mode
	return nil
}

func (g *MockGateway) ChannelIDFromPath(path string) (domain.ChannelID, error) {
	if path == "" || path[0] != '/' {
		return 0, domain.ErrInvalidChannelPath
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if id, ok := g.channels[path]; ok {
		return id, nil
	}
	g.nextChannel++
	g.channels[path] = g.nextChannel
	return g.nextChannel, nil
}

func (g *MockGateway) JoinChannelByID(id domain.ChannelID, password string) (domain.CommandID, error) {
	cmdID := g.issueCommand()
	g.events <- domain.Event{Type: domain.EventCommandProcessing, CommandID: cmdID, Complete: true}
	return cmdID, nil
}

func (g *MockGateway) Participant(id domain.UserID) (domain.Profile, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	profile, ok := g.profiles[id]
	if !ok {
		return domain.Profile{}, domain.ErrUserNotFound
	}
	return profile, nil
}

func (g *MockGateway) VideoFormat(id domain.UserID) (*domain.VideoFormat, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	format, ok := g.formats[id]
	if !ok {
		return nil, nil
	}
	return format, nil
}

func (g *MockGateway) VideoFrame(id domain.UserID, dst *image.RGBA, format domain.VideoFormat) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.pending[id] <= 0 {
		return false
	}
	g.pending[id]--

	if src, ok := g.frameSources[id]; ok && dst != nil {
		draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Src)
	}
	return true
}

func (g *MockGateway) StartBroadcast(deviceName string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.broadcastErr != nil {
		return g.broadcastErr
	}
	g.broadcastDevice = deviceName
	return nil
}

func (g *MockGateway) Unsubscribe(id domain.UserID, mask int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.unsubscribed[id] |= mask
	return nil
}

func (g *MockGateway) NextEvent(ctx context.Context) (domain.Event, error) {
	select {
	case <-ctx.Done():
		return domain.Event{}, ctx.Err()
	case event := <-g.events:
		return event, nil
	}
}

func (g *MockGateway) issueCommand() domain.CommandID {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nextCommand++
	return g.nextCommand
}

// Scripting surface, used by servers.mock mode and tests.

// AddParticipant registers a session member the gateway can resolve.
func (g *MockGateway) AddParticipant(profile domain.Profile, format *domain.VideoFormat) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.profiles[profile.ID] = profile
	if format != nil {
		g.formats[profile.ID] = format
	}
}

// PushUserJoined emits a join event for a registered participant.
func (g *MockGateway) PushUserJoined(id domain.UserID) {
	g.events <- domain.Event{Type: domain.EventUserJoined, UserID: id}
}

// PushUserLeft emits a leave event.
func (g *MockGateway) PushUserLeft(id domain.UserID) {
	g.events <- domain.Event{Type: domain.EventUserLeft, UserID: id}
}

// PushVideoFrames queues n frames of src for the participant and
// emits the pending-frames event.
func (g *MockGateway) PushVideoFrames(id domain.UserID, src *image.RGBA, n int) {
	g.mu.Lock()
	g.pending[id] += n
	if src != nil {
		g.frameSources[id] = src
	}
	g.mu.Unlock()
	g.events <- domain.Event{Type: domain.EventVideoFrame, UserID: id, Frames: n}
}

// SetSelfID overrides the session id reported on login.
func (g *MockGateway) SetSelfID(id domain.UserID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.selfID = id
}

// PushLoggedOut emits a server-side logout of our own session.
func (g *MockGateway) PushLoggedOut() {
	g.events <- domain.Event{Type: domain.EventLoggedOut}
}

// DropConnection emits a connection-lost event.
func (g *MockGateway) DropConnection() {
	g.events <- domain.Event{Type: domain.EventConnectionLost}
}

// PushCommandError emits a fatal command failure.
func (g *MockGateway) PushCommandError(cmdID domain.CommandID, code int) {
	g.events <- domain.Event{Type: domain.EventCommandError, CommandID: cmdID, ErrorCode: code}
}

// SetBroadcastError makes StartBroadcast fail.
func (g *MockGateway) SetBroadcastError(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.broadcastErr = err
}

// BroadcastDevice returns the device a broadcast was started from.
func (g *MockGateway) BroadcastDevice() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.broadcastDevice
}

// Status returns the last reported status mode.
func (g *MockGateway) Status() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.status
}

// UnsubscribedMask returns the accumulated unsubscribe mask for a
// participant.
func (g *MockGateway) UnsubscribedMask(id domain.UserID) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.unsubscribed[id]
}
