package conference

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"groupcam/internal/core/domain"
	"groupcam/internal/core/ports"
	"groupcam/internal/infrastructure/monitoring"
)

// State is the connection lifecycle position.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateAuthenticated
	StateJoiningChannel
	StateInChannel
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateAuthenticated:
		return "authenticated"
	case StateJoiningChannel:
		return "joining_channel"
	case StateInChannel:
		return "in_channel"
	}
	return "disconnected"
}

// Role receives the channel-level callbacks of a connection. The
// source role feeds the tracker and cameras; the destination role
// starts broadcasting.
type Role interface {
	OnChannelJoined(conn *Connection)
	OnParticipantJoined(conn *Connection, id domain.UserID)
	OnParticipantLeft(conn *Connection, id domain.UserID)
	OnVideoFrame(conn *Connection, id domain.UserID, frames int)
}

// errConnectionLost signals the poll loop to reconnect.
var errConnectionLost = errors.New("connection lost")

// Connection drives one conferencing session through its state
// machine: connect, log in, join the configured channel, then hand
// channel events to the role. It owns its gateway and runs on a single
// goroutine.
type Connection struct {
	gateway           ports.Gateway
	cfg               domain.ServerConfig
	role              Role
	reconnectInterval time.Duration
	metrics           *monitoring.Collector
	logger            *zap.Logger

	mu           sync.RWMutex
	state        State
	broadcasting bool
	selfID       domain.UserID
	selfKnown    bool

	// commands maps in-flight command ids to what they were doing.
	// Accessed only from the poll goroutine; cleared on disconnect.
	commands map[domain.CommandID]domain.CommandTag
}

func NewConnection(gateway ports.Gateway, cfg domain.ServerConfig, role Role,
	reconnectInterval time.Duration, metrics *monitoring.Collector, logger *zap.Logger) *Connection {
	return &Connection{
		gateway:           gateway,
		cfg:               cfg,
		role:              role,
		reconnectInterval: reconnectInterval,
		metrics:           metrics,
		logger:            logger.With(zap.String("server", cfg.Host), zap.String("channel", cfg.ChannelPath)),
		commands:          make(map[domain.CommandID]domain.CommandTag),
	}
}

// Gateway exposes the underlying gateway to the role callbacks.
func (c *Connection) Gateway() ports.Gateway {
	return c.gateway
}

func (c *Connection) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Connection) Broadcasting() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.broadcasting
}

// SetBroadcasting records the orthogonal broadcast flag. Only valid
// once the connection reached the channel.
func (c *Connection) SetBroadcasting(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.broadcasting = on
}

func (c *Connection) isSelf(id domain.UserID) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.selfKnown && id == c.selfID
}

func (c *Connection) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// Run drives the connection until ctx is cancelled or a fatal protocol
// error occurs. Lost connections reconnect forever after a fixed
// pause; the login and join sequence replays from scratch each time.
func (c *Connection) Run(ctx context.Context) error {
	for {
		err := c.session(ctx)
		if errors.Is(err, errConnectionLost) {
			c.metrics.ReconnectAttempted()
			c.logger.Error("connection lost, reconnecting",
				zap.Duration("interval", c.reconnectInterval))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(c.reconnectInterval):
			}
			continue
		}
		return err
	}
}

// session runs one connect-to-disconnect cycle.
func (c *Connection) session(ctx context.Context) error {
	defer func() {
		c.gateway.Disconnect()
		c.mu.Lock()
		c.state = StateDisconnected
		c.broadcasting = false
		c.selfKnown = false
		c.mu.Unlock()
		c.commands = make(map[domain.CommandID]domain.CommandTag)
	}()

	c.setState(StateConnecting)
	if err := c.gateway.Connect(); err != nil {
		return fmt.Errorf("connect to %s failed: %w", c.cfg.Host, err)
	}

	for {
		event, err := c.gateway.NextEvent(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("event poll failed: %w", err)
		}

		c.metrics.EventReceived(event.Type.String())
		if err := c.handleEvent(event); err != nil {
			return err
		}
	}
}

func (c *Connection) handleEvent(event domain.Event) error {
	switch event.Type {
	case domain.EventConnectSuccess:
		c.setState(StateConnected)
		return c.login()

	case domain.EventConnectFailed:
		return fmt.Errorf("server %s refused the connection", c.cfg.Host)

	case domain.EventConnectionLost:
		return errConnectionLost

	case domain.EventCommandError:
		return fmt.Errorf("command %d failed with code %d", event.CommandID, event.ErrorCode)

	case domain.EventCommandProcessing:
		if !event.Complete {
			return nil
		}
		return c.commandDone(event.CommandID)

	case domain.EventLoggedIn:
		// Our own session id; frames reported for it are the camera's
		// own broadcast echoed back and must not be composited.
		c.mu.Lock()
		c.selfID = event.UserID
		c.selfKnown = true
		c.mu.Unlock()

	case domain.EventLoggedOut:
		c.logger.Warn("logged out by server")
		return errConnectionLost

	case domain.EventUserJoined, domain.EventUserLoggedIn:
		if c.State() == StateInChannel && !c.isSelf(event.UserID) {
			c.role.OnParticipantJoined(c, event.UserID)
		}

	case domain.EventUserLeft:
		if c.State() == StateInChannel && !c.isSelf(event.UserID) {
			c.role.OnParticipantLeft(c, event.UserID)
		}

	case domain.EventVideoFrame:
		if c.State() == StateInChannel && !c.isSelf(event.UserID) {
			c.role.OnVideoFrame(c, event.UserID, event.Frames)
		}

	default:
		c.logger.Debug("ignoring event", zap.String("type", event.Type.String()))
	}
	return nil
}

func (c *Connection) login() error {
	cmdID, err := c.gateway.Login()
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	c.commands[cmdID] = domain.TagLoggingIn
	return nil
}

// commandDone advances the state machine when a tracked command
// completes. Completions for untracked commands are ignored.
func (c *Connection) commandDone(id domain.CommandID) error {
	tag, ok := c.commands[id]
	if !ok {
		return nil
	}
	delete(c.commands, id)

	switch tag {
	case domain.TagLoggingIn:
		c.setState(StateAuthenticated)
		return c.joinChannel()

	case domain.TagJoiningChannel:
		c.setState(StateInChannel)
		c.logger.Info("joined channel")
		c.role.OnChannelJoined(c)
	}
	return nil
}

func (c *Connection) joinChannel() error {
	channelID, err := c.gateway.ChannelIDFromPath(c.cfg.ChannelPath)
	if err != nil {
		return fmt.Errorf("%w: %s", domain.ErrInvalidChannelPath, c.cfg.ChannelPath)
	}

	cmdID, err := c.gateway.JoinChannelByID(channelID, c.cfg.ChannelPassword)
	if err != nil {
		return fmt.Errorf("join channel %s failed: %w", c.cfg.ChannelPath, err)
	}
	c.commands[cmdID] = domain.TagJoiningChannel
	c.setState(StateJoiningChannel)
	return nil
}
