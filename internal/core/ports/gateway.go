package ports

import (
	"context"
	"image"

	"groupcam/internal/core/domain"
)

// Gateway abstracts the conferencing client library. One gateway serves
// exactly one connection; all calls except NextEvent are non-blocking.
type Gateway interface {
	// Connect opens the transport to the server described at
	// construction time. The outcome arrives as a ConnectSuccess or
	// ConnectFailed event.
	Connect() error

	// Disconnect tears the transport down. Safe to call in any state.
	Disconnect()

	IsConnected() bool

	// Login starts authentication and returns the command id whose
	// completion events report the result.
	Login() (domain.CommandID, error)

	// ChangeStatus reports the given status mode to the server.
	ChangeStatus(mode int) error

	// ChannelIDFromPath resolves a channel path to its id.
	ChannelIDFromPath(path string) (domain.ChannelID, error)

	// JoinChannelByID starts joining the channel and returns the
	// command id for completion tracking.
	JoinChannelByID(id domain.ChannelID, password string) (domain.CommandID, error)

	// Participant returns the profile of a session member.
	Participant(id domain.UserID) (domain.Profile, error)

	// VideoFormat returns the current video format of a participant,
	// or nil when the participant has no video stream right now.
	VideoFormat(id domain.UserID) (*domain.VideoFormat, error)

	// VideoFrame copies one pending frame for the participant into dst
	// and reports whether a frame was available.
	VideoFrame(id domain.UserID, dst *image.RGBA, format domain.VideoFormat) bool

	// StartBroadcast begins transmitting video captured from the named
	// device into the current channel.
	StartBroadcast(deviceName string) error

	// Unsubscribe clears the given subscription bits for a participant.
	Unsubscribe(id domain.UserID, mask int) error

	// NextEvent blocks until the next event or ctx cancellation. It is
	// the only blocking call on the interface.
	NextEvent(ctx context.Context) (domain.Event, error)
}

// GatewayFactory builds a gateway for one server session.
type GatewayFactory func(cfg domain.ServerConfig) Gateway
