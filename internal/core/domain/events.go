package domain

// EventType is the closed set of conferencing events the system reacts
// to. The gateway decodes wire messages into these; anything else is
// dropped at the boundary.
type EventType int

const (
	EventUnknown EventType = iota
	EventConnectSuccess
	EventConnectFailed
	EventConnectionLost
	EventLoggedIn
	EventLoggedOut
	EventCommandProcessing
	EventCommandError
	EventUserLoggedIn
	EventUserJoined
	EventUserLeft
	EventVideoFrame
)

func (t EventType) String() string {
	switch t {
	case EventConnectSuccess:
		return "connect_success"
	case EventConnectFailed:
		return "connect_failed"
	case EventConnectionLost:
		return "connection_lost"
	case EventLoggedIn:
		return "logged_in"
	case EventLoggedOut:
		return "logged_out"
	case EventCommandProcessing:
		return "command_processing"
	case EventCommandError:
		return "command_error"
	case EventUserLoggedIn:
		return "user_logged_in"
	case EventUserJoined:
		return "user_joined"
	case EventUserLeft:
		return "user_left"
	case EventVideoFrame:
		return "video_frame"
	}
	return "unknown"
}

// CommandID tags an asynchronous gateway command so completion events
// can be correlated with the request that issued them.
type CommandID int

// CommandTag names what an in-flight command was doing. The connection
// keeps a CommandID -> CommandTag table, cleared on disconnect.
type CommandTag int

const (
	TagLoggingIn CommandTag = iota + 1
	TagJoiningChannel
)

// ChannelID identifies a channel on the conferencing server.
type ChannelID int

// Status mode bits reported to the server.
const (
	StatusAvailable = 0
	StatusVideoTX   = 0x200
)

// Subscription mask bits controlling what data the server pushes for a
// given participant.
const (
	SubscribeNone         = 0
	SubscribeUserMessages = 1 << 0
	SubscribeChannelInfo  = 1 << 1
	SubscribeAudio        = 1 << 2
	SubscribeVideo        = 1 << 3
	SubscribeDesktop      = 1 << 4
	SubscribeAll          = SubscribeUserMessages | SubscribeChannelInfo |
		SubscribeAudio | SubscribeVideo | SubscribeDesktop
)

// Event is one decoded gateway notification.
type Event struct {
	Type      EventType
	UserID    UserID
	CommandID CommandID
	ErrorCode int
	// Frames is how many video frames are pending for UserID when
	// Type is EventVideoFrame.
	Frames int
	// Complete marks the final CommandProcessing event of a command.
	Complete bool
}
