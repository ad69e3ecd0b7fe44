package conference

import (
	"go.uber.org/zap"

	"groupcam/internal/core/domain"
)

// DestinationRole re-broadcasts one camera's output device into the
// destination channel.
type DestinationRole struct {
	deviceName string
	logger     *zap.Logger
}

func NewDestinationRole(deviceName string, logger *zap.Logger) *DestinationRole {
	return &DestinationRole{
		deviceName: deviceName,
		logger:     logger.With(zap.String("device", deviceName)),
	}
}

var _ Role = (*DestinationRole)(nil)

// OnChannelJoined starts the broadcast and flags video transmission in
// the reported status.
func (r *DestinationRole) OnChannelJoined(conn *Connection) {
	gw := conn.Gateway()

	if err := gw.StartBroadcast(r.deviceName); err != nil {
		r.logger.Error("broadcast start failed", zap.Error(err))
		return
	}
	if err := gw.ChangeStatus(domain.StatusVideoTX); err != nil {
		r.logger.Warn("failed to report video status", zap.Error(err))
	}
	conn.SetBroadcasting(true)
	r.logger.Info("broadcasting")
}

func (r *DestinationRole) OnParticipantJoined(conn *Connection, id domain.UserID) {}

func (r *DestinationRole) OnParticipantLeft(conn *Connection, id domain.UserID) {}

func (r *DestinationRole) OnVideoFrame(conn *Connection, id domain.UserID, frames int) {}
