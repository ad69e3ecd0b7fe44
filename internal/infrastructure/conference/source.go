package conference

import (
	"go.uber.org/zap"

	"groupcam/internal/core/domain"
	"groupcam/internal/core/ports"
	"groupcam/internal/infrastructure/monitoring"
)

// SourceRole watches the source channel: it decides which participants
// are eligible for a camera, trims their subscriptions to video only,
// and feeds frames through the tracker into the compositors.
type SourceRole struct {
	tracker   *Tracker
	cameras   *CameraSet
	publisher ports.EventPublisher
	metrics   *monitoring.Collector
	logger    *zap.Logger
}

func NewSourceRole(tracker *Tracker, cameras *CameraSet, publisher ports.EventPublisher,
	metrics *monitoring.Collector, logger *zap.Logger) *SourceRole {
	return &SourceRole{
		tracker:   tracker,
		cameras:   cameras,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
	}
}

var _ Role = (*SourceRole)(nil)

func (r *SourceRole) OnChannelJoined(conn *Connection) {
	if err := conn.Gateway().ChangeStatus(domain.StatusAvailable); err != nil {
		r.logger.Warn("failed to report status", zap.Error(err))
	}
}

// OnParticipantJoined subscribes eligible participants to video only
// and drops everything for the rest.
func (r *SourceRole) OnParticipantJoined(conn *Connection, id domain.UserID) {
	gw := conn.Gateway()

	profile, err := gw.Participant(id)
	if err != nil {
		r.logger.Warn("cannot resolve joined participant", zap.Int("user_id", int(id)), zap.Error(err))
		return
	}

	matched := r.cameras.Matching(profile.Nickname)
	if len(matched) == 0 {
		if err := gw.Unsubscribe(id, domain.SubscribeAll); err != nil {
			r.logger.Warn("unsubscribe failed", zap.Int("user_id", int(id)), zap.Error(err))
		}
		return
	}

	if err := gw.Unsubscribe(id, domain.SubscribeAll&^domain.SubscribeVideo); err != nil {
		r.logger.Warn("subscription trim failed", zap.Int("user_id", int(id)), zap.Error(err))
	}

	p := r.tracker.Add(id, profile.Nickname)
	for _, camera := range matched {
		camera.AddUser(p)
	}
	r.metrics.SetParticipants(r.tracker.Len())
	r.publish("user_joined", profile.Nickname)
	r.logger.Info("participant joined",
		zap.Int("user_id", int(id)),
		zap.String("nickname", profile.Nickname),
		zap.Int("cameras", len(matched)))
}

func (r *SourceRole) OnParticipantLeft(conn *Connection, id domain.UserID) {
	p, tracked := r.tracker.Get(id)
	r.tracker.Remove(id)
	r.cameras.RemoveUser(id)
	r.metrics.SetParticipants(r.tracker.Len())

	if tracked {
		r.publish("user_left", p.Nickname)
		r.logger.Info("participant left",
			zap.Int("user_id", int(id)),
			zap.String("nickname", p.Nickname))
	}
}

// OnVideoFrame pulls pending frames and redraws every camera showing
// the participant.
func (r *SourceRole) OnVideoFrame(conn *Connection, id domain.UserID, frames int) {
	p, updated := r.tracker.HandleFrames(id, frames)
	if !updated {
		return
	}

	for _, camera := range r.cameras.Matching(p.Nickname) {
		camera.AddUser(p)
		if camera.UpdateIfHasUser(id) {
			r.metrics.FrameComposited()
		}
	}
}

func (r *SourceRole) publish(eventType, nickname string) {
	if r.publisher == nil {
		return
	}
	r.publisher.Publish(map[string]interface{}{
		"type":     eventType,
		"nickname": nickname,
	})
}
