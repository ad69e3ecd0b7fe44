package conference

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"groupcam/internal/core/domain"
	"groupcam/internal/core/ports"
)

// Tracker keeps the participants of the source channel and owns their
// frame buffers. Mutation happens on the source connection loop; the
// lock covers the nickname listing served to the management API.
type Tracker struct {
	gateway ports.Gateway
	timeout time.Duration
	now     func() time.Time
	logger  *zap.Logger

	mu    sync.RWMutex
	users map[domain.UserID]*domain.Participant
}

func NewTracker(gateway ports.Gateway, timeout time.Duration, logger *zap.Logger) *Tracker {
	return &Tracker{
		gateway: gateway,
		timeout: timeout,
		users:   make(map[domain.UserID]*domain.Participant),
		now:     time.Now,
		logger:  logger,
	}
}

// Add registers a participant if not already tracked and returns it.
func (t *Tracker) Add(id domain.UserID, nickname string) *domain.Participant {
	t.mu.Lock()
	defer t.mu.Unlock()
	if p, ok := t.users[id]; ok {
		return p
	}
	p := domain.NewParticipant(id, nickname)
	t.users[id] = p
	return p
}

// Get returns a tracked participant.
func (t *Tracker) Get(id domain.UserID) (*domain.Participant, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, ok := t.users[id]
	return p, ok
}

// Remove forgets a participant.
func (t *Tracker) Remove(id domain.UserID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.users, id)
}

// HandleFrames processes a pending-frames notification: the
// participant is created lazily, its buffer is sized to the current
// video format, and up to n frames are pulled. It returns the
// participant and whether at least one frame landed. Participants
// whose last frame is older than the timeout are evicted on the way.
func (t *Tracker) HandleFrames(id domain.UserID, n int) (*domain.Participant, bool) {
	t.evictStale()

	p, ok := t.Get(id)
	if !ok {
		profile, err := t.gateway.Participant(id)
		if err != nil {
			t.logger.Debug("frames for unknown participant", zap.Int("user_id", int(id)))
			return nil, false
		}
		p = t.Add(id, profile.Nickname)
	}

	format, err := t.gateway.VideoFormat(id)
	if err != nil || format == nil {
		// No video stream right now; keep the participant, skip the
		// frames.
		return p, false
	}
	p.EnsureFrame(*format)

	updated := false
	for i := 0; i < n; i++ {
		if t.gateway.VideoFrame(id, p.Frame, p.Format) {
			updated = true
		}
	}
	if updated {
		p.LastUpdate = t.now()
	}
	return p, updated
}

// ActiveNicknames lists participants with a fresh frame.
func (t *Tracker) ActiveNicknames() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	now := t.now()
	nicknames := make([]string, 0, len(t.users))
	for _, p := range t.users {
		if p.Alive(now, t.timeout) {
			nicknames = append(nicknames, p.Nickname)
		}
	}
	return nicknames
}

// Len returns how many participants are tracked.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.users)
}

func (t *Tracker) evictStale() {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	for id, p := range t.users {
		if p.LastUpdate.IsZero() {
			continue
		}
		if !p.Alive(now, t.timeout) {
			t.logger.Debug("evicting stale participant",
				zap.Int("user_id", int(id)),
				zap.String("nickname", p.Nickname))
			delete(t.users, id)
		}
	}
}
