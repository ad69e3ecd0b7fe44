package conference

import (
	"sync"

	"groupcam/internal/core/domain"
	"groupcam/internal/infrastructure/compositor"
)

// CameraSet is the registry of running camera compositors. Cameras are
// added at startup and at runtime through the management API while the
// source loop reads it, hence the lock.
type CameraSet struct {
	mu      sync.RWMutex
	cameras map[domain.CameraID]*compositor.Compositor
}

func NewCameraSet() *CameraSet {
	return &CameraSet{cameras: make(map[domain.CameraID]*compositor.Compositor)}
}

func (s *CameraSet) Add(c *compositor.Compositor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cameras[c.ID()] = c
}

func (s *CameraSet) Get(id domain.CameraID) (*compositor.Compositor, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cameras[id]
	return c, ok
}

func (s *CameraSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cameras)
}

// Matching returns the cameras whose nickname pattern matches.
func (s *CameraSet) Matching(nickname string) []*compositor.Compositor {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*compositor.Compositor
	for _, c := range s.cameras {
		if c.Matches(nickname) {
			matched = append(matched, c)
		}
	}
	return matched
}

// RemoveUser drops the participant from every camera holding it.
func (s *CameraSet) RemoveUser(id domain.UserID) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.cameras {
		c.RemoveUser(id)
	}
}

// CloseAll releases every camera's sink.
func (s *CameraSet) CloseAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, c := range s.cameras {
		c.Close()
		delete(s.cameras, id)
	}
}
