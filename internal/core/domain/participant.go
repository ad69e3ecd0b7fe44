package domain

import (
	"image"
	"time"
)

// UserID identifies a participant within a conferencing session.
type UserID int

// Profile is the subset of a participant's account data the system
// cares about.
type Profile struct {
	ID       UserID
	Nickname string
}

// VideoFormat describes the dimensions and rate of a participant's
// video stream as reported by the gateway.
type VideoFormat struct {
	Width  int
	Height int
	FPS    int
}

// Participant is one channel member with video, tracked by the source
// connection. The frame buffer is reallocated whenever the reported
// format changes dimensions.
type Participant struct {
	ID         UserID
	Nickname   string
	Format     VideoFormat
	Frame      *image.RGBA
	LastUpdate time.Time
}

// NewParticipant creates a tracked participant with no frame yet.
func NewParticipant(id UserID, nickname string) *Participant {
	return &Participant{ID: id, Nickname: nickname}
}

// EnsureFrame makes sure the frame buffer matches the given format,
// reallocating when dimensions changed.
func (p *Participant) EnsureFrame(format VideoFormat) {
	if p.Frame != nil && p.Format.Width == format.Width && p.Format.Height == format.Height {
		p.Format = format
		return
	}
	p.Format = format
	p.Frame = image.NewRGBA(image.Rect(0, 0, format.Width, format.Height))
}

// Alive reports whether the participant produced a frame within the
// timeout as of now.
func (p *Participant) Alive(now time.Time, timeout time.Duration) bool {
	if p.LastUpdate.IsZero() {
		return false
	}
	return now.Sub(p.LastUpdate) <= timeout
}
