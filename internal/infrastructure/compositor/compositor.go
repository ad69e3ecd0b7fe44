package compositor

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"regexp"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"groupcam/internal/core/domain"
	"groupcam/internal/core/ports"
	"groupcam/internal/core/services"
)

var (
	backgroundColor = color.RGBA{A: 255}
	titleBandColor  = color.RGBA{B: 255, A: 255}
	labelBandColor  = color.RGBA{A: 200}
	textColor       = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// Compositor owns the drawing surface of one camera. Participants are
// held by reference; the tracker keeps ownership of frame buffers.
type Compositor struct {
	mu sync.Mutex

	camera  domain.Camera
	pattern *regexp.Regexp
	geom    domain.Geometry
	preset  domain.Preset

	users map[domain.UserID]*domain.Participant

	surface     *image.RGBA
	sink        ports.FrameSink
	userTimeout time.Duration
	noUsersMsg  string
	now         func() time.Time
	logger      *zap.Logger
}

// Options carries the global drawing settings shared by all cameras.
type Options struct {
	Geometry    domain.Geometry
	UserTimeout time.Duration
	NoUsersMsg  string
	Logger      *zap.Logger
}

// New builds a compositor from a persisted camera record. It opens the
// output sink, picks the initial preset and renders one frame; a sink
// that cannot be opened is fatal for the camera.
func New(camera *domain.Camera, opener ports.SinkOpener, opts Options) (*Compositor, error) {
	pattern, err := camera.CompilePattern()
	if err != nil {
		return nil, err
	}

	sink, err := opener.Open(camera.DeviceName, opts.Geometry.Width, opts.Geometry.Height)
	if err != nil {
		return nil, fmt.Errorf("camera %s: failed to open device %s: %w", camera.ID, camera.DeviceName, err)
	}

	c := &Compositor{
		camera:      *camera,
		pattern:     pattern,
		geom:        opts.Geometry,
		preset:      camera.InitialPreset(),
		users:       make(map[domain.UserID]*domain.Participant),
		surface:     image.NewRGBA(image.Rect(0, 0, opts.Geometry.Width, opts.Geometry.Height)),
		sink:        sink,
		userTimeout: opts.UserTimeout,
		noUsersMsg:  opts.NoUsersMsg,
		now:         time.Now,
		logger:      opts.Logger.With(zap.String("camera_id", string(camera.ID))),
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.recompose(); err != nil {
		sink.Close()
		return nil, err
	}
	return c, nil
}

// ID returns the persisted camera id.
func (c *Compositor) ID() domain.CameraID {
	return c.camera.ID
}

// DeviceName returns the output device node this camera writes to.
func (c *Compositor) DeviceName() string {
	return c.camera.DeviceName
}

// Matches reports whether a participant nickname belongs on this
// camera.
func (c *Compositor) Matches(nickname string) bool {
	return c.pattern.MatchString(nickname)
}

// AddUser registers a participant without recomposing; the frame
// that triggers the first update redraws the surface.
func (c *Compositor) AddUser(p *domain.Participant) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.users[p.ID] = p
}

// RemoveUser drops a participant and redraws.
func (c *Compositor) RemoveUser(id domain.UserID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.users[id]; !ok {
		return
	}
	delete(c.users, id)
	if err := c.recompose(); err != nil {
		c.logger.Error("recompose after user removal failed", zap.Error(err))
	}
}

// UpdateIfHasUser redraws when the given participant is on this
// camera and reports whether it was.
func (c *Compositor) UpdateIfHasUser(id domain.UserID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.users[id]; !ok {
		return false
	}
	if err := c.recompose(); err != nil {
		c.logger.Error("recompose after frame update failed", zap.Error(err))
	}
	return true
}

// ActivatePreset switches the current layout and redraws. Layouts the
// engine cannot produce are rejected before any state changes.
func (c *Compositor) ActivatePreset(preset domain.Preset) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if preset.Type == domain.PresetFivePlusOne {
		return domain.ErrLayoutNotImplemented
	}
	if !domain.ValidPresetType(preset.Type) && preset.Type != "" {
		return domain.ErrLayoutNotImplemented
	}

	c.preset = preset
	return c.recompose()
}

// Close releases the output sink.
func (c *Compositor) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sink.Close()
}

// recompose redraws the whole surface and pushes it to the sink.
// Callers hold c.mu.
func (c *Compositor) recompose() error {
	draw.Draw(c.surface, c.surface.Bounds(), image.NewUniform(backgroundColor), image.Point{}, draw.Src)

	c.drawTitle()

	alive := c.aliveUsers()
	if len(alive) == 0 {
		c.drawPlaceholder()
		return c.push()
	}

	ids := make([]domain.UserID, 0, len(alive))
	for id := range alive {
		ids = append(ids, id)
	}

	placements, err := services.ComputeLayout(c.geom, c.preset, ids)
	if err != nil {
		return err
	}

	for _, placement := range placements {
		user := alive[placement.UserID]
		scaleInto(c.surface, placement.Rect, user.Frame)
		c.drawLabel(placement.Rect, user.Nickname)
	}
	return c.push()
}

func (c *Compositor) drawTitle() {
	band := image.Rect(0, 0, c.geom.Width, c.geom.TitleHeight)
	draw.Draw(c.surface, band, image.NewUniform(titleBandColor), image.Point{}, draw.Src)

	textRect := band.Inset(c.geom.TitlePadding)
	drawTextFitted(c.surface, textRect, c.camera.Title, textColor)
}

// drawPlaceholder centres the no-users message over 80% of the width.
func (c *Compositor) drawPlaceholder() {
	bodyTop := c.geom.TitleHeight
	margin := c.geom.Width / 10
	rect := image.Rect(margin, bodyTop, c.geom.Width-margin, c.geom.Height)
	drawTextFitted(c.surface, rect, c.noUsersMsg, textColor)
}

// drawLabel paints the nickname band at the top of a tile, spanning
// the horizontal middle third.
func (c *Compositor) drawLabel(tile image.Rectangle, nickname string) {
	bandH := int(float64(tile.Dy()) * 0.15)
	if bandH <= 0 {
		return
	}
	band := image.Rect(tile.Min.X+tile.Dx()/3, tile.Min.Y,
		tile.Min.X+2*tile.Dx()/3, tile.Min.Y+bandH)

	draw.Draw(c.surface, band, image.NewUniform(labelBandColor), image.Point{}, draw.Over)
	drawTextFitted(c.surface, band, strings.ToUpper(nickname), textColor)
}

func (c *Compositor) aliveUsers() map[domain.UserID]*domain.Participant {
	now := c.now()
	alive := make(map[domain.UserID]*domain.Participant, len(c.users))
	for id, user := range c.users {
		if user.Frame == nil {
			continue
		}
		if !user.Alive(now, c.userTimeout) {
			continue
		}
		alive[id] = user
	}
	return alive
}

// push converts the RGBA surface to the BGRA wire order the device
// expects and writes one frame.
func (c *Compositor) push() error {
	pix := c.surface.Pix
	frame := make([]byte, len(pix))
	for i := 0; i < len(pix); i += 4 {
		frame[i] = pix[i+2]
		frame[i+1] = pix[i+1]
		frame[i+2] = pix[i]
		frame[i+3] = pix[i+3]
	}
	return c.sink.Write(frame)
}
