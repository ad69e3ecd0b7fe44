package domain

import (
	"fmt"
	"regexp"
	"time"
)

// PresetType identifies a tiling strategy for a camera surface.
type PresetType string

const (
	PresetAuto        PresetType = "auto"
	PresetGrid3x3     PresetType = "3x3"
	PresetGrid4x4     PresetType = "4x4"
	PresetFivePlusOne PresetType = "5+1"
)

// ValidPresetType reports whether t names a known tiling strategy.
func ValidPresetType(t PresetType) bool {
	switch t {
	case PresetAuto, PresetGrid3x3, PresetGrid4x4, PresetFivePlusOne:
		return true
	}
	return false
}

// Preset is one stored layout choice for a camera. Numbers are 1-based
// and unique within the camera.
type Preset struct {
	Number int               `json:"number"`
	Name   string            `json:"name"`
	Type   PresetType        `json:"type"`
	Params map[string]string `json:"params,omitempty"`
	Active bool              `json:"active"`
}

// DefaultPreset is the layout used when a camera has no active preset.
func DefaultPreset() Preset {
	return Preset{Type: PresetAuto}
}

// DeviceID is an index into the configured output device pool.
type DeviceID int

// CameraID identifies a persisted camera document.
type CameraID string

// Camera is the persisted description of one composited output: which
// participants to pull (by nickname pattern), which device to write to,
// and the stored layout presets.
type Camera struct {
	ID         CameraID  `json:"id"`
	Title      string    `json:"title"`
	NicknameRE string    `json:"nickname_regexp"`
	Device     DeviceID  `json:"device"`
	DeviceName string    `json:"device_name"`
	Presets    []Preset  `json:"presets"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// CompilePattern compiles the camera's nickname regexp. Nicknames are
// matched case-insensitively.
func (c *Camera) CompilePattern() (*regexp.Regexp, error) {
	re, err := regexp.Compile("(?i)" + c.NicknameRE)
	if err != nil {
		return nil, fmt.Errorf("camera %s: invalid nickname regexp %q: %w", c.ID, c.NicknameRE, err)
	}
	return re, nil
}

// InitialPreset returns the first active preset, or the default auto
// layout when none is marked active.
func (c *Camera) InitialPreset() Preset {
	for _, p := range c.Presets {
		if p.Active {
			return p
		}
	}
	return DefaultPreset()
}

// PresetByNumber looks up a preset by its 1-based number.
func (c *Camera) PresetByNumber(number int) (Preset, bool) {
	for _, p := range c.Presets {
		if p.Number == number {
			return p, true
		}
	}
	return Preset{}, false
}

// Geometry carries the drawing constants every camera surface shares.
// All pixel values are derived once from the video settings.
type Geometry struct {
	Width  int
	Height int

	// TitleHeight is the height in pixels of the title band at the top.
	TitleHeight int
	// TitlePadding is the inset in pixels applied to the title text
	// rectangle on each side.
	TitlePadding int
	// UserPadding is the inset in pixels applied to the trailing edges
	// of each user tile.
	UserPadding int
}

// NewGeometry derives pixel constants from the frame size and the
// configured percentages.
func NewGeometry(width, height int, titleHeightPct, titlePaddingPct, userPaddingPct float64) Geometry {
	titleHeight := int(float64(height) * titleHeightPct / 100)
	return Geometry{
		Width:        width,
		Height:       height,
		TitleHeight:  titleHeight,
		TitlePadding: int(float64(titleHeight) * titlePaddingPct / 100),
		UserPadding:  int(float64(width) * userPaddingPct / 100),
	}
}

// BodyTop is the y coordinate where the user area starts, below the
// title band and its padding margin.
func (g Geometry) BodyTop() int {
	return g.TitleHeight + g.UserPadding
}

// BodyHeight is the drawable height of the user area: everything below
// the title band minus the padding margins at the top and bottom.
func (g Geometry) BodyHeight() int {
	return g.Height - g.TitleHeight - 2*g.UserPadding
}
