package services

import (
	"image"
	"math"
	"sort"

	"groupcam/internal/core/domain"
)

// Placement assigns one participant a rectangle on the camera surface.
type Placement struct {
	UserID domain.UserID
	Rect   image.Rectangle
}

// ComputeLayout maps participants to tile rectangles below the title
// band. It is pure and deterministic: participants are placed in
// ascending id order, row-major. An empty input yields no placements.
func ComputeLayout(geom domain.Geometry, preset domain.Preset, users []domain.UserID) ([]Placement, error) {
	if len(users) == 0 {
		return nil, nil
	}

	sorted := make([]domain.UserID, len(users))
	copy(sorted, users)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	switch preset.Type {
	case domain.PresetAuto, "":
		return autoLayout(geom, sorted), nil
	case domain.PresetGrid3x3:
		return fixedLayout(geom, sorted, 3), nil
	case domain.PresetGrid4x4:
		return fixedLayout(geom, sorted, 4), nil
	case domain.PresetFivePlusOne:
		return nil, domain.ErrLayoutNotImplemented
	}
	return nil, domain.ErrLayoutNotImplemented
}

// autoLayout picks a grid whose tile count tracks the participant
// count. Each tile gets roughly area/(0.5+N) pixels of budget.
func autoLayout(geom domain.Geometry, users []domain.UserID) []Placement {
	n := len(users)
	width := float64(geom.Width)
	height := float64(geom.BodyHeight())
	aspect := width / height

	tileArea := width * height / (0.5 + float64(n))
	tileH := math.Sqrt(tileArea / aspect)
	tileW := tileH * aspect

	cols := int(math.Round(width / tileW))
	if cols < 1 {
		cols = 1
	}
	rows := int(math.Round(height / tileH))
	if rows < 1 {
		rows = 1
	}
	// Rounding can undershoot capacity; every participant must get a
	// cell.
	for cols*rows < n {
		rows++
	}

	return placeGrid(geom, users, cols, rows, true)
}

// fixedLayout tiles a size×size grid sized from the geometry alone.
// Participants beyond the grid capacity are not drawn.
func fixedLayout(geom domain.Geometry, users []domain.UserID, size int) []Placement {
	if len(users) > size*size {
		users = users[:size*size]
	}
	return placeGrid(geom, users, size, size, false)
}

// placeGrid lays users out row-major on a cols×rows grid centred in
// the body region. When keepAspect is set, tiles preserve the frame
// aspect ratio and shrink along whichever axis overflows; otherwise
// cells simply divide the body evenly.
func placeGrid(geom domain.Geometry, users []domain.UserID, cols, rows int, keepAspect bool) []Placement {
	bodyW := geom.Width
	bodyH := geom.BodyHeight()

	tileW := bodyW / cols
	tileH := bodyH / rows
	if keepAspect {
		aspect := float64(bodyW) / float64(bodyH)
		tileH = int(float64(tileW) / aspect)
		if tileH*rows > bodyH {
			tileH = bodyH / rows
			tileW = int(float64(tileH) * aspect)
		}
	}

	gridX := (bodyW - tileW*cols) / 2
	gridY := geom.BodyTop() + (bodyH-tileH*rows)/2

	placements := make([]Placement, 0, len(users))
	for i, id := range users {
		col := i % cols
		row := i / cols
		x := gridX + col*tileW
		y := gridY + row*tileH
		rect := image.Rect(x, y, x+tileW-geom.UserPadding, y+tileH-geom.UserPadding)
		placements = append(placements, Placement{UserID: id, Rect: rect})
	}
	return placements
}
