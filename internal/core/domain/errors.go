package domain

import "errors"

// Sentinel errors returned by the core. Infrastructure and handlers
// translate these at the edges.
var (
	ErrCameraNotFound       = errors.New("camera not found")
	ErrCameraExists         = errors.New("camera already exists")
	ErrPresetNotFound       = errors.New("preset not found")
	ErrNoFreeDevice         = errors.New("no free output device")
	ErrDeviceNotFound       = errors.New("output device not found")
	ErrInvalidChannelPath   = errors.New("invalid channel path")
	ErrBroadcastFailed      = errors.New("broadcast start failed")
	ErrLayoutNotImplemented = errors.New("layout type not implemented")
	ErrNotConnected         = errors.New("gateway not connected")
	ErrUserNotFound         = errors.New("user not found")
)
