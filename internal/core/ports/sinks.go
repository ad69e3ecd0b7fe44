package ports

// FrameSink receives full composited frames for one output device. The
// pixel format and frame size are agreed when the sink is opened and
// never change afterwards.
type FrameSink interface {
	// Write pushes one full frame. The slice is owned by the caller
	// and must not be retained.
	Write(frame []byte) error
	Close() error
}

// SinkOpener opens a frame sink for a device name.
type SinkOpener interface {
	Open(deviceName string, width, height int) (FrameSink, error)
}
