package devices

import (
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"

	"groupcam/internal/core/ports"
)

// V4L2Opener opens loopback video device nodes for writing composited
// frames. The node must accept raw BGRA frames at the agreed size.
type V4L2Opener struct {
	logger *zap.Logger
}

func NewV4L2Opener(logger *zap.Logger) *V4L2Opener {
	return &V4L2Opener{logger: logger}
}

var _ ports.SinkOpener = (*V4L2Opener)(nil)

func (o *V4L2Opener) Open(deviceName string, width, height int) (ports.FrameSink, error) {
	f, err := os.OpenFile(deviceName, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open video device %s: %w", deviceName, err)
	}
	o.logger.Info("opened output device",
		zap.String("device", deviceName),
		zap.Int("width", width),
		zap.Int("height", height))
	return &deviceSink{
		file:      f,
		frameSize: width * height * 4,
	}, nil
}

type deviceSink struct {
	mu        sync.Mutex
	file      *os.File
	frameSize int
}

func (s *deviceSink) Write(frame []byte) error {
	if len(frame) != s.frameSize {
		return fmt.Errorf("frame size %d does not match device frame size %d", len(frame), s.frameSize)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.file.Write(frame); err != nil {
		return fmt.Errorf("failed to write frame to %s: %w", s.file.Name(), err)
	}
	return nil
}

func (s *deviceSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}

// NullOpener discards frames. Used in mock mode when no loopback
// devices exist on the host.
type NullOpener struct{}

func (NullOpener) Open(deviceName string, width, height int) (ports.FrameSink, error) {
	return nullSink{}, nil
}

var _ ports.SinkOpener = NullOpener{}

type nullSink struct{}

func (nullSink) Write(frame []byte) error { return nil }
func (nullSink) Close() error             { return nil }
