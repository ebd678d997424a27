//go:build !gocv

package camera

import (
	"context"

	"github.com/inspect-labs/inspectflow/faults"
)

// WebcamSource is the no-OpenCV stand-in for the gocv implementation.
// Every operation fails until the binary is built with the gocv tag.
type WebcamSource struct {
	id string
}

// NewWebcamSource returns a source whose operations report that gocv
// support is not compiled in. device is ignored.
func NewWebcamSource(id string, device any) *WebcamSource {
	if id == "" {
		id = "webcam0"
	}
	_ = device
	return &WebcamSource{id: id}
}

func (s *WebcamSource) ID() string { return s.id }

func (s *WebcamSource) Connect(ctx context.Context) error { return s.unavailable() }

func (s *WebcamSource) Disconnect() error { return nil }

func (s *WebcamSource) Connected() bool { return false }

func (s *WebcamSource) CaptureFrame(ctx context.Context) (Frame, error) {
	return Frame{}, s.unavailable()
}

func (s *WebcamSource) StartGrabbing(cb FrameCallback) error { return s.unavailable() }

func (s *WebcamSource) StopGrabbing() error { return nil }

func (s *WebcamSource) Grabbing() bool { return false }

func (s *WebcamSource) SetParameter(name string, value any) error { return s.unavailable() }

func (s *WebcamSource) Parameter(name string) (any, bool) { return nil, false }

func (s *WebcamSource) unavailable() error {
	return faults.New(faults.KindCamera, "webcam support requires the gocv build tag").WithComponent(s.id)
}

var _ Source = (*WebcamSource)(nil)
