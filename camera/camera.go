// Package camera abstracts frame acquisition devices behind the
// Source interface: connect, single-frame capture, and continuous
// grabbing with a frame callback.
package camera

import (
	"context"
	"image"
	"time"

	"github.com/inspect-labs/inspectflow/faults"
)

// Frame is one acquired image with its acquisition metadata.
type Frame struct {
	Image    image.Image
	Index    uint64
	Captured time.Time
	SourceID string
}

// FrameCallback receives frames during continuous grabbing. Callbacks
// run on the grab goroutine; a slow callback slows acquisition.
type FrameCallback func(Frame)

// Source is a frame acquisition device. Implementations classify
// their failures as *faults.Error with KindCamera.
type Source interface {
	// ID returns the device identifier.
	ID() string

	// Connect opens the device. Connecting a connected source is a
	// no-op.
	Connect(ctx context.Context) error

	// Disconnect closes the device, stopping any active grab first.
	Disconnect() error

	// Connected reports whether the device is open.
	Connected() bool

	// CaptureFrame acquires a single frame.
	CaptureFrame(ctx context.Context) (Frame, error)

	// StartGrabbing begins continuous acquisition, delivering frames
	// to cb until StopGrabbing.
	StartGrabbing(cb FrameCallback) error

	// StopGrabbing ends continuous acquisition. Idempotent.
	StopGrabbing() error

	// Grabbing reports whether continuous acquisition is active.
	Grabbing() bool

	// SetParameter sets a device parameter (exposure, gain, fps; -1
	// means auto for exposure and gain).
	SetParameter(name string, value any) error

	// Parameter reads a device parameter.
	Parameter(name string) (any, bool)
}

func errNotConnected(id string) error {
	return faults.Newf(faults.KindCamera, "camera %s is not connected", id).WithComponent(id)
}
