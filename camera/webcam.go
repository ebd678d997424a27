//go:build gocv

package camera

import (
	"context"
	"image"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/inspect-labs/inspectflow/faults"
)

// WebcamSource acquires frames from a local video device through
// OpenCV. Building it requires the gocv build tag and an OpenCV
// installation; without the tag the stub in webcam_stub.go is used.
type WebcamSource struct {
	id     string
	device any

	mu       sync.Mutex
	cap      *gocv.VideoCapture
	grabbing bool
	stop     chan struct{}
	done     chan struct{}
	frames   uint64
}

// NewWebcamSource returns a source for the given device. device is
// whatever gocv.OpenVideoCapture accepts: an index, a device path, or
// a stream URL.
func NewWebcamSource(id string, device any) *WebcamSource {
	if id == "" {
		id = "webcam0"
	}
	return &WebcamSource{id: id, device: device}
}

func (s *WebcamSource) ID() string { return s.id }

func (s *WebcamSource) Connect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return faults.Newf(faults.KindCamera, "connect %s: %v", s.id, err).WithComponent(s.id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cap != nil {
		return nil
	}
	cap, err := gocv.OpenVideoCapture(s.device)
	if err != nil {
		return faults.Newf(faults.KindCamera, "open device %v: %v", s.device, err).WithComponent(s.id)
	}
	if !cap.IsOpened() {
		cap.Close()
		return faults.Newf(faults.KindCamera, "device %v did not open", s.device).WithComponent(s.id)
	}
	s.cap = cap
	return nil
}

func (s *WebcamSource) Disconnect() error {
	if err := s.StopGrabbing(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cap == nil {
		return nil
	}
	err := s.cap.Close()
	s.cap = nil
	if err != nil {
		return faults.Newf(faults.KindCamera, "close %s: %v", s.id, err).WithComponent(s.id)
	}
	return nil
}

func (s *WebcamSource) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cap != nil
}

func (s *WebcamSource) CaptureFrame(ctx context.Context) (Frame, error) {
	s.mu.Lock()
	cap := s.cap
	s.mu.Unlock()
	if cap == nil {
		return Frame{}, errNotConnected(s.id)
	}
	if err := ctx.Err(); err != nil {
		return Frame{}, faults.Newf(faults.KindCamera, "capture %s: %v", s.id, err).WithComponent(s.id)
	}
	img, err := s.readFrame(cap)
	if err != nil {
		return Frame{}, err
	}
	s.mu.Lock()
	idx := s.frames
	s.frames++
	s.mu.Unlock()
	return Frame{Image: img, Index: idx, Captured: time.Now(), SourceID: s.id}, nil
}

func (s *WebcamSource) readFrame(cap *gocv.VideoCapture) (image.Image, error) {
	mat := gocv.NewMat()
	defer mat.Close()
	if ok := cap.Read(&mat); !ok || mat.Empty() {
		return nil, faults.New(faults.KindCamera, "frame read failed").WithComponent(s.id)
	}
	img, err := mat.ToImage()
	if err != nil {
		return nil, faults.Newf(faults.KindCamera, "frame convert: %v", err).WithComponent(s.id)
	}
	return img, nil
}

func (s *WebcamSource) StartGrabbing(cb FrameCallback) error {
	if cb == nil {
		return faults.New(faults.KindCamera, "nil frame callback").WithComponent(s.id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cap == nil {
		return errNotConnected(s.id)
	}
	if s.grabbing {
		return faults.Newf(faults.KindCamera, "camera %s is already grabbing", s.id).WithComponent(s.id)
	}
	s.grabbing = true
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	cap := s.cap

	go func(stop chan struct{}, done chan struct{}) {
		defer close(done)
		for {
			select {
			case <-stop:
				return
			default:
			}
			img, err := s.readFrame(cap)
			if err != nil {
				continue
			}
			s.mu.Lock()
			idx := s.frames
			s.frames++
			s.mu.Unlock()
			cb(Frame{Image: img, Index: idx, Captured: time.Now(), SourceID: s.id})
		}
	}(s.stop, s.done)
	return nil
}

func (s *WebcamSource) StopGrabbing() error {
	s.mu.Lock()
	if !s.grabbing {
		s.mu.Unlock()
		return nil
	}
	s.grabbing = false
	stop, done := s.stop, s.done
	s.mu.Unlock()

	close(stop)
	<-done
	return nil
}

func (s *WebcamSource) Grabbing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.grabbing
}

func (s *WebcamSource) SetParameter(name string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cap == nil {
		return errNotConnected(s.id)
	}
	prop, ok := captureProps[name]
	if !ok {
		return faults.Newf(faults.KindParameter, "unknown camera parameter %q", name).WithComponent(s.id)
	}
	f, ok := toSettable(value)
	if !ok {
		return faults.Newf(faults.KindParameter, "parameter %q wants a number, got %T", name, value).WithComponent(s.id)
	}
	s.cap.Set(prop, f)
	return nil
}

func (s *WebcamSource) Parameter(name string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cap == nil {
		return nil, false
	}
	prop, ok := captureProps[name]
	if !ok {
		return nil, false
	}
	return s.cap.Get(prop), true
}

var captureProps = map[string]gocv.VideoCaptureProperties{
	"width":    gocv.VideoCaptureFrameWidth,
	"height":   gocv.VideoCaptureFrameHeight,
	"fps":      gocv.VideoCaptureFPS,
	"exposure": gocv.VideoCaptureExposure,
	"gain":     gocv.VideoCaptureGain,
}

func toSettable(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

var _ Source = (*WebcamSource)(nil)
