package camera

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"sync"
	"sync/atomic"
	"time"

	"github.com/inspect-labs/inspectflow"
	"github.com/inspect-labs/inspectflow/faults"
)

// SimSource is a deterministic software camera. Every frame is a
// gray gradient stamped with a bright square whose position depends
// on the frame index, so consumers can tell frames apart.
type SimSource struct {
	id     string
	params *inspectflow.ParamStore

	mu        sync.Mutex
	connected bool
	grabbing  bool
	stop      chan struct{}
	done      chan struct{}

	frames atomic.Uint64

	// FailNext makes the next CaptureFrame fail once. Test hook.
	FailNext atomic.Bool
}

// NewSimSource returns a simulated camera with the given identifier.
func NewSimSource(id string) *SimSource {
	if id == "" {
		id = "sim0"
	}
	s := &SimSource{id: id, params: inspectflow.NewParamStore()}
	s.params.Define(inspectflow.ParamSpec{Name: "width", Kind: inspectflow.ParamInt, Default: 320})
	s.params.Define(inspectflow.ParamSpec{Name: "height", Kind: inspectflow.ParamInt, Default: 240})
	s.params.Define(inspectflow.ParamSpec{Name: "fps", Kind: inspectflow.ParamFloat, Default: 30.0})
	s.params.Define(inspectflow.ParamSpec{Name: "exposure", Kind: inspectflow.ParamFloat, Default: -1.0})
	s.params.Define(inspectflow.ParamSpec{Name: "gain", Kind: inspectflow.ParamFloat, Default: -1.0})
	return s
}

func (s *SimSource) ID() string { return s.id }

func (s *SimSource) Connect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return faults.Newf(faults.KindCamera, "connect %s: %v", s.id, err).WithComponent(s.id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = true
	return nil
}

func (s *SimSource) Disconnect() error {
	if err := s.StopGrabbing(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
	return nil
}

func (s *SimSource) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

func (s *SimSource) CaptureFrame(ctx context.Context) (Frame, error) {
	s.mu.Lock()
	connected := s.connected
	s.mu.Unlock()
	if !connected {
		return Frame{}, errNotConnected(s.id)
	}
	if err := ctx.Err(); err != nil {
		return Frame{}, faults.Newf(faults.KindCamera, "capture %s: %v", s.id, err).WithComponent(s.id)
	}
	if s.FailNext.CompareAndSwap(true, false) {
		return Frame{}, faults.New(faults.KindCamera, "simulated frame loss").WithComponent(s.id)
	}
	idx := s.frames.Add(1) - 1
	return Frame{
		Image:    s.render(idx),
		Index:    idx,
		Captured: time.Now(),
		SourceID: s.id,
	}, nil
}

func (s *SimSource) StartGrabbing(cb FrameCallback) error {
	if cb == nil {
		return faults.New(faults.KindCamera, "nil frame callback").WithComponent(s.id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return errNotConnected(s.id)
	}
	if s.grabbing {
		return faults.Newf(faults.KindCamera, "camera %s is already grabbing", s.id).WithComponent(s.id)
	}
	s.grabbing = true
	s.stop = make(chan struct{})
	s.done = make(chan struct{})

	fps := s.params.GetFloat("fps", 30)
	interval := time.Duration(float64(time.Second) / fps)

	go func(stop chan struct{}, done chan struct{}) {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				idx := s.frames.Add(1) - 1
				cb(Frame{
					Image:    s.render(idx),
					Index:    idx,
					Captured: time.Now(),
					SourceID: s.id,
				})
			}
		}
	}(s.stop, s.done)
	return nil
}

func (s *SimSource) StopGrabbing() error {
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

func (s *SimSource) Grabbing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.grabbing
}

func (s *SimSource) SetParameter(name string, value any) error {
	if _, ok := s.params.Spec(name); !ok {
		return faults.Newf(faults.KindParameter, "unknown camera parameter %q", name).WithComponent(s.id)
	}
	s.params.Set(name, value)
	return nil
}

func (s *SimSource) Parameter(name string) (any, bool) {
	if _, ok := s.params.Spec(name); !ok {
		return nil, false
	}
	return s.params.Get(name, nil), true
}

// FrameCount returns how many frames the source has produced.
func (s *SimSource) FrameCount() uint64 { return s.frames.Load() }

// render draws the deterministic test pattern for frame idx. The
// stamped square advances 8 pixels per frame and wraps.
func (s *SimSource) render(idx uint64) *image.Gray {
	w := s.params.GetInt("width", 320)
	h := s.params.GetInt("height", 240)
	gain := s.params.GetFloat("gain", -1)

	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		base := uint8(y * 255 / maxInt(h-1, 1))
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: base})
		}
	}

	side := w / 8
	if side < 4 {
		side = 4
	}
	offset := int(idx*8) % maxInt(w-side, 1)
	level := uint8(255)
	if gain >= 0 && gain < 1 {
		level = uint8(128 + 127*gain)
	}
	for y := h/2 - side/2; y < h/2+side/2; y++ {
		for x := offset; x < offset+side && x < w; x++ {
			if y >= 0 && y < h {
				img.SetGray(x, y, color.Gray{Y: level})
			}
		}
	}
	return img
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

var _ Source = (*SimSource)(nil)

// String implements fmt.Stringer for log output.
func (s *SimSource) String() string {
	return fmt.Sprintf("sim(%s)", s.id)
}
