package camera

import (
	"context"
	"errors"
	"image"
	"testing"
	"time"

	"github.com/inspect-labs/inspectflow/faults"
)

func TestSimSource_CaptureRequiresConnect(t *testing.T) {
	src := NewSimSource("cam-a")

	_, err := src.CaptureFrame(context.Background())
	if err == nil {
		t.Fatal("capture on a disconnected source should fail")
	}
	var fe *faults.Error
	if !errors.As(err, &fe) {
		t.Fatalf("error type = %T, want *faults.Error", err)
	}
	if fe.Kind != faults.KindCamera {
		t.Errorf("kind = %q, want %q", fe.Kind, faults.KindCamera)
	}
	if fe.Component != "cam-a" {
		t.Errorf("component = %q, want cam-a", fe.Component)
	}
}

func TestSimSource_CaptureFrame(t *testing.T) {
	src := NewSimSource("cam-a")
	if err := src.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer src.Disconnect()

	f0, err := src.CaptureFrame(context.Background())
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	f1, err := src.CaptureFrame(context.Background())
	if err != nil {
		t.Fatalf("capture: %v", err)
	}

	if f0.Index != 0 || f1.Index != 1 {
		t.Errorf("indices = %d, %d, want 0, 1", f0.Index, f1.Index)
	}
	if f0.SourceID != "cam-a" {
		t.Errorf("source id = %q, want cam-a", f0.SourceID)
	}
	want := image.Rect(0, 0, 320, 240)
	if f0.Image.Bounds() != want {
		t.Errorf("bounds = %v, want %v", f0.Image.Bounds(), want)
	}
	if src.FrameCount() != 2 {
		t.Errorf("frame count = %d, want 2", src.FrameCount())
	}
}

func TestSimSource_FramesAreDeterministic(t *testing.T) {
	a := NewSimSource("a")
	b := NewSimSource("b")
	for _, s := range []*SimSource{a, b} {
		if err := s.Connect(context.Background()); err != nil {
			t.Fatalf("connect: %v", err)
		}
	}
	fa, _ := a.CaptureFrame(context.Background())
	fb, _ := b.CaptureFrame(context.Background())

	ga := fa.Image.(*image.Gray)
	gb := fb.Image.(*image.Gray)
	for i := range ga.Pix {
		if ga.Pix[i] != gb.Pix[i] {
			t.Fatalf("frame 0 differs between sources at pixel %d", i)
		}
	}
}

func TestSimSource_ConsecutiveFramesDiffer(t *testing.T) {
	src := NewSimSource("")
	if err := src.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	f0, _ := src.CaptureFrame(context.Background())
	f1, _ := src.CaptureFrame(context.Background())

	g0 := f0.Image.(*image.Gray)
	g1 := f1.Image.(*image.Gray)
	same := true
	for i := range g0.Pix {
		if g0.Pix[i] != g1.Pix[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("frames 0 and 1 are identical, stamp should move")
	}
}

func TestSimSource_ParameterRoundTrip(t *testing.T) {
	src := NewSimSource("cam-a")
	if err := src.SetParameter("width", 64); err != nil {
		t.Fatalf("set width: %v", err)
	}
	if err := src.SetParameter("height", 48); err != nil {
		t.Fatalf("set height: %v", err)
	}
	if v, ok := src.Parameter("width"); !ok || v != 64 {
		t.Errorf("width = %v (%v), want 64", v, ok)
	}

	if err := src.SetParameter("bogus", 1); err == nil {
		t.Error("unknown parameter should be rejected")
	}
	if _, ok := src.Parameter("bogus"); ok {
		t.Error("unknown parameter should not be readable")
	}

	src.Connect(context.Background())
	f, err := src.CaptureFrame(context.Background())
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	want := image.Rect(0, 0, 64, 48)
	if f.Image.Bounds() != want {
		t.Errorf("bounds = %v, want %v", f.Image.Bounds(), want)
	}
}

func TestSimSource_ExposureAutoSentinel(t *testing.T) {
	src := NewSimSource("cam-a")
	if err := src.SetParameter("exposure", -3.5); err != nil {
		t.Fatalf("set exposure: %v", err)
	}
	v, ok := src.Parameter("exposure")
	if !ok {
		t.Fatal("exposure should be readable")
	}
	if v != -1 {
		t.Errorf("exposure = %v, want -1 auto sentinel", v)
	}
}

func TestSimSource_Grabbing(t *testing.T) {
	src := NewSimSource("cam-a")
	src.SetParameter("fps", 200.0)
	if err := src.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}

	frames := make(chan Frame, 64)
	if err := src.StartGrabbing(func(f Frame) { frames <- f }); err != nil {
		t.Fatalf("start grabbing: %v", err)
	}
	if !src.Grabbing() {
		t.Error("Grabbing() = false during grab")
	}
	if err := src.StartGrabbing(func(Frame) {}); err == nil {
		t.Error("second StartGrabbing should fail")
	}

	var got []Frame
	deadline := time.After(2 * time.Second)
	for len(got) < 3 {
		select {
		case f := <-frames:
			got = append(got, f)
		case <-deadline:
			t.Fatalf("got %d frames before deadline, want 3", len(got))
		}
	}

	if err := src.StopGrabbing(); err != nil {
		t.Fatalf("stop grabbing: %v", err)
	}
	if src.Grabbing() {
		t.Error("Grabbing() = true after stop")
	}
	if err := src.StopGrabbing(); err != nil {
		t.Errorf("second stop should be a no-op, got %v", err)
	}

	for i := 1; i < len(got); i++ {
		if got[i].Index != got[i-1].Index+1 {
			t.Errorf("frame indices not consecutive: %d then %d", got[i-1].Index, got[i].Index)
		}
	}
}

func TestSimSource_DisconnectStopsGrab(t *testing.T) {
	src := NewSimSource("cam-a")
	src.SetParameter("fps", 200.0)
	if err := src.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := src.StartGrabbing(func(Frame) {}); err != nil {
		t.Fatalf("start grabbing: %v", err)
	}
	if err := src.Disconnect(); err != nil {
		t.Fatalf("disconnect: %v", err)
	}
	if src.Grabbing() {
		t.Error("grab should stop on disconnect")
	}
	if src.Connected() {
		t.Error("Connected() = true after disconnect")
	}
}

func TestSimSource_FailNext(t *testing.T) {
	src := NewSimSource("cam-a")
	src.Connect(context.Background())
	src.FailNext.Store(true)

	_, err := src.CaptureFrame(context.Background())
	var fe *faults.Error
	if !errors.As(err, &fe) || fe.Kind != faults.KindCamera {
		t.Fatalf("want a camera fault, got %v", err)
	}
	if _, err := src.CaptureFrame(context.Background()); err != nil {
		t.Errorf("failure should be one-shot, got %v", err)
	}
}

func TestSimSource_CanceledContext(t *testing.T) {
	src := NewSimSource("cam-a")
	src.Connect(context.Background())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := src.CaptureFrame(ctx); err == nil {
		t.Error("capture with canceled context should fail")
	}
}
