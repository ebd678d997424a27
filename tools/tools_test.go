package tools

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"net"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/xuri/excelize/v2"

	"github.com/inspect-labs/inspectflow"
	"github.com/inspect-labs/inspectflow/faults"
)

// halfTone returns a w x h image whose left half is black and right
// half is white.
func halfTone(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.NRGBA{A: 255}
			if x >= w/2 {
				c = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func flat(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// runBody exercises a spec's body directly with the instance's
// corrected parameters.
func runBody(t *testing.T, spec inspectflow.ToolSpec, in *inspectflow.Artifact, params map[string]any) *inspectflow.Output {
	t.Helper()
	tool := inspectflow.NewTool(spec, "t")
	for k, v := range params {
		tool.Params().Set(k, v)
	}
	out, err := spec.Body(context.Background(), in, tool.Params().Snapshot())
	if err != nil {
		t.Fatalf("%s body: %v", spec.Kind, err)
	}
	return out
}

func TestRegisterBuiltins(t *testing.T) {
	reg := inspectflow.NewRegistry()
	RegisterBuiltins(reg)

	want := map[string]inspectflow.Category{
		"File":         inspectflow.CategoryImageSource,
		"SimCamera":    inspectflow.CategoryImageSource,
		"Gaussian":     inspectflow.CategoryFilter,
		"Median":       inspectflow.CategoryFilter,
		"Edge":         inspectflow.CategoryFilter,
		"Morphology":   inspectflow.CategoryFilter,
		"Geometric":    inspectflow.CategoryFilter,
		"Threshold":    inspectflow.CategoryDetection,
		"ColorMatch":   inspectflow.CategoryDetection,
		"Brightness":   inspectflow.CategoryMeasurement,
		"Contrast":     inspectflow.CategoryMeasurement,
		"OCR":          inspectflow.CategoryRecognition,
		"ResultSender": inspectflow.CategoryCommunication,
		"ReportWriter": inspectflow.CategoryCommunication,
	}
	for kind, cat := range want {
		if _, err := reg.Create(cat, kind, ""); err != nil {
			t.Errorf("create %s.%s: %v", cat, kind, err)
		}
	}
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.png")
	if err := imaging.Save(halfTone(40, 30), path); err != nil {
		t.Fatalf("save fixture: %v", err)
	}

	out := runBody(t, FileSourceSpec(), nil, map[string]any{"path": path})
	if out.Artifact == nil || out.Artifact.Kind != inspectflow.DataKindImage {
		t.Fatal("file source should produce an image artifact")
	}
	if got := out.Artifact.Image.Bounds(); got.Dx() != 40 || got.Dy() != 30 {
		t.Errorf("bounds = %v, want 40x30", got)
	}
	if out.Values["width"] != 40 || out.Values["height"] != 30 {
		t.Errorf("dimensions = %v x %v, want 40 x 30", out.Values["width"], out.Values["height"])
	}
	if got, ok := out.Artifact.Meta["path"].(string); !ok || got != path {
		t.Errorf("path meta = %v, want %s", out.Artifact.Meta["path"], path)
	}
}

func TestFileSource_Errors(t *testing.T) {
	spec := FileSourceSpec()

	_, err := spec.Body(context.Background(), nil, map[string]any{"path": ""})
	var fe *faults.Error
	if !errors.As(err, &fe) || fe.Kind != faults.KindParameter {
		t.Errorf("empty path: got %v, want a parameter fault", err)
	}

	_, err = spec.Body(context.Background(), nil, map[string]any{"path": "/no/such/file.png"})
	if !errors.As(err, &fe) || fe.Kind != faults.KindFile {
		t.Errorf("missing file: got %v, want a file fault", err)
	}
}

func TestSimCameraSource(t *testing.T) {
	reg := inspectflow.NewRegistry()
	RegisterBuiltins(reg)

	cam, err := reg.Create(inspectflow.CategoryImageSource, "SimCamera", "cam")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := cam.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if cam.Output() == nil || cam.Output().Kind != inspectflow.DataKindImage {
		t.Fatal("camera should produce an image artifact")
	}
	if _, ok := cam.Output().Meta["camera"]; !ok {
		t.Error("camera meta missing")
	}
	if _, ok := cam.Result().Value("frame_index"); !ok {
		t.Error("frame_index missing from result")
	}
}

func TestFilters_PreserveBounds(t *testing.T) {
	in := inspectflow.NewImageArtifact(halfTone(40, 30))
	want := image.Rect(0, 0, 40, 30)

	for _, spec := range []inspectflow.ToolSpec{
		GaussianFilterSpec(),
		MedianFilterSpec(),
		EdgeFilterSpec(),
		MorphologyFilterSpec(),
	} {
		out := runBody(t, spec, in, nil)
		if out.Artifact == nil {
			t.Fatalf("%s produced no artifact", spec.Kind)
		}
		if got := out.Artifact.Image.Bounds(); got != want {
			t.Errorf("%s bounds = %v, want %v", spec.Kind, got, want)
		}
	}
}

func TestGaussianFilter_Smooths(t *testing.T) {
	in := inspectflow.NewImageArtifact(halfTone(40, 30))
	out := runBody(t, GaussianFilterSpec(), in, map[string]any{"kernel_size": 9})

	// The hard edge at x=20 must blur into an intermediate level.
	mid := luminance(out.Artifact.Image.At(20, 15))
	if mid < 20 || mid > 235 {
		t.Errorf("edge luminance = %.1f, want an intermediate value", mid)
	}
}

func TestEdgeFilter_UnknownMode(t *testing.T) {
	spec := EdgeFilterSpec()
	in := inspectflow.NewImageArtifact(halfTone(8, 8))
	_, err := spec.Body(context.Background(), in, map[string]any{"mode": "prewitt"})
	var fe *faults.Error
	if !errors.As(err, &fe) || fe.Kind != faults.KindParameter {
		t.Errorf("got %v, want a parameter fault", err)
	}
}

func TestGeometricTransform(t *testing.T) {
	in := inspectflow.NewImageArtifact(halfTone(40, 30))

	out := runBody(t, GeometricTransformSpec(), in, map[string]any{
		"operation": "resize", "target_width": 20, "target_height": 15,
	})
	if got := out.Artifact.Image.Bounds(); got.Dx() != 20 || got.Dy() != 15 {
		t.Errorf("resize bounds = %v, want 20x15", got)
	}

	// A zero dimension preserves aspect even after parameter correction.
	out = runBody(t, GeometricTransformSpec(), in, map[string]any{
		"operation": "resize", "target_width": 20,
	})
	if got := out.Artifact.Image.Bounds(); got.Dx() != 20 || got.Dy() != 15 {
		t.Errorf("aspect resize bounds = %v, want 20x15", got)
	}

	out = runBody(t, GeometricTransformSpec(), in, map[string]any{
		"operation": "crop",
		"roi":       map[string]any{"x": 0, "y": 0, "width": 10, "height": 10},
	})
	if got := out.Artifact.Image.Bounds(); got.Dx() != 10 || got.Dy() != 10 {
		t.Errorf("crop bounds = %v, want 10x10", got)
	}

	out = runBody(t, GeometricTransformSpec(), in, map[string]any{
		"operation": "rotate", "angle": 90.0,
	})
	if got := out.Artifact.Image.Bounds(); got.Dx() != 30 || got.Dy() != 40 {
		t.Errorf("rotate bounds = %v, want 30x40", got)
	}

	spec := GeometricTransformSpec()
	tool := inspectflow.NewTool(spec, "t")
	if _, err := spec.Body(context.Background(), in, tool.Params().Snapshot()); err == nil {
		t.Error("resize with default dimensions should fail")
	}
}

func TestThresholdDetector(t *testing.T) {
	in := inspectflow.NewImageArtifact(halfTone(40, 30))
	out := runBody(t, ThresholdDetectorSpec(), in, map[string]any{
		"threshold": 128.0, "min_ratio": 0.4, "max_ratio": 0.6,
	})

	ratio, ok := out.Values["ratio"].(float64)
	if !ok {
		t.Fatalf("ratio = %v, want float64", out.Values["ratio"])
	}
	if ratio < 0.4 || ratio > 0.6 {
		t.Errorf("ratio = %.3f, want about 0.5", ratio)
	}
	if pass, _ := out.Values["pass"].(bool); !pass {
		t.Error("half-white frame should pass a 0.4..0.6 window")
	}

	out = runBody(t, ThresholdDetectorSpec(), in, map[string]any{
		"threshold": 128.0, "min_ratio": 0.9,
	})
	if pass, _ := out.Values["pass"].(bool); pass {
		t.Error("half-white frame should fail a 0.9 floor")
	}
}

func TestThresholdDetector_ROI(t *testing.T) {
	in := inspectflow.NewImageArtifact(halfTone(40, 30))
	out := runBody(t, ThresholdDetectorSpec(), in, map[string]any{
		"threshold": 128.0,
		"roi":       map[string]any{"x": 20, "y": 0, "width": 20, "height": 30},
	})
	if ratio, _ := out.Values["ratio"].(float64); ratio != 1.0 {
		t.Errorf("white-half ROI ratio = %.3f, want 1.0", ratio)
	}
}

func TestBrightnessMeasure(t *testing.T) {
	in := inspectflow.NewImageArtifact(flat(20, 20, color.NRGBA{R: 100, G: 100, B: 100, A: 255}))
	out := runBody(t, BrightnessMeasureSpec(), in, map[string]any{
		"min_value": 90.0, "max_value": 110.0,
	})

	mean, _ := out.Values["brightness"].(float64)
	if mean < 99 || mean > 101 {
		t.Errorf("brightness = %.2f, want about 100", mean)
	}
	if pass, _ := out.Values["pass"].(bool); !pass {
		t.Error("flat 100 should pass a 90..110 window")
	}
	if out.Artifact.Kind != inspectflow.DataKindValue {
		t.Errorf("artifact kind = %s, want value", out.Artifact.Kind)
	}
}

func TestContrastMeasure(t *testing.T) {
	flatIn := inspectflow.NewImageArtifact(flat(20, 20, color.NRGBA{R: 80, G: 80, B: 80, A: 255}))
	out := runBody(t, ContrastMeasureSpec(), flatIn, nil)
	if sd, _ := out.Values["contrast"].(float64); sd > 0.01 {
		t.Errorf("flat frame contrast = %.3f, want 0", sd)
	}

	halfIn := inspectflow.NewImageArtifact(halfTone(40, 30))
	out = runBody(t, ContrastMeasureSpec(), halfIn, map[string]any{"min_value": 100.0})
	sd, _ := out.Values["contrast"].(float64)
	if sd < 100 {
		t.Errorf("half-tone contrast = %.1f, want > 100", sd)
	}
	if pass, _ := out.Values["pass"].(bool); !pass {
		t.Error("half-tone frame should pass a 100 floor")
	}
}

func TestColorMatch(t *testing.T) {
	in := inspectflow.NewImageArtifact(flat(20, 20, color.NRGBA{R: 255, A: 255}))

	out := runBody(t, ColorMatchSpec(), in, map[string]any{
		"reference": "#ff0000", "min_score": 0.95,
	})
	score, _ := out.Values["score"].(float64)
	if score < 0.95 {
		t.Errorf("red vs red score = %.3f, want near 1", score)
	}
	if pass, _ := out.Values["pass"].(bool); !pass {
		t.Error("matching color should pass")
	}

	out = runBody(t, ColorMatchSpec(), in, map[string]any{
		"reference": "#0000ff", "min_score": 0.95,
	})
	if pass, _ := out.Values["pass"].(bool); pass {
		t.Error("red vs blue should fail a 0.95 floor")
	}

	spec := ColorMatchSpec()
	_, err := spec.Body(context.Background(), in, map[string]any{"reference": "notacolor"})
	var fe *faults.Error
	if !errors.As(err, &fe) || fe.Kind != faults.KindParameter {
		t.Errorf("bad reference: got %v, want a parameter fault", err)
	}
}

func TestResultSender(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	lines := make(chan map[string]any, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		line, err := bufio.NewReader(conn).ReadBytes('\n')
		if err != nil {
			return
		}
		var msg map[string]any
		if json.Unmarshal(line, &msg) == nil {
			lines <- msg
		}
	}()

	in := inspectflow.NewValueArtifact(0.93).WithMeta("camera", "cam0")
	out := runBody(t, ResultSenderSpec(), in, map[string]any{
		"address": ln.Addr().String(),
	})
	if out.Values["sent_bytes"].(int) == 0 {
		t.Error("sent_bytes = 0")
	}

	msg := <-lines
	if msg["kind"] != "value" {
		t.Errorf("kind = %v, want value", msg["kind"])
	}
	if v, _ := msg["value"].(float64); v != 0.93 {
		t.Errorf("value = %v, want 0.93", msg["value"])
	}
	if msg["camera"] != "cam0" {
		t.Errorf("camera = %v, want cam0", msg["camera"])
	}
}

func TestResultSender_Unreachable(t *testing.T) {
	spec := ResultSenderSpec()
	in := inspectflow.NewValueArtifact(1)
	_, err := spec.Body(context.Background(), in, map[string]any{
		"address": "127.0.0.1:1", "timeout_ms": 200,
	})
	var fe *faults.Error
	if !errors.As(err, &fe) || fe.Kind != faults.KindNetwork {
		t.Errorf("got %v, want a network fault", err)
	}
}

func TestReportWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")

	first := inspectflow.NewValueArtifact(0.87).WithMeta("camera", "cam0")
	out := runBody(t, ReportWriterSpec(), first, map[string]any{"path": path})
	if out.Values["row"] != 2 {
		t.Errorf("first row = %v, want 2", out.Values["row"])
	}

	second := inspectflow.NewStringArtifact("LOT-42")
	out = runBody(t, ReportWriterSpec(), second, map[string]any{"path": path})
	if out.Values["row"] != 3 {
		t.Errorf("second row = %v, want 3", out.Values["row"])
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open report: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Results")
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("row count = %d, want 3", len(rows))
	}
	if rows[0][0] != "Time" || rows[0][1] != "Kind" {
		t.Errorf("header = %v", rows[0])
	}
	if rows[1][1] != "value" {
		t.Errorf("first row kind = %q, want value", rows[1][1])
	}
	if rows[2][3] != "LOT-42" {
		t.Errorf("second row text = %q, want LOT-42", rows[2][3])
	}
}

func TestOCRSpecShape(t *testing.T) {
	spec := OCRReaderSpec()
	if spec.Category != inspectflow.CategoryRecognition || spec.Kind != "OCR" {
		t.Errorf("identity = %s.%s", spec.Category, spec.Kind)
	}
	if spec.OutputPorts[0].Kind != inspectflow.DataKindString {
		t.Errorf("output kind = %s, want string", spec.OutputPorts[0].Kind)
	}
}
