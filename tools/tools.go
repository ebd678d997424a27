// Package tools ships the built-in tool catalog: image sources,
// filters, detectors, measurements, recognition, and communication
// stages ready to register into an engine Registry.
package tools

import (
	"image"
	"image/color"

	"github.com/inspect-labs/inspectflow"
	"github.com/inspect-labs/inspectflow/camera"
)

// RegisterBuiltins registers every built-in tool kind. The camera
// kind is backed by a simulated source; register a real device with
// RegisterCameraSource.
func RegisterBuiltins(reg *inspectflow.Registry) {
	reg.Register(FileSourceSpec())
	reg.Register(CameraSourceSpec("SimCamera", camera.NewSimSource("sim0")))
	reg.Register(GaussianFilterSpec())
	reg.Register(MedianFilterSpec())
	reg.Register(EdgeFilterSpec())
	reg.Register(MorphologyFilterSpec())
	reg.Register(GeometricTransformSpec())
	reg.Register(ThresholdDetectorSpec())
	reg.Register(BrightnessMeasureSpec())
	reg.Register(ContrastMeasureSpec())
	reg.Register(ColorMatchSpec())
	reg.Register(OCRReaderSpec())
	reg.Register(ResultSenderSpec())
	reg.Register(ReportWriterSpec())
}

// RegisterCameraSource registers a camera-backed source kind for the
// given device.
func RegisterCameraSource(reg *inspectflow.Registry, kind string, src camera.Source) {
	reg.Register(CameraSourceSpec(kind, src))
}

func paramInt(params map[string]any, key string, def int) int {
	switch v := params[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return def
}

func paramFloat(params map[string]any, key string, def float64) float64 {
	switch v := params[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return def
}

func paramString(params map[string]any, key string, def string) string {
	if s, ok := params[key].(string); ok {
		return s
	}
	return def
}

func paramBool(params map[string]any, key string, def bool) bool {
	if b, ok := params[key].(bool); ok {
		return b
	}
	return def
}

// roiLuminance extracts per-pixel luminance (0..255) for the region
// of the image selected by the "roi" parameter, defaulting to the
// whole frame.
func roiLuminance(img image.Image, params map[string]any) []float64 {
	b := img.Bounds()
	roi := inspectflow.ResolveRect(params["roi"], b.Dx(), b.Dy(),
		inspectflow.Rect{X: 0, Y: 0, Width: b.Dx(), Height: b.Dy()})
	r := roi.Std().Add(b.Min)

	samples := make([]float64, 0, roi.Width*roi.Height)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			samples = append(samples, luminance(img.At(x, y)))
		}
	}
	return samples
}

func luminance(c color.Color) float64 {
	r, g, b, _ := c.RGBA()
	return (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)) / 257.0
}

// roiMeanColor averages the ROI's color channels. Used by the color
// match tool.
func roiMeanColor(img image.Image, params map[string]any) color.NRGBA {
	b := img.Bounds()
	roi := inspectflow.ResolveRect(params["roi"], b.Dx(), b.Dy(),
		inspectflow.Rect{X: 0, Y: 0, Width: b.Dx(), Height: b.Dy()})
	r := roi.Std().Add(b.Min)

	var sr, sg, sb, n uint64
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			cr, cg, cb, _ := img.At(x, y).RGBA()
			sr += uint64(cr >> 8)
			sg += uint64(cg >> 8)
			sb += uint64(cb >> 8)
			n++
		}
	}
	if n == 0 {
		return color.NRGBA{A: 255}
	}
	return color.NRGBA{
		R: uint8(sr / n),
		G: uint8(sg / n),
		B: uint8(sb / n),
		A: 255,
	}
}
