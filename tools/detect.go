package tools

import (
	"context"

	"github.com/anthonynsimon/bild/segment"

	"github.com/inspect-labs/inspectflow"
)

// ThresholdDetectorSpec binarizes the input and measures the bright
// fraction of the ROI. The run passes when the fraction lands inside
// [min_ratio, max_ratio].
func ThresholdDetectorSpec() inspectflow.ToolSpec {
	return inspectflow.ToolSpec{
		Category:    inspectflow.CategoryDetection,
		Kind:        "Threshold",
		Description: "binarization with bright-area ratio check",
		InputPorts:  inspectflow.DefaultInputPorts,
		OutputPorts: inspectflow.DefaultOutputPorts,
		Params: []inspectflow.ParamSpec{
			{Name: "threshold", Kind: inspectflow.ParamFloat, Default: 128.0, Min: 0, Max: 255, HasBounds: true},
			{Name: "min_ratio", Kind: inspectflow.ParamFloat, Default: 0.0, Min: 0, Max: 1, HasBounds: true},
			{Name: "max_ratio", Kind: inspectflow.ParamFloat, Default: 1.0, Min: 0, Max: 1, HasBounds: true},
			{Name: "roi", Kind: inspectflow.ParamRect, Default: nil},
		},
		Body: func(ctx context.Context, in *inspectflow.Artifact, params map[string]any) (*inspectflow.Output, error) {
			level := uint8(paramFloat(params, "threshold", 128))
			binary := segment.Threshold(in.Image, level)

			b := binary.Bounds()
			roi := inspectflow.ResolveRect(params["roi"], b.Dx(), b.Dy(),
				inspectflow.Rect{Width: b.Dx(), Height: b.Dy()})
			r := roi.Std().Add(b.Min)

			var bright, total int
			for y := r.Min.Y; y < r.Max.Y; y++ {
				for x := r.Min.X; x < r.Max.X; x++ {
					if binary.GrayAt(x, y).Y > 0 {
						bright++
					}
					total++
				}
			}
			ratio := 0.0
			if total > 0 {
				ratio = float64(bright) / float64(total)
			}
			pass := ratio >= paramFloat(params, "min_ratio", 0) && ratio <= paramFloat(params, "max_ratio", 1)

			art := inspectflow.NewImageArtifact(binary)
			return &inspectflow.Output{
				Artifact: art,
				Values: map[string]any{
					"ratio":  ratio,
					"bright": bright,
					"total":  total,
					"pass":   pass,
				},
			}, nil
		},
	}
}
