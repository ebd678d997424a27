package tools

import (
	"context"
	"image/color"

	"github.com/disintegration/imaging"

	"github.com/inspect-labs/inspectflow"
	"github.com/inspect-labs/inspectflow/faults"
)

// GeometricTransformSpec resizes, rotates, or crops the input.
func GeometricTransformSpec() inspectflow.ToolSpec {
	return inspectflow.ToolSpec{
		Category:    inspectflow.CategoryFilter,
		Kind:        "Geometric",
		Description: "resize, rotate, or crop",
		InputPorts:  inspectflow.DefaultInputPorts,
		OutputPorts: inspectflow.DefaultOutputPorts,
		Params: []inspectflow.ParamSpec{
			{Name: "operation", Kind: inspectflow.ParamEnum, Default: "resize", Options: []string{"resize", "rotate", "crop"}},
			{Name: "target_width", Kind: inspectflow.ParamInt, Default: 0, Description: "resize target, 0 preserves aspect"},
			{Name: "target_height", Kind: inspectflow.ParamInt, Default: 0, Description: "resize target, 0 preserves aspect"},
			{Name: "angle", Kind: inspectflow.ParamFloat, Default: 0.0, Unit: "deg"},
			{Name: "roi", Kind: inspectflow.ParamRect, Default: nil, Description: "crop region"},
		},
		Body: func(ctx context.Context, in *inspectflow.Artifact, params map[string]any) (*inspectflow.Output, error) {
			switch op := paramString(params, "operation", "resize"); op {
			case "resize":
				w := paramInt(params, "target_width", 0)
				h := paramInt(params, "target_height", 0)
				if w <= 0 && h <= 0 {
					return nil, faults.New(faults.KindParameter, "resize needs target_width or target_height")
				}
				out := imaging.Resize(in.Image, w, h, imaging.Lanczos)
				return &inspectflow.Output{Artifact: inspectflow.NewImageArtifact(out)}, nil

			case "rotate":
				angle := paramFloat(params, "angle", 0)
				out := imaging.Rotate(in.Image, angle, color.Black)
				return &inspectflow.Output{Artifact: inspectflow.NewImageArtifact(out)}, nil

			case "crop":
				b := in.Image.Bounds()
				roi := inspectflow.ResolveRect(params["roi"], b.Dx(), b.Dy(),
					inspectflow.Rect{Width: b.Dx(), Height: b.Dy()})
				out := imaging.Crop(in.Image, roi.Std().Add(b.Min))
				return &inspectflow.Output{Artifact: inspectflow.NewImageArtifact(out)}, nil

			default:
				return nil, faults.Newf(faults.KindParameter, "unknown geometric operation %q", op)
			}
		},
	}
}
