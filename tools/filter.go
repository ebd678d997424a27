package tools

import (
	"context"
	"image"

	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/effect"

	"github.com/inspect-labs/inspectflow"
	"github.com/inspect-labs/inspectflow/faults"
)

// GaussianFilterSpec smooths the input with a Gaussian kernel.
func GaussianFilterSpec() inspectflow.ToolSpec {
	return inspectflow.ToolSpec{
		Category:    inspectflow.CategoryFilter,
		Kind:        "Gaussian",
		Description: "Gaussian blur",
		InputPorts:  inspectflow.DefaultInputPorts,
		OutputPorts: inspectflow.DefaultOutputPorts,
		Params: []inspectflow.ParamSpec{
			{Name: "kernel_size", Kind: inspectflow.ParamInt, Default: 3, Min: 1, Max: 31, HasBounds: true, Unit: "px"},
		},
		Body: func(ctx context.Context, in *inspectflow.Artifact, params map[string]any) (*inspectflow.Output, error) {
			k := paramInt(params, "kernel_size", 3)
			out := blur.Gaussian(in.Image, float64(k)/2)
			return &inspectflow.Output{Artifact: inspectflow.NewImageArtifact(out)}, nil
		},
	}
}

// MedianFilterSpec removes speckle noise with a median kernel.
func MedianFilterSpec() inspectflow.ToolSpec {
	return inspectflow.ToolSpec{
		Category:    inspectflow.CategoryFilter,
		Kind:        "Median",
		Description: "median denoise",
		InputPorts:  inspectflow.DefaultInputPorts,
		OutputPorts: inspectflow.DefaultOutputPorts,
		Params: []inspectflow.ParamSpec{
			{Name: "kernel_size", Kind: inspectflow.ParamInt, Default: 3, Min: 1, Max: 31, HasBounds: true, Unit: "px"},
		},
		Body: func(ctx context.Context, in *inspectflow.Artifact, params map[string]any) (*inspectflow.Output, error) {
			k := paramInt(params, "kernel_size", 3)
			out := effect.Median(in.Image, float64(k))
			return &inspectflow.Output{Artifact: inspectflow.NewImageArtifact(out)}, nil
		},
	}
}

// EdgeFilterSpec highlights intensity transitions. mode selects the
// operator.
func EdgeFilterSpec() inspectflow.ToolSpec {
	return inspectflow.ToolSpec{
		Category:    inspectflow.CategoryFilter,
		Kind:        "Edge",
		Description: "edge enhancement",
		InputPorts:  inspectflow.DefaultInputPorts,
		OutputPorts: inspectflow.DefaultOutputPorts,
		Params: []inspectflow.ParamSpec{
			{Name: "mode", Kind: inspectflow.ParamEnum, Default: "sobel", Options: []string{"sobel", "laplacian"}},
			{Name: "kernel_size", Kind: inspectflow.ParamInt, Default: 3, Min: 1, Max: 31, HasBounds: true, Unit: "px"},
		},
		Body: func(ctx context.Context, in *inspectflow.Artifact, params map[string]any) (*inspectflow.Output, error) {
			var out *image.RGBA
			switch mode := paramString(params, "mode", "sobel"); mode {
			case "sobel":
				out = effect.Sobel(in.Image)
			case "laplacian":
				out = effect.EdgeDetection(in.Image, float64(paramInt(params, "kernel_size", 3)))
			default:
				return nil, faults.Newf(faults.KindParameter, "unknown edge mode %q", mode)
			}
			return &inspectflow.Output{Artifact: inspectflow.NewImageArtifact(out)}, nil
		},
	}
}

// MorphologyFilterSpec applies grayscale dilation or erosion.
func MorphologyFilterSpec() inspectflow.ToolSpec {
	return inspectflow.ToolSpec{
		Category:    inspectflow.CategoryFilter,
		Kind:        "Morphology",
		Description: "dilate or erode",
		InputPorts:  inspectflow.DefaultInputPorts,
		OutputPorts: inspectflow.DefaultOutputPorts,
		Params: []inspectflow.ParamSpec{
			{Name: "operation", Kind: inspectflow.ParamEnum, Default: "dilate", Options: []string{"dilate", "erode"}},
			{Name: "kernel_size", Kind: inspectflow.ParamInt, Default: 3, Min: 1, Max: 31, HasBounds: true, Unit: "px"},
		},
		Body: func(ctx context.Context, in *inspectflow.Artifact, params map[string]any) (*inspectflow.Output, error) {
			radius := float64(paramInt(params, "kernel_size", 3)) / 2
			switch op := paramString(params, "operation", "dilate"); op {
			case "dilate":
				return &inspectflow.Output{Artifact: inspectflow.NewImageArtifact(effect.Dilate(in.Image, radius))}, nil
			case "erode":
				return &inspectflow.Output{Artifact: inspectflow.NewImageArtifact(effect.Erode(in.Image, radius))}, nil
			default:
				return nil, faults.Newf(faults.KindParameter, "unknown morphology operation %q", op)
			}
		},
	}
}
