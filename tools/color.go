package tools

import (
	"context"
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/inspect-labs/inspectflow"
	"github.com/inspect-labs/inspectflow/faults"
)

// ColorMatchSpec compares the ROI's mean color against a reference in
// Lab space. The score is 1 at a perfect match and falls off with
// perceptual distance; the run passes at score >= min_score.
func ColorMatchSpec() inspectflow.ToolSpec {
	return inspectflow.ToolSpec{
		Category:    inspectflow.CategoryDetection,
		Kind:        "ColorMatch",
		Description: "mean region color against a reference",
		InputPorts:  inspectflow.DefaultInputPorts,
		OutputPorts: []inspectflow.Port{
			{Name: inspectflow.DefaultOutputPort, Direction: inspectflow.PortOutput, Kind: inspectflow.DataKindValue, Description: "measured value"},
			{Name: "result", Direction: inspectflow.PortOutput, Kind: inspectflow.DataKindValue, Description: "run result"},
		},
		Params: []inspectflow.ParamSpec{
			{Name: "reference", Kind: inspectflow.ParamString, Default: "#ffffff", Description: "hex reference color"},
			{Name: "min_score", Kind: inspectflow.ParamFloat, Default: 0.8, Min: 0, Max: 1, HasBounds: true},
			{Name: "roi", Kind: inspectflow.ParamRect, Default: nil},
		},
		Body: func(ctx context.Context, in *inspectflow.Artifact, params map[string]any) (*inspectflow.Output, error) {
			refHex := paramString(params, "reference", "#ffffff")
			ref, err := colorful.Hex(refHex)
			if err != nil {
				return nil, faults.Newf(faults.KindParameter, "reference color %q: %v", refHex, err)
			}

			mean := roiMeanColor(in.Image, params)
			got, ok := colorful.MakeColor(mean)
			if !ok {
				return nil, faults.New(faults.KindImage, "region has no opaque pixels")
			}

			dist := got.DistanceLab(ref)
			score := math.Max(0, 1-dist)
			return &inspectflow.Output{
				Artifact: inspectflow.NewValueArtifact(score),
				Values: map[string]any{
					"score":    score,
					"distance": dist,
					"measured": got.Hex(),
					"pass":     score >= paramFloat(params, "min_score", 0.8),
				},
			}, nil
		},
	}
}
