package tools

import (
	"context"

	"github.com/montanaflynn/stats"

	"github.com/inspect-labs/inspectflow"
	"github.com/inspect-labs/inspectflow/faults"
)

// BrightnessMeasureSpec reports mean ROI luminance on a 0..255 scale.
func BrightnessMeasureSpec() inspectflow.ToolSpec {
	return inspectflow.ToolSpec{
		Category:    inspectflow.CategoryMeasurement,
		Kind:        "Brightness",
		Description: "mean luminance over a region",
		InputPorts:  inspectflow.DefaultInputPorts,
		OutputPorts: []inspectflow.Port{
			{Name: inspectflow.DefaultOutputPort, Direction: inspectflow.PortOutput, Kind: inspectflow.DataKindValue, Description: "measured value"},
			{Name: "result", Direction: inspectflow.PortOutput, Kind: inspectflow.DataKindValue, Description: "run result"},
		},
		Params: []inspectflow.ParamSpec{
			{Name: "roi", Kind: inspectflow.ParamRect, Default: nil},
			{Name: "min_value", Kind: inspectflow.ParamFloat, Default: 0.0, Min: 0, Max: 255, HasBounds: true},
			{Name: "max_value", Kind: inspectflow.ParamFloat, Default: 255.0, Min: 0, Max: 255, HasBounds: true},
		},
		Body: func(ctx context.Context, in *inspectflow.Artifact, params map[string]any) (*inspectflow.Output, error) {
			samples := roiLuminance(in.Image, params)
			if len(samples) == 0 {
				return nil, faults.New(faults.KindImage, "empty measurement region")
			}
			mean, err := stats.Mean(samples)
			if err != nil {
				return nil, faults.Newf(faults.KindInternal, "mean: %v", err)
			}
			minV, _ := stats.Min(samples)
			maxV, _ := stats.Max(samples)
			pass := mean >= paramFloat(params, "min_value", 0) && mean <= paramFloat(params, "max_value", 255)
			return &inspectflow.Output{
				Artifact: inspectflow.NewValueArtifact(mean),
				Values: map[string]any{
					"brightness": mean,
					"min":        minV,
					"max":        maxV,
					"pass":       pass,
				},
			}, nil
		},
	}
}

// ContrastMeasureSpec reports the standard deviation of ROI luminance.
func ContrastMeasureSpec() inspectflow.ToolSpec {
	return inspectflow.ToolSpec{
		Category:    inspectflow.CategoryMeasurement,
		Kind:        "Contrast",
		Description: "luminance spread over a region",
		InputPorts:  inspectflow.DefaultInputPorts,
		OutputPorts: []inspectflow.Port{
			{Name: inspectflow.DefaultOutputPort, Direction: inspectflow.PortOutput, Kind: inspectflow.DataKindValue, Description: "measured value"},
			{Name: "result", Direction: inspectflow.PortOutput, Kind: inspectflow.DataKindValue, Description: "run result"},
		},
		Params: []inspectflow.ParamSpec{
			{Name: "roi", Kind: inspectflow.ParamRect, Default: nil},
			{Name: "min_value", Kind: inspectflow.ParamFloat, Default: 0.0, Min: 0, Max: 255, HasBounds: true},
		},
		Body: func(ctx context.Context, in *inspectflow.Artifact, params map[string]any) (*inspectflow.Output, error) {
			samples := roiLuminance(in.Image, params)
			if len(samples) == 0 {
				return nil, faults.New(faults.KindImage, "empty measurement region")
			}
			sd, err := stats.StandardDeviation(samples)
			if err != nil {
				return nil, faults.Newf(faults.KindInternal, "stddev: %v", err)
			}
			return &inspectflow.Output{
				Artifact: inspectflow.NewValueArtifact(sd),
				Values: map[string]any{
					"contrast": sd,
					"pass":     sd >= paramFloat(params, "min_value", 0),
				},
			}, nil
		},
	}
}
