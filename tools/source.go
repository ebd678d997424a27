package tools

import (
	"context"
	"sync"

	"github.com/disintegration/imaging"

	"github.com/inspect-labs/inspectflow"
	"github.com/inspect-labs/inspectflow/camera"
	"github.com/inspect-labs/inspectflow/faults"
)

// FileSourceSpec loads an image from disk. EXIF orientation is
// applied unless auto_rotate is off.
func FileSourceSpec() inspectflow.ToolSpec {
	return inspectflow.ToolSpec{
		Category:    inspectflow.CategoryImageSource,
		Kind:        "File",
		Description: "loads an image from a file path",
		Source:      true,
		OutputPorts: inspectflow.DefaultOutputPorts,
		Params: []inspectflow.ParamSpec{
			{Name: "path", Kind: inspectflow.ParamFile, Default: "", Description: "image file to load"},
			{Name: "auto_rotate", Kind: inspectflow.ParamBool, Default: true, Description: "apply EXIF orientation"},
		},
		Body: func(ctx context.Context, in *inspectflow.Artifact, params map[string]any) (*inspectflow.Output, error) {
			path := paramString(params, "path", "")
			if path == "" {
				return nil, faults.New(faults.KindParameter, "path is not set")
			}
			img, err := imaging.Open(path, imaging.AutoOrientation(paramBool(params, "auto_rotate", true)))
			if err != nil {
				return nil, faults.Newf(faults.KindFile, "open %s: %v", path, err)
			}
			art := inspectflow.NewImageArtifact(img).WithMeta("path", path)
			return &inspectflow.Output{
				Artifact: art,
				Values: map[string]any{
					"width":  img.Bounds().Dx(),
					"height": img.Bounds().Dy(),
				},
			}, nil
		},
	}
}

// CameraSourceSpec acquires one frame per run from the given device,
// connecting lazily on first use. All instances of the returned kind
// share the device.
func CameraSourceSpec(kind string, src camera.Source) inspectflow.ToolSpec {
	var mu sync.Mutex
	return inspectflow.ToolSpec{
		Category:    inspectflow.CategoryImageSource,
		Kind:        kind,
		Description: "captures a frame from " + src.ID(),
		Source:      true,
		OutputPorts: inspectflow.DefaultOutputPorts,
		Params: []inspectflow.ParamSpec{
			{Name: "exposure", Kind: inspectflow.ParamFloat, Default: -1.0, Description: "-1 for auto"},
			{Name: "gain", Kind: inspectflow.ParamFloat, Default: -1.0, Description: "-1 for auto"},
		},
		Body: func(ctx context.Context, in *inspectflow.Artifact, params map[string]any) (*inspectflow.Output, error) {
			mu.Lock()
			defer mu.Unlock()
			if !src.Connected() {
				if err := src.Connect(ctx); err != nil {
					return nil, err
				}
			}
			for _, name := range []string{"exposure", "gain"} {
				if v, ok := params[name]; ok {
					if err := src.SetParameter(name, v); err != nil {
						return nil, err
					}
				}
			}
			frame, err := src.CaptureFrame(ctx)
			if err != nil {
				return nil, err
			}
			art := inspectflow.NewImageArtifact(frame.Image).
				WithMeta("camera", frame.SourceID).
				WithMeta("frame_index", frame.Index)
			return &inspectflow.Output{
				Artifact: art,
				Values:   map[string]any{"frame_index": frame.Index},
			}, nil
		},
	}
}
