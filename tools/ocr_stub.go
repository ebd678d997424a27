//go:build !cgo

package tools

import (
	"context"

	"github.com/inspect-labs/inspectflow"
	"github.com/inspect-labs/inspectflow/faults"
)

// OCRReaderSpec is the no-CGO stand-in; every run reports that the
// Tesseract bindings are not compiled in.
func OCRReaderSpec() inspectflow.ToolSpec {
	return ocrSpec(func(ctx context.Context, in *inspectflow.Artifact, params map[string]any) (*inspectflow.Output, error) {
		return nil, faults.New(faults.KindInternal, "OCR requires a CGO build with Tesseract installed")
	})
}
