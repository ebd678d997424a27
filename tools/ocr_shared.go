package tools

import "github.com/inspect-labs/inspectflow"

// ocrSpec is the shared OCR kind declaration; the body differs per
// build (Tesseract bindings need CGO).
func ocrSpec(body inspectflow.Body) inspectflow.ToolSpec {
	return inspectflow.ToolSpec{
		Category:    inspectflow.CategoryRecognition,
		Kind:        "OCR",
		Description: "text extraction",
		InputPorts:  inspectflow.DefaultInputPorts,
		OutputPorts: []inspectflow.Port{
			{Name: inspectflow.DefaultOutputPort, Direction: inspectflow.PortOutput, Kind: inspectflow.DataKindString, Description: "recognized text"},
			{Name: "result", Direction: inspectflow.PortOutput, Kind: inspectflow.DataKindValue, Description: "run result"},
		},
		Params: []inspectflow.ParamSpec{
			{Name: "language", Kind: inspectflow.ParamString, Default: "eng"},
			{Name: "whitelist", Kind: inspectflow.ParamString, Default: "", Description: "restrict recognized characters"},
			{Name: "expect", Kind: inspectflow.ParamString, Default: "", Description: "substring required for a pass"},
		},
		Body: body,
	}
}
