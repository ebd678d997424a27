//go:build cgo

package tools

import (
	"bytes"
	"context"
	"image/png"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/inspect-labs/inspectflow"
	"github.com/inspect-labs/inspectflow/faults"
)

// OCRReaderSpec extracts text from the input with Tesseract. Requires
// CGO and a Tesseract installation at run time.
func OCRReaderSpec() inspectflow.ToolSpec {
	return ocrSpec(func(ctx context.Context, in *inspectflow.Artifact, params map[string]any) (*inspectflow.Output, error) {
		var buf bytes.Buffer
		if err := png.Encode(&buf, in.Image); err != nil {
			return nil, faults.Newf(faults.KindImage, "encode frame: %v", err)
		}

		client := gosseract.NewClient()
		defer client.Close()

		if lang := paramString(params, "language", "eng"); lang != "" {
			if err := client.SetLanguage(lang); err != nil {
				return nil, faults.Newf(faults.KindParameter, "language %q: %v", lang, err)
			}
		}
		if wl := paramString(params, "whitelist", ""); wl != "" {
			if err := client.SetWhitelist(wl); err != nil {
				return nil, faults.Newf(faults.KindParameter, "whitelist: %v", err)
			}
		}
		if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
			return nil, faults.Newf(faults.KindImage, "set image: %v", err)
		}

		text, err := client.Text()
		if err != nil {
			return nil, faults.Newf(faults.KindInternal, "tesseract: %v", err)
		}
		text = strings.TrimSpace(text)

		expect := paramString(params, "expect", "")
		return &inspectflow.Output{
			Artifact: inspectflow.NewStringArtifact(text),
			Values: map[string]any{
				"text": text,
				"pass": expect == "" || strings.Contains(text, expect),
			},
		}, nil
	})
}
