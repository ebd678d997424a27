package inspectflow

import (
	"image"
	"time"
)

// DataKind identifies the payload carried by an Artifact or flowing
// through a Port. The set is intentionally small.
type DataKind string

const (
	DataKindImage  DataKind = "image"
	DataKindValue  DataKind = "value"
	DataKindString DataKind = "string"
	DataKindRect   DataKind = "rect"
)

// String returns the string representation of the DataKind.
func (k DataKind) String() string {
	return string(k)
}

// Artifact is the unit of data passed between tools along connections.
// Exactly one payload field is meaningful, selected by Kind.
//
// Artifacts are treated as immutable once produced: a downstream tool
// reads its upstream producer's last artifact but never mutates it.
type Artifact struct {
	// Kind selects the payload.
	Kind DataKind

	// Image is the payload for DataKindImage artifacts.
	Image image.Image

	// Value is the payload for DataKindValue artifacts.
	Value float64

	// Text is the payload for DataKindString artifacts.
	Text string

	// Rect is the payload for DataKindRect artifacts.
	Rect Rect

	// Meta holds auxiliary data (source path, frame index, camera ID).
	Meta map[string]any

	// Captured is when the artifact was produced.
	Captured time.Time
}

// NewImageArtifact wraps an image in an Artifact.
func NewImageArtifact(img image.Image) *Artifact {
	return &Artifact{
		Kind:     DataKindImage,
		Image:    img,
		Captured: time.Now(),
	}
}

// NewValueArtifact wraps a scalar in an Artifact.
func NewValueArtifact(v float64) *Artifact {
	return &Artifact{
		Kind:     DataKindValue,
		Value:    v,
		Captured: time.Now(),
	}
}

// NewStringArtifact wraps a string in an Artifact.
func NewStringArtifact(s string) *Artifact {
	return &Artifact{
		Kind:     DataKindString,
		Text:     s,
		Captured: time.Now(),
	}
}

// NewRectArtifact wraps a rectangle in an Artifact.
func NewRectArtifact(r Rect) *Artifact {
	return &Artifact{
		Kind:     DataKindRect,
		Rect:     r,
		Captured: time.Now(),
	}
}

// Valid reports whether the artifact carries a usable payload.
// An image artifact with a nil or empty image is invalid.
func (a *Artifact) Valid() bool {
	if a == nil {
		return false
	}
	if a.Kind == DataKindImage {
		if a.Image == nil {
			return false
		}
		b := a.Image.Bounds()
		return b.Dx() > 0 && b.Dy() > 0
	}
	return true
}

// Bounds returns the image bounds, or the zero rectangle for
// non-image artifacts.
func (a *Artifact) Bounds() image.Rectangle {
	if a == nil || a.Kind != DataKindImage || a.Image == nil {
		return image.Rectangle{}
	}
	return a.Image.Bounds()
}

// WithMeta sets a metadata entry and returns the artifact for chaining.
func (a *Artifact) WithMeta(key string, value any) *Artifact {
	if a.Meta == nil {
		a.Meta = make(map[string]any)
	}
	a.Meta[key] = value
	return a
}

// ResultBundle is the structured outcome of one tool run: a status flag,
// a human-readable message, heterogeneous keyed result values, and the
// error classification when the run failed.
type ResultBundle struct {
	// Status is true for a successful run.
	Status bool

	// Message describes the outcome.
	Message string

	// Values holds keyed auxiliary results (counts, scores, rects, text).
	Values map[string]any

	// ErrorKind and ErrorCode classify a failed run. Both are zero on
	// success.
	ErrorKind string
	ErrorCode int
}

// NewResultBundle creates an empty successful bundle.
func NewResultBundle() *ResultBundle {
	return &ResultBundle{
		Status: true,
		Values: make(map[string]any),
	}
}

// SetValue stores a keyed result value.
func (r *ResultBundle) SetValue(key string, value any) {
	if r.Values == nil {
		r.Values = make(map[string]any)
	}
	r.Values[key] = value
}

// Value retrieves a keyed result value.
func (r *ResultBundle) Value(key string) (any, bool) {
	if r == nil || r.Values == nil {
		return nil, false
	}
	v, ok := r.Values[key]
	return v, ok
}

// ValueFloat retrieves a keyed result as a float64, with 0 and false
// when absent or of another type.
func (r *ResultBundle) ValueFloat(key string) (float64, bool) {
	v, ok := r.Value(key)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
