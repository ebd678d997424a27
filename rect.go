package inspectflow

import "image"

// Rect is an axis-aligned region of interest in pixel coordinates.
type Rect struct {
	X      int `yaml:"x" json:"x"`
	Y      int `yaml:"y" json:"y"`
	Width  int `yaml:"width" json:"width"`
	Height int `yaml:"height" json:"height"`
}

// Empty reports whether the rect has no area.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Std converts the rect to the stdlib image.Rectangle form.
func (r Rect) Std() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// clampRect intersects r with the image extent, shifting negative
// origins to zero.
func clampRect(r Rect, imgW, imgH int) Rect {
	if r.X < 0 {
		r.Width += r.X
		r.X = 0
	}
	if r.Y < 0 {
		r.Height += r.Y
		r.Y = 0
	}
	if r.X+r.Width > imgW {
		r.Width = imgW - r.X
	}
	if r.Y+r.Height > imgH {
		r.Height = imgH - r.Y
	}
	if r.Width < 0 {
		r.Width = 0
	}
	if r.Height < 0 {
		r.Height = 0
	}
	return r
}

// ResolveRect interprets a parameter value as a region of interest
// within an imgW x imgH image. It accepts a Rect, a *Rect, a
// map[string]any with x/y/width/height entries (the form a YAML
// solution file produces), or a []int / []any of four elements.
// Anything else, an empty rect, or a rect fully outside the image
// yields fallback clamped to the image; a partially outside rect is
// clamped to the intersection.
//
// Tools that support an optional ROI call this instead of carrying
// their own interpretation; no shared base type is involved.
func ResolveRect(v any, imgW, imgH int, fallback Rect) Rect {
	r, ok := coerceRect(v)
	if !ok || r.Empty() {
		r = fallback
	}
	r = clampRect(r, imgW, imgH)
	if r.Empty() {
		return clampRect(fallback, imgW, imgH)
	}
	return r
}

func coerceRect(v any) (Rect, bool) {
	switch t := v.(type) {
	case Rect:
		return t, true
	case *Rect:
		if t == nil {
			return Rect{}, false
		}
		return *t, true
	case map[string]any:
		x, okX := toInt(t["x"])
		y, okY := toInt(t["y"])
		w, okW := toInt(t["width"])
		h, okH := toInt(t["height"])
		if okX && okY && okW && okH {
			return Rect{X: x, Y: y, Width: w, Height: h}, true
		}
	case []int:
		if len(t) == 4 {
			return Rect{X: t[0], Y: t[1], Width: t[2], Height: t[3]}, true
		}
	case []any:
		if len(t) == 4 {
			x, okX := toInt(t[0])
			y, okY := toInt(t[1])
			w, okW := toInt(t[2])
			h, okH := toInt(t[3])
			if okX && okY && okW && okH {
				return Rect{X: x, Y: y, Width: w, Height: h}, true
			}
		}
	}
	return Rect{}, false
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float32:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}
