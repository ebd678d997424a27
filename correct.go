package inspectflow

import "math"

// correctValue applies the keyed correction rule table. The table
// corrects rather than rejects: a caller always gets a storable value
// back. Keys with no rule pass through unchanged, including unknown
// keys. Non-numeric input for a numeric rule is also passed through;
// the rules only fire on values they can interpret.
func correctValue(key string, value any) any {
	switch key {
	// Kernel-like sizes must be positive odd integers.
	case "kernel_size":
		if f, ok := toFloat(value); ok {
			return positiveOdd(f, 1)
		}
	case "diameter":
		if f, ok := toFloat(value); ok {
			return positiveOdd(f, 3)
		}

	// Iteration counts are at least 1.
	case "iteration", "iterations":
		if f, ok := toFloat(value); ok {
			return maxInt(1, int(f))
		}

	// Image dimensions are at least 1.
	case "width", "height":
		if f, ok := toFloat(value); ok {
			return maxInt(1, int(f))
		}

	// ROI coordinates and offsets are non-negative.
	case "roi_x", "roi_y", "roi_width", "roi_height", "offset_x", "offset_y":
		if f, ok := toFloat(value); ok && f < 0 {
			return 0
		}

	// 8-bit thresholds clamp into [0, 255].
	case "threshold", "threshold_value", "lower_bound", "upper_bound",
		"canny_threshold1", "canny_threshold2":
		if f, ok := toFloat(value); ok {
			return clampFloat(f, 0, 255)
		}

	// Match scores clamp into [0, 1], rounded to 4 places.
	case "min_score", "match_score":
		if f, ok := toFloat(value); ok {
			return math.Round(clampFloat(f, 0, 1)*1e4) / 1e4
		}

	// Circularity bounds clamp into [0, 1].
	case "min_circularity", "max_circularity":
		if f, ok := toFloat(value); ok {
			return clampFloat(f, 0, 1)
		}

	case "max_count":
		if f, ok := toFloat(value); ok {
			return maxInt(1, int(f))
		}

	// Area and size minimums are non-negative.
	case "min_area", "min_size", "min_radius":
		if f, ok := toFloat(value); ok && f < 0 {
			return 0
		}

	// Area and size maximums are positive.
	case "max_area", "max_size", "max_radius":
		if f, ok := toFloat(value); ok && f <= 0 {
			return 1
		}

	case "min_aspect_ratio", "max_aspect_ratio":
		if f, ok := toFloat(value); ok && f < 0 {
			return 0.1
		}

	case "tolerance":
		if f, ok := toFloat(value); ok && f < 0 {
			return 0.0
		}

	// Frame rate falls back to 30 when non-positive.
	case "fps":
		if f, ok := toFloat(value); ok && f <= 0 {
			return 30
		}

	// Exposure and gain preserve -1 as the "auto" sentinel instead of
	// clamping it away.
	case "exposure", "gain":
		if f, ok := toFloat(value); ok && f < 0 {
			return -1
		}

	case "interval":
		if f, ok := toFloat(value); ok && f < 0 {
			return 0
		}

	// Booleans coerce via truthiness.
	case "enabled", "normalize", "auto_rotate", "enable_roi", "is_roi_set",
		"fill_holes", "remove_noise", "draw_contours", "draw_centroids",
		"draw_bounding_boxes", "count_black", "count_white", "count_range":
		return truthy(value)

	// Path and mode parameters coerce to strings; nil becomes "".
	case "source_type", "file_path", "template_path", "match_mode",
		"operation", "interpolation", "threshold_method", "histogram_type":
		if value == nil {
			return ""
		}
		if s, ok := value.(string); ok {
			return s
		}
	}

	return value
}

func positiveOdd(f float64, floor int) int {
	if f <= 0 {
		return floor
	}
	n := int(f)
	if n%2 == 0 {
		n++
	}
	return n
}

func clampFloat(f, lo, hi float64) float64 {
	if f < lo {
		return lo
	}
	if f > hi {
		return hi
	}
	return f
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t != "" && t != "0" && t != "false"
	case nil:
		return false
	default:
		if f, ok := toFloat(v); ok {
			return f != 0
		}
		return true
	}
}
