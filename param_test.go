package inspectflow

import (
	"reflect"
	"testing"
)

func TestParamStore_DefineSeedsCorrectedDefault(t *testing.T) {
	s := NewParamStore()
	s.Define(ParamSpec{Name: "kernel_size", Kind: ParamInt, Default: 4})

	if got := s.GetInt("kernel_size", 0); got != 5 {
		t.Errorf("GetInt(kernel_size) = %d, want 5 (even default corrected to odd)", got)
	}
}

func TestParamStore_SetCorrections(t *testing.T) {
	tests := []struct {
		key  string
		in   any
		want any
	}{
		{"kernel_size", 0, 1},
		{"kernel_size", 6, 7},
		{"kernel_size", 5, 5},
		{"diameter", -2, 3},
		{"diameter", 4, 5},
		{"iterations", 0, 1},
		{"iterations", 2.9, 2},
		{"width", -10, 1},
		{"height", 0, 1},
		{"roi_x", -5, 0},
		{"roi_width", -1, 0},
		{"threshold", 300, 255.0},
		{"threshold", -3, 0.0},
		{"canny_threshold1", 128, 128.0},
		{"min_score", 1.7, 1.0},
		{"min_score", 0.12345, 0.1235},
		{"match_score", -0.5, 0.0},
		{"max_count", 0, 1},
		{"min_area", -1, 0},
		{"max_area", 0, 1},
		{"min_circularity", 2.0, 1.0},
		{"fps", -1, 30},
		{"exposure", -500, -1},
		{"gain", -0.5, -1},
		{"exposure", 1200, 1200},
		{"interval", -10, 0},
		{"normalize", 1, true},
		{"auto_rotate", 0, false},
		{"enable_roi", "false", false},
		{"file_path", nil, ""},
		{"unknown_key", "anything", "anything"},
		{"unknown_key", -42, -42},
	}

	s := NewParamStore()
	for _, tt := range tests {
		got := s.Set(tt.key, tt.in)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Set(%q, %v) = %v (%T), want %v (%T)", tt.key, tt.in, got, got, tt.want, tt.want)
		}
	}
}

// Correction is a fixed point: correcting a corrected value changes
// nothing.
func TestParamStore_CorrectionFixedPoint(t *testing.T) {
	keys := []string{
		"kernel_size", "diameter", "iterations", "threshold", "min_score",
		"exposure", "gain", "fps", "normalize", "roi_x", "max_area",
	}
	inputs := []any{-100, -1, 0, 0.5, 2, 3.7, 4, 255, 256, 1e6, true, false, "x"}

	s := NewParamStore()
	for _, key := range keys {
		for _, in := range inputs {
			once := s.Set(key, in)
			twice := s.Set(key, once)
			if !reflect.DeepEqual(once, twice) {
				t.Errorf("Set(%q, Set(%q, %v)) = %v, want fixed point %v", key, key, in, twice, once)
			}
		}
	}
}

func TestParamStore_GetDefault(t *testing.T) {
	s := NewParamStore()
	if got := s.Get("missing", 42); got != 42 {
		t.Errorf("Get(missing) = %v, want default 42", got)
	}
	s.Set("present", "v")
	if got := s.GetString("present", ""); got != "v" {
		t.Errorf("GetString(present) = %q, want %q", got, "v")
	}
	if got := s.GetFloat("present", 1.5); got != 1.5 {
		t.Errorf("GetFloat on string value = %v, want default 1.5", got)
	}
}

func TestParamStore_SnapshotRestore(t *testing.T) {
	s := NewParamStore()
	s.Define(ParamSpec{Name: "threshold", Kind: ParamFloat, Default: 128})
	s.Set("threshold", 200)

	snap := s.Snapshot()
	s.Set("threshold", 10)

	// Mutating a snapshot never affects the store.
	snap["extra"] = true
	delete(snap, "extra")

	s.Restore(snap)
	if got := s.GetFloat("threshold", 0); got != 200 {
		t.Errorf("after Restore threshold = %v, want 200", got)
	}
}

func TestParamStore_ResetToDefaults(t *testing.T) {
	s := NewParamStore()
	s.Define(ParamSpec{Name: "threshold", Kind: ParamFloat, Default: 128})
	s.Set("threshold", 200)
	s.Set("stray", "value")

	s.ResetToDefaults()

	if got := s.GetFloat("threshold", 0); got != 128 {
		t.Errorf("after reset threshold = %v, want 128", got)
	}
	if _, ok := s.Snapshot()["stray"]; ok {
		t.Error("undeclared key survived ResetToDefaults")
	}
}

// Enum values are not validated against Options; any string is stored.
// Documented limitation.
func TestParamStore_EnumNotValidated(t *testing.T) {
	s := NewParamStore()
	s.Define(ParamSpec{
		Name:    "interpolation",
		Kind:    ParamEnum,
		Default: "linear",
		Options: []string{"nearest", "linear", "cubic"},
	})

	got := s.Set("interpolation", "bogus")
	if got != "bogus" {
		t.Errorf("Set(enum, bogus) = %v, want stored as-is", got)
	}
}

func TestParamStore_SpecsOrder(t *testing.T) {
	s := NewParamStore()
	s.Define(ParamSpec{Name: "b", Kind: ParamInt, Default: 1})
	s.Define(ParamSpec{Name: "a", Kind: ParamInt, Default: 2})

	specs := s.Specs()
	if len(specs) != 2 || specs[0].Name != "b" || specs[1].Name != "a" {
		t.Errorf("Specs() order = %v, want definition order [b a]", specs)
	}
}
