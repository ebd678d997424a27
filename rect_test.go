package inspectflow

import "testing"

func TestResolveRect(t *testing.T) {
	fallback := Rect{X: 0, Y: 0, Width: 100, Height: 100}

	tests := []struct {
		name string
		in   any
		want Rect
	}{
		{"rect value", Rect{X: 10, Y: 10, Width: 20, Height: 20}, Rect{X: 10, Y: 10, Width: 20, Height: 20}},
		{"rect pointer", &Rect{X: 5, Y: 5, Width: 10, Height: 10}, Rect{X: 5, Y: 5, Width: 10, Height: 10}},
		{"nil pointer", (*Rect)(nil), fallback},
		{"yaml map", map[string]any{"x": 1, "y": 2, "width": 3, "height": 4}, Rect{X: 1, Y: 2, Width: 3, Height: 4}},
		{"float map", map[string]any{"x": 1.0, "y": 2.0, "width": 3.0, "height": 4.0}, Rect{X: 1, Y: 2, Width: 3, Height: 4}},
		{"int slice", []int{4, 3, 2, 1}, Rect{X: 4, Y: 3, Width: 2, Height: 1}},
		{"any slice", []any{1, 2, 3, 4}, Rect{X: 1, Y: 2, Width: 3, Height: 4}},
		{"short slice", []int{1, 2}, fallback},
		{"garbage", "not a rect", fallback},
		{"nil", nil, fallback},
		{"empty rect", Rect{}, fallback},
		{"partially outside", Rect{X: 90, Y: 90, Width: 30, Height: 30}, Rect{X: 90, Y: 90, Width: 10, Height: 10}},
		{"negative origin", Rect{X: -10, Y: -10, Width: 30, Height: 30}, Rect{X: 0, Y: 0, Width: 20, Height: 20}},
		{"fully outside", Rect{X: 200, Y: 200, Width: 10, Height: 10}, fallback},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveRect(tt.in, 100, 100, fallback)
			if got != tt.want {
				t.Errorf("ResolveRect(%v) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestRect_Std(t *testing.T) {
	r := Rect{X: 1, Y: 2, Width: 3, Height: 4}
	std := r.Std()
	if std.Min.X != 1 || std.Min.Y != 2 || std.Max.X != 4 || std.Max.Y != 6 {
		t.Errorf("Std() = %v", std)
	}
	if !(Rect{Width: 5}).Empty() {
		t.Error("zero-height rect not Empty")
	}
}
