package geom

import "testing"

func TestRectDimensions(t *testing.T) {
	r := Rect{LX: 10, LY: 20, UX: 60, UY: 70}

	if r.Width() != 50 {
		t.Errorf("Width() = %v, want 50", r.Width())
	}
	if r.Height() != 50 {
		t.Errorf("Height() = %v, want 50", r.Height())
	}
	if r.Area() != 2500 {
		t.Errorf("Area() = %v, want 2500", r.Area())
	}
	if r.CenterX() != 35 {
		t.Errorf("CenterX() = %v, want 35", r.CenterX())
	}
	if r.CenterY() != 45 {
		t.Errorf("CenterY() = %v, want 45", r.CenterY())
	}
}

func TestRectContains(t *testing.T) {
	outer := Rect{LX: 0, LY: 0, UX: 100, UY: 100}

	tests := []struct {
		name  string
		inner Rect
		want  bool
	}{
		{"inside", Rect{LX: 10, LY: 10, UX: 20, UY: 20}, true},
		{"equal", outer, true},
		{"touching edge", Rect{LX: 90, LY: 0, UX: 100, UY: 10}, true},
		{"overhang right", Rect{LX: 95, LY: 0, UX: 105, UY: 10}, false},
		{"overhang below", Rect{LX: 0, LY: -1, UX: 10, UY: 10}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := outer.Contains(tt.inner); got != tt.want {
				t.Errorf("Contains() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRectIntersects(t *testing.T) {
	a := Rect{LX: 0, LY: 0, UX: 10, UY: 10}

	tests := []struct {
		name string
		b    Rect
		want bool
	}{
		{"overlap", Rect{LX: 5, LY: 5, UX: 15, UY: 15}, true},
		{"contained", Rect{LX: 2, LY: 2, UX: 3, UY: 3}, true},
		{"shared edge", Rect{LX: 10, LY: 0, UX: 20, UY: 10}, false},
		{"shared corner", Rect{LX: 10, LY: 10, UX: 20, UY: 20}, false},
		{"disjoint", Rect{LX: 50, LY: 50, UX: 60, UY: 60}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := a.Intersects(tt.b); got != tt.want {
				t.Errorf("Intersects() = %v, want %v", got, tt.want)
			}
			if got := tt.b.Intersects(a); got != tt.want {
				t.Errorf("Intersects() not symmetric: got %v", got)
			}
		})
	}
}

func TestRectSplit(t *testing.T) {
	r := Rect{LX: 0, LY: 0, UX: 100, UY: 50}

	low, high := r.Split(Vertical, 30)
	if low != (Rect{LX: 0, LY: 0, UX: 30, UY: 50}) {
		t.Errorf("vertical low = %+v", low)
	}
	if high != (Rect{LX: 30, LY: 0, UX: 100, UY: 50}) {
		t.Errorf("vertical high = %+v", high)
	}

	low, high = r.Split(Horizontal, 20)
	if low.UY != 20 || high.LY != 20 || low.LY != 0 || high.UY != 50 {
		t.Errorf("horizontal split = %+v / %+v", low, high)
	}

	// Out-of-range cuts are clamped.
	low, high = r.Split(Vertical, 500)
	if low != r || high.Width() != 0 {
		t.Errorf("clamped split = %+v / %+v", low, high)
	}
}

func TestRectInflate(t *testing.T) {
	r := NewRect(10, 10, 5, 5).Inflate(2, 1)
	want := Rect{LX: 8, LY: 9, UX: 17, UY: 16}
	if r != want {
		t.Errorf("Inflate() = %+v, want %+v", r, want)
	}
}

func TestManhattan(t *testing.T) {
	if got := Manhattan(Point{0, 0}, Point{3, -4}); got != 7 {
		t.Errorf("Manhattan() = %v, want 7", got)
	}
}

func TestClampPoint(t *testing.T) {
	r := Rect{LX: 0, LY: 0, UX: 10, UY: 10}
	if got := r.ClampPoint(Point{-5, 20}); got != (Point{0, 10}) {
		t.Errorf("ClampPoint() = %+v", got)
	}
}

func TestAxisBounds(t *testing.T) {
	r := Rect{LX: 1, LY: 2, UX: 3, UY: 7}
	if lo, hi := r.Bounds(Vertical); lo != 1 || hi != 3 {
		t.Errorf("Bounds(Vertical) = %v,%v", lo, hi)
	}
	if lo, hi := r.Bounds(Horizontal); lo != 2 || hi != 7 {
		t.Errorf("Bounds(Horizontal) = %v,%v", lo, hi)
	}
	if r.Extent(Horizontal) != 5 {
		t.Errorf("Extent(Horizontal) = %v", r.Extent(Horizontal))
	}
}
