package geom_test

import (
	"testing"

	"github.com/eak1mov/go-quadtiles/geom"
	"github.com/google/go-cmp/cmp"
)

func TestContains(t *testing.T) {
	outer := geom.Rect{L: geom.Coord{X: 0, Y: 0}, H: geom.Coord{X: 10, Y: 10}}
	for _, tc := range []struct {
		name  string
		inner geom.Rect
		want  bool
	}{
		{"inside", geom.Rect{L: geom.Coord{X: 1, Y: 1}, H: geom.Coord{X: 9, Y: 9}}, true},
		{"edges", outer, true},
		{"crossing", geom.Rect{L: geom.Coord{X: 5, Y: 5}, H: geom.Coord{X: 11, Y: 9}}, false},
		{"outside", geom.Rect{L: geom.Coord{X: -5, Y: -5}, H: geom.Coord{X: -1, Y: -1}}, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if got := outer.Contains(tc.inner); got != tc.want {
				t.Errorf("Contains(%v) = %v, want = %v", tc.inner, got, tc.want)
			}
		})
	}
}

func TestCenterNoOverflow(t *testing.T) {
	r := geom.Rect{L: geom.Coord{X: 2_000_000_000, Y: -2_000_000_000}, H: geom.Coord{X: 2_100_000_000, Y: 2_000_000_000}}
	if got, want := r.Center(), (geom.Coord{X: 2_050_000_000, Y: 0}); got != want {
		t.Errorf("Center() = %v, want = %v", got, want)
	}
}

func TestBound(t *testing.T) {
	if _, ok := geom.Bound(nil); ok {
		t.Errorf("Bound(nil) reported ok")
	}
	coords := []geom.Coord{{X: 3, Y: -1}, {X: -2, Y: 7}, {X: 0, Y: 0}}
	got, ok := geom.Bound(coords)
	if !ok {
		t.Fatalf("Bound failed")
	}
	want := geom.Rect{L: geom.Coord{X: -2, Y: -1}, H: geom.Coord{X: 3, Y: 7}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Bound mismatch (-want+got):\n%v", diff)
	}
}
