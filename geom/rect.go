// Package geom provides integer coordinate types shared by the tiler.
package geom

// Coord is a point in projected integer map coordinates.
type Coord struct {
	X int32
	Y int32
}

// Rect is an axis-aligned box with lower corner L and upper corner H.
type Rect struct {
	L Coord
	H Coord
}

// World is the root of the quadtree: the spherical mercator extent in meters.
var World = Rect{
	L: Coord{X: -20037508, Y: -20037508},
	H: Coord{X: 20037508, Y: 20037508},
}

func (r Rect) Valid() bool {
	return r.L.X <= r.H.X && r.L.Y <= r.H.Y
}

func (r Rect) Width() int64 {
	return int64(r.H.X) - int64(r.L.X)
}

func (r Rect) Height() int64 {
	return int64(r.H.Y) - int64(r.L.Y)
}

// Center returns the midpoint, rounded toward zero like the quadtree split.
func (r Rect) Center() Coord {
	return Coord{
		X: int32((int64(r.L.X) + int64(r.H.X)) / 2),
		Y: int32((int64(r.L.Y) + int64(r.H.Y)) / 2),
	}
}

// Contains reports whether o lies inside r, edges included.
func (r Rect) Contains(o Rect) bool {
	return o.L.X >= r.L.X && o.H.X <= r.H.X &&
		o.L.Y >= r.L.Y && o.H.Y <= r.H.Y
}

// Extend grows r so that it also covers c.
func (r Rect) Extend(c Coord) Rect {
	r.L.X = min(r.L.X, c.X)
	r.L.Y = min(r.L.Y, c.Y)
	r.H.X = max(r.H.X, c.X)
	r.H.Y = max(r.H.Y, c.Y)
	return r
}

// Bound returns the bounding box of coords. It returns false for an empty slice.
func Bound(coords []Coord) (Rect, bool) {
	if len(coords) == 0 {
		return Rect{}, false
	}
	r := Rect{L: coords[0], H: coords[0]}
	for _, c := range coords[1:] {
		r = r.Extend(c)
	}
	return r, true
}
