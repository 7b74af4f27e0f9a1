// Package quadtree maps rectangles to quadtree tile addresses and back.
//
// An address is a string over the letters a, b, c and d, one letter per level,
// optionally followed by a suffix that namespaces a tileset. Letters select the
// quadrants of the current cell:
//
//	b | a
//	--+--
//	d | c
package quadtree

import (
	"strings"

	"github.com/eak1mov/go-quadtiles/geom"
)

// Letters in the order they are tried when descending.
const Letters = "dcba"

// Tree is a quadtree rooted at a fixed world box.
type Tree struct {
	World geom.Rect
}

// Default is the quadtree over geom.World.
var Default = Tree{World: geom.World}

func contains(xl, yl, xh, yh int64, r geom.Rect) bool {
	return int64(r.L.X) >= xl && int64(r.H.X) <= xh &&
		int64(r.L.Y) >= yl && int64(r.H.Y) <= yh
}

// fitSubtile checks whether r fits into one of the four quadrants of bbox
// widened toward the center by overlap percent. On success bbox is narrowed
// to the exact quadrant and its letter is returned, otherwise 0.
func fitSubtile(r geom.Rect, bbox *geom.Rect, overlap int) byte {
	c := bbox.Center()
	cx, cy := int64(c.X), int64(c.Y)
	xo := bbox.Width() * int64(overlap) / 100
	yo := bbox.Height() * int64(overlap) / 100
	lx, ly := int64(bbox.L.X), int64(bbox.L.Y)
	hx, hy := int64(bbox.H.X), int64(bbox.H.Y)

	switch {
	case contains(lx, ly, cx+xo, cy+yo, r):
		bbox.H = c
		return 'd'
	case contains(cx-xo, ly, hx, cy+yo, r):
		bbox.L.X = c.X
		bbox.H.Y = c.Y
		return 'c'
	case contains(lx, cy-yo, cx+xo, hy, r):
		bbox.H.X = c.X
		bbox.L.Y = c.Y
		return 'b'
	case contains(cx-xo, cy-yo, hx, hy, r):
		bbox.L = c
		return 'a'
	}
	return 0
}

// Address computes the deepest address, at most maxDepth letters long, whose
// cell contains r. Each level is tried without overlap first and then with
// overlap percent of margin. The suffix is appended verbatim. It also returns
// the number of letters and the exact cell of the address without overlap.
func (t Tree) Address(r geom.Rect, maxDepth, overlap int, suffix string) (string, int, geom.Rect) {
	bbox := t.World
	var sb strings.Builder
	sb.Grow(maxDepth + len(suffix))

	depth := 0
	for ; depth < maxDepth; depth++ {
		next := fitSubtile(r, &bbox, 0)
		if next == 0 && overlap != 0 {
			next = fitSubtile(r, &bbox, overlap)
		}
		if next == 0 {
			break
		}
		sb.WriteByte(next)
	}

	sb.WriteString(suffix)
	return sb.String(), depth, bbox
}

// BBox returns the storage extent of an address. All levels narrow exactly
// except the last one, whose quadrant is widened away from the center by
// overlap percent. Anything after the leading letters is ignored.
func (t Tree) BBox(address string, overlap int) geom.Rect {
	letters := address[:Depth(address)]
	r := t.World
	for i := range len(letters) {
		c := r.Center()
		xo := int32(r.Width() * int64(overlap) / 100)
		yo := int32(r.Height() * int64(overlap) / 100)
		if i < len(letters)-1 {
			xo, yo = 0, 0
		}
		switch letters[i] {
		case 'a':
			r.L.X = c.X - xo
			r.L.Y = c.Y - yo
		case 'b':
			r.H.X = c.X + xo
			r.L.Y = c.Y - yo
		case 'c':
			r.L.X = c.X - xo
			r.H.Y = c.Y + yo
		case 'd':
			r.H.X = c.X + xo
			r.H.Y = c.Y + yo
		}
	}
	return r
}

// Address is Default.Address.
func Address(r geom.Rect, maxDepth, overlap int, suffix string) (string, int, geom.Rect) {
	return Default.Address(r, maxDepth, overlap, suffix)
}

// BBox is Default.BBox.
func BBox(address string, overlap int) geom.Rect {
	return Default.BBox(address, overlap)
}

// Depth returns the length of the leading run of quadrant letters.
func Depth(address string) int {
	for i := range len(address) {
		if address[i] < 'a' || address[i] > 'd' {
			return i
		}
	}
	return len(address)
}

// Parent drops the last quadrant letter of address and keeps suffix.
// It returns false if address is a root.
func Parent(address, suffix string) (string, bool) {
	depth := Depth(address)
	if depth == 0 {
		return "", false
	}
	return address[:depth-1] + suffix, true
}

// WithLast replaces the last quadrant letter of address with letter,
// keeping everything after it.
func WithLast(address string, letter byte) string {
	depth := Depth(address)
	if depth == 0 {
		return address
	}
	b := []byte(address)
	b[depth-1] = letter
	return string(b)
}
