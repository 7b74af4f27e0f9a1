package feature

import (
	"math"
	"slices"

	"github.com/eak1mov/go-quadtiles/geom"
	"github.com/eak1mov/go-quadtiles/quadtree"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/clip"
	"github.com/paulmach/orb/planar"
)

// ClipSlicer cuts area items along the quadtree cells of Tree. Each fragment
// is the outline clipped to one cell at the target depth; cells the outline
// does not reach get no fragment. Features other than *Item are emitted whole.
type ClipSlicer struct {
	Tree quadtree.Tree
}

func (s ClipSlicer) Slice(f Feature, address string, targetDepth int, emit func(string, Feature) error) error {
	item, ok := f.(*Item)
	depth := quadtree.Depth(address)
	if !ok || len(item.Coords) < 3 || depth >= targetDepth {
		return emit(address, f)
	}

	ring := make(orb.Ring, len(item.Coords))
	for i, c := range item.Coords {
		ring[i] = orb.Point{float64(c.X), float64(c.Y)}
	}
	return s.slice(item, ring, address[:depth], address[depth:], targetDepth, emit)
}

func (s ClipSlicer) slice(item *Item, ring orb.Ring, prefix, suffix string, targetDepth int, emit func(string, Feature) error) error {
	for i := range len(quadtree.Letters) {
		cell := prefix + quadtree.Letters[i:i+1]
		// clip.Ring uses its input as scratch space.
		clipped := closed(clip.Ring(bound(s.Tree.BBox(cell, 0)), slices.Clone(ring)))
		if len(clipped) < 3 || planar.Area(clipped) == 0 {
			continue
		}
		if len(cell) < targetDepth {
			if err := s.slice(item, clipped, cell, suffix, targetDepth, emit); err != nil {
				return err
			}
			continue
		}
		fragment := &Item{ItemType: item.ItemType, ItemID: item.ItemID, Coords: coords(clipped)}
		if err := emit(cell+suffix, fragment); err != nil {
			return err
		}
	}
	return nil
}

func bound(r geom.Rect) orb.Bound {
	return orb.Bound{
		Min: orb.Point{float64(r.L.X), float64(r.L.Y)},
		Max: orb.Point{float64(r.H.X), float64(r.H.Y)},
	}
}

func closed(ring orb.Ring) orb.Ring {
	if n := len(ring); n > 0 && ring[0] != ring[n-1] {
		ring = append(ring, ring[0])
	}
	return ring
}

func coords(ring orb.Ring) []geom.Coord {
	result := make([]geom.Coord, 0, len(ring))
	for _, p := range ring {
		c := geom.Coord{X: int32(math.Round(p[0])), Y: int32(math.Round(p[1]))}
		if n := len(result); n > 0 && result[n-1] == c {
			continue
		}
		result = append(result, c)
	}
	return result
}
