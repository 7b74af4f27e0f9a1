// Package internal provides deterministic fixtures shared by the tests.
package internal

import (
	"math/rand/v2"

	"github.com/eak1mov/go-quadtiles/feature"
	"github.com/eak1mov/go-quadtiles/geom"
)

// RandomFeatures returns count features inside world, the same for the same
// seed. Most are small points and lines; about one in ten is an area of up
// to a quarter of the world.
func RandomFeatures(seed uint64, count int, world geom.Rect) feature.Slice {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	width, height := world.Width(), world.Height()

	point := func(spanX, spanY int64) geom.Coord {
		return geom.Coord{
			X: world.L.X + int32(rng.Int64N(width-spanX+1)),
			Y: world.L.Y + int32(rng.Int64N(height-spanY+1)),
		}
	}

	features := make(feature.Slice, 0, count)
	for i := range count {
		item := &feature.Item{ItemID: uint64(i)}
		switch n := rng.IntN(10); {
		case n < 5:
			item.ItemType = feature.TypePoint
			item.Coords = []geom.Coord{point(0, 0)}
		case n < 9:
			item.ItemType = feature.TypeLine
			spanX, spanY := 1+rng.Int64N(max(width/64, 1)), 1+rng.Int64N(max(height/64, 1))
			start := point(spanX, spanY)
			end := geom.Coord{X: start.X + int32(spanX), Y: start.Y + int32(spanY)}
			item.Coords = []geom.Coord{start, end}
		default:
			item.ItemType = feature.TypeArea
			spanX, spanY := 1+rng.Int64N(max(width/2, 1)), 1+rng.Int64N(max(height/2, 1))
			l := point(spanX, spanY)
			h := geom.Coord{X: l.X + int32(spanX), Y: l.Y + int32(spanY)}
			item.Coords = []geom.Coord{l, {X: h.X, Y: l.Y}, h, {X: l.X, Y: h.Y}, l}
		}
		features = append(features, item)
	}
	return features
}

// Point returns a point feature at (x, y).
func Point(id uint64, x, y int32) *feature.Item {
	return &feature.Item{
		ItemType: feature.TypePoint,
		ItemID:   id,
		Coords:   []geom.Coord{{X: x, Y: y}},
	}
}

// Box returns a closed area feature covering r.
func Box(id uint64, r geom.Rect) *feature.Item {
	return &feature.Item{
		ItemType: feature.TypeArea,
		ItemID:   id,
		Coords:   []geom.Coord{r.L, {X: r.H.X, Y: r.L.Y}, r.H, {X: r.L.X, Y: r.H.Y}, r.L},
	}
}
