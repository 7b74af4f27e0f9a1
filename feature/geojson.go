package feature

import (
	"fmt"
	"io"
	"math"

	"github.com/eak1mov/go-quadtiles/geom"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/project"
)

// maxLatitude bounds the square spherical mercator world.
const maxLatitude = 85.0511287798066

// GeoJSONSource yields the features of a GeoJSON FeatureCollection as Items
// in spherical mercator meters.
type GeoJSONSource struct {
	collection *geojson.FeatureCollection
}

func NewGeoJSONSource(collection *geojson.FeatureCollection) *GeoJSONSource {
	return &GeoJSONSource{collection: collection}
}

func ReadGeoJSON(reader io.Reader) (*GeoJSONSource, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	collection, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse geojson: %w", err)
	}
	return NewGeoJSONSource(collection), nil
}

func (s *GeoJSONSource) Len() int {
	return len(s.collection.Features)
}

func (s *GeoJSONSource) VisitFeatures(visitor func(Feature) error) error {
	for i, f := range s.collection.Features {
		if f.Geometry == nil {
			continue
		}
		item := &Item{
			ItemType: geometryType(f.Geometry),
			ItemID:   featureID(f, i),
		}
		for _, p := range appendPoints(nil, f.Geometry) {
			item.Coords = append(item.Coords, toMercator(p))
		}
		if len(item.Coords) == 0 {
			continue
		}
		if err := visitor(item); err != nil {
			return err
		}
	}
	return nil
}

func featureID(f *geojson.Feature, i int) uint64 {
	switch id := f.ID.(type) {
	case float64:
		if id >= 0 {
			return uint64(id)
		}
	case int:
		if id >= 0 {
			return uint64(id)
		}
	}
	return uint64(i)
}

func geometryType(g orb.Geometry) Type {
	switch g := g.(type) {
	case orb.Point, orb.MultiPoint:
		return TypePoint
	case orb.LineString, orb.MultiLineString:
		return TypeLine
	case orb.Collection:
		if len(g) > 0 {
			return geometryType(g[0])
		}
		return TypePoint
	default:
		return TypeArea
	}
}

func appendPoints(points []orb.Point, g orb.Geometry) []orb.Point {
	switch g := g.(type) {
	case orb.Point:
		points = append(points, g)
	case orb.MultiPoint:
		points = append(points, g...)
	case orb.LineString:
		points = append(points, g...)
	case orb.Ring:
		points = append(points, g...)
	case orb.MultiLineString:
		for _, ls := range g {
			points = append(points, ls...)
		}
	case orb.Polygon:
		for _, ring := range g {
			points = append(points, ring...)
		}
	case orb.MultiPolygon:
		for _, polygon := range g {
			for _, ring := range polygon {
				points = append(points, ring...)
			}
		}
	case orb.Collection:
		for _, sub := range g {
			points = appendPoints(points, sub)
		}
	case orb.Bound:
		points = append(points, g.Min, g.Max)
	}
	return points
}

func toMercator(p orb.Point) geom.Coord {
	p[1] = max(-maxLatitude, min(maxLatitude, p[1]))
	m := project.Point(p, project.WGS84.ToMercator)
	clamp := func(v float64, lo, hi int32) int32 {
		return int32(max(float64(lo), min(float64(hi), math.Round(v))))
	}
	return geom.Coord{
		X: clamp(m[0], geom.World.L.X, geom.World.H.X),
		Y: clamp(m[1], geom.World.L.Y, geom.World.H.Y),
	}
}
