package main

import (
	"fmt"
	"os"

	"github.com/eak1mov/go-quadtiles/geom"
	"github.com/eak1mov/go-quadtiles/tiler"
	"github.com/pelletier/go-toml"
)

// loadConfig reads a TOML file on top of tiler.DefaultConfig. Keys are the
// snake_case field names of tiler.Config; world is [min_x, min_y, max_x,
// max_y]; the attributes table is stored in the archive metadata.
func loadConfig(filePath string) (tiler.Config, map[string]string, error) {
	config := tiler.DefaultConfig()
	attributes := make(map[string]string)
	if filePath == "" {
		return config, attributes, nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return config, nil, err
	}
	tree, err := toml.LoadBytes(data)
	if err != nil {
		return config, nil, fmt.Errorf("%s: %w", filePath, err)
	}

	for key, target := range map[string]*int{
		"max_depth":     &config.MaxDepth,
		"overlap":       &config.Overlap,
		"budget":        &config.Budget,
		"record_unit":   &config.RecordUnit,
		"slice_trigger": &config.SliceTrigger,
		"slice_target":  &config.SliceTarget,
		"index_depth":   &config.IndexDepth,
		"order_shift":   &config.OrderShift,
		"memory_limit":  &config.MemoryLimit,
	} {
		if !tree.Has(key) {
			continue
		}
		value, ok := tree.Get(key).(int64)
		if !ok {
			return config, nil, fmt.Errorf("%s: %s must be an integer", filePath, key)
		}
		*target = int(value)
	}

	if tree.Has("suffix") {
		suffix, ok := tree.Get("suffix").(string)
		if !ok {
			return config, nil, fmt.Errorf("%s: suffix must be a string", filePath)
		}
		config.Suffix = suffix
	}

	if tree.Has("world") {
		world, err := parseWorld(tree.Get("world"))
		if err != nil {
			return config, nil, fmt.Errorf("%s: %w", filePath, err)
		}
		config.World = world
	}

	if table, ok := tree.Get("attributes").(*toml.Tree); ok {
		for _, key := range table.Keys() {
			attributes[key] = fmt.Sprint(table.Get(key))
		}
	}

	if err := config.Validate(); err != nil {
		return config, nil, fmt.Errorf("%s: %w", filePath, err)
	}
	return config, attributes, nil
}

func parseWorld(value any) (geom.Rect, error) {
	var coords []int64
	switch v := value.(type) {
	case []int64:
		coords = v
	case []any:
		for _, c := range v {
			n, ok := c.(int64)
			if !ok {
				return geom.Rect{}, fmt.Errorf("world: %v is not an integer", c)
			}
			coords = append(coords, n)
		}
	}
	if len(coords) != 4 {
		return geom.Rect{}, fmt.Errorf("world must be [min_x, min_y, max_x, max_y]")
	}
	world := geom.Rect{
		L: geom.Coord{X: int32(coords[0]), Y: int32(coords[1])},
		H: geom.Coord{X: int32(coords[2]), Y: int32(coords[3])},
	}
	if !world.Valid() {
		return geom.Rect{}, fmt.Errorf("invalid world %v", coords)
	}
	return world, nil
}
