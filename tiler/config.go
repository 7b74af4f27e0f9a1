package tiler

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/eak1mov/go-quadtiles/feature"
	"github.com/eak1mov/go-quadtiles/geom"
	"github.com/eak1mov/go-quadtiles/tileset"
)

// Config holds the numeric policy of a compilation run.
type Config struct {
	// World is the root cell of the quadtree.
	World geom.Rect
	// MaxDepth bounds the number of address letters.
	MaxDepth int
	// Overlap is the margin in percent a feature may cross a quadrant border by.
	Overlap int
	// Suffix namespaces the tileset, e.g. per feature layer.
	Suffix string
	// Budget bounds the size of merged tiles, exclusive.
	Budget int
	// RecordUnit is the unit of offsets in the reference stream.
	RecordUnit int
	// SliceTrigger is the depth below which sliceable features are cut.
	SliceTrigger int
	// SliceTarget is the depth fragments are cut to.
	SliceTarget int
	// IndexDepth is the depth of the tiles submap records of deeper tiles go to.
	IndexDepth int
	// OrderShift is subtracted from the depth to get a submap's lowest order.
	OrderShift int
	// MemoryLimit bounds the tile buffers held at once while writing; 0 means unbounded.
	MemoryLimit int
}

func DefaultConfig() Config {
	return Config{
		World:        geom.World,
		MaxDepth:     14,
		Overlap:      1,
		Budget:       tileset.DefaultBudget,
		RecordUnit:   4,
		SliceTrigger: 4,
		SliceTarget:  7,
		IndexDepth:   6,
		OrderShift:   4,
	}
}

var ErrInvalidConfig = errors.New("quadtiles: invalid config")

// Validate reports the first setting a run cannot work with.
func (c Config) Validate() error {
	if !c.World.Valid() {
		return fmt.Errorf("%w: world %v", ErrInvalidConfig, c.World)
	}
	for _, v := range []struct {
		name     string
		value    int
		positive bool
	}{
		{"max_depth", c.MaxDepth, true},
		{"budget", c.Budget, true},
		{"record_unit", c.RecordUnit, true},
		{"overlap", c.Overlap, false},
		{"slice_trigger", c.SliceTrigger, false},
		{"slice_target", c.SliceTarget, false},
		{"index_depth", c.IndexDepth, false},
		{"order_shift", c.OrderShift, false},
		{"memory_limit", c.MemoryLimit, false},
	} {
		if v.value < 0 || (v.positive && v.value == 0) {
			return fmt.Errorf("%w: %s = %d", ErrInvalidConfig, v.name, v.value)
		}
	}
	return nil
}

type tilerConfig struct {
	Config   Config
	Logger   *slog.Logger
	Slicer   feature.Slicer
	Progress func(Event)
}

type Option func(*tilerConfig)

func WithConfig(config Config) Option {
	return func(c *tilerConfig) { c.Config = config }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *tilerConfig) { c.Logger = logger }
}

// WithSlicer sets the collaborator cutting large area features. Without one
// such features are kept whole.
func WithSlicer(slicer feature.Slicer) Option {
	return func(c *tilerConfig) { c.Slicer = slicer }
}

// WithProgress sets a callback receiving progress events.
func WithProgress(progress func(Event)) Option {
	return func(c *tilerConfig) { c.Progress = progress }
}

// Stage names a phase of the run in progress events.
type Stage string

const (
	StageSizing   Stage = "sizing"
	StageMerging  Stage = "merging"
	StagePlanning Stage = "planning"
	StageWriting  Stage = "writing"
)

// Event reports progress. Sizing and writing send one event per feature,
// planning one per tile and merging one per pass.
type Event struct {
	Stage  Stage
	Count  int
	Merged int
}
