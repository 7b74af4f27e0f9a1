// Package tiler builds a quadtree tile set from a stream of features.
//
// A run goes through fixed phases: Size walks the features and accumulates
// tile sizes, Merge consolidates undersized tiles, Plan assigns archive slots
// and writes the tile directory, Write walks the features again and stores
// the filled tiles, Finish writes the aggregate index record.
package tiler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/eak1mov/go-quadtiles/feature"
	"github.com/eak1mov/go-quadtiles/quadtree"
	"github.com/eak1mov/go-quadtiles/tile"
	"github.com/eak1mov/go-quadtiles/tileset"
)

var ErrStage = errors.New("quadtiles: operation out of order")

type phase int

const (
	phaseSizing phase = iota
	phaseMerged
	phasePlanned
	phaseWritten
	phaseFinished
)

func (p phase) String() string {
	switch p {
	case phaseSizing:
		return "sizing"
	case phaseMerged:
		return "merged"
	case phasePlanned:
		return "planned"
	case phaseWritten:
		return "written"
	case phaseFinished:
		return "finished"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// MemberWriter receives finished tiles. tile.Writer implements it.
type MemberWriter interface {
	WriteMember(slot int, name string, data []byte) error
}

// Tiler is the state of one compilation run.
type Tiler struct {
	config   Config
	logger   *slog.Logger
	slicer   feature.Slicer
	progress func(Event)

	tree     quadtree.Tree
	registry *tileset.Registry
	slots    tile.SlotAllocator
	phase    phase
	lastSlot int
}

// New starts a run whose tiles take archive slots from slots.
func New(slots tile.SlotAllocator, opts ...Option) *Tiler {
	config := tilerConfig{
		Config: DefaultConfig(),
		Logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&config)
	}

	return &Tiler{
		config:   config.Config,
		logger:   config.Logger,
		slicer:   config.Slicer,
		progress: config.Progress,
		tree:     quadtree.Tree{World: config.Config.World},
		registry: tileset.New(),
		slots:    slots,
		lastSlot: -1,
	}
}

// Resume starts a run at the writing phase from a tile directory written by
// Plan. Slots are allocated in directory order. Directory syntax errors are
// logged and the recovered tiles are used.
func Resume(directory io.Reader, slots tile.SlotAllocator, opts ...Option) (*Tiler, error) {
	t := New(slots, opts...)

	registry, err := tileset.LoadDirectory(directory, slots)
	if registry == nil {
		return nil, err
	}
	if err != nil {
		t.logger.Warn("quadtiles: tile directory damaged", "err", err)
	}

	t.registry = registry
	t.phase = phasePlanned
	t.lastSlot = slots.CurrentSlot() - 1
	t.logger.Debug("quadtiles: resumed", "tiles", registry.Len())
	return t, nil
}

func (t *Tiler) Config() Config {
	return t.config
}

func (t *Tiler) Registry() *tileset.Registry {
	return t.registry
}

func (t *Tiler) checkPhase(op string, want phase) error {
	if err := t.config.Validate(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if t.phase != want {
		return fmt.Errorf("%w: %s called while %s", ErrStage, op, t.phase)
	}
	return nil
}

func (t *Tiler) report(event Event) {
	if t.progress != nil {
		t.progress(event)
	}
}

// route computes the address of f and passes it to sink, through the slicer
// for large area features that would land on a coarse tile.
func (t *Tiler) route(f feature.Feature, sink func(string, feature.Feature) error) error {
	address, depth, _ := t.tree.Address(f.Extent(), t.config.MaxDepth, t.config.Overlap, t.config.Suffix)
	if t.slicer != nil && f.Type().Sliceable() && depth < t.config.SliceTrigger {
		return t.slicer.Slice(f, address, t.config.SliceTarget, sink)
	}
	return sink(address, f)
}

// Size accumulates the tile sizes of all features of source. It may be
// called several times before Merge.
func (t *Tiler) Size(source feature.Source) error {
	if err := t.checkPhase("Size", phaseSizing); err != nil {
		return err
	}

	t.logger.Debug("quadtiles: sizing")
	count := 0
	err := source.VisitFeatures(func(f feature.Feature) error {
		count++
		t.report(Event{Stage: StageSizing, Count: count})
		return t.route(f, func(address string, f feature.Feature) error {
			t.registry.Record(address, f.Len())
			return nil
		})
	})
	if err != nil {
		return err
	}

	t.logger.Debug("quadtiles: sizing done", "features", count, "tiles", t.registry.Len())
	return nil
}

// Merge consolidates tiles until no merge is possible. It returns the number
// of merges.
func (t *Tiler) Merge() (int, error) {
	if err := t.checkPhase("Merge", phaseSizing); err != nil {
		return 0, err
	}

	merger := tileset.Merger{
		Budget: t.config.Budget,
		Suffix: t.config.Suffix,
		Logger: t.logger,
		OnPass: func(tiles, merged int) {
			t.report(Event{Stage: StageMerging, Count: tiles, Merged: merged})
		},
	}
	passes, merged := merger.Run(t.registry)
	t.logger.Debug("quadtiles: merge done", "passes", passes, "merged", merged, "tiles", t.registry.Len())

	t.phase = phaseMerged
	return merged, nil
}
