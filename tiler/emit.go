package tiler

import (
	"io"

	"github.com/eak1mov/go-quadtiles/feature"
	"github.com/eak1mov/go-quadtiles/index"
	"github.com/eak1mov/go-quadtiles/quadtree"
	"github.com/eak1mov/go-quadtiles/tile"
	"github.com/eak1mov/go-quadtiles/tileset"
)

// submap returns the index record of h and the address of the tile it is
// stored in. Tiles deeper than IndexDepth are indexed in their IndexDepth
// ancestor, all others in the root. Roots have no record.
func (t *Tiler) submap(h *tileset.Head) ([]byte, string, bool) {
	name := h.Name.Value()
	suffix := t.config.Suffix
	if len(name) <= len(suffix) {
		return nil, "", false
	}

	depth := quadtree.Depth(name)
	target := suffix
	if depth > t.config.IndexDepth {
		target = name[:t.config.IndexDepth] + suffix
	}

	bbox := t.tree.BBox(name, t.config.Overlap)
	minOrder := max(depth-t.config.OrderShift, 0)
	item := index.NewItem(bbox, minOrder, index.MaxOrder, h.Slot)
	return item.Record(), target, true
}

// Plan rebuilds the resolution index, assigns archive slots longest name
// first and writes the tile directory to directory. Index records are sized
// into their index tiles on the way; index tiles created here are shorter
// than the tile that created them and get their slot later in the same walk.
func (t *Tiler) Plan(directory io.Writer) error {
	if err := t.checkPhase("Plan", phaseMerged); err != nil {
		return err
	}

	names := t.registry.Live()
	t.registry.RebuildResolution()

	maxLen := 0
	for _, name := range names {
		maxLen = max(maxLen, len(name))
	}

	t.logger.Debug("quadtiles: planning", "tiles", len(names))
	buffer := make([]byte, 0, 256)
	count := 0
	for length := maxLen; length >= 0; length-- {
		for i := 0; i < len(names); i++ {
			if len(names[i]) != length {
				continue
			}
			h := t.registry.Head(names[i])
			h.Slot = t.slots.AllocateSlot()

			if directory != nil {
				buffer = tileset.AppendDirectoryLine(buffer[:0], h.Entry())
				if _, err := directory.Write(buffer); err != nil {
					return err
				}
			}

			if record, target, ok := t.submap(h); ok {
				if _, created := t.registry.Record(target, len(record)); created {
					names = append(names, target)
				}
			}

			count++
			t.report(Event{Stage: StagePlanning, Count: count})
		}
	}

	t.lastSlot = t.slots.CurrentSlot() - 1
	t.logger.Debug("quadtiles: planning done", "tiles", count, "last_slot", t.lastSlot)
	t.phase = phasePlanned
	return nil
}

// batches splits heads, in slot order, into runs whose sizes add up to at
// most MemoryLimit. A tile larger than the limit gets a batch of its own.
func (t *Tiler) batches(heads []*tileset.Head) [][]*tileset.Head {
	limit := t.config.MemoryLimit
	batches := make([][]*tileset.Head, 0)
	start, size := 0, 0
	for i, h := range heads {
		if limit > 0 && i > start && size+h.Size > limit {
			batches = append(batches, heads[start:i])
			start, size = i, 0
		}
		size += h.Size
	}
	if start < len(heads) {
		batches = append(batches, heads[start:])
	}
	return batches
}

// Write walks source again, fills the tile buffers and hands every tile to
// archive in slot order. Each feature written also gets a reference record
// in refs if it is not nil. Features must come in the same order as during
// Size. With a MemoryLimit the walk is repeated once per batch of tiles.
func (t *Tiler) Write(source feature.Source, archive MemberWriter, refs io.WriteSeeker) error {
	if err := t.checkPhase("Write", phasePlanned); err != nil {
		return err
	}

	var references *tileset.References
	if refs != nil {
		references = tileset.NewReferences(refs, t.config.RecordUnit)
	}

	heads := t.registry.HeadsBySlot()
	batches := t.batches(heads)
	for i, batch := range batches {
		t.logger.Debug("quadtiles: writing batch", "batch", i+1, "batches", len(batches), "tiles", len(batch))
		if err := t.writeBatch(source, heads, batch, archive, references); err != nil {
			return err
		}
	}

	t.logger.Debug("quadtiles: writing done", "tiles", len(heads))
	t.phase = phaseWritten
	return nil
}

func (t *Tiler) writeBatch(source feature.Source, heads, batch []*tileset.Head, archive MemberWriter, refs *tileset.References) error {
	for _, h := range batch {
		h.Allocate()
	}
	defer func() {
		for _, h := range batch {
			h.Release()
		}
	}()

	if refs != nil {
		if err := refs.Rewind(); err != nil {
			return err
		}
	}

	count := 0
	err := source.VisitFeatures(func(f feature.Feature) error {
		count++
		t.report(Event{Stage: StageWriting, Count: count})
		return t.route(f, func(address string, f feature.Feature) error {
			return t.registry.Write(address, f.Bytes(), refs)
		})
	})
	if err != nil {
		return err
	}

	for _, h := range heads {
		if record, target, ok := t.submap(h); ok {
			if err := t.registry.Write(target, record, nil); err != nil {
				return err
			}
		}
	}

	for _, h := range batch {
		if h.Used != h.Size {
			t.logger.Warn("quadtiles: tile not filled", "tile", h.String(), "used", h.Used, "size", h.Size)
		}
		if err := archive.WriteMember(h.Slot, tile.MemberName(h.Name.Value()), h.Buffer[:h.Used]); err != nil {
			return err
		}
	}
	return nil
}

// Finish completes the run. A tileset with a suffix is referenced from a
// parent index, so one record spanning the whole world and pointing at the
// last allocated slot is written to parentIndex if it is not nil.
func (t *Tiler) Finish(parentIndex io.Writer) error {
	if err := t.checkPhase("Finish", phaseWritten); err != nil {
		return err
	}

	if t.config.Suffix != "" && parentIndex != nil {
		item := index.NewItem(t.tree.World, 0, index.MaxOrder, t.lastSlot)
		if _, err := parentIndex.Write(item.Record()); err != nil {
			return err
		}
	}

	t.phase = phaseFinished
	return nil
}
