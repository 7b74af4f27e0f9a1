package tileset

import (
	"cmp"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/eak1mov/go-quadtiles/intern"
)

var (
	ErrOverflow        = errors.New("quadtiles: tile overflow")
	ErrUnresolved      = errors.New("quadtiles: no tile for address")
	ErrInvalidActivity = errors.New("quadtiles: invalid tile activity")
)

// Registry maps tile names to heads through two indices.
//
// The canonical index holds one entry per live head under its current name.
// The resolution index maps every subtile name ever claimed by a live head to
// that head, so features addressed to a merged-away name still find their
// tile. It is nil until the first RebuildResolution and goes stale on Merge;
// it must be rebuilt before writing.
type Registry struct {
	canonical  map[intern.Name]*Head
	resolution map[intern.Name]*Head
}

func New() *Registry {
	return &Registry{canonical: make(map[intern.Name]*Head)}
}

// Resolve returns the head features addressed to address belong to, or nil.
func (r *Registry) Resolve(address string) *Head {
	name := intern.Make(address)
	if h := r.resolution[name]; h != nil {
		return h
	}
	return r.canonical[name]
}

// Head returns the live head currently named address, or nil.
func (r *Registry) Head(address string) *Head {
	return r.canonical[intern.Make(address)]
}

// Record adds size bytes to the tile address resolves to, creating a head
// claiming only itself if there is none. It reports whether a head was created.
func (r *Registry) Record(address string, size int) (*Head, bool) {
	h := r.Resolve(address)
	created := false
	if h == nil {
		h = newHead(intern.Make(address))
		if r.resolution != nil {
			r.resolution[h.Name] = h
		}
		created = true
	}
	h.Size += size
	r.canonical[h.Name] = h
	return h, created
}

// Write appends data to the tile address resolves to and, for active tiles,
// emits a Reference to refs if it is not nil. Writes to inactive tiles are
// skipped. Missing tiles, invalid activity and writes beyond the sized total
// mean that the sizing and writing passes diverged.
func (r *Registry) Write(address string, data []byte, refs *References) error {
	h := r.Resolve(address)
	if h == nil {
		return fmt.Errorf("%w: %q", ErrUnresolved, address)
	}

	switch h.Activity {
	case Inactive:
		if refs != nil {
			return refs.skip()
		}
		return nil
	case Active:
	default:
		return fmt.Errorf("%w: tile %q of length %d has activity %d", ErrInvalidActivity, address, len(address), h.Activity)
	}

	if h.Used+len(data) > h.Size {
		return fmt.Errorf("%w: tile %q (used %d max %d item %d)", ErrOverflow, address, h.Used, h.Size, len(data))
	}

	if refs != nil {
		if err := refs.put(h.Slot, h.Used); err != nil {
			return err
		}
	}
	if h.Buffer != nil {
		copy(h.Buffer[h.Used:], data)
	}
	h.Used += len(data)
	return nil
}

// SizeOf returns the size of the live head named address, 0 if there is none.
func (r *Registry) SizeOf(address string) int {
	h := r.canonical[intern.Make(address)]
	if h == nil {
		return 0
	}
	return h.Size
}

func (r *Registry) Len() int {
	return len(r.canonical)
}

// Live returns the names of all live heads in lexicographic order.
func (r *Registry) Live() []string {
	names := slices.Collect(maps.Keys(r.canonical))
	intern.Sort(names)
	return intern.Strings(names)
}

// Heads returns all live heads ordered by name.
func (r *Registry) Heads() []*Head {
	heads := slices.Collect(maps.Values(r.canonical))
	slices.SortFunc(heads, func(a, b *Head) int {
		return intern.Compare(a.Name, b.Name)
	})
	return heads
}

// HeadsBySlot returns all live heads ordered by archive slot.
func (r *Registry) HeadsBySlot() []*Head {
	heads := slices.Collect(maps.Values(r.canonical))
	slices.SortFunc(heads, func(a, b *Head) int {
		return cmp.Or(cmp.Compare(a.Slot, b.Slot), intern.Compare(a.Name, b.Name))
	})
	return heads
}

// TotalSize sums Size over all live heads.
func (r *Registry) TotalSize() int {
	total := 0
	for _, h := range r.canonical {
		total += h.Size
	}
	return total
}

// Merge folds the head named sub into base. If base has no head, the head of
// sub is renamed to base. The resolution index is not updated. It reports
// whether sub existed.
func (r *Registry) Merge(base, sub string) bool {
	baseName, subName := intern.Make(base), intern.Make(sub)
	hs := r.canonical[subName]
	if hs == nil {
		return false
	}
	delete(r.canonical, subName)

	hb := r.canonical[baseName]
	if hb == nil {
		hs.Name = baseName
		r.canonical[baseName] = hs
		return true
	}

	hb.Subtiles = append(hb.Subtiles, hs.Subtiles...)
	hb.Size += hs.Size
	hs.Subtiles = nil
	hs.Buffer = nil
	return true
}

// RebuildResolution recomputes the resolution index from the live heads.
func (r *Registry) RebuildResolution() {
	r.resolution = make(map[intern.Name]*Head, len(r.canonical))
	for _, h := range r.canonical {
		for _, sub := range h.Subtiles {
			r.resolution[sub] = h
		}
	}
	for name, h := range r.canonical {
		// a renamed head may carry a name that an earlier head claimed and
		// merged away; features sized under that name belong to the claimer
		if _, claimed := r.resolution[name]; !claimed {
			r.resolution[name] = h
		}
	}
}

func (r *Registry) add(h *Head) {
	r.canonical[h.Name] = h
}
