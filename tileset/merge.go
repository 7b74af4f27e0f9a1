package tileset

import (
	"log/slog"

	"github.com/eak1mov/go-quadtiles/quadtree"
)

// DefaultBudget is the largest tile size merges may produce, exclusive.
const DefaultBudget = 65536

// Merger consolidates undersized sibling tiles into their parent address.
type Merger struct {
	// Budget bounds merged tile sizes; DefaultBudget if zero.
	Budget int
	// Suffix is the tileset namespace appended after quadtree letters.
	Suffix string
	Logger *slog.Logger
	// OnPass, if set, is called after every pass with the number of tiles
	// visited and merges done.
	OnPass func(tiles, merged int)
}

func (m *Merger) budget() int {
	if m.Budget == 0 {
		return DefaultBudget
	}
	return m.Budget
}

func (m *Merger) logger() *slog.Logger {
	if m.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return m.Logger
}

// Run repeats passes until one merges nothing. It returns the number of
// passes and the total number of merges.
func (m *Merger) Run(r *Registry) (passes, merged int) {
	for {
		n := m.Pass(r)
		passes++
		merged += n
		if n == 0 {
			return passes, merged
		}
	}
}

// Pass walks the live tiles deepest first. A whole quadrant is folded into
// its parent when all five sizes together stay under budget; otherwise the
// smallest siblings are folded one by one while the parent stays under
// budget. It returns the number of merges.
func (m *Merger) Pass(r *Registry) int {
	budget := m.budget()
	logger := m.logger()

	logger.Debug("quadtiles: sorting tiles", "tiles", r.Len())
	names := r.Live()
	logger.Debug("quadtiles: sorting tiles done", "tiles", len(names))

	merged := 0
	var subtiles [4]string
	var size [5]int
	for i := len(names) - 1; i >= 0; i-- {
		name := names[i]
		base, ok := quadtree.Parent(name, m.Suffix)
		if !ok {
			continue
		}

		sizeAll := 0
		for j := range subtiles {
			subtiles[j] = quadtree.WithLast(name, 'a'+byte(j))
			size[j] = r.SizeOf(subtiles[j])
			sizeAll += size[j]
		}
		size[4] = r.SizeOf(base)
		sizeAll += size[4]

		if sizeAll < budget && sizeAll > 0 && sizeAll != size[4] {
			for _, sub := range subtiles {
				if r.Merge(base, sub) {
					merged++
				}
			}
			continue
		}

		for {
			sizeMin, iMin := sizeAll, -1
			for j := range subtiles {
				if size[j] != 0 && size[j] < sizeMin {
					sizeMin, iMin = size[j], j
				}
			}
			if iMin == -1 || size[4]+sizeMin >= budget {
				break
			}
			if r.Merge(base, subtiles[iMin]) {
				merged++
			}
			size[4] += size[iMin]
			size[iMin] = 0
		}
	}

	logger.Debug("quadtiles: merged tiles", "tiles", len(names), "merged", merged)
	if m.OnPass != nil {
		m.OnPass(len(names), merged)
	}
	return merged
}
