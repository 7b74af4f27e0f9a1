// Package tileset keeps the aggregate records of output tiles, merges
// undersized tiles and reads and writes the tile directory manifest.
package tileset

import (
	"github.com/eak1mov/go-quadtiles/intern"
)

// Activity tells whether a head takes part in the current writing batch.
type Activity uint8

const (
	Inactive Activity = iota
	Active
)

// Head is the aggregate record of one output tile.
type Head struct {
	// Name is the tile's current address.
	Name intern.Name
	// Subtiles lists every address folded into this tile, initially Name itself.
	Subtiles []intern.Name
	// Size is the number of bytes needed by all features of the tile.
	Size int
	// Used is the number of bytes written so far.
	Used int
	// Slot is the archive slot assigned when the directory is planned.
	Slot     int
	Activity Activity
	Buffer   []byte
}

func newHead(name intern.Name) *Head {
	return &Head{Name: name, Subtiles: []intern.Name{name}}
}

func (h *Head) String() string {
	return h.Name.Value()
}

// Allocate prepares an empty buffer of Size bytes and activates the head.
func (h *Head) Allocate() {
	h.Buffer = make([]byte, h.Size)
	h.Used = 0
	h.Activity = Active
}

// Release drops the buffer and deactivates the head.
func (h *Head) Release() {
	h.Buffer = nil
	h.Activity = Inactive
}

// SubtileNames returns the string values of Subtiles.
func (h *Head) SubtileNames() []string {
	return intern.Strings(h.Subtiles)
}
