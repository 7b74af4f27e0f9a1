// Package pm stores tile members in a PMTiles v3 archive. Slot n is stored
// under tile code n, so members are laid out along the Hilbert enumeration of
// the XYZ pyramid. Member names are kept in the JSON metadata.
package pm

import (
	"math/bits"

	"github.com/eak1mov/go-quadtiles/tile"
	"github.com/google/hilbert"
)

// Metadata is the JSON document stored in the metadata section.
type Metadata struct {
	Attributes map[string]string `json:"attributes,omitempty"`
	Members    []MemberInfo      `json:"members"`
}

type MemberInfo struct {
	Slot int    `json:"slot"`
	Name string `json:"name"`
}

// Location is the position of a member's data in the archive file.
type Location struct {
	Offset uint64
	Length uint64
}

// pyramidSize returns the number of tiles in zoom levels below z.
func pyramidSize(z int) int {
	return (1<<(2*z) - 1) / 3
}

// TileID returns the XYZ tile a slot is stored at: slots fill zoom levels in
// order, each along its Hilbert curve.
func TileID(slot int) tile.ID {
	z := (bits.Len64(3*uint64(slot)+1) - 1) / 2
	h, _ := hilbert.NewHilbert(1 << z)
	x, y, _ := h.Map(slot - pyramidSize(z))
	return tile.ID{X: uint32(x), Y: uint32(y), Z: uint32(z)}
}

// Slot returns the slot stored at an XYZ tile.
func Slot(tileID tile.ID) int {
	h, _ := hilbert.NewHilbert(1 << tileID.Z)
	d, _ := h.MapInverse(int(tileID.X), int(tileID.Y))
	return pyramidSize(int(tileID.Z)) + d
}
