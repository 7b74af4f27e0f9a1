// Package tile provides the archive interfaces tiles are persisted through.
package tile

import "fmt"

// ID represents tile coordinates in the XYZ scheme (Tiled web map).
// Archives that store members in an XYZ tileset place slot n at the n-th tile
// of the Hilbert enumeration.
type ID struct {
	X uint32
	Y uint32
	Z uint32
}

func (t ID) Valid() bool {
	return t.Z < 32 && t.X < (1<<t.Z) && t.Y < (1<<t.Z)
}

// RootName is the member name of the tile with an empty address.
const RootName = "index"

// Member identifies one archive entry.
type Member struct {
	Slot int
	Name string
}

func (m Member) String() string {
	return fmt.Sprintf("%d:%s", m.Slot, m.Name)
}

// MemberName returns the archive name of a tile address.
func MemberName(address string) string {
	if address == "" {
		return RootName
	}
	return address
}

// SlotAllocator hands out archive slot numbers in increasing order.
type SlotAllocator interface {
	// AllocateSlot returns the next slot and advances the counter.
	AllocateSlot() int

	// CurrentSlot returns the slot the next AllocateSlot call will return.
	CurrentSlot() int
}

// Counter is a SlotAllocator starting at zero. Archive writers embed it.
type Counter struct {
	next int
}

func (c *Counter) AllocateSlot() int {
	slot := c.next
	c.next++
	return slot
}

func (c *Counter) CurrentSlot() int {
	return c.next
}

// Writer defines an interface for persisting byte buffers under archive slots.
type Writer interface {
	SlotAllocator

	// WriteMember stores a single member.
	WriteMember(slot int, name string, data []byte) error

	// Finalize completes the writing process: flushes buffers, writes header and indices.
	// It must be called before closing the Writer.
	Finalize() error
}

type Reader interface {
	// ReadMember reads a single member by slot.
	// If the member does not exist, it returns an empty slice with no error.
	ReadMember(slot int) ([]byte, error)
}

type Visitor interface {
	// VisitMembers visits all members of the archive, calling the visitor for each.
	// Order of members, upfront cpu and memory consumption are implementation-defined.
	VisitMembers(visitor func(Member, []byte) error) error
}
