package internal

import (
	"fmt"
	"maps"
	"slices"

	"github.com/eak1mov/go-quadtiles/tile"
)

// MemArchive is an in-memory tile.Writer, tile.Reader and tile.Visitor.
type MemArchive struct {
	tile.Counter
	Members   map[int]tile.Member
	Data      map[int][]byte
	Finalized bool
}

func NewMemArchive() *MemArchive {
	return &MemArchive{
		Members: make(map[int]tile.Member),
		Data:    make(map[int][]byte),
	}
}

func (a *MemArchive) WriteMember(slot int, name string, data []byte) error {
	if _, ok := a.Members[slot]; ok {
		return fmt.Errorf("slot %d written twice", slot)
	}
	a.Members[slot] = tile.Member{Slot: slot, Name: name}
	a.Data[slot] = slices.Clone(data)
	return nil
}

func (a *MemArchive) Finalize() error {
	a.Finalized = true
	return nil
}

func (a *MemArchive) ReadMember(slot int) ([]byte, error) {
	return a.Data[slot], nil
}

func (a *MemArchive) VisitMembers(visitor func(tile.Member, []byte) error) error {
	for _, slot := range slices.Sorted(maps.Keys(a.Members)) {
		if err := visitor(a.Members[slot], a.Data[slot]); err != nil {
			return err
		}
	}
	return nil
}

// ByName returns the data of all members keyed by member name.
func (a *MemArchive) ByName() map[string][]byte {
	result := make(map[string][]byte, len(a.Members))
	for slot, m := range a.Members {
		result[m.Name] = a.Data[slot]
	}
	return result
}
