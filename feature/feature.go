// Package feature provides the map feature records the tiler distributes.
package feature

import (
	"encoding/binary"
	"errors"
	"fmt"
	"iter"

	"github.com/eak1mov/go-quadtiles/geom"
)

// Type classifies a feature. Values at or above TypeArea are areas.
type Type uint32

const (
	TypePoint          Type = 0x00010000
	TypeSubmap         Type = 0x00020000
	TypeLine           Type = 0x80000000
	TypeArea           Type = 0xc0000000
	TypePolyWaterTiled Type = 0xc0000200
)

func (t Type) IsArea() bool {
	return t >= TypeArea
}

// Sliceable reports whether features of this type are cut into fragments
// when they land on a coarse tile. Pre-tiled water is never cut again.
func (t Type) Sliceable() bool {
	return t.IsArea() && t != TypePolyWaterTiled
}

// Feature is an opaque serialized map feature.
type Feature interface {
	Extent() geom.Rect
	Type() Type
	ID() uint64
	// Len returns the size of the serialized form, a multiple of 4 bytes.
	Len() int
	// Bytes returns the serialized form written into a tile.
	Bytes() []byte
}

// Source is a replayable stream of features. The tiler walks it once per
// pass, so every walk must yield the same features in the same order.
type Source interface {
	VisitFeatures(visitor func(Feature) error) error
}

// Slice is an in-memory Source.
type Slice []Feature

func (s Slice) VisitFeatures(visitor func(Feature) error) error {
	for _, f := range s {
		if err := visitor(f); err != nil {
			return err
		}
	}
	return nil
}

var errVisitCancelled = errors.New("visit cancelled")

// IterFeatures returns an iterator over the features of s.
// Iteration may panic on unrecoverable errors.
func IterFeatures(s Source) iter.Seq[Feature] {
	return func(yield func(Feature) bool) {
		err := s.VisitFeatures(func(f Feature) error {
			if !yield(f) {
				return errVisitCancelled
			}
			return nil
		})
		if err != nil && err != errVisitCancelled {
			panic(err)
		}
	}
}

// Slicer cuts a feature that is too large for one tile into fragments of at
// most targetDepth letters and hands each fragment with its address to emit.
type Slicer interface {
	Slice(f Feature, address string, targetDepth int, emit func(address string, fragment Feature) error) error
}

var ErrInvalidRecord = errors.New("quadtiles: invalid record")

// Record is one framed entry of a tile buffer. On the wire a record is a
// sequence of little-endian 32-bit words: the number of words that follow,
// the type, then the payload.
type Record struct {
	Type    Type
	Payload []byte
}

// Frame encodes a record. The payload length must be a multiple of 4.
func Frame(t Type, payload []byte) []byte {
	buffer := make([]byte, 0, 8+len(payload))
	buffer = binary.LittleEndian.AppendUint32(buffer, uint32(1+len(payload)/4))
	buffer = binary.LittleEndian.AppendUint32(buffer, uint32(t))
	return append(buffer, payload...)
}

// SplitRecords decodes the records of a tile buffer.
func SplitRecords(data []byte) ([]Record, error) {
	records := make([]Record, 0)
	for len(data) > 0 {
		if len(data) < 8 {
			return nil, fmt.Errorf("%w: short header (%d bytes)", ErrInvalidRecord, len(data))
		}
		size := 4 * (int(binary.LittleEndian.Uint32(data)) + 1)
		if size < 8 || size > len(data) {
			return nil, fmt.Errorf("%w: length %d bytes, %d available", ErrInvalidRecord, size, len(data))
		}
		records = append(records, Record{
			Type:    Type(binary.LittleEndian.Uint32(data[4:])),
			Payload: data[8:size],
		})
		data = data[size:]
	}
	return records, nil
}

// Item is a feature with a coordinate list. Its payload holds the number of
// coordinate words, the coordinates and the 64-bit id.
type Item struct {
	ItemType Type
	ItemID   uint64
	Coords   []geom.Coord
}

func (i *Item) Extent() geom.Rect {
	r, _ := geom.Bound(i.Coords)
	return r
}

func (i *Item) Type() Type { return i.ItemType }

func (i *Item) ID() uint64 { return i.ItemID }

func (i *Item) Len() int {
	return 8 + 4 + 8*len(i.Coords) + 8
}

func (i *Item) Bytes() []byte {
	payload := make([]byte, 0, 4+8*len(i.Coords)+8)
	payload = binary.LittleEndian.AppendUint32(payload, uint32(2*len(i.Coords)))
	for _, c := range i.Coords {
		payload = binary.LittleEndian.AppendUint32(payload, uint32(c.X))
		payload = binary.LittleEndian.AppendUint32(payload, uint32(c.Y))
	}
	payload = binary.LittleEndian.AppendUint64(payload, i.ItemID)
	return Frame(i.ItemType, payload)
}

// ParseItem decodes a record written by Item.Bytes.
func ParseItem(record Record) (*Item, error) {
	payload := record.Payload
	if len(payload) < 12 {
		return nil, fmt.Errorf("%w: item payload of %d bytes", ErrInvalidRecord, len(payload))
	}
	coordWords := int(binary.LittleEndian.Uint32(payload))
	if coordWords%2 != 0 || len(payload) != 4+4*coordWords+8 {
		return nil, fmt.Errorf("%w: %d coordinate words in %d bytes", ErrInvalidRecord, coordWords, len(payload))
	}

	item := &Item{ItemType: record.Type, Coords: make([]geom.Coord, coordWords/2)}
	offset := 4
	for j := range item.Coords {
		item.Coords[j].X = int32(binary.LittleEndian.Uint32(payload[offset:]))
		item.Coords[j].Y = int32(binary.LittleEndian.Uint32(payload[offset+4:]))
		offset += 8
	}
	item.ItemID = binary.LittleEndian.Uint64(payload[offset:])
	return item, nil
}
