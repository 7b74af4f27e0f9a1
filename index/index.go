// Package index provides the submap records a reader uses to find tiles
// by area and level of detail without opening every tile.
package index

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/eak1mov/go-quadtiles/feature"
	"github.com/eak1mov/go-quadtiles/geom"
)

// MaxOrder is the highest level of detail.
const MaxOrder = 255

// Item is a single submap record: the storage extent of a tile, the range of
// orders it is visible at and the archive slot holding it.
// It is designed to be easily portable to other languages and utilities.
type Item struct {
	MinX     int32
	MinY     int32
	MaxX     int32
	MaxY     int32
	MinOrder uint16
	MaxOrder uint16
	Slot     uint32
}

// ItemSize is the encoded size of an Item.
var ItemSize = binary.Size(Item{})

func NewItem(bbox geom.Rect, minOrder, maxOrder, slot int) Item {
	return Item{
		MinX:     bbox.L.X,
		MinY:     bbox.L.Y,
		MaxX:     bbox.H.X,
		MaxY:     bbox.H.Y,
		MinOrder: uint16(minOrder),
		MaxOrder: uint16(maxOrder),
		Slot:     uint32(slot),
	}
}

func (i Item) BBox() geom.Rect {
	return geom.Rect{
		L: geom.Coord{X: i.MinX, Y: i.MinY},
		H: geom.Coord{X: i.MaxX, Y: i.MaxY},
	}
}

// Visible reports whether the record overlaps r at the given order.
func (i Item) Visible(r geom.Rect, order int) bool {
	if order < int(i.MinOrder) || order > int(i.MaxOrder) {
		return false
	}
	return r.L.X <= i.MaxX && r.H.X >= i.MinX && r.L.Y <= i.MaxY && r.H.Y >= i.MinY
}

func (i Item) MarshalBinary() ([]byte, error) {
	return binary.Append(make([]byte, 0, ItemSize), binary.LittleEndian, i)
}

// Record returns the item framed as a feature.TypeSubmap tile record.
func (i Item) Record() []byte {
	data, _ := i.MarshalBinary()
	return feature.Frame(feature.TypeSubmap, data)
}

// RecordSize is the size of a framed item.
var RecordSize = 8 + ItemSize

// ParseRecord decodes an item from a feature.TypeSubmap record.
func ParseRecord(record feature.Record) (Item, error) {
	if record.Type != feature.TypeSubmap || len(record.Payload) != ItemSize {
		return Item{}, fmt.Errorf("%w: type %#x, %d bytes", feature.ErrInvalidRecord, record.Type, len(record.Payload))
	}
	var item Item
	_, err := binary.Decode(record.Payload, binary.LittleEndian, &item)
	return item, err
}

// WriteRecords writes items as framed records, the layout of index tiles and
// of the aggregate record stream.
func WriteRecords(items []Item, writer io.Writer) error {
	for _, item := range items {
		if _, err := writer.Write(item.Record()); err != nil {
			return err
		}
	}
	return nil
}

// ReadRecords returns the submap records of a tile buffer. Other records are
// skipped.
func ReadRecords(data []byte) ([]Item, error) {
	records, err := feature.SplitRecords(data)
	if err != nil {
		return nil, err
	}
	items := make([]Item, 0)
	for _, record := range records {
		if record.Type != feature.TypeSubmap {
			continue
		}
		item, err := ParseRecord(record)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}
