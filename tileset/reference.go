package tileset

import (
	"bytes"
	"encoding/binary"
	"io"
)

// Reference locates one written feature: its archive slot and its offset in
// the tile counted in record units.
type Reference struct {
	Slot   uint32
	Offset uint32
}

// ReferenceSize is the encoded size of a Reference.
const ReferenceSize = 8

// References writes one Reference per written feature. Features of inactive
// tiles leave a gap so that positions stay aligned with the feature stream.
type References struct {
	w    io.WriteSeeker
	unit int
}

func NewReferences(w io.WriteSeeker, unit int) *References {
	return &References{w: w, unit: unit}
}

func (r *References) put(slot, used int) error {
	ref := Reference{Slot: uint32(slot), Offset: uint32(used / r.unit)}
	return binary.Write(r.w, binary.LittleEndian, ref)
}

func (r *References) skip() error {
	_, err := r.w.Seek(ReferenceSize, io.SeekCurrent)
	return err
}

// Rewind moves back to the first record before another writing pass.
func (r *References) Rewind() error {
	_, err := r.w.Seek(0, io.SeekStart)
	return err
}

func ReadReferences(data []byte) ([]Reference, error) {
	count := len(data) / ReferenceSize
	refs := make([]Reference, count)

	err := binary.Read(bytes.NewReader(data), binary.LittleEndian, refs)
	if err != nil {
		return nil, err
	}

	return refs, nil
}
