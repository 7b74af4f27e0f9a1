package zipfile

import (
	"io"
	"strconv"

	"github.com/eak1mov/go-quadtiles/tile"
	"github.com/klauspost/compress/zip"
)

// Reader implements tile.Reader and tile.Visitor interfaces for zip archives.
type Reader struct {
	zip   *zip.ReadCloser
	slots map[int]*zip.File
	order []int
}

// NewReader opens a zip archive. Entries without a slot comment get their
// position as slot. The returned Reader must be closed.
func NewReader(filePath string) (*Reader, error) {
	rc, err := zip.OpenReader(filePath)
	if err != nil {
		return nil, err
	}

	r := &Reader{zip: rc, slots: make(map[int]*zip.File, len(rc.File))}
	for i, f := range rc.File {
		slot, err := strconv.Atoi(f.Comment)
		if err != nil {
			slot = i
		}
		r.slots[slot] = f
		r.order = append(r.order, slot)
	}
	return r, nil
}

func (r *Reader) Close() error {
	return r.zip.Close()
}

func (r *Reader) Comment() string {
	return r.zip.Comment
}

func readFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data := make([]byte, f.UncompressedSize64)
	if _, err := io.ReadFull(rc, data); err != nil {
		return nil, err
	}
	return data, nil
}

func (r *Reader) ReadMember(slot int) ([]byte, error) {
	f, ok := r.slots[slot]
	if !ok {
		return make([]byte, 0), nil
	}
	return readFile(f)
}

// VisitMembers visits all entries in archive order.
func (r *Reader) VisitMembers(visitor func(tile.Member, []byte) error) error {
	for _, slot := range r.order {
		f := r.slots[slot]
		data, err := readFile(f)
		if err != nil {
			return err
		}
		if err := visitor(tile.Member{Slot: slot, Name: f.Name}, data); err != nil {
			return err
		}
	}
	return nil
}
