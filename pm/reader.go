package pm

import (
	"encoding/json"
	"os"

	"github.com/eak1mov/go-quadtiles/pm/spec"
	"github.com/eak1mov/go-quadtiles/tile"
)

type FileAccessFunc = func(offset, length uint64) ([]byte, error)

// Reader implements tile.Reader and tile.Visitor interfaces for PMTiles format.
type Reader struct {
	fileAccess FileAccessFunc
	fileCloser func() error
	header     spec.Header
	names      map[int]string
}

// NewFileReader opens a PMTiles file. The returned Reader must be closed.
func NewFileReader(filePath string) (*Reader, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	fileAccess := func(offset uint64, length uint64) ([]byte, error) {
		buffer := make([]byte, length)
		if _, err := file.ReadAt(buffer, int64(offset)); err != nil {
			return nil, err
		}
		return buffer, nil
	}
	r, err := NewReader(fileAccess)
	if err != nil {
		file.Close()
		return nil, err
	}
	r.fileCloser = file.Close
	return r, nil
}

// NewReader reads a PMTiles archive through fileAccess.
func NewReader(fileAccess FileAccessFunc) (*Reader, error) {
	headerData, err := fileAccess(0, spec.HeaderLength)
	if err != nil {
		return nil, err
	}
	header, err := spec.ParseHeader(headerData)
	if err != nil {
		return nil, err
	}
	r := &Reader{
		fileAccess: fileAccess,
		fileCloser: func() error { return nil },
		header:     header,
	}

	metadata, err := r.ReadMetadata()
	if err != nil {
		return nil, err
	}
	r.names = make(map[int]string, len(metadata.Members))
	for _, m := range metadata.Members {
		r.names[m.Slot] = m.Name
	}
	return r, nil
}

func (r *Reader) Close() error {
	return r.fileCloser()
}

func (r *Reader) Header() spec.Header {
	return r.header
}

func (r *Reader) ReadMetadata() (Metadata, error) {
	var metadata Metadata
	if r.header.Metadata.Length == 0 {
		return metadata, nil
	}
	data, err := r.readSection(r.header.Metadata)
	if err != nil {
		return metadata, err
	}
	data, err = spec.Decompress(data, r.header.InternalCompression)
	if err != nil {
		return metadata, err
	}
	err = json.Unmarshal(data, &metadata)
	return metadata, err
}

// Name returns the member name recorded for slot.
func (r *Reader) Name(slot int) (string, bool) {
	name, ok := r.names[slot]
	return name, ok
}

func (r *Reader) readSection(s spec.Section) ([]byte, error) {
	return r.fileAccess(s.Offset, s.Length)
}

func (r *Reader) readDirectory(s spec.Section) ([]spec.Entry, error) {
	data, err := r.readSection(s)
	if err != nil {
		return nil, err
	}
	data, err = spec.Decompress(data, r.header.InternalCompression)
	if err != nil {
		return nil, err
	}
	return spec.ParseDirectory(data)
}

// leaf returns the section of the leaf directory entry points to.
func (r *Reader) leaf(entry spec.Entry) spec.Section {
	return spec.Section{Offset: r.header.Leaves.Offset + entry.Offset, Length: uint64(entry.Length)}
}

// location returns where the data of a data entry is stored.
func (r *Reader) location(entry spec.Entry) Location {
	return Location{Offset: r.header.Data.Offset + entry.Offset, Length: uint64(entry.Length)}
}

// ReadLocation returns where the data of slot is stored, a zero Location if
// there is none.
func (r *Reader) ReadLocation(slot int) (Location, error) {
	if slot < 0 {
		return Location{}, nil
	}
	section := r.header.Root
	for {
		entries, err := r.readDirectory(section)
		if err != nil {
			return Location{}, err
		}
		entry, found := spec.Find(entries, uint64(slot))
		if !found {
			return Location{}, nil
		}
		if !entry.IsLeaf() {
			return r.location(entry), nil
		}
		section = r.leaf(entry)
	}
}

func (r *Reader) readData(location Location) ([]byte, error) {
	if location.Length == 0 {
		return make([]byte, 0), nil
	}
	data, err := r.fileAccess(location.Offset, location.Length)
	if err != nil {
		return nil, err
	}
	return spec.Decompress(data, r.header.TileCompression)
}

func (r *Reader) ReadMember(slot int) ([]byte, error) {
	location, err := r.ReadLocation(slot)
	if err != nil {
		return nil, err
	}
	return r.readData(location)
}

// ReadTile reads the member stored at an XYZ tile.
func (r *Reader) ReadTile(tileID tile.ID) ([]byte, error) {
	return r.ReadMember(Slot(tileID))
}

// VisitLocations visits the locations of all stored members in slot order.
func (r *Reader) VisitLocations(visitor func(int, Location) error) error {
	var traverse func(spec.Section) error
	traverse = func(section spec.Section) error {
		entries, err := r.readDirectory(section)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			if entry.IsLeaf() {
				if err := traverse(r.leaf(entry)); err != nil {
					return err
				}
				continue
			}
			for i := range entry.RunLength {
				if err := visitor(int(entry.Slot)+int(i), r.location(entry)); err != nil {
					return err
				}
			}
		}
		return nil
	}
	return traverse(r.header.Root)
}

// VisitMembers visits all members with data in slot order.
func (r *Reader) VisitMembers(visitor func(tile.Member, []byte) error) error {
	return r.VisitLocations(func(slot int, location Location) error {
		data, err := r.readData(location)
		if err != nil {
			return err
		}
		return visitor(tile.Member{Slot: slot, Name: r.names[slot]}, data)
	})
}
