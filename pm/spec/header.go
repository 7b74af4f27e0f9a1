package spec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	HeaderLength = 127

	// The root directory must end within the first 16 KiB of the archive.
	RootDirEnd       = 16 << 10
	RootDirOffset    = HeaderLength
	RootDirMaxLength = RootDirEnd - HeaderLength

	magic   = "PMTiles"
	version = 3
)

var ErrInvalidHeader = errors.New("quadtiles: invalid pmtiles header")
var ErrInvalidVersion = errors.New("quadtiles: unsupported pmtiles version")

// Section is a byte range of the archive.
type Section struct {
	Offset uint64
	Length uint64
}

// End returns the offset right after the section.
func (s Section) End() uint64 {
	return s.Offset + s.Length
}

// Header is the fixed part of a slot archive. Tile type is always unknown
// and the archive is always clustered, so neither is kept.
type Header struct {
	Root     Section
	Metadata Section
	Leaves   Section
	Data     Section

	// Members is the number of slots with data, Entries the number of
	// directory entries after run-length compaction and Contents the
	// number of distinct blobs.
	Members  uint64
	Entries  uint64
	Contents uint64

	InternalCompression Compression
	TileCompression     Compression

	MaxZoom uint8
}

// Bounds of every slot archive: the web mercator extent in 1e-7 degrees.
const (
	minLonE7 = -180_0000000
	minLatE7 = -85_0511288
	maxLonE7 = 180_0000000
	maxLatE7 = 85_0511288
)

// AppendHeader appends the HeaderLength bytes encoding h to buffer.
func AppendHeader(buffer []byte, h Header) []byte {
	le := binary.LittleEndian
	buffer = append(buffer, magic...)
	buffer = append(buffer, version)
	for _, s := range []Section{h.Root, h.Metadata, h.Leaves, h.Data} {
		buffer = le.AppendUint64(buffer, s.Offset)
		buffer = le.AppendUint64(buffer, s.Length)
	}
	buffer = le.AppendUint64(buffer, h.Members)
	buffer = le.AppendUint64(buffer, h.Entries)
	buffer = le.AppendUint64(buffer, h.Contents)
	buffer = append(buffer, 1, byte(h.InternalCompression), byte(h.TileCompression), 0)
	buffer = append(buffer, 0, h.MaxZoom)
	for _, v := range []int32{minLonE7, minLatE7, maxLonE7, maxLatE7} {
		buffer = le.AppendUint32(buffer, uint32(v))
	}
	// Center zoom and position.
	buffer = append(buffer, 0)
	buffer = le.AppendUint32(buffer, 0)
	buffer = le.AppendUint32(buffer, 0)
	return buffer
}

// ParseHeader decodes the header at the start of data. Fields a slot
// archive does not set are skipped.
func ParseHeader(data []byte) (Header, error) {
	var h Header
	if len(data) < HeaderLength {
		return h, fmt.Errorf("%w: %w", ErrInvalidHeader, io.ErrUnexpectedEOF)
	}
	if string(data[:len(magic)]) != magic {
		return h, ErrInvalidHeader
	}
	if data[len(magic)] != version {
		return h, fmt.Errorf("%w: %d", ErrInvalidVersion, data[len(magic)])
	}

	le := binary.LittleEndian
	pos := 8
	next := func() uint64 {
		v := le.Uint64(data[pos:])
		pos += 8
		return v
	}
	for _, s := range []*Section{&h.Root, &h.Metadata, &h.Leaves, &h.Data} {
		s.Offset = next()
		s.Length = next()
	}
	h.Members = next()
	h.Entries = next()
	h.Contents = next()
	h.InternalCompression = Compression(data[97])
	h.TileCompression = Compression(data[98])
	h.MaxZoom = data[101]
	return h, nil
}
