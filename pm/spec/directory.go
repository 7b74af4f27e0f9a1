package spec

import (
	"cmp"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"slices"
)

var ErrInvalidDirectory = errors.New("quadtiles: invalid pmtiles directory")

// Entry maps a run of slots to one stored blob. A RunLength of zero points to
// a leaf directory covering the slots from Slot on.
type Entry struct {
	Slot      uint64
	Offset    uint64
	Length    uint32
	RunLength uint32
}

// IsLeaf reports whether the entry points to a leaf directory.
func (e Entry) IsLeaf() bool {
	return e.RunLength == 0
}

// AppendDirectory appends entries in the column layout of the format: slot
// deltas, run lengths, lengths, then offsets where 0 means "right after the
// previous entry".
func AppendDirectory(buffer []byte, entries []Entry) []byte {
	buffer = binary.AppendUvarint(buffer, uint64(len(entries)))
	var last uint64
	for _, e := range entries {
		buffer = binary.AppendUvarint(buffer, e.Slot-last)
		last = e.Slot
	}
	for _, e := range entries {
		buffer = binary.AppendUvarint(buffer, uint64(e.RunLength))
	}
	for _, e := range entries {
		buffer = binary.AppendUvarint(buffer, uint64(e.Length))
	}
	for i, e := range entries {
		if i > 0 && e.Offset == entries[i-1].Offset+uint64(entries[i-1].Length) {
			buffer = append(buffer, 0)
			continue
		}
		buffer = binary.AppendUvarint(buffer, e.Offset+1)
	}
	return buffer
}

type uvarintReader struct {
	data []byte
	err  error
}

func (r *uvarintReader) next() uint64 {
	if r.err != nil {
		return 0
	}
	v, n := binary.Uvarint(r.data)
	if n <= 0 {
		r.err = fmt.Errorf("%w: truncated varint", ErrInvalidDirectory)
		return 0
	}
	r.data = r.data[n:]
	return v
}

// ParseDirectory decodes a directory written by AppendDirectory.
func ParseDirectory(data []byte) ([]Entry, error) {
	r := uvarintReader{data: data}
	count := r.next()
	if r.err != nil {
		return nil, r.err
	}
	// Every entry takes at least four bytes.
	if count > uint64(len(r.data))/4 {
		return nil, fmt.Errorf("%w: %d entries in %d bytes", ErrInvalidDirectory, count, len(r.data))
	}

	entries := make([]Entry, count)
	var slot uint64
	for i := range entries {
		slot += r.next()
		entries[i].Slot = slot
	}
	for i := range entries {
		entries[i].RunLength = uint32(r.next())
	}
	for i := range entries {
		entries[i].Length = uint32(r.next())
	}
	for i := range entries {
		v := r.next()
		switch {
		case v > 0:
			entries[i].Offset = v - 1
		case i > 0:
			entries[i].Offset = entries[i-1].Offset + uint64(entries[i-1].Length)
		default:
			r.err = fmt.Errorf("%w: first entry has no offset", ErrInvalidDirectory)
		}
	}
	if r.err != nil {
		return nil, r.err
	}
	return entries, nil
}

// Compact merges entries of consecutive slots sharing one blob into runs.
// Entries must be sorted by slot.
func Compact(entries []Entry) []Entry {
	result := entries[:0]
	for _, e := range entries {
		if n := len(result); n > 0 {
			last := &result[n-1]
			if last.Offset == e.Offset && last.Slot+uint64(last.RunLength) == e.Slot {
				last.RunLength += e.RunLength
				continue
			}
		}
		result = append(result, e)
	}
	return result
}

// Find returns the entry covering slot: either a data entry whose run
// contains it or the leaf entry to continue the search in.
func Find(entries []Entry, slot uint64) (Entry, bool) {
	i, found := slices.BinarySearchFunc(entries, slot, func(e Entry, s uint64) int {
		return cmp.Compare(e.Slot, s)
	})
	if !found {
		if i == 0 {
			return Entry{}, false
		}
		i--
	}
	e := entries[i]
	if e.IsLeaf() || slot < e.Slot+uint64(e.RunLength) {
		return e, true
	}
	return Entry{}, false
}

// Directories is the encoded directory tree of an archive.
type Directories struct {
	Root   []byte
	Leaves []byte
}

// BuildDirectories encodes entries as a root directory. When the root does
// not fit into RootDirMaxLength the entries are split into leaf directories
// and the root lists the leaves; the leaf size grows until it does.
func BuildDirectories(entries []Entry, compression Compression) (Directories, error) {
	var dirs Directories
	root, err := Compress(AppendDirectory(nil, entries), compression)
	if err != nil || len(root) <= RootDirMaxLength {
		dirs.Root = root
		return dirs, err
	}

	leafSize := max(4096, int(math.Sqrt(float64(len(entries)))))
	for {
		var leafEntries []Entry
		dirs.Leaves = dirs.Leaves[:0]
		for chunk := range slices.Chunk(entries, leafSize) {
			leaf, err := Compress(AppendDirectory(nil, chunk), compression)
			if err != nil {
				return dirs, err
			}
			leafEntries = append(leafEntries, Entry{
				Slot:   chunk[0].Slot,
				Offset: uint64(len(dirs.Leaves)),
				Length: uint32(len(leaf)),
			})
			dirs.Leaves = append(dirs.Leaves, leaf...)
		}

		dirs.Root, err = Compress(AppendDirectory(nil, leafEntries), compression)
		if err != nil || len(dirs.Root) <= RootDirMaxLength {
			return dirs, err
		}
		leafSize += leafSize / 2
	}
}
