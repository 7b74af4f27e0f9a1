package tileset

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/eak1mov/go-quadtiles/intern"
	"github.com/eak1mov/go-quadtiles/tile"
)

var ErrDirectorySyntax = errors.New("quadtiles: directory syntax error")

// DirEntry is one line of the tile directory: a tile, its size and the
// addresses folded into it.
type DirEntry struct {
	Name     string
	Size     int
	Subtiles []string
}

// Entry returns the directory entry of h.
func (h *Head) Entry() DirEntry {
	return DirEntry{Name: h.Name.Value(), Size: h.Size, Subtiles: h.SubtileNames()}
}

// AppendDirectoryLine appends "name:size:sub1:sub2:...\n" to buffer.
// The empty name is written as tile.RootName.
func AppendDirectoryLine(buffer []byte, entry DirEntry) []byte {
	buffer = append(buffer, tile.MemberName(entry.Name)...)
	buffer = append(buffer, ':')
	buffer = strconv.AppendInt(buffer, int64(entry.Size), 10)
	for _, sub := range entry.Subtiles {
		buffer = append(buffer, ':')
		buffer = append(buffer, sub...)
	}
	return append(buffer, '\n')
}

func WriteDirectory(entries []DirEntry, writer io.Writer) error {
	buffer := make([]byte, 0, 256)
	for _, entry := range entries {
		buffer = AppendDirectoryLine(buffer[:0], entry)
		if _, err := writer.Write(buffer); err != nil {
			return err
		}
	}
	return nil
}

// ReadDirectory parses a tile directory. Malformed lines are reported as
// errors wrapping ErrDirectorySyntax, joined together and returned along with
// every entry that could be recovered. Any other error aborts the read.
func ReadDirectory(reader io.Reader) ([]DirEntry, error) {
	br := bufio.NewReader(reader)
	entries := make([]DirEntry, 0)
	var warnings []error

	for lineNum := 1; ; lineNum++ {
		line, err := br.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, err
		}
		if line == "" && err == io.EOF {
			break
		}

		text, terminated := strings.CutSuffix(line, "\n")
		entry, ok := parseDirectoryLine(text)
		if !ok {
			warnings = append(warnings, fmt.Errorf("%w: line %d: %q", ErrDirectorySyntax, lineNum, text))
			continue
		}
		if !terminated {
			warnings = append(warnings, fmt.Errorf("%w: line %d: missing newline", ErrDirectorySyntax, lineNum))
		}
		entries = append(entries, entry)

		if err == io.EOF {
			break
		}
	}

	return entries, errors.Join(warnings...)
}

func parseDirectoryLine(text string) (DirEntry, bool) {
	fields := strings.Split(text, ":")
	if len(fields) < 2 || fields[0] == "" {
		return DirEntry{}, false
	}
	size, err := strconv.Atoi(fields[1])
	if err != nil || size < 0 {
		return DirEntry{}, false
	}
	name := fields[0]
	if name == tile.RootName {
		name = ""
	}
	return DirEntry{Name: name, Size: size, Subtiles: fields[2:]}, true
}

// LoadDirectory rebuilds a registry from a tile directory, allocating slots in
// line order. Syntax errors are returned together with a usable registry;
// other errors return a nil registry.
func LoadDirectory(reader io.Reader, slots tile.SlotAllocator) (*Registry, error) {
	entries, err := ReadDirectory(reader)
	if entries == nil {
		return nil, err
	}

	r := New()
	for _, entry := range entries {
		h := &Head{
			Name:     intern.Make(entry.Name),
			Subtiles: make([]intern.Name, 0, len(entry.Subtiles)),
			Size:     entry.Size,
			Slot:     slots.AllocateSlot(),
		}
		for _, sub := range entry.Subtiles {
			h.Subtiles = append(h.Subtiles, intern.Make(sub))
		}
		r.add(h)
	}
	r.RebuildResolution()

	return r, err
}
