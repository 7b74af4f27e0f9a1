package tiler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/eak1mov/go-quadtiles/tile"
)

var ErrDuplicateAux = errors.New("quadtiles: duplicate auxiliary tile")

// AuxTile is a file copied into the archive verbatim.
type AuxTile struct {
	Name string
	Path string
	Size int
	Slot int
}

// AuxTiles registers auxiliary files and copies them into the archive.
type AuxTiles struct {
	slots  tile.SlotAllocator
	logger *slog.Logger
	tiles  []AuxTile
	names  map[string]struct{}
}

func NewAuxTiles(slots tile.SlotAllocator, logger *slog.Logger) *AuxTiles {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &AuxTiles{
		slots:  slots,
		logger: logger,
		names:  make(map[string]struct{}),
	}
}

// Add registers the file at path under name and returns its slot.
// A name registered before is rejected with ErrDuplicateAux.
func (a *AuxTiles) Add(name, path string, size int) (int, error) {
	if _, ok := a.names[name]; ok {
		return -1, fmt.Errorf("%w: %q", ErrDuplicateAux, name)
	}
	slot := a.slots.AllocateSlot()
	a.names[name] = struct{}{}
	a.tiles = append(a.tiles, AuxTile{Name: name, Path: path, Size: size, Slot: slot})
	return slot, nil
}

func (a *AuxTiles) Tiles() []AuxTile {
	return a.tiles
}

// WriteAll copies every registered file into archive in registration order.
// Files that cannot be read are skipped with a warning. It returns the number
// of files written.
func (a *AuxTiles) WriteAll(archive MemberWriter) (int, error) {
	written := 0
	for _, aux := range a.tiles {
		data, err := readAux(aux)
		if err != nil {
			a.logger.Warn("quadtiles: skipping auxiliary tile", "name", aux.Name, "path", aux.Path, "err", err)
			continue
		}
		if err := archive.WriteMember(aux.Slot, aux.Name, data); err != nil {
			return written, err
		}
		written++
	}
	return written, nil
}

func readAux(aux AuxTile) ([]byte, error) {
	f, err := os.Open(aux.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data := make([]byte, aux.Size)
	if _, err := io.ReadFull(f, data); err != nil {
		return nil, err
	}
	return data, nil
}
