package pm

import (
	"bufio"
	"cmp"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/eak1mov/go-quadtiles/pm/spec"
	"github.com/eak1mov/go-quadtiles/tile"
)

// Writer implements tile.Writer interface for PMTiles format.
// Members with equal content are stored once.
type Writer struct {
	tile.Counter

	logger          *slog.Logger
	file            *os.File
	header          spec.Header
	metadata        Metadata
	tileCompression spec.Compression

	tileWriter *bufio.Writer
	tileOffset uint64

	entries   []spec.Entry
	locations map[[16]byte]uint32 // hash -> entry index
}

type writerConfig struct {
	Attributes          map[string]string
	InternalCompression spec.Compression
	TileCompression     spec.Compression
	Logger              *slog.Logger
}

type WriterOption func(*writerConfig)

// WithAttributes sets free-form attributes stored in the metadata.
func WithAttributes(attributes map[string]string) WriterOption {
	return func(c *writerConfig) { c.Attributes = attributes }
}

// WithInternalCompression sets the compression of directories and metadata.
func WithInternalCompression(compression spec.Compression) WriterOption {
	return func(c *writerConfig) { c.InternalCompression = compression }
}

// WithTileCompression sets the compression applied to every member.
func WithTileCompression(compression spec.Compression) WriterOption {
	return func(c *writerConfig) { c.TileCompression = compression }
}

func WithLogger(logger *slog.Logger) WriterOption {
	return func(c *writerConfig) { c.Logger = logger }
}

// NewWriter creates a new Writer for writing to a PMTiles file.
// Finalize must be called to produce a readable archive.
func NewWriter(filePath string, opts ...WriterOption) (w *Writer, err error) {
	config := writerConfig{
		InternalCompression: spec.CompressionGzip,
		TileCompression:     spec.CompressionNone,
		Logger:              slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&config)
	}
	for _, c := range []spec.Compression{config.InternalCompression, config.TileCompression} {
		if _, err := spec.Compress(nil, c); err != nil {
			return nil, err
		}
	}

	file, err := os.Create(filePath)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			file.Close()
		}
	}()

	_, err = file.Seek(spec.RootDirEnd, io.SeekStart)
	if err != nil {
		return nil, err
	}

	header := spec.Header{
		Data:                spec.Section{Offset: spec.RootDirEnd},
		InternalCompression: config.InternalCompression,
		TileCompression:     config.TileCompression,
	}

	return &Writer{
		logger:          config.Logger,
		file:            file,
		header:          header,
		metadata:        Metadata{Attributes: config.Attributes, Members: make([]MemberInfo, 0)},
		tileCompression: config.TileCompression,
		tileWriter:      bufio.NewWriter(file),
		locations:       make(map[[16]byte]uint32),
	}, nil
}

// WriteMember stores data under tile code slot. Empty members are only
// recorded by name.
func (w *Writer) WriteMember(slot int, name string, data []byte) error {
	if w.tileWriter == nil {
		return fmt.Errorf("quadtiles: write after finalize (slot %d)", slot)
	}
	w.metadata.Members = append(w.metadata.Members, MemberInfo{Slot: slot, Name: name})
	if len(data) == 0 {
		return nil
	}

	data, err := spec.Compress(data, w.tileCompression)
	if err != nil {
		return err
	}

	digest := md5.Sum(data)
	if entryIdx, exists := w.locations[digest]; exists {
		w.entries = append(w.entries, spec.Entry{
			Slot:      uint64(slot),
			Offset:    w.entries[entryIdx].Offset,
			Length:    w.entries[entryIdx].Length,
			RunLength: 1,
		})
		return nil
	}

	entry := spec.Entry{
		Slot:      uint64(slot),
		Offset:    w.tileOffset,
		Length:    uint32(len(data)),
		RunLength: 1,
	}
	if _, err := w.tileWriter.Write(data); err != nil {
		return err
	}
	w.tileOffset += uint64(len(data))

	w.locations[digest] = uint32(len(w.entries))
	w.entries = append(w.entries, entry)
	return nil
}

func (w *Writer) Finalize() error {
	if w.tileWriter == nil {
		panic("quadtiles: finalize called twice")
	}

	w.logger.Debug("quadtiles: flush")
	if err := w.tileWriter.Flush(); err != nil {
		return err
	}
	w.header.Data.Length = w.tileOffset
	w.tileWriter = nil

	w.logger.Debug("quadtiles: sort", "entries", len(w.entries))
	slices.SortFunc(w.entries, func(a, b spec.Entry) int {
		return cmp.Compare(a.Slot, b.Slot)
	})
	slices.SortFunc(w.metadata.Members, func(a, b MemberInfo) int {
		return cmp.Compare(a.Slot, b.Slot)
	})
	w.header.Members = uint64(len(w.entries))
	w.header.Contents = uint64(len(w.locations))
	if n := len(w.metadata.Members); n > 0 {
		w.header.MaxZoom = uint8(TileID(w.metadata.Members[n-1].Slot).Z)
	}

	w.logger.Debug("quadtiles: compact")
	w.entries = spec.Compact(w.entries)
	w.header.Entries = uint64(len(w.entries))

	w.logger.Debug("quadtiles: serialize")
	dirs, err := spec.BuildDirectories(w.entries, w.header.InternalCompression)
	if err != nil {
		return err
	}

	offset, err := w.file.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}

	w.logger.Debug("quadtiles: write leaves", "bytes", len(dirs.Leaves))
	if _, err := w.file.Write(dirs.Leaves); err != nil {
		return err
	}
	w.header.Leaves = spec.Section{Offset: uint64(offset), Length: uint64(len(dirs.Leaves))}

	w.logger.Debug("quadtiles: write metadata", "members", len(w.metadata.Members))
	metadataJSON, err := json.Marshal(w.metadata)
	if err != nil {
		return err
	}
	metadataBytes, err := spec.Compress(metadataJSON, w.header.InternalCompression)
	if err != nil {
		return err
	}
	if _, err := w.file.Write(metadataBytes); err != nil {
		return err
	}
	w.header.Metadata = spec.Section{Offset: w.header.Leaves.End(), Length: uint64(len(metadataBytes))}

	w.logger.Debug("quadtiles: write root")
	if _, err := w.file.Seek(spec.RootDirOffset, io.SeekStart); err != nil {
		return err
	}
	if _, err := w.file.Write(dirs.Root); err != nil {
		return err
	}
	w.header.Root = spec.Section{Offset: spec.RootDirOffset, Length: uint64(len(dirs.Root))}

	w.logger.Debug("quadtiles: write header")
	if _, err := w.file.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if _, err := w.file.Write(spec.AppendHeader(nil, w.header)); err != nil {
		return err
	}

	err = w.file.Close()
	w.file = nil
	w.logger.Debug("quadtiles: done!")
	return err
}

func (w *Writer) Close() error {
	if w.file == nil {
		return nil
	}
	return w.file.Close()
}
