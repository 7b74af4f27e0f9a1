// Package zipfile stores tile members as entries of a zip archive, in slot
// order. The slot of each entry is kept in its comment.
package zipfile

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/eak1mov/go-quadtiles/tile"
	"github.com/klauspost/compress/zip"
)

var ErrSlotOrder = errors.New("quadtiles: zip members out of slot order")

// Writer implements tile.Writer interface for zip archives.
type Writer struct {
	tile.Counter

	file   *os.File
	zip    *zip.Writer
	method uint16
	next   int
	logger *slog.Logger
}

type writerConfig struct {
	Store   bool
	Comment string
	Logger  *slog.Logger
}

type WriterOption func(*writerConfig)

// WithStore disables compression of members.
func WithStore() WriterOption {
	return func(c *writerConfig) { c.Store = true }
}

// WithComment sets the archive comment.
func WithComment(comment string) WriterOption {
	return func(c *writerConfig) { c.Comment = comment }
}

func WithLogger(logger *slog.Logger) WriterOption {
	return func(c *writerConfig) { c.Logger = logger }
}

// NewWriter creates a zip archive at filePath.
func NewWriter(filePath string, opts ...WriterOption) (*Writer, error) {
	config := writerConfig{
		Logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&config)
	}

	file, err := os.Create(filePath)
	if err != nil {
		return nil, err
	}

	w := &Writer{
		file:   file,
		zip:    zip.NewWriter(file),
		method: zip.Deflate,
		logger: config.Logger,
	}
	if config.Store {
		w.method = zip.Store
	}
	if config.Comment != "" {
		if err := w.zip.SetComment(config.Comment); err != nil {
			file.Close()
			return nil, err
		}
	}
	return w, nil
}

// WriteMember appends an entry. Slots must be written in increasing order;
// skipped slots get no entry.
func (w *Writer) WriteMember(slot int, name string, data []byte) error {
	if w.zip == nil {
		return fmt.Errorf("quadtiles: write after finalize (slot %d)", slot)
	}
	if slot < w.next {
		return fmt.Errorf("%w: slot %d after %d", ErrSlotOrder, slot, w.next-1)
	}
	w.next = slot + 1

	entry, err := w.zip.CreateHeader(&zip.FileHeader{
		Name:    name,
		Comment: strconv.Itoa(slot),
		Method:  w.method,
	})
	if err != nil {
		return err
	}
	_, err = entry.Write(data)
	return err
}

func (w *Writer) Finalize() error {
	if w.zip == nil {
		panic("quadtiles: finalize called twice")
	}
	w.logger.Debug("quadtiles: writing zip directory", "members", w.next)
	err := errors.Join(w.zip.Close(), w.file.Close())
	w.zip = nil
	w.file = nil
	return err
}

func (w *Writer) Close() error {
	if w.file == nil {
		return nil
	}
	return w.file.Close()
}
