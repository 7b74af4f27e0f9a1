package dir

import (
	"os"
	"path/filepath"

	"github.com/eak1mov/go-quadtiles/tile"
)

// Writer implements tile.Writer interface for member files.
type Writer struct {
	tile.Counter
	filePattern string
}

// NewWriter creates a new Writer for the given file pattern (e.g. "/home/user/tiles/{slot}-{name}.bin").
func NewWriter(filePattern string) (*Writer, error) {
	if err := validatePattern(filePattern); err != nil {
		return nil, err
	}
	return &Writer{filePattern: filePattern}, nil
}

func (w *Writer) WriteMember(slot int, name string, data []byte) error {
	filePath := formatPattern(w.filePattern, slot, name)

	dirPath := filepath.Dir(filePath)
	if err := os.MkdirAll(dirPath, 0755); err != nil {
		return err
	}

	return os.WriteFile(filePath, data, 0644)
}

func (w *Writer) Finalize() error {
	return nil
}
