package mb

import (
	"database/sql"
	"errors"
	"log/slog"

	"github.com/eak1mov/go-quadtiles/tile"
)

// Writer implements tile.Writer interface for an MBTiles-style sqlite file.
// Members are stored in a members table keyed by slot.
type Writer struct {
	tile.Counter

	db     *sql.DB
	tx     *sql.Tx
	stmt   *sql.Stmt
	logger *slog.Logger
}

type writerConfig struct {
	Metadata map[string]string
	Logger   *slog.Logger
}

type WriterOption func(*writerConfig)

func WithMetadata(metadata map[string]string) WriterOption {
	return func(c *writerConfig) { c.Metadata = metadata }
}

func WithLogger(logger *slog.Logger) WriterOption {
	return func(c *writerConfig) { c.Logger = logger }
}

// NewWriter creates a new Writer for writing to a sqlite file.
// It applies given options and initializes database for writing members.
// All members are written in one transaction committed by Finalize.
func NewWriter(filePath string, opts ...WriterOption) (*Writer, error) {
	config := writerConfig{
		Logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&config)
	}

	var err error
	db, err := sql.Open("sqlite3", filePath)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			db.Close()
		}
	}()

	_, err = db.Exec(`
		CREATE TABLE metadata (name TEXT, value TEXT);
		CREATE TABLE members (
			slot INTEGER,
			name TEXT,
			data BLOB
		);
	`)
	if err != nil {
		return nil, err
	}

	for k, v := range config.Metadata {
		_, err = db.Exec("INSERT INTO metadata (name, value) VALUES (?, ?)", k, v)
		if err != nil {
			return nil, err
		}
	}

	tx, err := db.Begin()
	if err != nil {
		return nil, err
	}
	stmt, err := tx.Prepare("INSERT INTO members (slot, name, data) VALUES (?, ?, ?)")
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	return &Writer{db: db, tx: tx, stmt: stmt, logger: config.Logger}, nil
}

func (w *Writer) Close() error {
	var err error
	if w.tx != nil {
		err = errors.Join(w.stmt.Close(), w.tx.Rollback())
	}
	return errors.Join(err, w.db.Close())
}

func (w *Writer) WriteMember(slot int, name string, data []byte) error {
	if data == nil {
		data = make([]byte, 0)
	}
	_, err := w.stmt.Exec(slot, name, data)
	return err
}

func (w *Writer) Finalize() error {
	w.logger.Debug("quadtiles: commit")
	err := errors.Join(w.stmt.Close(), w.tx.Commit())
	w.tx = nil
	if err != nil {
		return err
	}

	w.logger.Debug("quadtiles: creating index")
	_, err = w.db.Exec("CREATE UNIQUE INDEX member_index ON members (slot)")

	w.logger.Debug("quadtiles: done!")
	return err
}
