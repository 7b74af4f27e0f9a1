// Package mb stores tile members in an MBTiles-style sqlite database.
//
// Note: User must properly initialize the sqlite3 library generic driver
// (e.g. import _ "github.com/mattn/go-sqlite3") before using this package.
package mb

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/eak1mov/go-quadtiles/tile"
)

// Reader implements tile.Reader and tile.Visitor interfaces for the sqlite format.
type Reader struct {
	db   *sql.DB
	stmt *sql.Stmt
}

// NewReader creates a new Reader for the given sqlite file path.
//
// The returned Reader must be closed after use to release database resources.
func NewReader(filePath string) (*Reader, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=ro", filePath))
	if err != nil {
		return nil, err
	}

	stmt, err := db.Prepare("SELECT data FROM members WHERE slot = ?")
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Reader{db: db, stmt: stmt}, nil
}

func (r *Reader) Close() error {
	return errors.Join(r.stmt.Close(), r.db.Close())
}

func (r *Reader) ReadMetadata() (map[string]string, error) {
	metadata := make(map[string]string)

	rows, err := r.db.Query("SELECT name, value FROM metadata")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, err
		}
		metadata[name] = value
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return metadata, nil
}

func (r *Reader) ReadMember(slot int) ([]byte, error) {
	var data []byte
	if err := r.stmt.QueryRow(slot).Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return make([]byte, 0), nil
		}
		return nil, err
	}
	if data == nil {
		data = make([]byte, 0)
	}

	return data, nil
}

// VisitMembers visits all members in slot order.
func (r *Reader) VisitMembers(visitor func(tile.Member, []byte) error) error {
	rows, err := r.db.Query("SELECT slot, name, data FROM members ORDER BY slot")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var member tile.Member
		var data []byte

		if err := rows.Scan(&member.Slot, &member.Name, &data); err != nil {
			return err
		}
		if data == nil {
			data = make([]byte, 0)
		}

		if err := visitor(member, data); err != nil {
			return err
		}
	}

	return rows.Err()
}
