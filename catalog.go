package hsiraw

import (
	"database/sql"
	"fmt"

	"github.com/bodgit/hsiraw/raw"
	"github.com/cespare/xxhash/v2"
	_ "github.com/mattn/go-sqlite3"
)

// Catalog records every image converted so identical files found in
// different places are only converted once.
type Catalog struct {
	db *sql.DB
}

// Entry is a single image recorded in the catalog
type Entry struct {
	Hash    string
	Path    string
	Width   int
	Height  int
	Indexed bool
}

func contentHash(b []byte) string {
	return fmt.Sprintf("%016X", xxhash.Sum64(b))
}

// NewCatalog opens or creates the catalog stored in file
func NewCatalog(file string) (*Catalog, error) {
	db, err := sql.Open("sqlite3", file)
	if err != nil {
		return nil, err
	}
	// Workers write concurrently
	db.SetMaxOpenConns(1)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS image (id INTEGER PRIMARY KEY NOT NULL, hash TEXT NOT NULL UNIQUE, path TEXT NOT NULL, width INTEGER NOT NULL, height INTEGER NOT NULL, indexed INTEGER NOT NULL)"); err != nil {
		db.Close()
		return nil, err
	}

	return &Catalog{
		db: db,
	}, nil
}

// Close closes the catalog
func (c *Catalog) Close() error {
	return c.db.Close()
}

func (c *Catalog) find(hash string) (string, error) {
	var path string
	switch err := c.db.QueryRow("SELECT path FROM image WHERE hash = ?", hash).Scan(&path); err {
	case sql.ErrNoRows:
		return "", nil
	case nil:
		return path, nil
	default:
		return "", err
	}
}

func (c *Catalog) add(hash, path string, m *raw.Image) error {
	if _, err := c.db.Exec("INSERT OR IGNORE INTO image (hash, path, width, height, indexed) VALUES (?, ?, ?, ?, ?)", hash, path, m.Width, m.Height, isIndexed(m)); err != nil {
		return err
	}
	return nil
}

// Entries returns every image in the catalog ordered by path
func (c *Catalog) Entries() ([]Entry, error) {
	rows, err := c.db.Query("SELECT hash, path, width, height, indexed FROM image ORDER BY path")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Hash, &e.Path, &e.Width, &e.Height, &e.Indexed); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}
