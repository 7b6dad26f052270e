// Package favstore provides SQLite-backed persistence for the
// favorites set.
package favstore

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/rs/zerolog/log"
)

// DefaultDBPath is the default path for the favorites database.
const DefaultDBPath = "data/favorites.db"

// DB stores the favorite track ids in SQLite. It implements the
// favorites.Persistence interface.
type DB struct {
	mu   sync.Mutex
	db   *sql.DB
	path string
}

// NewDB creates a new favorites database instance.
func NewDB(path string) *DB {
	if path == "" {
		path = DefaultDBPath
	}
	return &DB{path: path}
}

// Open opens the database and initializes the schema.
func (d *DB) Open() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	dir := filepath.Dir(d.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create favorites directory: %w", err)
	}

	db, err := sql.Open("sqlite3", d.path+"?_journal=WAL&_busy_timeout=5000")
	if err != nil {
		return fmt.Errorf("failed to open favorites database: %w", err)
	}

	// SQLite only supports one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	schema := `
	CREATE TABLE IF NOT EXISTS favorites (
		track_id TEXT PRIMARY KEY,
		position INTEGER NOT NULL,
		created_at TEXT DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_favorites_position ON favorites(position);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return fmt.Errorf("failed to initialize favorites schema: %w", err)
	}

	d.db = db
	log.Info().Str("path", d.path).Msg("Favorites database opened")
	return nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.db != nil {
		err := d.db.Close()
		d.db = nil
		return err
	}
	return nil
}

// LoadFavorites returns the stored ids in their toggle order.
func (d *DB) LoadFavorites() ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.db == nil {
		return nil, fmt.Errorf("favorites database not open")
	}

	rows, err := d.db.Query(`SELECT track_id FROM favorites ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query favorites: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan favorite: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SaveFavorites replaces the stored set with the given ids. The whole
// set is written on every call so a crash never loses the most recent
// toggle.
func (d *DB) SaveFavorites(ids []string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.db == nil {
		return fmt.Errorf("favorites database not open")
	}

	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM favorites`); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to clear favorites: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO favorites (track_id, position) VALUES (?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, id := range ids {
		if _, err := stmt.Exec(id, i); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert favorite: %w", err)
		}
	}

	return tx.Commit()
}
