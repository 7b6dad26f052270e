// Package catalogcache persists catalog snapshots to SQLite so the
// last good listing survives media server outages and restarts.
package catalogcache

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/rs/zerolog/log"

	"github.com/mhilario/cassette-player-backend/internal/domain/media"
)

// DefaultDBPath is the default location of the snapshot database.
const DefaultDBPath = "data/catalog.db"

// Snapshot kinds.
const (
	KindTracks   = "tracks"
	KindVideos   = "videos"
	KindStations = "stations"
)

// Store is the SQLite snapshot database.
type Store struct {
	mu   sync.Mutex
	db   *sql.DB
	path string
}

// NewStore creates a store instance. Call Open before use.
func NewStore(path string) *Store {
	if path == "" {
		path = DefaultDBPath
	}
	return &Store{path: path}
}

// Open opens the database and initializes the schema.
func (s *Store) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite3", s.path+"?_journal=WAL&_busy_timeout=5000")
	if err != nil {
		return fmt.Errorf("failed to open catalog cache: %w", err)
	}

	// SQLite only supports one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	schema := `
	CREATE TABLE IF NOT EXISTS catalog_items (
		kind          TEXT NOT NULL,
		position      INTEGER NOT NULL,
		item_id       TEXT NOT NULL,
		title         TEXT NOT NULL DEFAULT '',
		artist        TEXT NOT NULL DEFAULT '',
		album         TEXT NOT NULL DEFAULT '',
		duration_hint INTEGER NOT NULL DEFAULT 0,
		source_url    TEXT NOT NULL DEFAULT '',
		item_kind     TEXT NOT NULL DEFAULT '',
		format        TEXT NOT NULL DEFAULT '',
		artwork_url   TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (kind, position)
	);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return fmt.Errorf("failed to initialize catalog cache schema: %w", err)
	}

	s.db = db
	log.Info().Str("path", s.path).Msg("Catalog cache opened")
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		return err
	}
	return nil
}

// Save replaces the snapshot for a kind.
func (s *Store) Save(kind string, items []media.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return fmt.Errorf("catalog cache not open")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM catalog_items WHERE kind = ?", kind); err != nil {
		return fmt.Errorf("failed to clear snapshot: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO catalog_items
		(kind, position, item_id, title, artist, album, duration_hint, source_url, item_kind, format, artwork_url)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, item := range items {
		if _, err := stmt.Exec(kind, i, item.ID, item.Title, item.Artist, item.Album,
			item.DurationHint, item.SourceURL, string(item.Kind), item.Format, item.ArtworkURL); err != nil {
			return fmt.Errorf("failed to insert item %s: %w", item.ID, err)
		}
	}

	return tx.Commit()
}

// Load returns the stored snapshot for a kind, oldest ordering intact.
func (s *Store) Load(kind string) ([]media.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil, fmt.Errorf("catalog cache not open")
	}

	rows, err := s.db.Query(`
		SELECT item_id, title, artist, album, duration_hint, source_url, item_kind, format, artwork_url
		FROM catalog_items WHERE kind = ? ORDER BY position`, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot: %w", err)
	}
	defer rows.Close()

	var items []media.Item
	for rows.Next() {
		var item media.Item
		var itemKind string
		if err := rows.Scan(&item.ID, &item.Title, &item.Artist, &item.Album,
			&item.DurationHint, &item.SourceURL, &itemKind, &item.Format, &item.ArtworkURL); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		item.Kind = media.Kind(itemKind)
		items = append(items, item)
	}
	return items, rows.Err()
}
