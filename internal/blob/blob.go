// Package blob is the persistent key-value store for binary payloads.
// Images are addressed by item id and survive across sessions; the same
// database also holds the single-key local save record.
package blob

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/BenWCode/MuseApp/internal/config"
	"github.com/BenWCode/MuseApp/internal/errors"
)

// CurrentSchemaVersion is the latest schema version. Bump this when the
// blob layout changes; migration runs against user_version.
const CurrentSchemaVersion = 1

// SaveKey is the well-known key the local save record is stored under.
const SaveKey = "museumSaveData"

// Store wraps the sqlite database holding blobs and save records.
type Store struct {
	db *sql.DB
}

// Entry is one stored binary payload.
type Entry struct {
	ID       string
	FileName string
	FileType string
	Data     []byte
}

// Open initializes the store at baseDir/museum.db, creating the directory
// and running migrations as needed. The baseDir parameter allows tests to
// use t.TempDir() instead of ~/.museapp.
func Open(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	_ = os.Chmod(baseDir, 0700)

	dbPath := filepath.Join(baseDir, "museum.db")
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := verifyWALMode(db); err != nil {
		db.Close()
		return nil, err
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	_ = os.Chmod(dbPath, 0600)

	return &Store{db: db}, nil
}

// ConfigurePool applies connection pool settings from config.
// Only sets limits if explicitly configured (non-zero values).
func (s *Store) ConfigurePool(cfg *config.Config) {
	if cfg == nil {
		return
	}
	if cfg.DBMaxOpenConns > 0 {
		s.db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	}
	if cfg.DBMaxIdleConns > 0 {
		s.db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	}
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put stores or replaces an image payload keyed by item id.
func (s *Store) Put(id, fileName, fileType string, data []byte) error {
	query := `
		INSERT INTO blobs (id, file_name, file_type, data, saved_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			file_name = excluded.file_name,
			file_type = excluded.file_type,
			data = excluded.data,
			saved_at = excluded.saved_at
	`
	if _, err := s.db.Exec(query, id, fileName, fileType, data, time.Now().Unix()); err != nil {
		return errors.NewStorage(err)
	}
	return nil
}

// Get retrieves a payload by item id.
func (s *Store) Get(id string) (*Entry, error) {
	row := s.db.QueryRow(`SELECT id, file_name, file_type, data FROM blobs WHERE id = ?`, id)

	e := &Entry{}
	err := row.Scan(&e.ID, &e.FileName, &e.FileType, &e.Data)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound(id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return e, nil
}

// Resolve returns just the payload bytes for an item id. It satisfies the
// gallery's payload resolver contract.
func (s *Store) Resolve(id string) ([]byte, error) {
	e, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	return e.Data, nil
}

// Delete removes a payload. Deleting an absent id is a no-op.
func (s *Store) Delete(id string) error {
	if _, err := s.db.Exec(`DELETE FROM blobs WHERE id = ?`, id); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// PutSave stores a serialized save record under the given key.
func (s *Store) PutSave(key, value string) error {
	query := `
		INSERT INTO saves (key, value, saved_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			saved_at = excluded.saved_at
	`
	if _, err := s.db.Exec(query, key, value, time.Now().Unix()); err != nil {
		return errors.NewStorage(err)
	}
	return nil
}

// GetSave retrieves a serialized save record.
func (s *Store) GetSave(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM saves WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", errors.NewNotFound(key)
	}
	if err != nil {
		return "", errors.NewInternal(err)
	}
	return value, nil
}

// migrate applies schema migrations based on user_version.
func migrate(db *sql.DB) error {
	version, err := GetUserVersion(db)
	if err != nil {
		return err
	}

	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS blobs (
		  id        TEXT PRIMARY KEY,
		  file_name TEXT NOT NULL,
		  file_type TEXT NOT NULL,
		  data      BLOB NOT NULL,
		  saved_at  INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS saves (
		  key      TEXT PRIMARY KEY,
		  value    TEXT NOT NULL,
		  saved_at INTEGER NOT NULL
		);
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("migration 1 failed: %w", err)
		}
		if err := SetUserVersion(db, 1); err != nil {
			return err
		}
	}

	// Future migrations go here:
	// if version < 2 { ... }

	return nil
}

// verifyWALMode checks that WAL mode is active (set via connection string).
func verifyWALMode(db *sql.DB) error {
	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode;").Scan(&journalMode); err != nil {
		return fmt.Errorf("failed to verify journal mode: %w", err)
	}
	if journalMode != "wal" {
		return fmt.Errorf("expected WAL mode, got %s", journalMode)
	}
	return nil
}

// GetUserVersion returns the current schema version (user_version pragma).
func GetUserVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get user_version: %w", err)
	}
	return version, nil
}

// SetUserVersion sets the schema version (user_version pragma).
func SetUserVersion(db *sql.DB, version int) error {
	_, err := db.Exec(fmt.Sprintf("PRAGMA user_version=%d", version))
	if err != nil {
		return fmt.Errorf("failed to set user_version: %w", err)
	}
	return nil
}
