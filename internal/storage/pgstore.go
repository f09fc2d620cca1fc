package storage

import (
	"database/sql"
	"log/slog"

	"github.com/lib/pq"
)

// PGStore keeps the ledger's key-value pairs in a single postgres table.
// Still one logical store with whole-value overwrites; it just survives the
// machine the file store lives on.
type PGStore struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewPGStore(db *sql.DB, logger *slog.Logger) *PGStore {
	return &PGStore{db: db, logger: logger}
}

// EnsureSchema creates the kv table if it does not exist yet.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS kv (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	return err
}

func (s *PGStore) Read(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = $1`, key).Scan(&value)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", false, nil
		}
		s.logger.Error("kv read failed", "key", key, "error", err)
		return "", false, err
	}
	return value, true, nil
}

func (s *PGStore) Write(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO kv (key, value, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
	`, key, value)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "42P01" { // undefined_table
			s.logger.Error("kv table missing, run EnsureSchema first", "key", key)
		} else {
			s.logger.Error("kv write failed", "key", key, "error", err)
		}
		return err
	}
	return nil
}

var (
	_ Store = (*MemStore)(nil)
	_ Store = (*FileStore)(nil)
	_ Store = (*PGStore)(nil)
)
