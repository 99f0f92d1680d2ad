package upload

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const historySchema = `CREATE TABLE IF NOT EXISTS sent_exports (
	server  TEXT NOT NULL,
	file    TEXT NOT NULL,
	digest  TEXT NOT NULL,
	sent_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
	PRIMARY KEY (server, file)
)`

// Export identifies one file as delivered to one server. Digest is the
// SHA-256 of the file contents, so an edited export is sent again.
type Export struct {
	Server string
	File   string
	Digest string
}

// History remembers which exports each server has accepted.
type History struct {
	db *sql.DB
}

// OpenHistory opens or creates dir/state.db.
func OpenHistory(dir string) (*History, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating state dir %s: %w", dir, err)
	}
	db, err := sql.Open("sqlite", filepath.Join(dir, "state.db"))
	if err != nil {
		return nil, fmt.Errorf("opening upload history: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(historySchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating upload history: %w", err)
	}
	return &History{db: db}, nil
}

// Sent reports whether the server already accepted this exact export.
func (h *History) Sent(ctx context.Context, e Export) (bool, error) {
	var digest string
	err := h.db.QueryRowContext(ctx,
		`SELECT digest FROM sent_exports WHERE server = ? AND file = ?`,
		e.Server, e.File,
	).Scan(&digest)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("looking up %s: %w", e.File, err)
	}
	return digest == e.Digest, nil
}

// Record stores e, replacing an older digest for the same file.
func (h *History) Record(ctx context.Context, e Export) error {
	_, err := h.db.ExecContext(ctx,
		`INSERT INTO sent_exports (server, file, digest) VALUES (?, ?, ?)
		 ON CONFLICT (server, file) DO UPDATE SET digest = excluded.digest, sent_at = excluded.sent_at`,
		e.Server, e.File, e.Digest,
	)
	if err != nil {
		return fmt.Errorf("recording %s: %w", e.File, err)
	}
	return nil
}

// Close closes the history database.
func (h *History) Close() error {
	return h.db.Close()
}

func digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
