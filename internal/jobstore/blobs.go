package jobstore

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
)

// Kind distinguishes the artifact a blob holds.
type Kind string

const (
	KindAudio Kind = "audio"
	KindMIDI  Kind = "midi"
	KindJSON  Kind = "json"
)

// PutBlob stores data content-addressed by its SHA-256 hash, returning the
// hash. Storing the same bytes twice is a no-op past the first insert.
func (d *DB) PutBlob(kind Kind, data []byte) (string, error) {
	hash := hashData(data)

	_, err := d.db.Exec(`
		INSERT OR IGNORE INTO blobs (hash, kind, data, size)
		VALUES (?, ?, ?, ?)
	`, hash, string(kind), data, len(data))
	if err != nil {
		return "", fmt.Errorf("put blob: %w", err)
	}
	return hash, nil
}

// GetBlob retrieves blob bytes by hash.
func (d *DB) GetBlob(hash string) ([]byte, error) {
	var data []byte
	row := d.db.QueryRow(`SELECT data FROM blobs WHERE hash = ?`, hash)
	if err := row.Scan(&data); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("get blob %s: not found", hash)
		}
		return nil, fmt.Errorf("get blob %s: %w", hash, err)
	}
	return data, nil
}

func hashData(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
