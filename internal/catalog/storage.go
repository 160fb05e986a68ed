package catalog

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
)

// Storage persists sticker media as content-addressed files: each blob is
// written once under <sha256>.webp and shared by every record carrying the
// same hash.
type Storage struct {
	baseDir string
}

func NewStorage(baseDir string) (*Storage, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create sticker dir: %w", err)
	}
	return &Storage{baseDir: baseDir}, nil
}

// Save writes data under its content hash and returns the hash and the file
// path. Writing is skipped when the blob already exists.
func (s *Storage) Save(data []byte) (hash, path string, err error) {
	sum := sha256.Sum256(data)
	hash = hex.EncodeToString(sum[:])
	path = filepath.Join(s.baseDir, hash+".webp")

	if _, err := os.Stat(path); err == nil {
		return hash, path, nil
	} else if !os.IsNotExist(err) {
		return "", "", fmt.Errorf("stat sticker file: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", "", fmt.Errorf("write sticker file: %w", err)
	}
	return hash, path, nil
}
