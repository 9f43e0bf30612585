// Package filestore persists incoming attachment bytes so OCR and
// re-extraction can run long after the mail is gone.
package filestore

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/nordbok/invoice-ingest/constants"
)

type Store interface {
	// Save writes the bytes and returns the stored path. Saving the same
	// content twice yields the same path.
	Save(data []byte, suggestedName string) (string, error)
	Read(path string) ([]byte, error)
}

// DirStore keeps files in a flat directory, named by content hash so
// duplicate attachments collapse onto one file.
type DirStore struct {
	dir    string
	logger *slog.Logger
}

func NewDirStore(dir string, logger *slog.Logger) (*DirStore, error) {
	if dir == "" {
		dir = "data/files"
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create file dir: %w", err)
	}
	return &DirStore{dir: dir, logger: logger}, nil
}

func (s *DirStore) Save(data []byte, suggestedName string) (string, error) {
	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])

	ext := constants.NormalizeExt(filepath.Ext(suggestedName))
	if ext == "" || !constants.IsAllowedExt("."+ext) {
		ext = "bin"
	}
	path := filepath.Join(s.dir, hash[:16]+"."+ext)

	if _, err := os.Stat(path); err == nil {
		s.logger.Debug("filestore.save.exists", "path", path)
		return path, nil
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	s.logger.Info("filestore.save.ok", "path", path, "bytes", len(data), "name", suggestedName)
	return path, nil
}

func (s *DirStore) Read(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return b, nil
}
