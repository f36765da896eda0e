package files

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"salespulse/internal/config"
	"salespulse/internal/infrastructure"
)

// Manager keeps the raw bytes of uploaded files under the uploads directory.
// Stored names are prefixed with the content hash so two uploads with the
// same file name never collide.
type Manager struct {
	paths  *config.Paths
	logger *slog.Logger
}

// NewManager creates a new file manager instance
func NewManager(paths *config.Paths, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{paths: paths, logger: infrastructure.WithComponent(logger, "files")}
}

// Hash returns the hex SHA-256 of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SafeName reduces a client supplied file name to its base name with every
// character outside [A-Za-z0-9._-] replaced by an underscore.
func SafeName(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	if base == "." || base == "/" || base == ".." {
		return "upload"
	}
	base = strings.Trim(unsafeChars.ReplaceAllString(base, "_"), "_")
	if base == "" {
		return "upload"
	}
	return base
}

// Save writes data for an upload and returns the absolute stored path.
func (m *Manager) Save(hash, name string, data []byte) (string, error) {
	if len(hash) < 12 {
		return "", fmt.Errorf("invalid content hash %q", hash)
	}
	path := m.paths.UploadPath(hash[:12] + "_" + SafeName(name))

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}
	tmp := path + ".part"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write upload: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("failed to finalize upload: %w", err)
	}

	m.logger.Debug("upload stored",
		slog.String("file", name),
		slog.String("path", path),
		slog.Int("size_bytes", len(data)))
	return path, nil
}

// Read returns the bytes of a stored upload.
func (m *Manager) Read(path string) ([]byte, error) {
	if err := m.owns(path); err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}

// Delete removes a stored upload. Missing files are not an error.
func (m *Manager) Delete(path string) error {
	if path == "" {
		return nil
	}
	if err := m.owns(path); err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete %s: %w", path, err)
	}
	return nil
}

// DeleteAll removes the given uploads and reports how many were deleted.
// It keeps going after a failure and returns the first error.
func (m *Manager) DeleteAll(paths []string) (int, error) {
	var (
		deleted  int
		firstErr error
	)
	for _, p := range paths {
		if err := m.Delete(p); err != nil {
			m.logger.Warn("failed to delete upload", slog.String("path", p), slog.String("error", err.Error()))
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		deleted++
	}
	return deleted, firstErr
}

// owns rejects paths outside the uploads directory.
func (m *Manager) owns(path string) error {
	rel, err := filepath.Rel(m.paths.UploadsDir, filepath.Clean(path))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("path %s is outside the uploads directory", path)
	}
	return nil
}
