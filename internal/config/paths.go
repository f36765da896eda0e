package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths holds the absolute locations the application reads and writes.
type Paths struct {
	BaseDir    string
	DataDir    string
	UploadsDir string
	ExportsDir string
	LogsDir    string
	Database   string
}

// ResolvePaths turns the configured locations into absolute paths. An empty
// BaseDir resolves to the directory holding the running executable so the
// server behaves the same regardless of the working directory.
func ResolvePaths(cfg PathsConfig) (*Paths, error) {
	base := cfg.BaseDir
	if base == "" {
		exeDir, err := executableDir()
		if err != nil {
			return nil, err
		}
		base = exeDir
	}
	base, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base dir %s: %w", cfg.BaseDir, err)
	}

	abs := func(p string) string {
		if filepath.IsAbs(p) {
			return filepath.Clean(p)
		}
		return filepath.Join(base, p)
	}

	return &Paths{
		BaseDir:    base,
		DataDir:    abs(cfg.DataDir),
		UploadsDir: abs(cfg.UploadsDir),
		ExportsDir: abs(cfg.ExportsDir),
		LogsDir:    abs(cfg.LogsDir),
		Database:   abs(cfg.Database),
	}, nil
}

func executableDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to get executable path: %w", err)
	}
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return "", fmt.Errorf("failed to resolve executable symlinks: %w", err)
	}
	return filepath.Dir(exe), nil
}

// EnsureDirectories creates every directory the application writes into.
func (p *Paths) EnsureDirectories() error {
	dirs := []string{p.DataDir, p.UploadsDir, p.ExportsDir, p.LogsDir, filepath.Dir(p.Database)}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// UploadPath returns where a stored upload with the given name lives.
func (p *Paths) UploadPath(name string) string {
	return filepath.Join(p.UploadsDir, name)
}

// ExportPath returns the location of a generated export file.
func (p *Paths) ExportPath(name string) string {
	return filepath.Join(p.ExportsDir, name)
}

// LogPathResolution logs the resolved locations once at startup.
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("path resolution summary",
		slog.Group("directories",
			slog.String("base", p.BaseDir),
			slog.String("data", p.DataDir),
			slog.String("uploads", p.UploadsDir),
			slog.String("exports", p.ExportsDir),
			slog.String("logs", p.LogsDir),
		),
		slog.String("database", p.Database),
	)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
