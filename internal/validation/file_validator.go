package validation

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"salespulse/internal/config"
	apperrors "salespulse/internal/errors"
)

// Upload validation failures. Services match them with errors.Is.
var (
	ErrEmptyFile     = errors.New("file is empty")
	ErrFileTooLarge  = errors.New("file exceeds the maximum size")
	ErrMissingName   = errors.New("file name is missing")
	ErrTempFile      = errors.New("temporary office lock file")
	ErrTooManyFiles  = errors.New("too many files in one upload")
	ErrNoFilesInForm = errors.New("no files were uploaded")
)

// FileValidator checks uploaded files and command line inputs before they
// reach the ingest pipeline.
type FileValidator struct {
	maxFileBytes int64
	maxFiles     int
	logger       *slog.Logger
}

// NewFileValidator creates a validator with the upload limits of cfg.
func NewFileValidator(cfg config.IngestConfig, logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		maxFileBytes: cfg.MaxFileBytes,
		maxFiles:     cfg.MaxFiles,
		logger:       logger,
	}
}

// ValidateBatch checks the number of files in one upload.
func (v *FileValidator) ValidateBatch(count int) error {
	if count == 0 {
		return ErrNoFilesInForm
	}
	if v.maxFiles > 0 && count > v.maxFiles {
		v.logger.Warn("upload rejected",
			slog.Int("files", count),
			slog.Int("max_files", v.maxFiles))
		return fmt.Errorf("%w: %d files, at most %d allowed", ErrTooManyFiles, count, v.maxFiles)
	}
	return nil
}

// ValidateUpload checks one uploaded file. The extension is not checked here:
// files of any type are kept and reported as stored but not parsed.
func (v *FileValidator) ValidateUpload(name string, size int64) error {
	var err error
	switch base := filepath.Base(name); {
	case strings.TrimSpace(name) == "":
		err = ErrMissingName
	case strings.HasPrefix(base, "~$"):
		err = fmt.Errorf("%w: %s", ErrTempFile, base)
	case size == 0:
		err = ErrEmptyFile
	case v.maxFileBytes > 0 && size > v.maxFileBytes:
		err = fmt.Errorf("%w: %d bytes, limit %d", ErrFileTooLarge, size, v.maxFileBytes)
	}
	if err != nil {
		v.logger.Warn("upload file rejected",
			slog.String("file", name),
			slog.Int64("size", size),
			slog.String("error", err.Error()))
	}
	return err
}

// AsAppError wraps a validation failure for the error handler.
func AsAppError(name string, err error) *apperrors.AppError {
	return apperrors.NewAppError(apperrors.ErrTypeValidation, err.Error(), err).WithContext("file", name)
}

// ValidateFile checks that a local file exists, is not a directory and is
// readable.
func (v *FileValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("File does not exist",
			slog.String("file", path))
		return fmt.Errorf("file %s does not exist", path)
	}
	if err != nil {
		return fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory, not a file", path)
	}

	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("File is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("file %s is not readable: %w", path, err)
	}
	file.Close()

	return v.ValidateUpload(path, info.Size())
}

// ValidateOutputDirectory ensures output directory exists or can be created
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	// Verify it's writable by creating a test file
	testFile := filepath.Join(dir, ".write_test")
	file, err := os.Create(testFile)
	if err != nil {
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	file.Close()
	os.Remove(testFile)

	v.logger.Debug("Output directory validated",
		slog.String("directory", dir))
	return nil
}
