package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"salespulse/internal/config"
)

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// SalesExtensions are the extensions the ingest pipeline knows how to read.
var SalesExtensions = config.SupportedExtensions

// Discovery finds sales report files on disk.
type Discovery struct {
	basePath   string
	extensions map[string]bool
}

// NewDiscovery creates a discovery rooted at basePath. Relative directories
// passed to Find are resolved against it.
func NewDiscovery(basePath string, extensions ...string) *Discovery {
	if len(extensions) == 0 {
		extensions = SalesExtensions
	}
	set := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		set[strings.ToLower(ext)] = true
	}
	return &Discovery{basePath: basePath, extensions: set}
}

// Find lists matching files in dir (non-recursive), oldest first. Office
// lock files (~$name.xlsx) are skipped.
func (d *Discovery) Find(dir string) ([]FileInfo, error) {
	fullPath := dir
	if !filepath.IsAbs(dir) {
		fullPath = filepath.Join(d.basePath, dir)
	}

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", fullPath, err)
	}

	files := make([]FileInfo, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, "~$") || !d.Matches(name) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Path:    filepath.Join(fullPath, name),
			Name:    name,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		if !files[i].ModTime.Equal(files[j].ModTime) {
			return files[i].ModTime.Before(files[j].ModTime)
		}
		return files[i].Name < files[j].Name
	})
	return files, nil
}

// Matches reports whether name has one of the discovery extensions.
func (d *Discovery) Matches(name string) bool {
	return d.extensions[strings.ToLower(filepath.Ext(name))]
}

// Expand resolves command line arguments into files. Directories are
// searched with Find; plain files are taken as given.
func (d *Discovery) Expand(args []string) ([]FileInfo, error) {
	var out []FileInfo
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", arg, err)
		}
		if info.IsDir() {
			found, err := d.Find(arg)
			if err != nil {
				return nil, err
			}
			out = append(out, found...)
			continue
		}
		out = append(out, FileInfo{Path: arg, Name: filepath.Base(arg), Size: info.Size(), ModTime: info.ModTime()})
	}
	return out, nil
}
