package files

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"hvexport/internal/dialect"
)

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// Discovery provides file discovery operations
type Discovery struct {
	basePath string
}

// NewDiscovery creates a new file discovery instance. Relative directories passed
// to its methods are resolved against basePath.
func NewDiscovery(basePath string) *Discovery {
	return &Discovery{basePath: basePath}
}

func (d *Discovery) resolve(dir string) string {
	if filepath.IsAbs(dir) || d.basePath == "" {
		return dir
	}
	return filepath.Join(d.basePath, dir)
}

// Walk returns every regular file under dir, sorted by path.
func (d *Discovery) Walk(dir string) ([]FileInfo, error) {
	root := d.resolve(dir)
	var files []FileInfo
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.Type().IsRegular() {
			return nil
		}
		info, err := entry.Info()
		if err != nil {
			return nil
		}
		files = append(files, FileInfo{
			Path:    path,
			Name:    entry.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory %s: %w", root, err)
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Path < files[j].Path
	})
	return files, nil
}

// FindCSVFiles returns the convertible CSV files under dir: any depth, metadata files
// excluded, previously normalized outputs skipped.
func (d *Discovery) FindCSVFiles(dir string) ([]FileInfo, error) {
	all, err := d.Walk(dir)
	if err != nil {
		return nil, err
	}
	var files []FileInfo
	for _, f := range all {
		lower := strings.ToLower(f.Name)
		if !strings.HasSuffix(lower, ".csv") || strings.HasSuffix(lower, ".normalized.csv") {
			continue
		}
		if dialect.IsMetadataFile(f.Name) {
			continue
		}
		files = append(files, f)
	}
	return files, nil
}

// Names returns the base names of files.
func Names(files []FileInfo) []string {
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name
	}
	return names
}

// Paths returns the full paths of files.
func Paths(files []FileInfo) []string {
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}
	return paths
}
