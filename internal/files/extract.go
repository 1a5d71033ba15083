package files

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	apperrors "hvexport/internal/errors"
)

// MaxNestingDepth bounds how many levels of zip-inside-zip are expanded.
const MaxNestingDepth = 4

// ExtractResult describes what an extraction produced.
type ExtractResult struct {
	Dest   string
	Files  int
	Nested int
}

// Extractor unpacks export archives, expanding nested zips in place.
type Extractor struct {
	logger *slog.Logger
}

// NewExtractor creates an extractor
func NewExtractor(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{logger: logger.With(slog.String("component", "extractor"))}
}

// Extract unpacks zipPath into dest. Every nested .zip found afterwards is unpacked
// into a sibling directory named after it (without the extension) and then removed.
func (e *Extractor) Extract(ctx context.Context, zipPath, dest string) (*ExtractResult, error) {
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return nil, apperrors.NewStorageError(apperrors.StageRead, "create extraction directory", err).WithPath(dest)
	}

	n, err := e.unzip(ctx, zipPath, dest)
	if err != nil {
		return nil, err
	}
	res := &ExtractResult{Dest: dest, Files: n}

	for depth := 0; depth < MaxNestingDepth; depth++ {
		nested, err := findZips(dest)
		if err != nil {
			return nil, apperrors.NewStorageError(apperrors.StageRead, "scan for nested archives", err).WithPath(dest)
		}
		if len(nested) == 0 {
			break
		}
		for _, inner := range nested {
			target := strings.TrimSuffix(inner, filepath.Ext(inner))
			count, err := e.unzip(ctx, inner, target)
			if err != nil {
				return nil, err
			}
			if err := os.Remove(inner); err != nil {
				return nil, apperrors.NewStorageError(apperrors.StageRead, "remove nested archive", err).WithPath(inner)
			}
			res.Files += count - 1
			res.Nested++
			e.logger.DebugContext(ctx, "nested archive expanded",
				slog.String("archive", inner),
				slog.Int("files", count))
		}
	}

	e.logger.InfoContext(ctx, "archive extracted",
		slog.String("archive", zipPath),
		slog.String("dest", dest),
		slog.Int("files", res.Files),
		slog.Int("nested", res.Nested))
	return res, nil
}

func (e *Extractor) unzip(ctx context.Context, zipPath, dest string) (int, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return 0, apperrors.NewStorageError(apperrors.StageRead, "open archive", err).WithPath(zipPath)
	}
	defer r.Close()

	count := 0
	for _, f := range r.File {
		if err := ctx.Err(); err != nil {
			return count, apperrors.NewCancelledError(apperrors.StageRead, err).WithPath(zipPath)
		}
		target, err := safeJoin(dest, f.Name)
		if err != nil {
			return count, apperrors.NewStorageError(apperrors.StageRead, "unsafe archive entry", err).
				WithPath(zipPath).
				WithContext("entry", f.Name)
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return count, apperrors.NewStorageError(apperrors.StageRead, "create directory", err).WithPath(target)
			}
			continue
		}
		if err := writeEntry(f, target); err != nil {
			return count, apperrors.NewStorageError(apperrors.StageRead, "extract entry", err).
				WithPath(zipPath).
				WithContext("entry", f.Name)
		}
		count++
	}
	return count, nil
}

// safeJoin resolves name under dest and rejects entries that escape it.
func safeJoin(dest, name string) (string, error) {
	target := filepath.Join(dest, filepath.FromSlash(name))
	rel, err := filepath.Rel(dest, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(name) {
		return "", fmt.Errorf("entry %q escapes %s", name, dest)
	}
	return target, nil
}

func writeEntry(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	src, err := f.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}

func findZips(root string) ([]string, error) {
	var zips []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(d.Name()), ".zip") {
			zips = append(zips, path)
		}
		return nil
	})
	return zips, err
}
