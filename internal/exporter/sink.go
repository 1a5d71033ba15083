package exporter

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"hvexport/internal/dataprocessing"
	apperrors "hvexport/internal/errors"
)

// Output formats accepted by NewSink.
const (
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"
)

// Sink persists one table. Implementations must be safe for concurrent use on
// distinct paths.
type Sink interface {
	Write(ctx context.Context, path string, table *dataprocessing.Table) error
	Extension() string
}

// NewSink returns the sink for format.
func NewSink(format string, opts ChartOptions, logger *slog.Logger) (Sink, error) {
	switch format {
	case FormatXLSX, "":
		return NewExcelSink(opts, logger), nil
	case FormatCSV:
		return NewCSVSink(logger), nil
	default:
		return nil, fmt.Errorf("unsupported output format %q", format)
	}
}

// writeFile streams write into a temporary file beside path and renames it into
// place. Nothing appears at path unless write succeeds and ctx is still live at
// commit time; the temporary file is removed on every other exit.
func writeFile(ctx context.Context, path string, write func(w io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return apperrors.NewStorageError(apperrors.StageWrite, "create output directory", err).WithPath(path)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return apperrors.NewStorageError(apperrors.StageWrite, "create temporary output", err).WithPath(path)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if err := write(tmp); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return apperrors.NewStorageError(apperrors.StageWrite, "close output", err).WithPath(path)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return apperrors.NewStorageError(apperrors.StageWrite, "set output mode", err).WithPath(path)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return apperrors.NewStorageError(apperrors.StageWrite, "commit output", err).WithPath(path)
	}
	committed = true
	return nil
}
