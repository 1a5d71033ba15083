package dataprocessing

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"hvexport/internal/dialect"
	apperrors "hvexport/internal/errors"
	"hvexport/internal/reconstruct"
)

// Converter turns one input file into a Table according to its archive type.
type Converter struct {
	engine *reconstruct.Engine
	logger *slog.Logger
}

// NewConverter creates a converter. A nil logger falls back to slog.Default.
func NewConverter(logger *slog.Logger) *Converter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Converter{
		engine: reconstruct.NewEngine(logger),
		logger: logger.With(slog.String("component", "converter")),
	}
}

// Convert reads path and returns its normalized table. Errors carry the path.
func (c *Converter) Convert(ctx context.Context, path string, archive dialect.ArchiveType) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewStorageError(apperrors.StageRead, "open input", err).WithPath(path)
	}
	defer f.Close()

	var table *Table
	switch archive {
	case dialect.Midrange:
		table, err = TransformMidrange(ctx, f)
	default:
		var res *reconstruct.Result
		res, err = c.engine.Reconstruct(ctx, f)
		if err != nil {
			break
		}
		if dialect.IsUtilizationFile(path) {
			table, err = TransformUtilization(ctx, res.Text())
		} else {
			table, err = TransformHighend(ctx, res.Text())
		}
	}
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return nil, appErr.WithPath(path)
		}
		return nil, err
	}

	c.logger.DebugContext(ctx, "file transformed",
		slog.String("path", path),
		slog.String("archive", archive.String()),
		slog.String("shape", table.Shape.String()),
		slog.Int("rows", table.Len()),
		slog.Int("columns", len(table.Columns)))
	return table, nil
}
