package exporter

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"

	"hvexport/internal/dataprocessing"
	apperrors "hvexport/internal/errors"
)

// CSVExtension is appended in place of the input extension so a CSV output never
// overwrites its input.
const CSVExtension = ".normalized.csv"

// CSVSink provides CSV export functionality
type CSVSink struct {
	logger *slog.Logger
	// BOMPrefix adds a UTF-8 BOM for Excel compatibility
	BOMPrefix bool
}

// NewCSVSink creates a new CSV sink instance
func NewCSVSink(logger *slog.Logger) *CSVSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVSink{
		logger:    logger.With(slog.String("component", "csv_sink")),
		BOMPrefix: true,
	}
}

// Extension implements Sink.
func (s *CSVSink) Extension() string {
	return CSVExtension
}

// Write writes the table's header rows followed by its data rows.
func (s *CSVSink) Write(ctx context.Context, path string, table *dataprocessing.Table) error {
	err := writeFile(ctx, path, func(w io.Writer) error {
		if s.BOMPrefix {
			if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
				return apperrors.NewStorageError(apperrors.StageWrite, "write BOM", err).WithPath(path)
			}
		}

		writer := csv.NewWriter(w)
		for _, row := range table.Header() {
			if err := writer.Write(row); err != nil {
				return apperrors.NewStorageError(apperrors.StageWrite, "write header", err).WithPath(path)
			}
		}
		for i := 0; i < table.Len(); i++ {
			if i%dataprocessing.ContextCheckInterval == 0 {
				if err := ctx.Err(); err != nil {
					return err
				}
			}
			if err := writer.Write(table.Row(i)); err != nil {
				return apperrors.NewStorageError(apperrors.StageWrite, fmt.Sprintf("write record %d", i), err).WithPath(path)
			}
		}
		writer.Flush()
		if err := writer.Error(); err != nil {
			return apperrors.NewStorageError(apperrors.StageWrite, "flush", err).WithPath(path)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.DebugContext(ctx, "CSV written",
		slog.String("path", path),
		slog.Int("record_count", table.Len()))
	return nil
}
