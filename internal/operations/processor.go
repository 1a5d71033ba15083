package operations

import (
	"context"
	"errors"
	"log/slog"

	"hvexport/internal/dataprocessing"
	apperrors "hvexport/internal/errors"
	"hvexport/internal/exporter"
)

// Processor converts a single task. Implementations must be safe for concurrent use.
type Processor interface {
	Process(ctx context.Context, task Task) (Outcome, error)
}

// ProcessorFunc adapts a function to Processor.
type ProcessorFunc func(ctx context.Context, task Task) (Outcome, error)

// Process calls f.
func (f ProcessorFunc) Process(ctx context.Context, task Task) (Outcome, error) {
	return f(ctx, task)
}

// FileProcessor reads a file with a Converter and writes it through a Sink.
type FileProcessor struct {
	converter *dataprocessing.Converter
	sink      exporter.Sink
	logger    *slog.Logger
}

// NewFileProcessor wires a converter to a sink. Inputs are never touched; removal
// of converted inputs is PoolConfig.RemoveInputs.
func NewFileProcessor(converter *dataprocessing.Converter, sink exporter.Sink, logger *slog.Logger) *FileProcessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileProcessor{
		converter: converter,
		sink:      sink,
		logger:    logger.With(slog.String("component", "processor")),
	}
}

// Process converts task.InputPath and writes task.OutputPath.
func (p *FileProcessor) Process(ctx context.Context, task Task) (Outcome, error) {
	table, err := p.converter.Convert(ctx, task.InputPath, task.Archive)
	if err != nil {
		return Outcome{}, err
	}
	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}

	if err := p.sink.Write(ctx, task.OutputPath, table); err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) && appErr.Path == "" {
			appErr.WithPath(task.InputPath)
		}
		return Outcome{}, err
	}

	p.logger.DebugContext(ctx, "file written",
		slog.String("input", task.InputPath),
		slog.String("output", task.OutputPath),
		slog.Int("rows", table.Len()))
	return Outcome{Rows: table.Len(), Shape: table.Shape}, nil
}
