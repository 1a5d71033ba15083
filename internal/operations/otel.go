package operations

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	apperrors "hvexport/internal/errors"
	"hvexport/internal/infrastructure"
)

// Instrumentation records per-file spans and pipeline metrics. A nil
// *Instrumentation is valid and records nothing.
type Instrumentation struct {
	tracer  trace.Tracer
	metrics *infrastructure.PipelineMetrics
}

// NewInstrumentation creates instruments on the given providers.
func NewInstrumentation(providers *infrastructure.OTelProviders) (*Instrumentation, error) {
	metrics, err := infrastructure.CreatePipelineMetrics(providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline metrics: %w", err)
	}
	return &Instrumentation{
		tracer:  providers.Tracer,
		metrics: metrics,
	}, nil
}

// StartFile opens a span for task and counts it as active.
func (in *Instrumentation) StartFile(ctx context.Context, task Task) (context.Context, trace.Span) {
	if in == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	ctx, span := in.tracer.Start(ctx, "hvexport.convert",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("task.id", task.ID),
			attribute.String("file.input", task.InputPath),
			attribute.String("archive.type", task.Archive.String()),
		),
	)
	in.metrics.ActiveTasks.Add(ctx, 1)
	return ctx, span
}

// FinishFile ends the span opened by StartFile and records the outcome.
func (in *Instrumentation) FinishFile(ctx context.Context, span trace.Span, res Result) {
	if in == nil {
		return
	}
	status := "success"
	if res.Err != nil {
		status = "failure"
	}
	attrs := metric.WithAttributes(
		attribute.String("status", status),
		attribute.String("archive", res.Task.Archive.String()),
	)

	in.metrics.ActiveTasks.Add(ctx, -1)
	in.metrics.FilesProcessed.Add(ctx, 1, attrs)
	in.metrics.FileDuration.Record(ctx, res.Duration.Seconds(), attrs)
	if res.Err == nil {
		in.metrics.RowsEmitted.Add(ctx, int64(res.Outcome.Rows))
	}

	span.SetAttributes(
		attribute.String("file.status", status),
		attribute.Int("file.rows", res.Outcome.Rows),
		attribute.Float64("file.duration_seconds", res.Duration.Seconds()),
	)
	if res.Err != nil {
		infrastructure.RecordError(ctx, res.Err)
		span.SetAttributes(
			attribute.String("error.type", string(apperrors.TypeOf(res.Err))),
			attribute.String("error.stage", apperrors.StageOf(res.Err)),
		)
	} else {
		infrastructure.AddSpanEvent(ctx, "file.converted", map[string]interface{}{
			"rows":   res.Outcome.Rows,
			"output": res.Task.OutputPath,
		})
		span.SetStatus(codes.Ok, "file converted")
	}
	span.End()
}
