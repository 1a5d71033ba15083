package operations_test

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "hvexport/internal/errors"
	"hvexport/internal/infrastructure"
	"hvexport/internal/operations"
	"hvexport/internal/operations/testutil"
)

func TestInstrumentation_RecordsFileMetrics(t *testing.T) {
	providers, err := infrastructure.InitializeOTel(&infrastructure.OTelConfig{
		ServiceName:    infrastructure.ServiceName,
		ServiceVersion: "test",
		MetricExporter: "prometheus",
		TraceExporter:  "none",
	}, infrastructure.DiscardLogger())
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	instr, err := operations.NewInstrumentation(providers)
	require.NoError(t, err)

	proc := &testutil.RecordingProcessor{
		Fn: func(ctx context.Context, task operations.Task) (operations.Outcome, error) {
			if task.InputPath == "file-00.csv" {
				return operations.Outcome{}, apperrors.NewTransformError("bad percent", nil)
			}
			return operations.Outcome{Rows: 5}, nil
		},
	}
	pool, err := operations.NewPool(operations.PoolConfig{Workers: 2}, proc, infrastructure.DiscardLogger(), instr)
	require.NoError(t, err)

	_, err = pool.Run(context.Background(), testutil.Tasks(3))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	providers.PrometheusHTTP.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)

	text := string(body)
	assert.Contains(t, text, `hvexport_files_processed_total{`)
	assert.Contains(t, text, `status="failure"`)
	assert.Contains(t, text, `status="success"`)
	assert.Contains(t, text, "hvexport_rows_emitted_total")
	assert.Contains(t, text, "hvexport_file_duration_seconds_bucket")
}

func TestInstrumentation_NilIsNoop(t *testing.T) {
	var instr *operations.Instrumentation
	ctx, span := instr.StartFile(context.Background(), operations.Task{})
	assert.NotPanics(t, func() { instr.FinishFile(ctx, span, operations.Result{}) })
}
