package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "hvexport/internal/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hvexport.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "xlsx", cfg.Output.Format)
	assert.Equal(t, 250, cfg.Output.ChartSeriesLimit)
	assert.Equal(t, 10*time.Minute, cfg.Pipeline.TaskTimeout)
	assert.True(t, cfg.Pipeline.Shuffle)
}

func TestLoad_DefaultsOnly(t *testing.T) {
	t.Setenv(ConfigFileEnv, "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
logging:
  level: debug
pipeline:
  workers: 3
  task_timeout: 90s
output:
  format: csv
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format, "unset fields keep defaults")
	assert.Equal(t, 3, cfg.Pipeline.Workers)
	assert.Equal(t, 90*time.Second, cfg.Pipeline.TaskTimeout)
	assert.Equal(t, "csv", cfg.Output.Format)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "pipeline:\n  workers: 3\n")
	t.Setenv("HVX_PIPELINE_WORKERS", "7")
	t.Setenv("HVX_METRICS_STATUS_ADDR", "localhost:9091")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Pipeline.Workers)
	assert.Equal(t, "localhost:9091", cfg.Metrics.StatusAddr)
}

func TestLoad_FileFromEnv(t *testing.T) {
	t.Setenv(ConfigFileEnv, writeConfig(t, "output:\n  chart_spacing: 40\n"))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 40, cfg.Output.ChartSpacing)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
		env  map[string]string
	}{
		{
			name: "missing file",
			path: func(t *testing.T) string { return filepath.Join(t.TempDir(), "absent.yaml") },
		},
		{
			name: "unknown key",
			path: func(t *testing.T) string { return writeConfig(t, "pipeline:\n  wrokers: 2\n") },
		},
		{
			name: "invalid format",
			path: func(t *testing.T) string { return writeConfig(t, "output:\n  format: pdf\n") },
		},
		{
			name: "series limit above excel maximum",
			path: func(t *testing.T) string { return writeConfig(t, "output:\n  chart_series_limit: 300\n") },
		},
		{
			name: "negative workers from env",
			path: func(t *testing.T) string { return "" },
			env:  map[string]string{"HVX_PIPELINE_WORKERS": "-1"},
		},
		{
			name: "unparsable env duration",
			path: func(t *testing.T) string { return "" },
			env:  map[string]string{"HVX_PIPELINE_TASK_TIMEOUT": "soon"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(ConfigFileEnv, "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(tt.path(t))
			require.Error(t, err)
			assert.True(t, apperrors.Is(err, apperrors.ErrTypeConfig), "got %v", err)
		})
	}
}

func TestValidate_FilePathRequiredForFileOutput(t *testing.T) {
	cfg := Default()
	cfg.Logging.Output = "file"
	cfg.Logging.FilePath = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FilePath")

	cfg.Logging.Output = "console"
	assert.NoError(t, cfg.Validate())
}
