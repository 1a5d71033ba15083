// Package config loads hvexport configuration.
//
// # Configuration Sources
//
// Configuration is layered, later sources overriding earlier ones:
//
//	1. Default values (Default)
//	2. A YAML file given with -config or HVX_CONFIG_FILE
//	3. Environment variables (highest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern HVX_<SECTION>_<FIELD>:
//
//	HVX_LOGGING_LEVEL=debug
//	HVX_PIPELINE_WORKERS=8
//	HVX_PIPELINE_TASK_TIMEOUT=15m
//	HVX_OUTPUT_FORMAT=csv
//	HVX_METRICS_STATUS_ADDR=:9091
//
// # Example File
//
//	logging:
//	  level: info
//	  output: both
//	  file_path: logs/hvexport.log
//	pipeline:
//	  workers: 8
//	  task_timeout: 10m
//	output:
//	  format: xlsx
//	  chart_series_limit: 250
//
// Load validates the result with struct tags; violations are reported as a single
// CONFIG error listing every failing field.
package config
