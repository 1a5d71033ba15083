// Command hvexport converts storage performance export archives into normalized
// spreadsheets.
//
// Usage:
//
//	hvexport -zip export.zip -extract extracted/ [-workers 8] [-format xlsx]
//	hvexport -dir extracted/ [-config hvexport.yaml] [-status-addr :9091]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hvexport/internal/config"
	"hvexport/internal/dataprocessing"
	"hvexport/internal/dialect"
	apperrors "hvexport/internal/errors"
	"hvexport/internal/exporter"
	"hvexport/internal/files"
	"hvexport/internal/infrastructure"
	"hvexport/internal/operations"
	transport "hvexport/internal/transport/http"
)

// Exit codes.
const (
	exitOK      = 0
	exitFatal   = 1
	exitPartial = 2
)

type options struct {
	zipPath    string
	extractDir string
	dir        string
	configPath string
	workers    int
	format     string
	timeout    time.Duration
	statusAddr string
	keepCSV    bool
	seed       uint64
	logLevel   string
	set        map[string]bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stderr)
	stop()
	os.Exit(code)
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("hvexport", flag.ContinueOnError)
	fs.SetOutput(stderr)

	opts := &options{set: map[string]bool{}}
	fs.StringVar(&opts.zipPath, "zip", "", "export tool zip archive to extract and convert")
	fs.StringVar(&opts.extractDir, "extract", "", "directory the archive is extracted into (required with -zip)")
	fs.StringVar(&opts.dir, "dir", "", "convert an already extracted directory instead of a zip")
	fs.StringVar(&opts.configPath, "config", "", "YAML config file (defaults to $HVX_CONFIG_FILE)")
	fs.IntVar(&opts.workers, "workers", 0, "concurrent conversions (0 = one per CPU)")
	fs.StringVar(&opts.format, "format", exporter.FormatXLSX, "output format: xlsx or csv")
	fs.DurationVar(&opts.timeout, "timeout", 0, "per-file timeout, e.g. 10m (0 = no limit)")
	fs.StringVar(&opts.statusAddr, "status-addr", "", "serve /healthz, /status and /metrics on this address")
	fs.BoolVar(&opts.keepCSV, "keep-csv", true, "keep source CSV files after conversion")
	fs.Uint64Var(&opts.seed, "seed", 0, "dispatch shuffle seed (0 = random)")
	fs.StringVar(&opts.logLevel, "log-level", "", "override the configured log level")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	fs.Visit(func(f *flag.Flag) { opts.set[f.Name] = true })

	switch {
	case opts.zipPath != "" && opts.dir != "":
		return nil, errors.New("-zip and -dir are mutually exclusive")
	case opts.zipPath != "" && opts.extractDir == "":
		return nil, errors.New("-extract is required with -zip")
	case opts.zipPath == "" && opts.dir == "":
		return nil, errors.New("one of -zip or -dir is required")
	}
	return opts, nil
}

// applyFlags overrides loaded configuration with explicitly set flags.
func applyFlags(cfg *config.Config, opts *options) error {
	if opts.set["workers"] {
		cfg.Pipeline.Workers = opts.workers
	}
	if opts.set["format"] {
		cfg.Output.Format = opts.format
	}
	if opts.set["timeout"] {
		cfg.Pipeline.TaskTimeout = opts.timeout
	}
	if opts.set["status-addr"] {
		cfg.Metrics.StatusAddr = opts.statusAddr
	}
	if opts.set["keep-csv"] {
		cfg.Pipeline.KeepInputs = opts.keepCSV
	}
	if opts.set["seed"] {
		cfg.Pipeline.Seed = opts.seed
	}
	if opts.set["log-level"] {
		cfg.Logging.Level = opts.logLevel
	}
	if cfg.Metrics.StatusAddr != "" && cfg.Metrics.Exporter == "none" {
		cfg.Metrics.Exporter = "prometheus"
	}
	return cfg.Validate()
}

func chartOptions(out config.OutputConfig) exporter.ChartOptions {
	opts := exporter.DefaultChartOptions()
	opts.SeriesLimit = out.ChartSeriesLimit
	opts.Spacing = out.ChartSpacing
	opts.Width = out.ChartWidth
	opts.Height = out.ChartHeight
	return opts
}

func run(ctx context.Context, args []string, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		fmt.Fprintln(stderr, "hvexport:", err)
		return exitFatal
	}

	cfg, err := config.Load(opts.configPath)
	if err == nil {
		err = applyFlags(cfg, opts)
	}
	if err != nil {
		fmt.Fprintln(stderr, "hvexport:", err)
		return exitFatal
	}

	logger, closer, err := infrastructure.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintln(stderr, "hvexport: failed to initialize logger:", err)
		return exitFatal
	}
	defer closer.Close()

	ctx = infrastructure.ContextWithTraceID(ctx)
	summary, err := convert(ctx, cfg, opts, logger)
	if err != nil {
		logger.ErrorContext(ctx, "run aborted",
			slog.String("error_type", string(apperrors.TypeOf(err))),
			slog.String("error", err.Error()))
		if summary == nil {
			return exitFatal
		}
	}
	if summary.AllSucceeded() {
		return exitOK
	}
	return exitPartial
}

func convert(ctx context.Context, cfg *config.Config, opts *options, logger *slog.Logger) (*operations.Summary, error) {
	dir := opts.dir
	if opts.zipPath != "" {
		if _, err := files.NewExtractor(logger).Extract(ctx, opts.zipPath, opts.extractDir); err != nil {
			return nil, err
		}
		dir = opts.extractDir
	}

	discovery := files.NewDiscovery("")
	all, err := discovery.Walk(dir)
	if err != nil {
		return nil, apperrors.NewStorageError(apperrors.StageRead, "list extracted files", err).WithPath(dir)
	}
	archive := dialect.Classify(files.Names(all))
	inputs, err := discovery.FindCSVFiles(dir)
	if err != nil {
		return nil, apperrors.NewStorageError(apperrors.StageRead, "find csv files", err).WithPath(dir)
	}
	logger.InfoContext(ctx, "archive classified",
		slog.String("dir", dir),
		slog.String("archive", archive.String()),
		slog.Int("files", len(inputs)))

	providers, err := infrastructure.InitializeOTel(infrastructure.NewOTelConfig(cfg.Metrics), logger)
	if err != nil {
		return nil, apperrors.NewConfigError("initialize telemetry", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), transport.ShutdownTimeout)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			logger.WarnContext(ctx, "telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()
	instr, err := operations.NewInstrumentation(providers)
	if err != nil {
		return nil, apperrors.NewConfigError("create instruments", err)
	}

	sink, err := exporter.NewSink(cfg.Output.Format, chartOptions(cfg.Output), logger)
	if err != nil {
		return nil, apperrors.NewConfigError("select output sink", err)
	}
	proc := operations.NewFileProcessor(dataprocessing.NewConverter(logger), sink, logger)

	pool, err := operations.NewPool(operations.PoolConfig{
		Workers:      cfg.Pipeline.Workers,
		TaskTimeout:  cfg.Pipeline.TaskTimeout,
		Shuffle:      cfg.Pipeline.Shuffle,
		Seed:         cfg.Pipeline.Seed,
		RemoveInputs: !cfg.Pipeline.KeepInputs,
	}, proc, logger, instr)
	if err != nil {
		return nil, err
	}

	if cfg.Metrics.StatusAddr != "" {
		serverCtx, stopServer := context.WithCancel(ctx)
		serverDone := make(chan struct{})
		status := transport.NewStatusHandler(pool, infrastructure.ServiceVersion, archive.String(), logger)
		server := transport.NewServer(cfg.Metrics.StatusAddr,
			transport.NewRouter(status, providers.PrometheusHTTP, logger), logger)
		go func() {
			defer close(serverDone)
			if err := server.Serve(serverCtx); err != nil {
				logger.ErrorContext(ctx, "status server failed", slog.String("error", err.Error()))
			}
		}()
		defer func() {
			stopServer()
			<-serverDone
		}()
	}

	summary, err := pool.Run(ctx, operations.NewTasks(files.Paths(inputs), archive, sink.Extension()))
	logSummary(ctx, logger, summary)
	return summary, err
}

func logSummary(ctx context.Context, logger *slog.Logger, summary *operations.Summary) {
	for _, f := range summary.Failures() {
		logger.WarnContext(ctx, "not converted",
			slog.String("path", f.Task.InputPath),
			slog.String("stage", apperrors.StageOf(f.Err)),
			slog.String("error_type", string(apperrors.TypeOf(f.Err))),
			slog.String("error", f.Err.Error()))
	}
	logger.InfoContext(ctx, "conversion summary",
		slog.String("batch_id", summary.BatchID),
		slog.Int("total", summary.Total),
		slog.Int("succeeded", summary.Succeeded),
		slog.Int("failed", summary.Failed),
		slog.Duration("duration", summary.Duration))
}
