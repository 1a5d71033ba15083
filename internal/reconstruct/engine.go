package reconstruct

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	apperrors "hvexport/internal/errors"
)

const (
	// PreambleLines is the number of fixed lines every highend export starts with.
	PreambleLines = 6
	// HeaderToken is the index cell of the column header row; it is treated as index 0.
	HeaderToken = "No."
	// maxLineBytes bounds a single physical line.
	maxLineBytes = 16 * 1024 * 1024
)

// ContextCheckInterval is how often (in lines) Reconstruct checks for cancellation,
// starting with the first line.
const ContextCheckInterval = 1000

// Line is one physical line of a highend export.
type Line struct {
	Index  int
	Fields []string
}

// ParseLine splits raw on commas and resolves its index cell. lineNo is only used
// for error reporting.
func ParseLine(raw string, lineNo int) (Line, error) {
	fields := strings.Split(raw, ",")
	cell := strings.ReplaceAll(fields[0], `"`, "")
	cell = strings.TrimSpace(cell)
	if cell == HeaderToken {
		return Line{Index: 0, Fields: fields}, nil
	}
	index, err := strconv.Atoi(cell)
	if err != nil {
		return Line{}, apperrors.NewMalformedIndexError(lineNo, fields[0], err)
	}
	if index < 0 {
		return Line{}, apperrors.NewMalformedIndexError(lineNo, fields[0], fmt.Errorf("negative index %d", index))
	}
	return Line{Index: index, Fields: fields}, nil
}

// Stats describes one reconstruction run.
type Stats struct {
	LinesRead int
	Openers   int
	Fragments int
	MaxIndex  int
}

// Result is the reconstructed content of one file.
type Result struct {
	records []Record
	Stats   Stats
}

// Records returns the logical rows in index order. The header row, if present, is index 0.
func (r *Result) Records() []Record {
	return r.records
}

// Text renders the logical rows as CSV text, one row per line.
func (r *Result) Text() string {
	var b strings.Builder
	for i, rec := range r.records {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(strings.Join(rec.Fields, ","))
	}
	return b.String()
}

// Engine rebuilds logical rows from a fragmented highend export.
type Engine struct {
	logger   *slog.Logger
	preamble int
}

// NewEngine creates an engine that skips the standard preamble.
func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		logger:   logger.With(slog.String("component", "reconstruct")),
		preamble: PreambleLines,
	}
}

// Reconstruct reads a highend export and merges fragments into logical rows.
//
// A line whose index is below the arena length and already opened is a fragment:
// its first two cells are dropped and the rest appended to that record. Any other
// line opens the record at its index, including a line aimed at a never-opened gap
// slot below the arena length; that slot is opened deliberately, for compatibility
// with exports that deliver a higher index before a lower one. A line whose index
// cannot be parsed aborts the file with a MALFORMED_INDEX error.
func (e *Engine) Reconstruct(ctx context.Context, r io.Reader) (*Result, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var (
		arena  Arena
		stats  Stats
		lineNo int
	)
	for scanner.Scan() {
		if lineNo%ContextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		lineNo++
		if lineNo <= e.preamble {
			continue
		}
		raw := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(raw) == "" {
			continue
		}
		stats.LinesRead++

		line, err := ParseLine(raw, lineNo)
		if err != nil {
			return nil, err
		}
		if line.Index > stats.MaxIndex {
			stats.MaxIndex = line.Index
		}

		// gap slots fall through and are opened
		if line.Index < arena.Len() && arena.Opened(line.Index) {
			if len(line.Fields) > 2 {
				arena.Append(line.Index, line.Fields[2:])
			}
			stats.Fragments++
			continue
		}
		arena.Open(line.Index, line.Fields)
		stats.Openers++
	}
	if err := scanner.Err(); err != nil {
		return nil, apperrors.NewStorageError(apperrors.StageRead, "read highend export", err)
	}

	e.logger.DebugContext(ctx, "reconstruction complete",
		slog.Int("lines", stats.LinesRead),
		slog.Int("openers", stats.Openers),
		slog.Int("fragments", stats.Fragments),
		slog.Int("max_index", stats.MaxIndex))

	return &Result{records: arena.Records(), Stats: stats}, nil
}
