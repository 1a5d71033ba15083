package exporter

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"hvexport/internal/dataprocessing"
	apperrors "hvexport/internal/errors"
)

const (
	// SheetName is the sheet every table is written to.
	SheetName = "Sheet1"
	// XLSXExtension is the workbook extension.
	XLSXExtension = ".xlsx"
)

// ChartOptions controls the line charts added next to the data.
type ChartOptions struct {
	// SeriesLimit is the maximum number of series per chart.
	SeriesLimit int
	// AnchorColumn and FirstAnchorRow place the first chart; later charts move down by Spacing rows.
	AnchorColumn   string
	FirstAnchorRow int
	Spacing        int
	// Width and Height are in pixels.
	Width  uint
	Height uint
	// AxisNumFmt formats the category (timestamp) axis.
	AxisNumFmt string
}

// DefaultChartOptions returns the standard chart layout.
func DefaultChartOptions() ChartOptions {
	return ChartOptions{
		SeriesLimit:    250,
		AnchorColumn:   "C",
		FirstAnchorRow: 5,
		Spacing:        60,
		Width:          1800,
		Height:         900,
		AxisNumFmt:     "dd-mmm-yyyy hh:mm",
	}
}

// ExcelSink writes tables to xlsx workbooks with line charts.
type ExcelSink struct {
	opts   ChartOptions
	logger *slog.Logger
}

// NewExcelSink creates an ExcelSink. Zero-valued options fall back to the defaults.
func NewExcelSink(opts ChartOptions, logger *slog.Logger) *ExcelSink {
	def := DefaultChartOptions()
	if opts.SeriesLimit <= 0 {
		opts.SeriesLimit = def.SeriesLimit
	}
	if opts.AnchorColumn == "" {
		opts.AnchorColumn = def.AnchorColumn
	}
	if opts.FirstAnchorRow <= 0 {
		opts.FirstAnchorRow = def.FirstAnchorRow
	}
	if opts.Spacing <= 0 {
		opts.Spacing = def.Spacing
	}
	if opts.Width == 0 {
		opts.Width = def.Width
	}
	if opts.Height == 0 {
		opts.Height = def.Height
	}
	if opts.AxisNumFmt == "" {
		opts.AxisNumFmt = def.AxisNumFmt
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ExcelSink{opts: opts, logger: logger.With(slog.String("component", "excel_sink"))}
}

// Extension implements Sink.
func (s *ExcelSink) Extension() string {
	return XLSXExtension
}

// Write renders the table into a new workbook at path.
func (s *ExcelSink) Write(ctx context.Context, path string, table *dataprocessing.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := s.writeHeader(f, table); err != nil {
		return apperrors.NewStorageError(apperrors.StageWrite, "write header", err).WithPath(path)
	}
	first := table.FirstDataRow()
	for i := 0; i < table.Len(); i++ {
		if i%dataprocessing.ContextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		cell, _ := excelize.CoordinatesToCellName(1, first+i)
		row := cellValues(table, i)
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return apperrors.NewStorageError(apperrors.StageWrite, fmt.Sprintf("write row %d", first+i), err).WithPath(path)
		}
	}
	if err := f.SetColWidth(SheetName, "A", "A", 20); err != nil {
		return apperrors.NewStorageError(apperrors.StageWrite, "set column width", err).WithPath(path)
	}

	charts := 0
	if table.Charted() {
		title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		n, err := s.addCharts(f, table, title)
		if err != nil {
			return apperrors.NewStorageError(apperrors.StageWrite, "add chart", err).WithPath(path)
		}
		charts = n
	}

	err := writeFile(ctx, path, func(w io.Writer) error {
		if err := f.Write(w); err != nil {
			return apperrors.NewStorageError(apperrors.StageWrite, "save workbook", err).WithPath(path)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.DebugContext(ctx, "workbook written",
		slog.String("path", path),
		slog.Int("rows", table.Len()),
		slog.Int("columns", len(table.Columns)),
		slog.Int("charts", charts))
	return nil
}

func (s *ExcelSink) writeHeader(f *excelize.File, table *dataprocessing.Table) error {
	header := table.Header()
	for r, labels := range header {
		cell, _ := excelize.CoordinatesToCellName(1, r+1)
		row := make([]interface{}, len(labels))
		for i, v := range labels {
			row[i] = v
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return err
		}
	}
	if table.Shape != dataprocessing.ShapeGrouped {
		return nil
	}

	// Merge runs of equal metric names in the group row.
	groups := header[0]
	start := 1
	for i := 2; i <= len(groups); i++ {
		if i < len(groups) && groups[i] == groups[start] {
			continue
		}
		if i-1 > start {
			from, _ := excelize.CoordinatesToCellName(start+1, 1)
			to, _ := excelize.CoordinatesToCellName(i, 1)
			if err := f.MergeCell(SheetName, from, to); err != nil {
				return err
			}
		}
		start = i
	}
	return nil
}

// addCharts adds one line chart per SeriesLimit columns and returns how many were added.
func (s *ExcelSink) addCharts(f *excelize.File, table *dataprocessing.Table, title string) (int, error) {
	first := table.FirstDataRow()
	last := first + table.Len() - 1
	// Series names come from the last labelled header row (IDs for grouped tables).
	nameRow := 1
	if table.Shape == dataprocessing.ShapeGrouped {
		nameRow = 2
	}
	categories := fmt.Sprintf("%s!$A$%d:$A$%d", SheetName, first, last)

	count := 0
	for start := 0; start < len(table.Columns); start += s.opts.SeriesLimit {
		end := start + s.opts.SeriesLimit
		if end > len(table.Columns) {
			end = len(table.Columns)
		}
		series := make([]excelize.ChartSeries, 0, end-start)
		for i := start; i < end; i++ {
			col, err := excelize.ColumnNumberToName(i + 2)
			if err != nil {
				return count, err
			}
			series = append(series, excelize.ChartSeries{
				Name:       fmt.Sprintf("%s!$%s$%d", SheetName, col, nameRow),
				Categories: categories,
				Values:     fmt.Sprintf("%s!$%s$%d:$%s$%d", SheetName, col, first, col, last),
			})
		}

		anchor := fmt.Sprintf("%s%d", s.opts.AnchorColumn, s.opts.FirstAnchorRow+count*s.opts.Spacing)
		if err := f.AddChart(SheetName, anchor, &excelize.Chart{
			Type:   excelize.Line,
			Series: series,
			Title:  []excelize.RichTextRun{{Text: title}},
			Legend: excelize.ChartLegend{Position: "right"},
			XAxis: excelize.ChartAxis{
				Title:  []excelize.RichTextRun{{Text: table.IndexName}},
				NumFmt: excelize.ChartNumFmt{CustomNumFmt: s.opts.AxisNumFmt},
			},
			YAxis: excelize.ChartAxis{
				Title:          []excelize.RichTextRun{{Text: "Values"}},
				MajorGridLines: true,
			},
			Dimension:    excelize.ChartDimension{Width: s.opts.Width, Height: s.opts.Height},
			ShowBlanksAs: "gap",
		}); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// cellValues converts data row i into typed cells: numbers become float64, grouped
// timestamps become time.Time, empty cells stay blank.
func cellValues(table *dataprocessing.Table, i int) []interface{} {
	if table.Shape == dataprocessing.ShapeLong {
		rec := table.Records[i]
		return []interface{}{
			rec.Timestamp.Format(dataprocessing.UtilizationLayout),
			rec.WorkloadType,
			rec.Worker,
			rec.EntityID,
			rec.Percent,
		}
	}

	row := make([]interface{}, 0, len(table.Rows[i])+1)
	if ts, err := time.Parse(dataprocessing.IndexLayout, table.Index[i]); err == nil && table.Shape == dataprocessing.ShapeGrouped {
		row = append(row, ts)
	} else {
		row = append(row, table.Index[i])
	}
	for _, v := range table.Rows[i] {
		if v == "" {
			row = append(row, nil)
			continue
		}
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			row = append(row, n)
			continue
		}
		row = append(row, v)
	}
	return row
}
