package dataprocessing

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	apperrors "hvexport/internal/errors"
)

// ContextCheckInterval is how often (in rows) transforms check for cancellation.
const ContextCheckInterval = 1000

// midrangeLayouts are tried in order against "Date Time".
var midrangeLayouts = []string{
	"2006/01/02 15:04:05",
	"2006-01-02 15:04:05",
	"01/02/2006 15:04:05",
	"2006/01/02 15:04",
	"2006-01-02 15:04",
	"01/02/2006 15:04",
}

const (
	dateColumn = "Date"
	timeColumn = "Time"
	idColumn   = "ID"
)

// TransformMidrange pivots a midrange export into a grouped table. Every column except
// Date, Time and ID is a metric; output columns are metric x distinct ID, rows are
// distinct timestamps in ascending order. A repeated (timestamp, ID) pair is a
// DUPLICATE_KEY error.
func TransformMidrange(ctx context.Context, r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true
	reader.ReuseRecord = false

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, apperrors.NewTransformError("midrange export has no header row", nil)
	}
	if err != nil {
		return nil, apperrors.NewTransformError("read midrange header", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	dateIdx, timeIdx, idIdx := -1, -1, -1
	var metricIdx []int
	for i, name := range header {
		switch name {
		case dateColumn:
			dateIdx = i
		case timeColumn:
			timeIdx = i
		case idColumn:
			idIdx = i
		default:
			metricIdx = append(metricIdx, i)
		}
	}
	if dateIdx < 0 || timeIdx < 0 || idIdx < 0 {
		return nil, apperrors.NewTransformError(
			fmt.Sprintf("midrange header must contain %s, %s and %s columns", dateColumn, timeColumn, idColumn), nil).
			WithContext("header", header)
	}

	type cellKey struct {
		ts time.Time
		id string
	}
	values := make(map[cellKey][]string)
	stamps := make(map[time.Time]struct{})
	ids := make(map[string]struct{})

	for row := 2; ; row++ {
		if row%ContextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperrors.NewTransformError(fmt.Sprintf("row %d", row), err)
		}

		stamp := strings.TrimSpace(record[dateIdx]) + " " + strings.TrimSpace(record[timeIdx])
		ts, err := parseTimestamp(stamp, midrangeLayouts)
		if err != nil {
			return nil, apperrors.NewTransformError(fmt.Sprintf("row %d: parse timestamp", row), err)
		}
		id := strings.TrimSpace(record[idIdx])

		key := cellKey{ts: ts, id: id}
		if _, dup := values[key]; dup {
			return nil, apperrors.NewDuplicateKeyError(ts.Format(IndexLayout), id).WithContext("row", row)
		}
		cells := make([]string, len(metricIdx))
		for j, idx := range metricIdx {
			cells[j] = strings.TrimSpace(record[idx])
		}
		values[key] = cells
		stamps[ts] = struct{}{}
		ids[id] = struct{}{}
	}

	orderedStamps := make([]time.Time, 0, len(stamps))
	for ts := range stamps {
		orderedStamps = append(orderedStamps, ts)
	}
	sort.Slice(orderedStamps, func(i, j int) bool { return orderedStamps[i].Before(orderedStamps[j]) })
	orderedIDs := sortIDs(ids)

	table := &Table{
		Shape:     ShapeGrouped,
		IndexName: MidrangeIndexName,
		GroupName: MidrangeGroupName,
		Columns:   make([]Column, 0, len(metricIdx)*len(orderedIDs)),
		Index:     make([]string, len(orderedStamps)),
		Rows:      make([][]string, len(orderedStamps)),
	}
	for _, idx := range metricIdx {
		for _, id := range orderedIDs {
			table.Columns = append(table.Columns, Column{Group: header[idx], Name: id})
		}
	}
	for r, ts := range orderedStamps {
		table.Index[r] = ts.Format(IndexLayout)
		row := make([]string, 0, len(table.Columns))
		for m := range metricIdx {
			for _, id := range orderedIDs {
				cells, ok := values[cellKey{ts: ts, id: id}]
				if !ok {
					row = append(row, "")
					continue
				}
				row = append(row, cells[m])
			}
		}
		table.Rows[r] = row
	}
	return table, nil
}

// sortIDs orders IDs numerically when all of them are integers, lexically otherwise.
func sortIDs(set map[string]struct{}) []string {
	ids := make([]string, 0, len(set))
	numeric := true
	for id := range set {
		ids = append(ids, id)
		if _, err := strconv.ParseInt(id, 10, 64); err != nil {
			numeric = false
		}
	}
	if numeric {
		sort.Slice(ids, func(i, j int) bool {
			a, _ := strconv.ParseInt(ids[i], 10, 64)
			b, _ := strconv.ParseInt(ids[j], 10, 64)
			return a < b
		})
		return ids
	}
	sort.Strings(ids)
	return ids
}

func parseTimestamp(value string, layouts []string) (time.Time, error) {
	for _, layout := range layouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}
