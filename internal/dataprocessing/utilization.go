package dataprocessing

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	apperrors "hvexport/internal/errors"
)

// utilizationLayouts are the timestamp forms seen in utilization exports.
var utilizationLayouts = []string{
	"2006/01/02 15:04",
	"2006/01/02 15:04:05",
	"01/02/2006 15:04",
	"01/02/2006 15:04:05",
}

const (
	// skipMarker in a row's timestamp cell marks the row as carrying no sample.
	skipMarker = "-"
	// minUtilizationCells is index, timestamp, workload type and one entity cell.
	minUtilizationCells = 4
)

// TransformUtilization expands reconstructed utilization text into long records.
//
// Each data row is: index, timestamp, workload type, then one cell per entity (named by
// the header at the same position) holding ';' separated per-worker values. A value is
// either "percent" (the worker is its 1-based position) or "worker:percent". Rows whose
// timestamp cell contains a dash are skipped. Empty values between separators are
// ignored and take no position, so "7;" is one record; this is deliberate, for
// compatibility with exports that terminate every list with ';'.
func TransformUtilization(ctx context.Context, text string) (*Table, error) {
	rows, err := readReconstructed(ctx, text)
	if err != nil {
		return nil, err
	}
	header := rows[0]
	table := &Table{Shape: ShapeLong, IndexName: LongHeader[0]}

	for i, row := range rows[1:] {
		n := i + 1
		if len(row) < minUtilizationCells {
			return nil, apperrors.NewTransformError(
				fmt.Sprintf("row %d has %d columns, need at least %d", n, len(row), minUtilizationCells), nil)
		}
		if strings.Contains(row[1], skipMarker) {
			continue
		}
		ts, err := parseTimestamp(strings.TrimSpace(row[1]), utilizationLayouts)
		if err != nil {
			return nil, apperrors.NewTransformError(fmt.Sprintf("row %d: parse timestamp", n), err)
		}
		workload := strings.TrimSpace(row[2])

		for j := 3; j < len(row); j++ {
			if j >= len(header) {
				return nil, apperrors.NewTransformError(
					fmt.Sprintf("row %d column %d has no entity header", n, j+1), nil)
			}
			entity := strings.TrimSpace(header[j])
			seq := 0
			for _, raw := range strings.Split(row[j], ";") {
				value := strings.TrimSpace(raw)
				// "7;" is one record, not two
				if value == "" {
					continue
				}
				seq++
				worker := strconv.Itoa(seq)
				if id, pct, ok := strings.Cut(value, ":"); ok {
					worker = strings.TrimSpace(id)
					value = strings.TrimSpace(pct)
				}
				percent, err := strconv.ParseFloat(value, 64)
				if err != nil {
					return nil, apperrors.NewTransformError(
						fmt.Sprintf("row %d entity %s: percent is not numeric", n, entity), err)
				}
				table.Records = append(table.Records, UtilizationRecord{
					Timestamp:    ts,
					WorkloadType: workload,
					Worker:       worker,
					EntityID:     entity,
					Percent:      percent,
				})
			}
		}
	}
	return table, nil
}
