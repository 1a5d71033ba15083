package dataprocessing

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	apperrors "hvexport/internal/errors"
)

// readReconstructed parses text produced by reconstruct.Result.Text. Rows may differ
// in width, so the field count is not enforced here.
func readReconstructed(ctx context.Context, text string) ([][]string, error) {
	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	var rows [][]string
	for n := 1; ; n++ {
		if n%ContextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperrors.NewTransformError(fmt.Sprintf("parse reconstructed row %d", n), err)
		}
		rows = append(rows, record)
	}
	if len(rows) == 0 {
		return nil, apperrors.NewTransformError("reconstructed export has no header row", nil)
	}
	return rows, nil
}

// TransformHighend builds a wide table from reconstructed highend text. The first row
// is the header; column 0 (the index) is dropped and column 1 becomes the row key.
// A row wider than the header is a TRANSFORM error; narrower rows are padded.
func TransformHighend(ctx context.Context, text string) (*Table, error) {
	rows, err := readReconstructed(ctx, text)
	if err != nil {
		return nil, err
	}
	header := rows[0]
	if len(header) < 2 {
		return nil, apperrors.NewTransformError(
			fmt.Sprintf("highend header has %d columns, need index and timestamp", len(header)), nil)
	}

	table := &Table{
		Shape:     ShapeWide,
		IndexName: strings.TrimSpace(header[1]),
		Columns:   make([]Column, 0, len(header)-2),
		Index:     make([]string, 0, len(rows)-1),
		Rows:      make([][]string, 0, len(rows)-1),
	}
	for _, name := range header[2:] {
		table.Columns = append(table.Columns, Column{Name: strings.TrimSpace(name)})
	}

	for i, row := range rows[1:] {
		if len(row) > len(header) {
			return nil, apperrors.NewTransformError(
				fmt.Sprintf("row %d has %d columns, header has %d", i+1, len(row), len(header)), nil).
				WithContext("index", row[0])
		}
		if len(row) < 2 {
			return nil, apperrors.NewTransformError(fmt.Sprintf("row %d has no timestamp column", i+1), nil)
		}
		cells := make([]string, len(header)-2)
		for j, v := range row[2:] {
			cells[j] = strings.TrimSpace(v)
		}
		table.Index = append(table.Index, strings.TrimSpace(row[1]))
		table.Rows = append(table.Rows, cells)
	}
	return table, nil
}
