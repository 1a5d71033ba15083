package dataprocessing

import (
	"strconv"
	"time"
)

// Shape identifies the layout of a Table.
type Shape int

const (
	// ShapeWide is one row per timestamp with flat metric columns (highend).
	ShapeWide Shape = iota
	// ShapeGrouped is one row per timestamp with (metric, ID) column groups (midrange).
	ShapeGrouped
	// ShapeLong is one record per observation (highend utilization).
	ShapeLong
)

// String returns the shape name used in logs.
func (s Shape) String() string {
	switch s {
	case ShapeWide:
		return "wide"
	case ShapeGrouped:
		return "grouped"
	case ShapeLong:
		return "long"
	default:
		return "unknown"
	}
}

const (
	// MidrangeIndexName labels the combined Date and Time column.
	MidrangeIndexName = "DateTime"
	// MidrangeGroupName labels the entity level of a grouped header.
	MidrangeGroupName = "ID"
	// IndexLayout formats midrange timestamps.
	IndexLayout = "2006-01-02 15:04:05"
	// UtilizationLayout formats utilization timestamps.
	UtilizationLayout = "2006/01/02 15:04"
)

// LongHeader is the header of a long-format table.
var LongHeader = []string{"Timestamp", "WorkloadType", "Worker", "EntityID", "Percent"}

// Column is a table column. Group is empty for wide tables.
type Column struct {
	Group string
	Name  string
}

// UtilizationRecord is one per-worker utilization observation.
type UtilizationRecord struct {
	Timestamp    time.Time
	WorkloadType string
	Worker       string
	EntityID     string
	Percent      float64
}

// Strings renders the record in LongHeader order.
func (r UtilizationRecord) Strings() []string {
	return []string{
		r.Timestamp.Format(UtilizationLayout),
		r.WorkloadType,
		r.Worker,
		r.EntityID,
		strconv.FormatFloat(r.Percent, 'f', -1, 64),
	}
}

// Table is the normalized result of transforming one input file. Wide and grouped
// tables use Index, Columns and Rows; long tables use Records.
type Table struct {
	Shape     Shape
	IndexName string
	GroupName string
	Columns   []Column
	Index     []string
	Rows      [][]string
	Records   []UtilizationRecord
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	if t.Shape == ShapeLong {
		return len(t.Records)
	}
	return len(t.Index)
}

// HeaderRows returns how many header rows precede the data when the table is rendered.
func (t *Table) HeaderRows() int {
	if t.Shape == ShapeGrouped {
		return 3
	}
	return 1
}

// FirstDataRow returns the 1-based row number of the first data row when rendered.
func (t *Table) FirstDataRow() int {
	return t.HeaderRows() + 1
}

// Charted reports whether the table has a shared timestamp axis to chart against.
func (t *Table) Charted() bool {
	return t.Shape != ShapeLong && len(t.Columns) > 0 && len(t.Index) > 0
}

// SeriesName names column i in chart legends.
func (t *Table) SeriesName(i int) string {
	c := t.Columns[i]
	if c.Group == "" {
		return c.Name
	}
	return c.Group + " " + c.Name
}

// Header returns the header rows as rendered.
func (t *Table) Header() [][]string {
	switch t.Shape {
	case ShapeLong:
		return [][]string{append([]string(nil), LongHeader...)}
	case ShapeGrouped:
		groups := make([]string, 0, len(t.Columns)+1)
		names := make([]string, 0, len(t.Columns)+1)
		groups = append(groups, "")
		names = append(names, t.GroupName)
		for _, c := range t.Columns {
			groups = append(groups, c.Group)
			names = append(names, c.Name)
		}
		return [][]string{groups, names, {t.IndexName}}
	default:
		row := make([]string, 0, len(t.Columns)+1)
		row = append(row, t.IndexName)
		for _, c := range t.Columns {
			row = append(row, c.Name)
		}
		return [][]string{row}
	}
}

// Row returns data row i as rendered, index cell first.
func (t *Table) Row(i int) []string {
	if t.Shape == ShapeLong {
		return t.Records[i].Strings()
	}
	row := make([]string, 0, len(t.Rows[i])+1)
	row = append(row, t.Index[i])
	return append(row, t.Rows[i]...)
}
