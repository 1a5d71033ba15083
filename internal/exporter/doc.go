// Package exporter renders normalized tables to files.
//
// Two sinks implement Sink:
//
// ExcelSink: writes the table to Sheet1 of a new workbook and adds line charts for
// tables that share a timestamp axis. Series are split across several charts when a
// table has more columns than ChartOptions.SeriesLimit.
//
// CSVSink: writes the flattened table (header rows first) with a UTF-8 BOM for
// Excel compatibility.
//
// Example usage:
//
//	sink, err := exporter.NewSink("xlsx", exporter.DefaultChartOptions(), logger)
//	if err != nil {
//	    return err
//	}
//	out := dialect.OutputPath(input, sink.Extension())
//	err = sink.Write(ctx, out, table)
package exporter
