// Package reconstruct repairs highend performance exports whose logical rows are split
// across several physical lines.
//
// A highend export starts with a fixed six line preamble, followed by a column header
// row whose index cell is the literal "No.", followed by data lines. Every line starts
// with an index cell and a timestamp cell. The exporter writes one physical line per
// group of metric columns, so a logical row for index N can appear several times,
// interleaved with other indices in no particular order.
//
// The Engine merges those lines back together:
//
//	"No.",time,A        <- opener for index 0 (header)
//	"1",09:00,10        <- opener for index 1
//	"No.",time,B        <- fragment: appended to index 0 -> "No.",time,A,B
//	"1",09:00,20        <- fragment: appended to index 1 -> "1",09:00,10,20
//
// The first physical line seen for an index is the opener. Later lines declaring the
// same index lose their index and timestamp cells and are column-appended to it in
// arrival order. The engine trusts arrival order and does not try to detect which
// line was written first by the exporter.
package reconstruct
