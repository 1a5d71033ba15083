// Package files extracts export archives and discovers the CSV files inside them.
//
// Extractor unpacks a zip, then expands any nested zips into sibling directories
// and removes them. Entries that would land outside the destination are rejected.
//
// Discovery walks an extracted tree. FindCSVFiles skips metadata marker files and
// outputs from a previous run; Walk lists everything, which is what archive
// classification needs.
//
//	res, err := files.NewExtractor(logger).Extract(ctx, "export.zip", "extracted")
//	all, err := files.NewDiscovery("").Walk(res.Dest)
//	archive := dialect.Classify(files.Names(all))
package files
