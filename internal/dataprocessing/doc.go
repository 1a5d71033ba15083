// Package dataprocessing turns performance exports into normalized tables.
//
// # Dialects
//
// Three transformations are provided, one per input layout:
//
//  1. TransformMidrange pivots long midrange rows (Date, Time, ID, metrics...) into a
//     grouped table keyed by timestamp with one column per (metric, ID) pair.
//  2. TransformHighend takes text rebuilt by package reconstruct and keys each row by
//     its timestamp cell, dropping the index column.
//  3. TransformUtilization expands the semicolon separated per-worker values of highend
//     utilization exports into long records.
//
// Converter picks the right path for a file and archive type.
//
// # Errors
//
// Every failure is an *errors.AppError scoped to the file being converted:
// DUPLICATE_KEY when a midrange pivot would overwrite a cell, TRANSFORM for coercion
// and shape failures, MALFORMED_INDEX from the reconstruction stage.
package dataprocessing
