// Package dataset handles ingestion of the raw body-composition data.
//
// It covers the first two pipeline stages: loading a delimited CSV file or
// Excel workbook (local path or URL) into typed records, and deriving the
// lean body mass percentage while narrowing each record to the attributes
// the summary table presents.
//
// Data flow:
//
//	CSV/Workbook → Loader → Table → Derive → []DerivedRecord
//
// Loading is a single attempt with no retry; schema problems surface as
// malformed-input errors with row/column context.
package dataset
