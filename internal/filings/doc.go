// Package filings retrieves per-organization filing histories from a
// remote nonprofit filings API, caches the raw documents on disk, and
// flattens them into a long-format financial time series.
//
// The fetch side is deliberately tolerant: a missing, partial, or
// malformed document for one organization is logged and skipped, never
// aborting the batch.
package filings
