// Package operations orchestrates the ingestion pipeline: each stage
// is a Step with validation and execution phases, registered in run
// order and driven sequentially by the Manager. Steps hand artifacts
// to their successors through the shared operation state; a failed
// step stops the run and marks the remaining steps skipped.
package operations
