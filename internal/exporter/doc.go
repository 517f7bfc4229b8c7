// Package exporter writes the final report artifacts: scored master
// profile and cohort summary CSVs under the reports directory, and an
// Excel workbook with one sheet per report for non-technical review.
package exporter
