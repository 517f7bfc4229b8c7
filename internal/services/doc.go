// Package services holds the application service layer between the
// HTTP transport and the pipeline packages: read access to the scored
// organization table for the dashboard, pipeline run management, and
// health reporting.
package services
