// Package http provides the dashboard HTTP API: scored organization
// listings, cohort summaries, pipeline run control and health, with
// RFC 7807 problem responses throughout.
package http
