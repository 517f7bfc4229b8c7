// Package app assembles the dashboard server: configuration, logging,
// metrics, the pipeline step manager and the HTTP API, with graceful
// shutdown.
package app
