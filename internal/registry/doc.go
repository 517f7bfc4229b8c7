// Package registry handles the raw exempt-organization registry extract:
// geographic filtering to the target county and classification of each
// organization into a sector and a revenue size bucket.
package registry
