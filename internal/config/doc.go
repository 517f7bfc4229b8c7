// Package config centralizes application configuration and filesystem layout.
//
// Configuration is loaded from environment variables (prefix NPO) layered over
// an optional YAML file. The Paths type is the single source of truth for the
// data-directory layout used by every pipeline stage.
package config
