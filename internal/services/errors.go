package services

import "errors"

// Service-level errors
var (
	ErrNoScoredData         = errors.New("no scored data available, run the pipeline first")
	ErrOrganizationNotFound = errors.New("organization not found")
	ErrNoCohortData         = errors.New("no cohort summary available")

	ErrOperationNotFound = errors.New("operation not found")
	ErrOperationRunning  = errors.New("operation already running")
	ErrInvalidStep       = errors.New("invalid pipeline step")

	ErrInvalidInput = errors.New("invalid input")
)
