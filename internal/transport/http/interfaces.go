package http

import (
	"context"

	"npopulse/internal/operations"
	"npopulse/internal/scoring"
	"npopulse/internal/services"
)

// DashboardServiceInterface defines read access to the scored table
type DashboardServiceInterface interface {
	ListOrganizations(ctx context.Context, filter services.OrgFilter) (*services.OrgPage, error)
	GetOrganization(ctx context.Context, ein string) (*scoring.MasterProfile, error)
	SectorSummaries(ctx context.Context) ([]services.SectorSummary, error)
	Cohort(ctx context.Context) ([]scoring.CohortCell, error)
}

// OperationsServiceInterface defines pipeline run control
type OperationsServiceInterface interface {
	Steps() []services.StepInfo
	Run(ctx context.Context, req operations.RunRequest) (*operations.OperationState, error)
	GetRun(id string) (*operations.OperationState, error)
}

// HealthServiceInterface defines the health check
type HealthServiceInterface interface {
	Check(ctx context.Context) services.HealthStatus
}
