package services

import (
	"context"
	"log/slog"
	"sync"

	"npopulse/internal/operations"
)

// StepInfo describes one registered pipeline step
type StepInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// OperationsService manages pipeline runs over the step manager. Only
// one run may be active at a time; the pipeline owns its output files
// and concurrent runs would race on them.
type OperationsService struct {
	manager *operations.Manager
	logger  *slog.Logger

	mu      sync.Mutex
	running bool
}

// NewOperationsService creates an operations service
func NewOperationsService(manager *operations.Manager, logger *slog.Logger) *OperationsService {
	if logger == nil {
		logger = slog.Default()
	}
	return &OperationsService{
		manager: manager,
		logger:  logger.With(slog.String("component", "operations_service")),
	}
}

// Steps lists the registered pipeline steps in run order
func (s *OperationsService) Steps() []StepInfo {
	steps := s.manager.GetRegistry().List()
	infos := make([]StepInfo, 0, len(steps))
	for _, step := range steps {
		infos = append(infos, StepInfo{ID: step.ID(), Name: step.Name()})
	}
	return infos
}

// Run executes a pipeline run synchronously. StepID narrows the run to
// a single step; invalid IDs fail before anything executes.
func (s *OperationsService) Run(ctx context.Context, req operations.RunRequest) (*operations.OperationState, error) {
	if req.StepID != "" {
		if _, err := s.manager.GetRegistry().Get(req.StepID); err != nil {
			return nil, ErrInvalidStep
		}
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, ErrOperationRunning
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	return s.manager.Execute(ctx, req)
}

// GetRun returns a run's state by ID
func (s *OperationsService) GetRun(id string) (*operations.OperationState, error) {
	state, ok := s.manager.GetRun(id)
	if !ok {
		return nil, ErrOperationNotFound
	}
	return state, nil
}

// Running reports whether a pipeline run is currently active
func (s *OperationsService) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
