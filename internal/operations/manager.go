package operations

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"npopulse/internal/infrastructure"
)

// RunRequest describes one pipeline run. An empty StepID means the
// full registered sequence; otherwise only the named step runs.
type RunRequest struct {
	ID     string `json:"id,omitempty"`
	StepID string `json:"step_id,omitempty"`
}

// Manager drives pipeline runs sequentially over the registered steps
type Manager struct {
	registry *Registry
	metrics  *infrastructure.Metrics
	logger   *slog.Logger

	mu   sync.RWMutex
	runs map[string]*OperationState
}

// NewManager creates an operation manager
func NewManager(registry *Registry, metrics *infrastructure.Metrics, logger *slog.Logger) *Manager {
	if registry == nil {
		registry = NewRegistry()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		registry: registry,
		metrics:  metrics,
		logger:   logger.With(slog.String("component", "operation_manager")),
		runs:     make(map[string]*OperationState),
	}
}

// Register adds a step to the manager's registry
func (m *Manager) Register(step Step) error {
	return m.registry.Register(step)
}

// GetRegistry returns the registry for accessing registered steps
func (m *Manager) GetRegistry() *Registry {
	return m.registry
}

// GetRun returns a run's state by ID
func (m *Manager) GetRun(id string) (*OperationState, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	state, ok := m.runs[id]
	return state, ok
}

// Execute runs the requested steps in order. The first failure stops
// the run; remaining steps are marked skipped. The returned state is
// always non-nil.
func (m *Manager) Execute(ctx context.Context, req RunRequest) (*OperationState, error) {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	state := NewOperationState(req.ID)
	m.storeRun(state)

	var steps []Step
	if req.StepID != "" {
		step, err := m.registry.Get(req.StepID)
		if err != nil {
			state.Fail(err)
			return state, err
		}
		steps = []Step{step}
	} else {
		steps = m.registry.List()
	}

	for _, step := range steps {
		state.AddStep(NewStepState(step.ID(), step.Name()))
	}

	state.Start()
	m.logger.InfoContext(ctx, "operation started",
		slog.String("operation_id", state.ID),
		slog.Int("steps", len(steps)),
	)

	var failed error
	for i, step := range steps {
		if failed != nil || ctx.Err() != nil {
			state.GetStep(step.ID()).Skip("previous step failed")
			continue
		}

		if err := m.runStep(ctx, state, step); err != nil {
			failed = err
			m.logger.ErrorContext(ctx, "step failed",
				slog.String("operation_id", state.ID),
				slog.String("step_id", step.ID()),
				slog.Int("step_index", i),
				slog.String("error", err.Error()),
			)
		}
	}
	if failed == nil {
		failed = ctx.Err()
	}

	if failed != nil {
		state.Fail(failed)
		return state, failed
	}

	state.Complete()
	m.logger.InfoContext(ctx, "operation completed",
		slog.String("operation_id", state.ID),
	)
	return state, nil
}

func (m *Manager) runStep(ctx context.Context, state *OperationState, step Step) error {
	stepState := state.GetStep(step.ID())
	stepState.Start()

	if err := step.Validate(state); err != nil {
		verr := NewValidationError(step.ID(), err.Error())
		stepState.Fail(verr)
		return verr
	}

	err := step.Execute(ctx, state)
	m.recordDuration(ctx, step.ID(), stepState)

	if err != nil {
		xerr := NewExecutionError(step.ID(), err)
		stepState.Fail(xerr)
		return xerr
	}

	stepState.Complete("")
	m.logger.InfoContext(ctx, "step completed",
		slog.String("operation_id", state.ID),
		slog.String("step_id", step.ID()),
		slog.Duration("duration", stepState.Duration()),
	)
	return nil
}

func (m *Manager) recordDuration(ctx context.Context, stepID string, stepState *StepState) {
	if m.metrics == nil || m.metrics.StepDuration == nil {
		return
	}
	m.metrics.StepDuration.Record(ctx, stepState.Duration().Seconds(),
		metric.WithAttributes(attribute.String("step", stepID)))
}

func (m *Manager) storeRun(state *OperationState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[state.ID] = state
}
