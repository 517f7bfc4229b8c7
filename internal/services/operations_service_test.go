package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"npopulse/internal/operations"
)

type blockingStep struct {
	started chan struct{}
	release chan struct{}
}

func (s *blockingStep) ID() string                                { return "blocking" }
func (s *blockingStep) Name() string                              { return "Blocking" }
func (s *blockingStep) Validate(*operations.OperationState) error { return nil }

func (s *blockingStep) Execute(ctx context.Context, state *operations.OperationState) error {
	close(s.started)
	<-s.release
	return nil
}

type noopStep struct{ id string }

func (s *noopStep) ID() string                                { return s.id }
func (s *noopStep) Name() string                              { return "Noop " + s.id }
func (s *noopStep) Validate(*operations.OperationState) error { return nil }
func (s *noopStep) Execute(context.Context, *operations.OperationState) error {
	return nil
}

func TestOperationsService_Run(t *testing.T) {
	m := operations.NewManager(nil, nil, nil)
	require.NoError(t, m.Register(&noopStep{id: "one"}))
	svc := NewOperationsService(m, nil)

	state, err := svc.Run(context.Background(), operations.RunRequest{ID: "run-1"})
	require.NoError(t, err)
	assert.Equal(t, operations.OperationStatusCompleted, state.GetStatus())

	got, err := svc.GetRun("run-1")
	require.NoError(t, err)
	assert.Same(t, state, got)

	_, err = svc.GetRun("missing")
	assert.ErrorIs(t, err, ErrOperationNotFound)
}

func TestOperationsService_RejectsInvalidStep(t *testing.T) {
	m := operations.NewManager(nil, nil, nil)
	require.NoError(t, m.Register(&noopStep{id: "one"}))
	svc := NewOperationsService(m, nil)

	_, err := svc.Run(context.Background(), operations.RunRequest{StepID: "nope"})
	assert.ErrorIs(t, err, ErrInvalidStep)
}

func TestOperationsService_SingleActiveRun(t *testing.T) {
	step := &blockingStep{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	m := operations.NewManager(nil, nil, nil)
	require.NoError(t, m.Register(step))
	svc := NewOperationsService(m, nil)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := svc.Run(context.Background(), operations.RunRequest{})
		assert.NoError(t, err)
	}()

	<-step.started
	assert.True(t, svc.Running())

	_, err := svc.Run(context.Background(), operations.RunRequest{})
	assert.ErrorIs(t, err, ErrOperationRunning)

	close(step.release)
	wg.Wait()
	assert.False(t, svc.Running())
}

func TestOperationsService_Steps(t *testing.T) {
	m := operations.NewManager(nil, nil, nil)
	require.NoError(t, m.Register(&noopStep{id: "a"}))
	require.NoError(t, m.Register(&noopStep{id: "b"}))
	svc := NewOperationsService(m, nil)

	infos := svc.Steps()
	require.Len(t, infos, 2)
	assert.Equal(t, "a", infos[0].ID)
	assert.Equal(t, "Noop b", infos[1].Name)
}
