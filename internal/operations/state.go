package operations

import (
	"sync"
	"time"
)

// OperationStatus represents the overall run status
type OperationStatus string

const (
	OperationStatusPending   OperationStatus = "pending"
	OperationStatusRunning   OperationStatus = "running"
	OperationStatusCompleted OperationStatus = "completed"
	OperationStatusFailed    OperationStatus = "failed"
)

// OperationState is the complete state of one pipeline run. Steps pass
// in-memory artifacts to their successors through the artifact map so
// a full run never re-reads its own intermediate CSVs.
type OperationState struct {
	mu sync.RWMutex

	ID        string          `json:"id"`
	Status    OperationStatus `json:"status"`
	StartTime time.Time       `json:"start_time"`
	EndTime   *time.Time      `json:"end_time,omitempty"`

	Steps map[string]*StepState `json:"steps"`

	artifacts map[string]any

	Error error `json:"error,omitempty"`
}

// NewOperationState creates a new run state
func NewOperationState(id string) *OperationState {
	return &OperationState{
		ID:        id,
		Status:    OperationStatusPending,
		StartTime: time.Now(),
		Steps:     make(map[string]*StepState),
		artifacts: make(map[string]any),
	}
}

// Start marks the run as running
func (s *OperationState) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Status = OperationStatusRunning
	s.StartTime = time.Now()
}

// Complete marks the run as completed
func (s *OperationState) Complete() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.EndTime = &now
	s.Status = OperationStatusCompleted
}

// Fail marks the run as failed
func (s *OperationState) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.EndTime = &now
	s.Status = OperationStatusFailed
	s.Error = err
}

// GetStatus returns the run status under the read lock
func (s *OperationState) GetStatus() OperationStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Status
}

// AddStep registers a step's runtime state under its ID
func (s *OperationState) AddStep(step *StepState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Steps[step.ID] = step
}

// GetStep returns a step's runtime state, nil when unknown
func (s *OperationState) GetStep(id string) *StepState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Steps[id]
}

// SetArtifact stores an in-memory artifact for downstream steps
func (s *OperationState) SetArtifact(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.artifacts[key] = value
}

// GetArtifact returns a previously stored artifact
func (s *OperationState) GetArtifact(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.artifacts[key]
	return v, ok
}
