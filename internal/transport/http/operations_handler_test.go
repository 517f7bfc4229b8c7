package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "npopulse/internal/errors"
	"npopulse/internal/operations"
	"npopulse/internal/services"
)

type stubOperations struct {
	steps   []services.StepInfo
	state   *operations.OperationState
	runErr  error
	getErr  error
	lastReq operations.RunRequest
}

func (s *stubOperations) Steps() []services.StepInfo {
	return s.steps
}

func (s *stubOperations) Run(_ context.Context, req operations.RunRequest) (*operations.OperationState, error) {
	s.lastReq = req
	return s.state, s.runErr
}

func (s *stubOperations) GetRun(id string) (*operations.OperationState, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.state, nil
}

func completedRun(id string) *operations.OperationState {
	state := operations.NewOperationState(id)
	step := operations.NewStepState("score", "Merge and score")
	state.AddStep(step)
	state.Start()
	step.Start()
	step.Complete("scored 42 organizations")
	state.Complete()
	return state
}

func newOpsServer(ops *stubOperations) *httptest.Server {
	handler := NewOperationsHandler(ops, testLogger(), apierrors.NewErrorHandler(testLogger(), false))
	return httptest.NewServer(handler.Routes())
}

func TestStartRun_FullPipeline(t *testing.T) {
	ops := &stubOperations{
		steps: []services.StepInfo{{ID: "score", Name: "Merge and score"}},
		state: completedRun("run-1"),
	}
	srv := newOpsServer(ops)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, ops.lastReq.StepID)

	var run RunResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&run))
	assert.Equal(t, "run-1", run.ID)
	assert.Equal(t, "completed", run.Status)
	require.Len(t, run.Steps, 1)
	assert.Equal(t, "score", run.Steps[0].ID)
	assert.Equal(t, "scored 42 organizations", run.Steps[0].Message)
}

func TestStartRun_SingleStep(t *testing.T) {
	ops := &stubOperations{
		steps: []services.StepInfo{{ID: "score", Name: "Merge and score"}},
		state: completedRun("run-2"),
	}
	srv := newOpsServer(ops)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/", "application/json", strings.NewReader(`{"step_id":"score"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "score", ops.lastReq.StepID)
}

func TestStartRun_FailedRunReturnsState(t *testing.T) {
	boom := errors.New("fetch exploded")
	state := operations.NewOperationState("run-3")
	step := operations.NewStepState("fetch", "Fetch filings")
	state.AddStep(step)
	state.Start()
	step.Start()
	step.Fail(boom)
	state.Fail(boom)

	ops := &stubOperations{
		steps:  []services.StepInfo{{ID: "fetch", Name: "Fetch filings"}},
		state:  state,
		runErr: boom,
	}
	srv := newOpsServer(ops)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var run RunResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&run))
	assert.Equal(t, "failed", run.Status)
	assert.Equal(t, "fetch exploded", run.Error)
	require.Len(t, run.Steps, 1)
	assert.Equal(t, "failed", run.Steps[0].Status)
	assert.Equal(t, "fetch exploded", run.Steps[0].Error)
}

func TestStartRun_AlreadyRunning(t *testing.T) {
	ops := &stubOperations{runErr: services.ErrOperationRunning}
	srv := newOpsServer(ops)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestStartRun_InvalidStep(t *testing.T) {
	ops := &stubOperations{runErr: services.ErrInvalidStep}
	srv := newOpsServer(ops)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/", "application/json", strings.NewReader(`{"step_id":"nope"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStartRun_MalformedBody(t *testing.T) {
	srv := newOpsServer(&stubOperations{state: completedRun("run-4")})
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/", "application/json", strings.NewReader(`{broken`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetRun(t *testing.T) {
	ops := &stubOperations{
		steps: []services.StepInfo{{ID: "score", Name: "Merge and score"}},
		state: completedRun("run-5"),
	}
	srv := newOpsServer(ops)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/run-5")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var run RunResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&run))
	assert.Equal(t, "run-5", run.ID)
	assert.WithinDuration(t, time.Now(), run.StartTime, time.Minute)
}

func TestGetRun_NotFound(t *testing.T) {
	ops := &stubOperations{getErr: services.ErrOperationNotFound}
	srv := newOpsServer(ops)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/missing")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListSteps(t *testing.T) {
	ops := &stubOperations{steps: []services.StepInfo{
		{ID: "geo_filter", Name: "Geographic filter"},
		{ID: "classify", Name: "Sector and size classification"},
	}}
	srv := newOpsServer(ops)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/steps")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Steps []services.StepInfo `json:"steps"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Steps, 2)
	assert.Equal(t, "geo_filter", body.Steps[0].ID)
}
