package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "npopulse/internal/errors"
	"npopulse/internal/operations"
	"npopulse/internal/services"
)

// OperationsHandler controls pipeline runs over HTTP
type OperationsHandler struct {
	service      OperationsServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewOperationsHandler creates an operations handler
func NewOperationsHandler(service OperationsServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *OperationsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OperationsHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "operations_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the operation routes
func (h *OperationsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Post("/", h.StartRun)
	r.Get("/steps", h.ListSteps)
	r.Get("/{id}", h.GetRun)

	return r
}

// RunRequestBody is the POST /api/operations payload. An empty step_id
// runs the full pipeline.
type RunRequestBody struct {
	StepID string `json:"step_id,omitempty"`
}

// RunResponse is the JSON view of a pipeline run
type RunResponse struct {
	ID        string            `json:"id"`
	Status    string            `json:"status"`
	StartTime time.Time         `json:"start_time"`
	EndTime   *time.Time        `json:"end_time,omitempty"`
	Steps     []RunStepResponse `json:"steps"`
	Error     string            `json:"error,omitempty"`
}

// RunStepResponse is the JSON view of one step within a run
type RunStepResponse struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Status    string     `json:"status"`
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	Message   string     `json:"message,omitempty"`
	Error     string     `json:"error,omitempty"`
}

// StartRun handles POST /api/operations. The run executes
// synchronously; the response carries the final state.
func (h *OperationsHandler) StartRun(w http.ResponseWriter, r *http.Request) {
	var body RunRequestBody
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
			return
		}
	}

	h.logger.InfoContext(r.Context(), "starting pipeline run",
		slog.String("step_id", body.StepID),
	)

	state, err := h.service.Run(r.Context(), operations.RunRequest{StepID: body.StepID})
	if err != nil && state == nil {
		h.handleServiceError(w, r, err)
		return
	}

	// A failed run still yields a state describing which step broke
	status := http.StatusOK
	if err != nil {
		status = http.StatusUnprocessableEntity
	}
	render.Status(r, status)
	render.JSON(w, r, h.toResponse(state))
}

// GetRun handles GET /api/operations/{id}
func (h *OperationsHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	state, err := h.service.GetRun(id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, h.toResponse(state))
}

// ListSteps handles GET /api/operations/steps
func (h *OperationsHandler) ListSteps(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]any{"steps": h.service.Steps()})
}

func (h *OperationsHandler) toResponse(state *operations.OperationState) RunResponse {
	resp := RunResponse{
		ID:        state.ID,
		Status:    string(state.GetStatus()),
		StartTime: state.StartTime,
		EndTime:   state.EndTime,
	}
	if state.Error != nil {
		resp.Error = state.Error.Error()
	}

	// Emit steps in pipeline order
	for _, info := range h.service.Steps() {
		step := state.GetStep(info.ID)
		if step == nil {
			continue
		}
		stepResp := RunStepResponse{
			ID:        step.ID,
			Name:      step.Name,
			Status:    string(step.GetStatus()),
			StartTime: step.StartTime,
			EndTime:   step.EndTime,
			Message:   step.Message,
		}
		if step.Error != nil {
			stepResp.Error = step.Error.Error()
		}
		resp.Steps = append(resp.Steps, stepResp)
	}

	return resp
}

func (h *OperationsHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrOperationNotFound):
		h.errorHandler.HandleError(w, r, apierrors.NotFoundError("operation"))
	case errors.Is(err, services.ErrOperationRunning):
		h.errorHandler.HandleError(w, r, apierrors.ErrConflict)
	case errors.Is(err, services.ErrInvalidStep):
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("step_id", "unknown pipeline step"))
	default:
		h.logger.ErrorContext(r.Context(), "operation request failed",
			slog.String("error", err.Error()),
		)
		h.errorHandler.HandleError(w, r, apierrors.ErrPipelineExecution(err))
	}
}
