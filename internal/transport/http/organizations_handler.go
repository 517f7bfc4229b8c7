package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "npopulse/internal/errors"
	"npopulse/internal/middleware"
	"npopulse/internal/momentum"
	"npopulse/internal/registry"
	"npopulse/internal/scoring"
	"npopulse/internal/services"
)

var (
	sizeBucketValues = []string{
		string(registry.SizeMicro),
		string(registry.SizeSmall),
		string(registry.SizeMedium),
		string(registry.SizeLarge),
		string(registry.SizeMajor),
	}
	momentumClassValues = []string{
		string(momentum.ClassTurbulent),
		string(momentum.ClassStrongUp),
		string(momentum.ClassStrongDown),
		string(momentum.ClassWeakUp),
		string(momentum.ClassWeakDown),
		string(momentum.ClassStable),
		string(momentum.ClassUncategorized),
	}
	targetFlagValues = []string{
		string(scoring.FlagHighPriority),
		string(scoring.FlagWatchlist),
		string(scoring.FlagLowPriority),
		string(scoring.FlagNotAFit),
	}
)

// OrganizationHandler serves the scored organization views
type OrganizationHandler struct {
	service      DashboardServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	params       *middleware.QueryParamValidator
}

// NewOrganizationHandler creates an organization handler
func NewOrganizationHandler(service DashboardServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *OrganizationHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OrganizationHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "organization_handler")),
		errorHandler: errorHandler,
		params:       middleware.NewQueryParamValidator(logger, errorHandler),
	}
}

// Routes returns the organization routes
func (h *OrganizationHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/", h.List)
	r.Get("/summaries/sectors", h.SectorSummaries)
	r.Get("/cohort", h.Cohort)

	r.Route("/{ein}", func(r chi.Router) {
		r.Use(h.EINCtx)
		r.Get("/", h.Get)
	})

	return r
}

// EINCtx validates the EIN path parameter
func (h *OrganizationHandler) EINCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ein := chi.URLParam(r, "ein")
		if len(ein) != 9 {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("ein", "must be a 9-digit employer identification number"))
			return
		}
		if _, err := strconv.Atoi(ein); err != nil {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("ein", "must be a 9-digit employer identification number"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// List handles GET /api/organizations with optional filters
func (h *OrganizationHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, ok := h.parseFilter(w, r)
	if !ok {
		return
	}

	page, err := h.service.ListOrganizations(r.Context(), filter)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, page)
}

// Get handles GET /api/organizations/{ein}
func (h *OrganizationHandler) Get(w http.ResponseWriter, r *http.Request) {
	ein := chi.URLParam(r, "ein")

	profile, err := h.service.GetOrganization(r.Context(), ein)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, profile)
}

// SectorSummaries handles GET /api/organizations/summaries/sectors
func (h *OrganizationHandler) SectorSummaries(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.service.SectorSummaries(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]any{"sectors": summaries})
}

// Cohort handles GET /api/organizations/cohort
func (h *OrganizationHandler) Cohort(w http.ResponseWriter, r *http.Request) {
	cells, err := h.service.Cohort(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]any{"cohorts": cells})
}

func (h *OrganizationHandler) parseFilter(w http.ResponseWriter, r *http.Request) (services.OrgFilter, bool) {
	var filter services.OrgFilter
	var ok bool

	if filter.Limit, ok = h.params.ValidateInt(w, r, "limit", 1, 500, 50); !ok {
		return filter, false
	}
	if filter.Offset, ok = h.params.ValidateInt(w, r, "offset", 0, 1_000_000, 0); !ok {
		return filter, false
	}
	if filter.MinScore, ok = h.params.ValidateInt(w, r, "min_score", 0, 100, 0); !ok {
		return filter, false
	}
	if filter.SizeBucket, ok = h.params.ValidateEnum(w, r, "size_bucket", sizeBucketValues, ""); !ok {
		return filter, false
	}
	if filter.Class, ok = h.params.ValidateEnum(w, r, "momentum_class", momentumClassValues, ""); !ok {
		return filter, false
	}
	if filter.TargetFlag, ok = h.params.ValidateEnum(w, r, "target_flag", targetFlagValues, ""); !ok {
		return filter, false
	}

	filter.Sector = r.URL.Query().Get("sector")
	filter.OnlyHollow = r.URL.Query().Get("only_hollow") == "true"

	return filter, true
}

func (h *OrganizationHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrOrganizationNotFound):
		h.errorHandler.HandleError(w, r, apierrors.ErrOrganizationNotFound)
	case errors.Is(err, services.ErrNoScoredData):
		h.errorHandler.HandleError(w, r, apierrors.ErrScoredDataNotFound)
	default:
		h.logger.ErrorContext(r.Context(), "dashboard request failed",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		h.errorHandler.HandleError(w, r, err)
	}
}
