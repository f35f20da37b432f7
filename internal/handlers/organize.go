package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"fs-organizer/internal/contextutil"
	"fs-organizer/internal/service"
)

// OrganizeRequest is the payload for POST /api/organize.
type OrganizeRequest struct {
	Root  string `json:"root"`
	Depth int    `json:"depth"`
	Apply bool   `json:"apply"`
}

// ApplyRequest is the payload for POST /api/apply.
type ApplyRequest struct {
	Root   string `json:"root"`
	DryRun bool   `json:"dry_run"`
}

// OrganizeHandler starts background organize jobs.
type OrganizeHandler struct {
	organizeService service.OrganizeService
}

// NewOrganizeHandler creates a new OrganizeHandler.
func NewOrganizeHandler(organizeService service.OrganizeService) *OrganizeHandler {
	return &OrganizeHandler{organizeService: organizeService}
}

// ServeHTTP handles POST /api/organize. The run continues after the
// response; its progress is available from the job endpoint.
func (h *OrganizeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req OrganizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	job, err := h.organizeService.StartOrganize(ctx, service.OrganizeRequest{
		Root:  req.Root,
		Depth: req.Depth,
		Apply: req.Apply,
	})
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to start organize job")
		return
	}

	w.Header().Set("Location", "/api/jobs/"+job.ID)
	writeJSON(ctx, w, http.StatusAccepted, jobFromService(job))
}

// JobHandler reports background job state.
type JobHandler struct {
	organizeService service.OrganizeService
}

// NewJobHandler creates a new JobHandler.
func NewJobHandler(organizeService service.OrganizeService) *JobHandler {
	return &JobHandler{organizeService: organizeService}
}

// ServeHTTP handles GET /api/jobs/{id}.
func (h *JobHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	job, err := h.organizeService.Job(ctx, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to load job")
		return
	}
	writeJSON(ctx, w, http.StatusOK, jobFromService(job))
}

// PlanHandler serves the catalog and the plan of a root.
type PlanHandler struct {
	organizeService service.OrganizeService
	catalogOnly     bool
}

// NewPlanHandler creates a handler for GET /api/plan.
func NewPlanHandler(organizeService service.OrganizeService) *PlanHandler {
	return &PlanHandler{organizeService: organizeService}
}

// NewCatalogHandler creates a handler for GET /api/catalog, which omits movements.
func NewCatalogHandler(organizeService service.OrganizeService) *PlanHandler {
	return &PlanHandler{organizeService: organizeService, catalogOnly: true}
}

// ServeHTTP handles GET /api/plan?root= and GET /api/catalog?root=.
func (h *PlanHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	plan, err := h.organizeService.Plan(ctx, rootParam(r))
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to build plan")
		return
	}

	if h.catalogOnly {
		writeJSON(ctx, w, http.StatusOK, catalogFromPlan(plan))
		return
	}
	writeJSON(ctx, w, http.StatusOK, planFromPlan(plan))
}

// ApplyHandler executes the plan of a root.
type ApplyHandler struct {
	organizeService service.OrganizeService
}

// NewApplyHandler creates a new ApplyHandler.
func NewApplyHandler(organizeService service.OrganizeService) *ApplyHandler {
	return &ApplyHandler{organizeService: organizeService}
}

// ServeHTTP handles POST /api/apply.
func (h *ApplyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req ApplyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.organizeService.Apply(ctx, req.Root, req.DryRun)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to apply plan")
		return
	}
	writeJSON(ctx, w, http.StatusOK, applyFromReport(result.Report, req.DryRun))
}
