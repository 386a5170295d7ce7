package job

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/carelinnk/carelinnk-api/internal/api"
	"github.com/carelinnk/carelinnk-api/internal/types"
)

type Handler struct {
	service Service
	logger  *slog.Logger
}

func NewHandler(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

func (h *Handler) startSpan(r *http.Request, name string) (*http.Request, trace.Span) {
	ctx, span := otel.Tracer("JobHandler").Start(r.Context(), name)
	return r.WithContext(ctx), span
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid %s", param))
		return uuid.Nil, false
	}
	return id, true
}

// Create handles POST /api/v1/jobs.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	r, span := h.startSpan(r, "Create")
	defer span.End()

	var params types.CreateJobParams
	if err := api.DecodeJSONBody(w, r, &params); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.service.Create(r.Context(), params)
	if err != nil {
		span.RecordError(err)
		api.ServiceErrorResponse(w, r, err)
		return
	}
	api.WriteEnvelope(w, r, http.StatusCreated, created, "Job created successfully")
}

// GetAll handles GET /api/v1/jobs.
func (h *Handler) GetAll(w http.ResponseWriter, r *http.Request) {
	r, span := h.startSpan(r, "GetAll")
	defer span.End()

	jobs, err := h.service.GetAll(r.Context())
	if err != nil {
		span.RecordError(err)
		api.ServiceErrorResponse(w, r, err)
		return
	}
	api.WriteEnvelope(w, r, http.StatusOK, jobs, "Jobs fetched successfully")
}

// GetActive handles GET /api/v1/jobs/active.
func (h *Handler) GetActive(w http.ResponseWriter, r *http.Request) {
	r, span := h.startSpan(r, "GetActive")
	defer span.End()

	jobs, err := h.service.GetActive(r.Context())
	if err != nil {
		span.RecordError(err)
		api.ServiceErrorResponse(w, r, err)
		return
	}
	api.WriteEnvelope(w, r, http.StatusOK, jobs, "Active jobs fetched successfully")
}

// Search handles GET /api/v1/jobs/search.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	r, span := h.startSpan(r, "Search")
	defer span.End()

	q := r.URL.Query()
	params := types.SearchJobsParams{
		Query:          q.Get("query"),
		Category:       q.Get("category"),
		Location:       q.Get("location"),
		EmploymentType: q.Get("employmentType"),
	}

	jobs, err := h.service.Search(r.Context(), params)
	if err != nil {
		span.RecordError(err)
		api.ServiceErrorResponse(w, r, err)
		return
	}
	api.WriteEnvelope(w, r, http.StatusOK, jobs, "Search results fetched successfully")
}

// GetByID handles GET /api/v1/jobs/{id}.
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	r, span := h.startSpan(r, "GetByID")
	defer span.End()

	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	job, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		span.RecordError(err)
		api.ServiceErrorResponse(w, r, err)
		return
	}
	api.WriteEnvelope(w, r, http.StatusOK, job, "Job fetched successfully")
}

// GetByCategory handles GET /api/v1/jobs/category/{categoryId}.
func (h *Handler) GetByCategory(w http.ResponseWriter, r *http.Request) {
	r, span := h.startSpan(r, "GetByCategory")
	defer span.End()

	categoryID, ok := h.pathID(w, r, "categoryId")
	if !ok {
		return
	}

	jobs, err := h.service.GetByCategory(r.Context(), categoryID)
	if err != nil {
		span.RecordError(err)
		api.ServiceErrorResponse(w, r, err)
		return
	}
	api.WriteEnvelope(w, r, http.StatusOK, jobs, "Jobs fetched successfully")
}

// Update handles PUT /api/v1/jobs/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	r, span := h.startSpan(r, "Update")
	defer span.End()

	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	var params types.UpdateJobParams
	if err := api.DecodeJSONBody(w, r, &params); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.service.Update(r.Context(), id, params)
	if err != nil {
		span.RecordError(err)
		api.ServiceErrorResponse(w, r, err)
		return
	}
	api.WriteEnvelope(w, r, http.StatusOK, updated, "Job updated successfully")
}

// Delete handles DELETE /api/v1/jobs/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	r, span := h.startSpan(r, "Delete")
	defer span.End()

	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		span.RecordError(err)
		api.ServiceErrorResponse(w, r, err)
		return
	}
	api.WriteEnvelope(w, r, http.StatusOK, nil, "Job deleted successfully")
}

// Apply handles POST /api/v1/jobs/{id}/apply.
func (h *Handler) Apply(w http.ResponseWriter, r *http.Request) {
	r, span := h.startSpan(r, "Apply")
	defer span.End()

	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	var params types.ApplyJobParams
	if err := api.DecodeJSONBody(w, r, &params); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	application, err := h.service.Apply(r.Context(), id, params)
	if err != nil {
		span.RecordError(err)
		api.ServiceErrorResponse(w, r, err)
		return
	}
	api.WriteEnvelope(w, r, http.StatusCreated, application, "Application submitted successfully")
}

// GetApplications handles GET /api/v1/jobs/{id}/applications.
func (h *Handler) GetApplications(w http.ResponseWriter, r *http.Request) {
	r, span := h.startSpan(r, "GetApplications")
	defer span.End()

	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	applications, err := h.service.GetApplications(r.Context(), id)
	if err != nil {
		span.RecordError(err)
		api.ServiceErrorResponse(w, r, err)
		return
	}
	api.WriteEnvelope(w, r, http.StatusOK, applications, "Applications fetched successfully")
}
