package category

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/carelinnk/carelinnk-api/internal/api"
	"github.com/carelinnk/carelinnk-api/internal/types"
)

// Handler serves one family's category routes. The router mounts one
// instance per registry entry.
type Handler struct {
	family  types.Family
	service Service
	logger  *slog.Logger
}

func NewHandler(family types.Family, service Service, logger *slog.Logger) *Handler {
	return &Handler{
		family:  family,
		service: service,
		logger:  logger.With(slog.String("family", family.Slug)),
	}
}

func (h *Handler) startSpan(r *http.Request, name string) (*http.Request, trace.Span) {
	ctx, span := otel.Tracer("CategoryHandler").Start(r.Context(), name, trace.WithAttributes(
		attribute.String("family", h.family.Slug),
	))
	return r.WithContext(ctx), span
}

func (h *Handler) categoryID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid category id")
		return uuid.Nil, false
	}
	return id, true
}

// Create handles POST {categoryPath}.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	r, span := h.startSpan(r, "Create")
	defer span.End()

	var params types.CreateCategoryParams
	if err := api.DecodeJSONBody(w, r, &params); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if params.Name == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Category name is required")
		return
	}

	created, err := h.service.Create(r.Context(), h.family, params)
	if err != nil {
		span.RecordError(err)
		api.ServiceErrorResponse(w, r, err)
		return
	}
	api.WriteEnvelope(w, r, http.StatusCreated, created, "Category created successfully")
}

// GetAll handles GET {categoryPath}.
func (h *Handler) GetAll(w http.ResponseWriter, r *http.Request) {
	r, span := h.startSpan(r, "GetAll")
	defer span.End()

	categories, err := h.service.GetAll(r.Context(), h.family)
	if err != nil {
		span.RecordError(err)
		api.ServiceErrorResponse(w, r, err)
		return
	}
	api.WriteEnvelope(w, r, http.StatusOK, categories, "Categories fetched successfully")
}

// GetActive handles GET {categoryPath}/active.
func (h *Handler) GetActive(w http.ResponseWriter, r *http.Request) {
	r, span := h.startSpan(r, "GetActive")
	defer span.End()

	categories, err := h.service.GetActive(r.Context(), h.family)
	if err != nil {
		span.RecordError(err)
		api.ServiceErrorResponse(w, r, err)
		return
	}
	api.WriteEnvelope(w, r, http.StatusOK, categories, "Active categories fetched successfully")
}

// GetByID handles GET {categoryPath}/{id}.
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	r, span := h.startSpan(r, "GetByID")
	defer span.End()

	id, ok := h.categoryID(w, r)
	if !ok {
		return
	}

	c, err := h.service.GetByID(r.Context(), h.family, id)
	if err != nil {
		span.RecordError(err)
		api.ServiceErrorResponse(w, r, err)
		return
	}
	api.WriteEnvelope(w, r, http.StatusOK, c, "Category fetched successfully")
}

// Update handles PUT {categoryPath}/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	r, span := h.startSpan(r, "Update")
	defer span.End()

	id, ok := h.categoryID(w, r)
	if !ok {
		return
	}

	var params types.UpdateCategoryParams
	if err := api.DecodeJSONBody(w, r, &params); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.service.Update(r.Context(), h.family, id, params)
	if err != nil {
		span.RecordError(err)
		api.ServiceErrorResponse(w, r, err)
		return
	}
	api.WriteEnvelope(w, r, http.StatusOK, updated, "Category updated successfully")
}

// Delete handles DELETE {categoryPath}/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	r, span := h.startSpan(r, "Delete")
	defer span.End()

	id, ok := h.categoryID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), h.family, id); err != nil {
		span.RecordError(err)
		api.ServiceErrorResponse(w, r, err)
		return
	}
	api.WriteEnvelope(w, r, http.StatusOK, nil, "Category deleted successfully")
}
