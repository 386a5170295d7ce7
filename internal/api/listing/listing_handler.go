package listing

import (
	"fmt"
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

// Handler serves one family's listing routes. The router mounts one
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
	ctx, span := otel.Tracer("ListingHandler").Start(r.Context(), name, trace.WithAttributes(
		attribute.String("family", h.family.Slug),
	))
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

// Create handles POST {listingPath}.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	r, span := h.startSpan(r, "Create")
	defer span.End()

	var params types.CreateListingParams
	if err := api.DecodeJSONBody(w, r, &params); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.service.Create(r.Context(), h.family, params)
	if err != nil {
		span.RecordError(err)
		api.ServiceErrorResponse(w, r, err)
		return
	}
	api.WriteEnvelope(w, r, http.StatusCreated, created,
		fmt.Sprintf("%s created successfully", h.family.Display))
}

// GetAll handles GET {listingPath}.
func (h *Handler) GetAll(w http.ResponseWriter, r *http.Request) {
	r, span := h.startSpan(r, "GetAll")
	defer span.End()

	listings, err := h.service.GetAll(r.Context(), h.family)
	if err != nil {
		span.RecordError(err)
		api.ServiceErrorResponse(w, r, err)
		return
	}
	api.WriteEnvelope(w, r, http.StatusOK, listings, "Records fetched successfully")
}

// GetActive handles GET {listingPath}/active.
func (h *Handler) GetActive(w http.ResponseWriter, r *http.Request) {
	r, span := h.startSpan(r, "GetActive")
	defer span.End()

	listings, err := h.service.GetActive(r.Context(), h.family)
	if err != nil {
		span.RecordError(err)
		api.ServiceErrorResponse(w, r, err)
		return
	}
	api.WriteEnvelope(w, r, http.StatusOK, listings, "Active records fetched successfully")
}

// Search handles GET {listingPath}/search?query=&category=&pincode=.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	r, span := h.startSpan(r, "Search")
	defer span.End()

	params := types.SearchListingsParams{
		Query:    r.URL.Query().Get("query"),
		Category: r.URL.Query().Get("category"),
		Pincode:  r.URL.Query().Get("pincode"),
	}

	listings, err := h.service.Search(r.Context(), h.family, params)
	if err != nil {
		span.RecordError(err)
		api.ServiceErrorResponse(w, r, err)
		return
	}
	api.WriteEnvelope(w, r, http.StatusOK, listings, "Search results fetched successfully")
}

// GetByID handles GET {listingPath}/{id}.
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	r, span := h.startSpan(r, "GetByID")
	defer span.End()

	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	listing, err := h.service.GetByID(r.Context(), h.family, id)
	if err != nil {
		span.RecordError(err)
		api.ServiceErrorResponse(w, r, err)
		return
	}
	api.WriteEnvelope(w, r, http.StatusOK, listing, "Record fetched successfully")
}

// GetByCategory handles GET {listingPath}/category/{categoryId}.
func (h *Handler) GetByCategory(w http.ResponseWriter, r *http.Request) {
	r, span := h.startSpan(r, "GetByCategory")
	defer span.End()

	categoryID, ok := h.pathID(w, r, "categoryId")
	if !ok {
		return
	}

	listings, err := h.service.GetByCategory(r.Context(), h.family, categoryID)
	if err != nil {
		span.RecordError(err)
		api.ServiceErrorResponse(w, r, err)
		return
	}
	api.WriteEnvelope(w, r, http.StatusOK, listings, "Records fetched successfully")
}

// GetByPincode handles GET {listingPath}/pincode/{pincode}.
func (h *Handler) GetByPincode(w http.ResponseWriter, r *http.Request) {
	r, span := h.startSpan(r, "GetByPincode")
	defer span.End()

	listings, err := h.service.GetByPincode(r.Context(), h.family, chi.URLParam(r, "pincode"))
	if err != nil {
		span.RecordError(err)
		api.ServiceErrorResponse(w, r, err)
		return
	}
	api.WriteEnvelope(w, r, http.StatusOK, listings, "Records fetched successfully")
}

// Update handles PUT {listingPath}/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	r, span := h.startSpan(r, "Update")
	defer span.End()

	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	var params types.UpdateListingParams
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
	api.WriteEnvelope(w, r, http.StatusOK, updated,
		fmt.Sprintf("%s updated successfully", h.family.Display))
}

// Delete handles DELETE {listingPath}/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	r, span := h.startSpan(r, "Delete")
	defer span.End()

	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), h.family, id); err != nil {
		span.RecordError(err)
		api.ServiceErrorResponse(w, r, err)
		return
	}
	api.WriteEnvelope(w, r, http.StatusOK, nil,
		fmt.Sprintf("%s deleted successfully", h.family.Display))
}
