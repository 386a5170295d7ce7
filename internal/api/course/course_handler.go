package course

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/carelinnk/carelinnk-api/internal/api"
	"github.com/carelinnk/carelinnk-api/internal/api/auth"
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
	ctx, span := otel.Tracer("CourseHandler").Start(r.Context(), name)
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

// Create handles POST /api/v1/courses.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	r, span := h.startSpan(r, "Create")
	defer span.End()

	var params types.CreateCourseParams
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
	api.WriteEnvelope(w, r, http.StatusCreated, created, "Course created successfully")
}

// GetAll handles GET /api/v1/courses with optional isActive and
// category query filters.
func (h *Handler) GetAll(w http.ResponseWriter, r *http.Request) {
	r, span := h.startSpan(r, "GetAll")
	defer span.End()

	q := r.URL.Query()
	params := types.ListCoursesParams{Category: q.Get("category")}
	if raw := q.Get("isActive"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid isActive filter")
			return
		}
		params.IsActive = &active
	}

	courses, err := h.service.GetAll(r.Context(), params)
	if err != nil {
		span.RecordError(err)
		api.ServiceErrorResponse(w, r, err)
		return
	}
	api.WriteEnvelope(w, r, http.StatusOK, courses, "Courses fetched successfully")
}

// GetByID handles GET /api/v1/courses/{id}.
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	r, span := h.startSpan(r, "GetByID")
	defer span.End()

	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	course, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		span.RecordError(err)
		api.ServiceErrorResponse(w, r, err)
		return
	}
	api.WriteEnvelope(w, r, http.StatusOK, course, "Course fetched successfully")
}

// Update handles PUT /api/v1/courses/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	r, span := h.startSpan(r, "Update")
	defer span.End()

	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	var params types.UpdateCourseParams
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
	api.WriteEnvelope(w, r, http.StatusOK, updated, "Course updated successfully")
}

// ToggleStatus handles PATCH /api/v1/courses/{id}/toggle-status.
func (h *Handler) ToggleStatus(w http.ResponseWriter, r *http.Request) {
	r, span := h.startSpan(r, "ToggleStatus")
	defer span.End()

	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	updated, err := h.service.ToggleStatus(r.Context(), id)
	if err != nil {
		span.RecordError(err)
		api.ServiceErrorResponse(w, r, err)
		return
	}

	message := "Course deactivated successfully"
	if updated.IsActive {
		message = "Course activated successfully"
	}
	api.WriteEnvelope(w, r, http.StatusOK, updated, message)
}

// Delete handles DELETE /api/v1/courses/{id}.
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
	api.WriteEnvelope(w, r, http.StatusOK, nil, "Course deleted successfully")
}

// Register handles POST /api/v1/courses/{id}/register. The student is
// the authenticated caller.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	r, span := h.startSpan(r, "Register")
	defer span.End()

	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	studentID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	var params types.RegisterCourseParams
	if err := api.DecodeJSONBody(w, r, &params); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	registration, err := h.service.Register(r.Context(), id, studentID, params)
	if err != nil {
		span.RecordError(err)
		api.ServiceErrorResponse(w, r, err)
		return
	}
	api.WriteEnvelope(w, r, http.StatusCreated, registration, "Course registration submitted successfully")
}

// GetRegistrations handles GET /api/v1/course-registrations with
// optional course and student query filters.
func (h *Handler) GetRegistrations(w http.ResponseWriter, r *http.Request) {
	r, span := h.startSpan(r, "GetRegistrations")
	defer span.End()

	var filter types.RegistrationFilter
	q := r.URL.Query()
	if raw := q.Get("course"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid course filter")
			return
		}
		filter.CourseID = &id
	}
	if raw := q.Get("student"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid student filter")
			return
		}
		filter.StudentID = &id
	}

	registrations, err := h.service.GetRegistrations(r.Context(), filter)
	if err != nil {
		span.RecordError(err)
		api.ServiceErrorResponse(w, r, err)
		return
	}
	api.WriteEnvelope(w, r, http.StatusOK, registrations, "Registrations fetched successfully")
}

// GetRegistrationsByCourse handles GET /api/v1/courses/{id}/registrations.
func (h *Handler) GetRegistrationsByCourse(w http.ResponseWriter, r *http.Request) {
	r, span := h.startSpan(r, "GetRegistrationsByCourse")
	defer span.End()

	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	registrations, err := h.service.GetRegistrationsByCourse(r.Context(), id)
	if err != nil {
		span.RecordError(err)
		api.ServiceErrorResponse(w, r, err)
		return
	}
	api.WriteEnvelope(w, r, http.StatusOK, registrations, "Course registrations fetched successfully")
}

// GetMyRegistrations handles GET /api/v1/course-registrations/my.
func (h *Handler) GetMyRegistrations(w http.ResponseWriter, r *http.Request) {
	r, span := h.startSpan(r, "GetMyRegistrations")
	defer span.End()

	studentID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	registrations, err := h.service.GetStudentRegistrations(r.Context(), studentID)
	if err != nil {
		span.RecordError(err)
		api.ServiceErrorResponse(w, r, err)
		return
	}
	api.WriteEnvelope(w, r, http.StatusOK, registrations, "Your course registrations fetched successfully")
}

// GetRegistrationByID handles GET /api/v1/course-registrations/{id}.
func (h *Handler) GetRegistrationByID(w http.ResponseWriter, r *http.Request) {
	r, span := h.startSpan(r, "GetRegistrationByID")
	defer span.End()

	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	registration, err := h.service.GetRegistrationByID(r.Context(), id)
	if err != nil {
		span.RecordError(err)
		api.ServiceErrorResponse(w, r, err)
		return
	}
	api.WriteEnvelope(w, r, http.StatusOK, registration, "Registration fetched successfully")
}

// DeleteRegistration handles DELETE /api/v1/course-registrations/{id}.
func (h *Handler) DeleteRegistration(w http.ResponseWriter, r *http.Request) {
	r, span := h.startSpan(r, "DeleteRegistration")
	defer span.End()

	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteRegistration(r.Context(), id); err != nil {
		span.RecordError(err)
		api.ServiceErrorResponse(w, r, err)
		return
	}
	api.WriteEnvelope(w, r, http.StatusOK, nil, "Registration deleted successfully")
}
