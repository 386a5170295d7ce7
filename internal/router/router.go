package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	applogger "github.com/carelinnk/carelinnk-api/app/logger"
	"github.com/carelinnk/carelinnk-api/internal/api"
	"github.com/carelinnk/carelinnk-api/internal/api/auth"
	"github.com/carelinnk/carelinnk-api/internal/api/category"
	"github.com/carelinnk/carelinnk-api/internal/api/listing"
	"github.com/carelinnk/carelinnk-api/internal/container"
	"github.com/carelinnk/carelinnk-api/internal/types"
)

// SetupRouter wires every route. The directory families come from the
// registry: each gets its listing and category routes mounted on its
// legacy path, served by the shared generic handlers.
func SetupRouter(c *container.Container) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(applogger.StructuredLogger(c.Logger))
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("pong"))
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.WriteJSON(w, r, http.StatusOK, map[string]any{
			"status":    "OK",
			"message":   "Care-Linnk API is healthy!",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		api.WriteJSON(w, r, http.StatusOK, map[string]any{
			"message":   "Welcome to the Care-Linnk API!",
			"version":   "1.0.0",
			"status":    "active",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	authenticate := auth.Authenticate(c.Logger, c.Config.JWT)
	adminOnly := func(r chi.Router) chi.Router {
		return r.With(authenticate, auth.RequireAdmin)
	}

	r.Route("/api/v1/user", func(r chi.Router) {
		r.Post("/register", c.AuthHandler.Register)
		r.Post("/verify-otp", c.AuthHandler.VerifyOtp)
		r.Post("/resend-otp", c.AuthHandler.ResendOtp)
		r.Post("/login", c.AuthHandler.Login)
		r.Post("/refresh-token", c.AuthHandler.RefreshToken)
		r.Post("/forgot-password", c.AuthHandler.ForgotPassword)
		r.Post("/reset-password", c.AuthHandler.ResetPassword)
		r.With(authenticate).Get("/me", c.AuthHandler.Me)
		r.With(authenticate).Post("/logout", c.AuthHandler.Logout)
	})

	for _, family := range types.Families() {
		mountListingRoutes(r, family, c, adminOnly)
		mountCategoryRoutes(r, family, c, adminOnly)
	}
	mountCategoryRoutes(r, types.JobCategoryFamily, c, adminOnly)
	mountJobRoutes(r, c, adminOnly)
	mountCategoryRoutes(r, types.CourseCategoryFamily, c, adminOnly)
	mountCourseRoutes(r, c, authenticate, adminOnly)

	return r
}

func mountListingRoutes(r chi.Router, family types.Family, c *container.Container, adminOnly func(chi.Router) chi.Router) {
	h := listing.NewHandler(family, c.ListingService, c.Logger)

	r.Route(family.ListingPath, func(r chi.Router) {
		r.Get("/", h.GetAll)
		r.Get("/active", h.GetActive)
		r.Get("/search", h.Search)
		r.Get("/category/{categoryId}", h.GetByCategory)
		r.Get("/pincode/{pincode}", h.GetByPincode)
		r.Get("/{id}", h.GetByID)

		admin := adminOnly(r)
		admin.Post("/", h.Create)
		admin.Put("/{id}", h.Update)
		admin.Delete("/{id}", h.Delete)
	})
}

func mountCategoryRoutes(r chi.Router, family types.Family, c *container.Container, adminOnly func(chi.Router) chi.Router) {
	h := category.NewHandler(family, c.CategoryService, c.Logger)

	r.Route(family.CategoryPath, func(r chi.Router) {
		r.Get("/", h.GetAll)
		r.Get("/active", h.GetActive)
		r.Get("/{id}", h.GetByID)

		admin := adminOnly(r)
		admin.Post("/", h.Create)
		admin.Put("/{id}", h.Update)
		admin.Delete("/{id}", h.Delete)
	})
}

func mountCourseRoutes(r chi.Router, c *container.Container, authenticate func(http.Handler) http.Handler, adminOnly func(chi.Router) chi.Router) {
	h := c.CourseHandler

	r.Route("/api/v1/courses", func(r chi.Router) {
		r.Get("/", h.GetAll)
		r.Get("/{id}", h.GetByID)
		r.With(authenticate).Post("/{id}/register", h.Register)

		admin := adminOnly(r)
		admin.Post("/", h.Create)
		admin.Put("/{id}", h.Update)
		admin.Patch("/{id}/toggle-status", h.ToggleStatus)
		admin.Delete("/{id}", h.Delete)
		admin.Get("/{id}/registrations", h.GetRegistrationsByCourse)
	})

	r.Route("/api/v1/course-registrations", func(r chi.Router) {
		r.With(authenticate).Get("/my", h.GetMyRegistrations)

		admin := adminOnly(r)
		admin.Get("/", h.GetRegistrations)
		admin.Get("/{id}", h.GetRegistrationByID)
		admin.Delete("/{id}", h.DeleteRegistration)
	})
}

func mountJobRoutes(r chi.Router, c *container.Container, adminOnly func(chi.Router) chi.Router) {
	h := c.JobHandler

	r.Route("/api/v1/jobs", func(r chi.Router) {
		r.Get("/", h.GetAll)
		r.Get("/active", h.GetActive)
		r.Get("/search", h.Search)
		r.Get("/category/{categoryId}", h.GetByCategory)
		r.Get("/{id}", h.GetByID)
		r.Post("/{id}/apply", h.Apply)

		admin := adminOnly(r)
		admin.Post("/", h.Create)
		admin.Put("/{id}", h.Update)
		admin.Delete("/{id}", h.Delete)
		admin.Get("/{id}/applications", h.GetApplications)
	})
}
