// routes.go — регистрация маршрутов API на chi.Router.
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/bigkaa/videostream/internal/api/errors"
	"github.com/bigkaa/videostream/internal/api/openapi"
)

// RouteMiddleware — middleware групп маршрутов. nil — без middleware.
type RouteMiddleware struct {
	// Authenticate — проверка JWT, обязательна для /api/videos и /api/users
	Authenticate func(http.Handler) http.Handler
	// Bearer — извлечение токена для endpoints, где его проверяет провайдер
	Bearer func(http.Handler) http.Handler
	// AuthRateLimit — ограничение частоты на /api/auth
	AuthRateLimit func(http.Handler) http.Handler
}

// HandlerFromMux регистрирует все маршруты API на r.
func HandlerFromMux(h *APIHandler, r chi.Router, mw RouteMiddleware) {
	authenticate := orPassthrough(mw.Authenticate)
	bearer := orPassthrough(mw.Bearer)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		apierrors.NotFound(w, "Маршрут не найден")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		apierrors.WriteError(w, http.StatusMethodNotAllowed, apierrors.CodeValidationError, "Метод не поддерживается")
	})

	r.Get("/", h.RootInfo)
	r.Get("/health/live", h.health.HealthLive)
	r.Get("/health/ready", h.health.HealthReady)
	r.Get("/metrics", h.health.GetMetrics)

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodGet, "/openapi.yaml", openapi.Handler())

		r.Route("/auth", func(r chi.Router) {
			r.Use(orPassthrough(mw.AuthRateLimit))
			r.Post("/signup", h.SignUp)
			r.Post("/login", h.Login)
			r.Post("/reset-password", h.ResetPassword)
			r.With(bearer).Post("/logout", h.Logout)
			r.With(bearer).Get("/me", h.Me)
			r.With(bearer).Post("/update-password", h.UpdatePassword)
		})

		r.Route("/videos", func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/upload", h.UploadVideo)
			r.Get("/my-videos", h.ListMyVideos)
			r.Get("/search", h.SearchVideos)
			r.Get("/{id}", h.GetVideo)
			r.Delete("/{id}", h.DeleteVideo)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(authenticate)
			r.Get("/profile", h.GetProfile)
			r.Put("/profile", h.UpdateProfile)
		})
	})
}

// RootInfo — GET /.
func (h *APIHandler) RootInfo(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, RootInfo{
		Message: "Video Streaming API Server",
		Status:  "running",
		Endpoints: RootEndpoints{
			Auth:   "/api/auth",
			Videos: "/api/videos",
			Users:  "/api/users",
		},
	})
}

func orPassthrough(mw func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	if mw != nil {
		return mw
	}
	return func(next http.Handler) http.Handler { return next }
}
