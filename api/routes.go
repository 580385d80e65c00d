package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	rh "github.com/lakonic/taskdeck/route-handlers"
	"github.com/lakonic/taskdeck/session"
	"github.com/lakonic/taskdeck/webutil"
)

const (
	apiBasePath   = "/api"
	tasksBasePath = "/tasks"
)

const (
	paramID = "id" // General parameter name for resource IDs

	toggleSubPath = "/toggle"
)

func SetupRoutes(
	sessions *session.Manager,
	taskHandler *rh.TaskHandler,
	authHandler *rh.AuthHandler,
) http.Handler {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)                    // Log every request
	r.Use(middleware.Recoverer)                 // Recover from panics
	r.Use(middleware.Timeout(60 * time.Second)) // Set a timeout context for requests

	r.Route(apiBasePath, func(r chi.Router) {
		configureAuthRoutes(r, sessions, authHandler)
		configureTaskRoutes(r, sessions, taskHandler)
	})

	// Health check endpoint
	r.Get("/healthz", handleHealthCheck)

	return r
}

// Helper for constructing paths with a parameter
func pathWithParam(basePath string, paramName string) string {
	if basePath == "" {
		return "/{" + paramName + "}"
	}
	return basePath + "/{" + paramName + "}"
}

// --- Task Routes ---
// Everything under /api/tasks runs behind the owner-resolution guard;
// handlers receive the Owner through the request context and never
// touch the session themselves.
func configureTaskRoutes(r chi.Router, sessions *session.Manager, handler *rh.TaskHandler) {
	taskSpecificPath := pathWithParam("", paramID) // e.g., "/{id}"

	r.Route(tasksBasePath, func(r chi.Router) {
		r.Use(ResolveOwner(sessions))

		r.Get("/", webutil.MakeHandler(handler.HandleListTasks))
		r.Post("/", webutil.MakeHandler(handler.HandleCreateTask))
		r.Route(taskSpecificPath, func(r chi.Router) {
			r.Get("/", webutil.MakeHandler(handler.HandleGetTask))
			r.Put("/", webutil.MakeHandler(handler.HandleUpdateTask))
			r.Delete("/", webutil.MakeHandler(handler.HandleDeleteTask))
			r.Post(toggleSubPath, webutil.MakeHandler(handler.HandleToggleTask)) // POST /tasks/{id}/toggle
		})
	})
}

// --- Auth Routes ---
func configureAuthRoutes(r chi.Router, sessions *session.Manager, handler *rh.AuthHandler) {
	r.Post("/register", webutil.MakeHandler(handler.HandleRegister))
	r.Post("/login", webutil.MakeHandler(handler.HandleLogin))
	r.Post("/logout", webutil.MakeHandler(handler.HandleLogout))

	// /me reports the current identity, so it needs the same owner
	// resolution the task routes get.
	r.With(ResolveOwner(sessions)).Get("/me", webutil.MakeHandler(handler.HandleMe))
}

// --- Utility Functions ---

// handleHealthCheck responds to a health check request.
func handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set(webutil.HeaderContentType, webutil.ContentTypeTextPlainUTF8)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
