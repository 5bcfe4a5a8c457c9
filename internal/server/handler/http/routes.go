package http

import (
	"net/http"

	"github.com/atinyakov/DocPortal/internal/middleware"
	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewRouter constructs the portal's HTTP handler.
//
// Routes:
//
//	GET  /registration          → authHandler.Form
//	POST /registration          → authHandler.Register
//	GET  /login                 → authHandler.Form
//	POST /login                 → authHandler.Login
//	GET  /forgot_password       → authHandler.Form
//	POST /forgot_password       → authHandler.ResetPassword
//	GET|POST /logout            → authHandler.Logout
//	GET  /me                    → authHandler.Me
//	GET  /view_documents        → docHandler.ListAll       (login required)
//	GET  /serve_document/{id}   → docHandler.Serve         (login required)
//	GET  /{category}            → docHandler.List          (login required)
//	POST /{category}            → docHandler.Upload        (login required)
//	GET  /metrics               → metrics
//
// Every request gets a request id, metrics, panic recovery, the session
// identity and a log line, in that order.
func NewRouter(
	authHandler *AuthHandler,
	docHandler *DocumentHandler,
	sessions *middleware.Sessions,
	metrics MetricsRecorder,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(metrics.Middleware)
	r.Use(chiMiddleware.Recoverer)
	r.Use(sessions.Load)
	r.Use(middleware.WithRequestLogging(logger))

	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(chiMiddleware.AllowContentType("application/json"))

		r.Post("/registration", authHandler.Register)
		r.Post(middleware.LoginPath, authHandler.Login)
		r.Post("/forgot_password", authHandler.ResetPassword)
		r.Post("/logout", authHandler.Logout)
	})
	r.Get("/registration", authHandler.Form("registration", "username", "name", "email", "password"))
	r.Get(middleware.LoginPath, authHandler.Form("login", "username", "password"))
	r.Get("/forgot_password", authHandler.Form("forgot_password", "username", "password", "confirm_password"))
	r.Get("/logout", authHandler.Logout)
	r.Get("/me", authHandler.Me)

	// Protected group: requires a logged-in session
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireUser)

		r.Get("/view_documents", docHandler.ListAll)
		r.Get("/serve_document/{id}", docHandler.Serve)
		r.Get("/{category}", docHandler.List)
		r.Post("/{category}", docHandler.Upload)
	})

	return r
}

// MetricsRecorder instruments requests and exposes the collected metrics.
type MetricsRecorder interface {
	Middleware(next http.Handler) http.Handler
	Handler() http.Handler
}
