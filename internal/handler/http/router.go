package http

import (
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/attendance-bot/internal/handler/http/middleware"
	"github.com/cmlabs-hris/attendance-bot/internal/handler/http/response"
	"github.com/cmlabs-hris/attendance-bot/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

type RouterOptions struct {
	Logger             *slog.Logger
	AllowedOrigins     []string
	SlackSigningSecret string
}

type Handlers struct {
	Slack      SlackHandler
	Auth       AuthHandler
	Attendance AttendanceHandler
	Request    RequestHandler
	Admin      AdminHandler
}

func NewRouter(opts RouterOptions, JWTService jwt.Service, h Handlers) *chi.Mux {
	r := chi.NewRouter()

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelDebug,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/slack", func(r chi.Router) {
		r.Use(middleware.SlackSignature(opts.SlackSigningSecret))
		r.Post("/commands", h.Slack.Command)
		r.Post("/command/{command}", h.Slack.Command)
		r.Post("/interactions", h.Slack.Interaction)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   opts.AllowedOrigins,
			AllowCredentials: true,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
			ExposedHeaders:   []string{"Content-Disposition"},
			MaxAge:           300,
		}))
		r.Use(chiMiddleware.AllowContentEncoding("application/json"))

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired(JWTService))

			r.Post("/auth/logout", h.Auth.Logout)

			// Admin only
			r.Group(func(r chi.Router) {
				r.Use(middleware.AdminOnly)

				r.Route("/attendance", func(r chi.Router) {
					r.Get("/", h.Attendance.List)
					r.Get("/report", h.Attendance.Report)
					r.Get("/export", h.Attendance.Export)
				})

				r.Route("/requests", func(r chi.Router) {
					r.Get("/", h.Request.List)
					r.Route("/{id}", func(r chi.Router) {
						r.Get("/", h.Request.Get)
						r.Post("/approve", h.Request.Approve)
						r.Post("/deny", h.Request.Deny)
					})
				})

				r.Get("/admins", h.Admin.List)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, "Route not found")
	})
	return r
}
