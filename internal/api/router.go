package api

import (
	"log/slog"
	"net/http"

	"github.com/dom/studyhub/internal/api/handlers"
	"github.com/dom/studyhub/internal/api/middleware"
	"github.com/dom/studyhub/internal/config"
	"github.com/dom/studyhub/internal/service"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires every route. HTTP collectors are registered on reg and
// served from /metrics.
func NewRouter(services *service.Services, cfg *config.Config, logger *slog.Logger, reg *prometheus.Registry) http.Handler {
	r := chi.NewRouter()
	metrics := middleware.NewMetrics(reg)

	// Global middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.CORSAllowedOrigin))
	r.Use(metrics.Instrument)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(services.Auth, cfg.IsProduction(), logger)
	pdfHandler := handlers.NewPdfHandler(services.Pdf, logger)
	videoHandler := handlers.NewVideoHandler(services.Video, logger)
	feedHandler := handlers.NewChannelFeedHandler(services.Video, cfg.CORSAllowedOrigin, logger)

	requireAuth := middleware.Auth(services.Auth, logger)

	// Public auth routes
	r.Post("/signup", authHandler.Signup)
	r.Post("/login", authHandler.Login)
	r.Post("/logout", authHandler.Logout)
	r.Post("/refresh", authHandler.Refresh)

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(requireAuth)

		r.Get("/profile", authHandler.Profile)
		r.Get("/current-user", authHandler.CurrentUser)
		r.Get("/verify-token", authHandler.VerifyToken)

		// PDF routes
		r.Route("/pdf", func(r chi.Router) {
			r.Post("/upload", pdfHandler.Upload)
			r.Get("/list", pdfHandler.List)
			r.Get("/view/*", pdfHandler.View)
			r.Post("/chat", pdfHandler.Chat)
		})

		// Video routes
		r.Route("/video", func(r chi.Router) {
			r.Post("/generate-token", videoHandler.GenerateToken)
			r.Get("/channel-users", videoHandler.ChannelUsers)
			r.Post("/leave-channel", videoHandler.LeaveChannel)
			r.Get("/channel-events", feedHandler.Handle)
		})
	})

	return r
}
