package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"xenon-assistant/internal/handlers"
	"xenon-assistant/internal/middleware"
	"xenon-assistant/internal/web"
	"xenon-assistant/internal/websocket"
)

func New(
	sessionAuth *middleware.SessionAuth,
	admins middleware.AdminChecker,
	sessionLimiter *middleware.RateLimiter,
	authHandler *handlers.AuthHandler,
	chatHandler *handlers.ChatHandler,
	adminHandler *handlers.AdminHandler,
	pageHandler *handlers.PageHandler,
	wsHub *websocket.Hub,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.SecureHeaders)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// ──── Pages ────
	r.With(sessionLimiter.Middleware).Get("/", pageHandler.Index)
	r.Handle("/static/*", http.StripPrefix("/static/", web.StaticHandler()))

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Sessions (public) ────
		r.With(sessionLimiter.Middleware).Post("/sessions", authHandler.CreateSession)

		// ──── Chat Routes ────
		r.Route("/chat", func(r chi.Router) {
			r.Use(sessionAuth.Middleware)
			r.Get("/", chatHandler.Get)
			r.Delete("/", chatHandler.Clear)
			r.Post("/messages", chatHandler.PostMessage)
			r.Get("/quick-actions", chatHandler.QuickActions)
			r.Post("/quick-actions/{id}", chatHandler.SubmitQuickAction)
		})

		// ──── Admin Routes ────
		r.Route("/admin", func(r chi.Router) {
			r.Use(sessionAuth.Middleware)
			r.Post("/login", authHandler.AdminLogin)
			r.Post("/logout", authHandler.AdminLogout)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin(admins))
				r.Get("/settings", adminHandler.GetSettings)
				r.Put("/settings", adminHandler.UpdateSettings)
				r.Post("/history/clear", adminHandler.ClearHistory)
				r.Get("/exchanges", adminHandler.Exchanges)
			})
		})

		// ──── WebSocket ────
		r.Get("/ws", wsHub.HandleWebSocket)
	})

	return r
}
