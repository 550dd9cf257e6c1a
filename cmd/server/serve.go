package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"xenon-assistant/internal/config"
	"xenon-assistant/internal/handlers"
	"xenon-assistant/internal/middleware"
	"xenon-assistant/internal/router"
	"xenon-assistant/internal/services"
	"xenon-assistant/internal/web"
	"xenon-assistant/internal/websocket"
	"xenon-assistant/internal/worker"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server and generation workers",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func runServe() error {
	log.Println("🚀 Starting Xenon Trader Assistant...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Connect Backends and Core Services ────
	a, err := newApp(cfg, true)
	if err != nil {
		log.Fatalf("✗ Startup failed: %v", err)
	}
	defer a.close()

	sessionAuth := middleware.NewSessionAuth(cfg.SessionSecret)
	adminService, err := services.NewAdminService(a.sessions, cfg.AdminPassword, cfg.AdminPasswordHash)
	if err != nil {
		log.Fatalf("✗ Admin gate initialization failed: %v", err)
	}
	log.Println("✓ Admin gate ready")

	renderer, err := web.NewRenderer()
	if err != nil {
		log.Fatalf("✗ Template parsing failed: %v", err)
	}

	// ──── Step 3: Start WebSocket Hub ────
	var pubsub *redis.Client
	if a.redis != nil {
		pubsub = a.redis.Events
	}
	wsHub := websocket.NewHub(pubsub, sessionAuth)
	log.Println("✓ WebSocket hub started")

	// ──── Step 4: Start Generation Worker Pool ────
	workerPool := worker.NewPool(a.queue, a.orchestrator, wsHub, cfg.WorkerCount)
	workerPool.Start()
	log.Printf("✓ Worker pool started (%d goroutines)", cfg.WorkerCount)

	// ──── Initialize Handlers ────
	secure := cfg.Env == "production"
	authHandler := handlers.NewAuthHandler(a.orchestrator, adminService, sessionAuth, secure)
	chatHandler := handlers.NewChatHandler(a.orchestrator, a.queue, wsHub, a.quickActions)
	var adminHandler *handlers.AdminHandler
	if a.exchanges != nil {
		adminHandler = handlers.NewAdminHandler(a.settings, a.orchestrator, wsHub, a.exchanges)
	} else {
		adminHandler = handlers.NewAdminHandler(a.settings, a.orchestrator, wsHub, nil)
	}
	pageHandler := handlers.NewPageHandler(a.orchestrator, sessionAuth, a.settings, renderer, a.quickActions, secure)

	sessionLimiter := middleware.NewRateLimiter(cfg.SessionRateLimit, time.Minute)
	defer sessionLimiter.Stop()

	stopJanitor := make(chan struct{})
	defer close(stopJanitor)
	a.startSessionJanitor(stopJanitor, middleware.SessionTokenTTL)

	// ──── Step 5: Start HTTP Server ────
	r := router.New(
		sessionAuth,
		adminService,
		sessionLimiter,
		authHandler,
		chatHandler,
		adminHandler,
		pageHandler,
		wsHub,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ Xenon Trader Assistant ready on http://localhost:%s", cfg.Port)
	log.Printf("  Chat:  http://localhost:%s/", cfg.Port)
	log.Printf("  Admin: http://localhost:%s/?admin=true", cfg.Port)
	log.Printf("  WS:    ws://localhost:%s/api/v1/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		workerPool.Stop()
		return fmt.Errorf("server error: %w", err)
	}
	workerPool.Stop()
	return nil
}
