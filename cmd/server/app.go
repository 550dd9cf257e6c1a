package main

import (
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"xenon-assistant/internal/config"
	"xenon-assistant/internal/database"
	"xenon-assistant/internal/models"
	"xenon-assistant/internal/repository"
	"xenon-assistant/internal/services"
	"xenon-assistant/internal/worker"
)

// app holds the wiring shared by serve and ask.
type app struct {
	cfg          *config.Config
	redis        *database.Redis
	pool         *pgxpool.Pool
	sessions     services.SessionRepository
	queue        worker.Queue
	settings     *services.SettingsService
	orchestrator *services.Orchestrator
	exchanges    *repository.ExchangeRepo
	quickActions []models.QuickAction
}

// newApp connects the optional backends. Without REDIS_URL sessions and the
// queue stay in memory; without DATABASE_URL exchanges are not audited.
func newApp(cfg *config.Config, useBackends bool) (*app, error) {
	a := &app{cfg: cfg}

	a.sessions = repository.NewMemorySessionRepo()
	a.queue = worker.NewMemoryQueue(256)

	if useBackends && cfg.RedisURL != "" {
		rdb, err := database.OpenRedis(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		a.redis = rdb
		a.sessions = repository.NewRedisSessionRepo(rdb.Store)
		a.queue = worker.NewRedisQueue(rdb.Store)
		log.Println("✓ Redis connected")
	}

	if useBackends && cfg.DatabaseURL != "" {
		pool, err := database.NewPostgresPool(cfg.DatabaseURL)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("postgres: %w", err)
		}
		a.pool = pool
		log.Println("✓ PostgreSQL connected")

		if err := database.RunMigrations(pool); err != nil {
			a.close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
		log.Println("✓ Database migrations applied")
		a.exchanges = repository.NewExchangeRepo(pool)
	}

	a.settings = services.NewSettingsService(repository.NewSettingsRepo(cfg.SettingsPath))
	log.Printf("✓ Settings loaded from %s", cfg.SettingsPath)

	probeURLs := cfg.ProbeURLs
	if !cfg.FallbackProbes {
		probeURLs = nil
	}
	dispatcher := services.NewDispatcher(services.DispatcherConfig{
		GitHubURL:     cfg.GitHubModelsURL,
		DeepInfraURL:  cfg.DeepInfraURL,
		OpenRouterURL: cfg.OpenRouterURL,
		ProbeURLs:     probeURLs,
		Timeout:       cfg.ProviderTimeout,
		ProbeTimeout:  cfg.ProbeTimeout,
	})

	a.orchestrator = services.NewOrchestrator(a.sessions, dispatcher, a.settings)

	policy, err := services.LoadTopicPolicy(cfg.TopicPolicyFile)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("topic policy: %w", err)
	}
	a.quickActions = policy.QuickActions
	if cfg.TopicGate {
		a.orchestrator.WithTopicFilter(services.NewTopicFilter(policy))
		log.Println("✓ Topic gate enabled")
	}

	if a.exchanges != nil {
		a.orchestrator.WithRecorder(a.exchanges)
	}

	return a, nil
}

func (a *app) close() {
	if a.redis != nil {
		a.redis.Close()
	}
	if a.pool != nil {
		a.pool.Close()
	}
}

// startSessionJanitor prunes in-memory sessions nobody can reach anymore.
// Redis sessions expire through their TTL instead.
func (a *app) startSessionJanitor(stop <-chan struct{}, maxIdle time.Duration) {
	mem, ok := a.sessions.(*repository.MemorySessionRepo)
	if !ok {
		return
	}
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if n := mem.Prune(maxIdle); n > 0 {
					log.Printf("Pruned %d idle sessions", n)
				}
			}
		}
	}()
}
