package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultGitHubModelsURL = "https://models.inference.ai.azure.com/chat/completions"
	DefaultDeepInfraURL    = "https://api.deepinfra.com/v1/openai/chat/completions"
	DefaultOpenRouterURL   = "https://openrouter.ai/api/v1/chat/completions"
)

var DefaultProbeURLs = []string{
	"https://api-inference.huggingface.co/models/microsoft/DialoGPT-large",
	"https://api-inference.huggingface.co/models/facebook/blenderbot-400M-distill",
}

type Config struct {
	// Server
	Port string
	Env  string

	// Settings file
	SettingsPath string

	// Admin
	AdminPassword     string
	AdminPasswordHash string
	SessionSecret     string

	// Optional backends
	RedisURL    string
	DatabaseURL string

	// Topic gate
	TopicGate       bool
	TopicPolicyFile string

	// Providers
	GitHubModelsURL string
	DeepInfraURL    string
	OpenRouterURL   string
	ProbeURLs       []string
	FallbackProbes  bool
	ProviderTimeout time.Duration
	ProbeTimeout    time.Duration

	// Workers and limits
	WorkerCount      int
	SessionRateLimit int
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:              getEnvOrDefault("PORT", "8501"),
		Env:               getEnvOrDefault("ENV", "development"),
		SettingsPath:      getEnvOrDefault("SETTINGS_PATH", "app_config.json"),
		AdminPassword:     getEnvOrDefault("ADMIN_PASSWORD", "admin123"),
		AdminPasswordHash: getEnvOrDefault("ADMIN_PASSWORD_HASH", ""),
		SessionSecret:     getEnvOrDefault("SESSION_SECRET", ""),
		RedisURL:          getEnvOrDefault("REDIS_URL", ""),
		DatabaseURL:       getEnvOrDefault("DATABASE_URL", ""),
		TopicGate:         getEnvAsBoolOrDefault("TOPIC_GATE", false),
		TopicPolicyFile:   getEnvOrDefault("TOPIC_POLICY_FILE", ""),
		GitHubModelsURL:   getEnvOrDefault("GITHUB_MODELS_URL", DefaultGitHubModelsURL),
		DeepInfraURL:      getEnvOrDefault("DEEPINFRA_URL", DefaultDeepInfraURL),
		OpenRouterURL:     getEnvOrDefault("OPENROUTER_URL", DefaultOpenRouterURL),
		ProbeURLs:         getEnvAsListOrDefault("FALLBACK_PROBE_URLS", DefaultProbeURLs),
		FallbackProbes:    getEnvAsBoolOrDefault("FALLBACK_PROBES", true),
		ProviderTimeout:   time.Duration(getEnvAsIntOrDefault("PROVIDER_TIMEOUT_SECONDS", 30)) * time.Second,
		ProbeTimeout:      time.Duration(getEnvAsIntOrDefault("PROBE_TIMEOUT_SECONDS", 15)) * time.Second,
		WorkerCount:       getEnvAsIntOrDefault("WORKER_COUNT", 4),
		SessionRateLimit:  getEnvAsIntOrDefault("SESSION_RATE_LIMIT", 30),
	}

	// Production requires a pinned session secret.
	if cfg.Env == "production" {
		cfg.SessionSecret = mustGetEnv("SESSION_SECRET")
	}
	if cfg.SessionSecret == "" {
		cfg.SessionSecret = randomSecret()
	}

	return cfg
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsBoolOrDefault(key string, defaultVal bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return b
}

// getEnvAsListOrDefault splits a comma separated value, dropping blanks.
func getEnvAsListOrDefault(key string, defaultVal []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}

func randomSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("failed to generate session secret: %v", err))
	}
	return hex.EncodeToString(b)
}
