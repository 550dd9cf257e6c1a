package services

import (
	"context"
	"log"
	"net/http"
	"time"

	"xenon-assistant/internal/models"
)

const (
	githubModel     = "gpt-4o-mini"
	deepInfraModel  = "meta-llama/Llama-4-Scout-17B-16E-Instruct"
	openRouterModel = "anthropic/claude-3.5-sonnet"
)

type DispatcherConfig struct {
	GitHubURL     string
	DeepInfraURL  string
	OpenRouterURL string
	ProbeURLs     []string
	Timeout       time.Duration
	ProbeTimeout  time.Duration
}

// Dispatcher routes a chat to the provider a credential belongs to.
type Dispatcher struct {
	cfg      DispatcherConfig
	client   *http.Client
	fallback *FallbackGenerator
}

func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = 15 * time.Second
	}
	return &Dispatcher{
		cfg:      cfg,
		client:   &http.Client{Timeout: cfg.Timeout},
		fallback: NewFallbackGenerator(cfg.ProbeURLs, &http.Client{Timeout: cfg.ProbeTimeout}),
	}
}

// ProviderFor resolves the credential to a Provider without touching the network.
func (d *Dispatcher) ProviderFor(credential string) (Provider, error) {
	switch ClassifyCredential(credential) {
	case ProviderGitHub:
		return &githubProvider{
			primary:  NewCompletionProvider("GitHub Models", d.cfg.GitHubURL, githubModel, credential, d.client),
			fallback: d.fallback,
		}, nil
	case ProviderDeepInfra:
		return NewCompletionProvider("DeepInfra", d.cfg.DeepInfraURL, deepInfraModel, credential, d.client), nil
	case ProviderOpenRouter:
		return NewCompletionProvider("OpenRouter", d.cfg.OpenRouterURL, openRouterModel, credential, d.client), nil
	default:
		return nil, ErrInvalidCredential
	}
}

func (d *Dispatcher) Dispatch(ctx context.Context, messages []models.ChatMessage, credential string) (string, error) {
	p, err := d.ProviderFor(credential)
	if err != nil {
		return "", err
	}
	return p.Complete(ctx, messages)
}

// githubProvider never surfaces an error: any failure of the free tier is
// answered by the fallback generator.
type githubProvider struct {
	primary  *CompletionProvider
	fallback *FallbackGenerator
}

func (p *githubProvider) Name() string { return p.primary.Name() }

func (p *githubProvider) Complete(ctx context.Context, messages []models.ChatMessage) (string, error) {
	text, err := p.primary.Complete(ctx, messages)
	if err == nil {
		return text, nil
	}
	log.Printf("GitHub Models call failed, using fallback: %v", err)
	return p.fallback.Generate(ctx, messages), nil
}
