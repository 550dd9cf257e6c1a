package services

import (
	"context"
	"strings"

	"xenon-assistant/internal/models"
)

// ProviderKind is the backend a credential routes to.
type ProviderKind int

const (
	ProviderInvalid ProviderKind = iota
	ProviderGitHub
	ProviderDeepInfra
	ProviderOpenRouter
)

const (
	githubTokenPrefix = "github_pat_"
	secretKeyPrefix   = "sk-"
	openRouterPrefix  = "sk-or-"
)

func (k ProviderKind) String() string {
	switch k {
	case ProviderGitHub:
		return "GitHub"
	case ProviderDeepInfra:
		return "DeepInfra"
	case ProviderOpenRouter:
		return "OpenRouter"
	default:
		return "Invalid"
	}
}

// Label is the human readable description shown in the admin panel.
func (k ProviderKind) Label() string {
	switch k {
	case ProviderGitHub:
		return "GitHub Models token detected (gpt-4o-mini with offline fallback)"
	case ProviderDeepInfra:
		return "DeepInfra API key detected (Llama 4 Scout 17B)"
	case ProviderOpenRouter:
		return "OpenRouter API key detected"
	default:
		return "Unknown API key format"
	}
}

// ClassifyCredential is the only place credential prefixes are inspected.
// GitHub tokens win first; "sk-or-" must be checked before the generic "sk-".
func ClassifyCredential(credential string) ProviderKind {
	switch {
	case strings.HasPrefix(credential, githubTokenPrefix):
		return ProviderGitHub
	case strings.HasPrefix(credential, openRouterPrefix):
		return ProviderOpenRouter
	case strings.HasPrefix(credential, secretKeyPrefix):
		return ProviderDeepInfra
	default:
		return ProviderInvalid
	}
}

// Provider is a single LLM integration able to answer a chat.
type Provider interface {
	Name() string
	Complete(ctx context.Context, messages []models.ChatMessage) (string, error)
}
