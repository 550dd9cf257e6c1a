package services

import (
	"strings"
	"sync"

	"xenon-assistant/internal/models"
)

type settingsStore interface {
	Load() models.Settings
	Save(settings models.Settings) bool
}

// SettingsService holds the process-wide settings record. It is loaded once
// and handed to callers by reference; admin edits are last-write-wins.
type SettingsService struct {
	mu      sync.RWMutex
	store   settingsStore
	current models.Settings
}

func NewSettingsService(store settingsStore) *SettingsService {
	return &SettingsService{store: store, current: store.Load()}
}

func (s *SettingsService) Current() models.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Configured reports whether a credential has been entered at all. Format
// problems are left to the dispatcher.
func (s *SettingsService) Configured() bool {
	return strings.TrimSpace(s.Current().Credential) != ""
}

func (s *SettingsService) View() models.SettingsView {
	return viewOf(s.Current())
}

// Update applies a partial edit. The in-memory record always changes; a
// failed write only downgrades the response to a warning.
func (s *SettingsService) Update(update models.SettingsUpdate) (models.SettingsSaveResponse, error) {
	fieldErrors := make(map[string]string)
	if update.Title != nil && strings.TrimSpace(*update.Title) == "" {
		fieldErrors["app_title"] = "Title cannot be empty"
	}
	if update.Credential != nil && strings.ContainsAny(*update.Credential, " \t\r\n") {
		fieldErrors["api_key"] = "API key cannot contain whitespace"
	}
	if len(fieldErrors) > 0 {
		return models.SettingsSaveResponse{}, &ValidationError{Fields: fieldErrors}
	}

	s.mu.Lock()
	next := s.current
	if update.Credential != nil {
		next.Credential = *update.Credential
	}
	if update.SystemPrompt != nil {
		next.SystemPrompt = *update.SystemPrompt
	}
	if update.Title != nil {
		next.Title = strings.TrimSpace(*update.Title)
	}
	if update.WelcomeMessage != nil {
		next.WelcomeMessage = *update.WelcomeMessage
	}
	s.current = next
	s.mu.Unlock()

	resp := models.SettingsSaveResponse{Saved: s.store.Save(next), Settings: viewOf(next)}
	if !resp.Saved {
		resp.Warning = SaveFailedWarning
	}
	return resp, nil
}

func viewOf(settings models.Settings) models.SettingsView {
	view := models.SettingsView{
		Credential:     MaskCredential(settings.Credential),
		CredentialSet:  settings.Credential != "",
		SystemPrompt:   settings.SystemPrompt,
		Title:          settings.Title,
		WelcomeMessage: settings.WelcomeMessage,
	}
	if view.CredentialSet {
		view.DetectedProvider = ClassifyCredential(settings.Credential).Label()
	}
	return view
}

// MaskCredential keeps the prefix that identifies the provider and the last
// four characters. Short values are masked entirely.
func MaskCredential(credential string) string {
	if credential == "" {
		return ""
	}
	keep := 0
	switch ClassifyCredential(credential) {
	case ProviderGitHub:
		keep = len(githubTokenPrefix)
	case ProviderOpenRouter:
		keep = len(openRouterPrefix)
	case ProviderDeepInfra:
		keep = len(secretKeyPrefix)
	}
	if len(credential) <= keep+8 {
		return strings.Repeat("*", len(credential))
	}
	return credential[:keep] + strings.Repeat("*", len(credential)-keep-4) + credential[len(credential)-4:]
}
