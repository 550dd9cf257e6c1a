package repository

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"

	"xenon-assistant/internal/models"
)

// SettingsRepo persists the admin settings as a flat JSON file.
// Both directions are best-effort: Load never fails and Save reports a bool.
type SettingsRepo struct {
	path string
}

func NewSettingsRepo(path string) *SettingsRepo {
	return &SettingsRepo{path: path}
}

func (r *SettingsRepo) Path() string { return r.path }

// Load overlays whatever the file holds on top of the defaults.
func (r *SettingsRepo) Load() models.Settings {
	settings := models.DefaultSettings()

	b, err := os.ReadFile(r.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("settings: failed to read %s: %v", r.path, err)
		}
		return settings
	}

	var stored struct {
		Credential     *string `json:"api_key"`
		SystemPrompt   *string `json:"system_prompt"`
		Title          *string `json:"app_title"`
		WelcomeMessage *string `json:"welcome_message"`
	}
	if err := json.Unmarshal(b, &stored); err != nil {
		log.Printf("settings: ignoring unparsable %s: %v", r.path, err)
		return settings
	}

	if stored.Credential != nil {
		settings.Credential = *stored.Credential
	}
	if stored.SystemPrompt != nil {
		settings.SystemPrompt = *stored.SystemPrompt
	}
	if stored.Title != nil {
		settings.Title = *stored.Title
	}
	if stored.WelcomeMessage != nil {
		settings.WelcomeMessage = *stored.WelcomeMessage
	}
	return settings
}

// Save writes the file in place. A failed write may leave a partial file.
func (r *SettingsRepo) Save(settings models.Settings) bool {
	b, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		log.Printf("settings: failed to encode: %v", err)
		return false
	}
	if dir := filepath.Dir(r.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Printf("settings: failed to create %s: %v", dir, err)
			return false
		}
	}
	if err := os.WriteFile(r.path, append(b, '\n'), 0o600); err != nil {
		log.Printf("settings: failed to write %s: %v", r.path, err)
		return false
	}
	return true
}
