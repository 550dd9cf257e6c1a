package models

const (
	DefaultTitle          = "Xenon Trader Live Assistant"
	DefaultWelcomeMessage = "Hello! I'm Xenon Trader, your live trading assistant. How can I help you with your trading today?"
)

// Settings is the process-wide configuration edited through the admin panel.
type Settings struct {
	Credential     string `json:"api_key"`
	SystemPrompt   string `json:"system_prompt"`
	Title          string `json:"app_title"`
	WelcomeMessage string `json:"welcome_message"`
}

func DefaultSettings() Settings {
	return Settings{
		Title:          DefaultTitle,
		WelcomeMessage: DefaultWelcomeMessage,
	}
}

// SettingsUpdate carries a partial admin edit; nil fields are left unchanged.
type SettingsUpdate struct {
	Credential     *string `json:"api_key"`
	SystemPrompt   *string `json:"system_prompt"`
	Title          *string `json:"app_title"`
	WelcomeMessage *string `json:"welcome_message"`
}

// SettingsView is the admin-facing representation; the credential is masked.
type SettingsView struct {
	Credential       string `json:"api_key"`
	CredentialSet    bool   `json:"api_key_set"`
	DetectedProvider string `json:"detected_provider"`
	SystemPrompt     string `json:"system_prompt"`
	Title            string `json:"app_title"`
	WelcomeMessage   string `json:"welcome_message"`
}

type SettingsSaveResponse struct {
	Saved    bool         `json:"saved"`
	Warning  string       `json:"warning,omitempty"`
	Settings SettingsView `json:"settings"`
}
