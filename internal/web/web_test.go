package web

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"xenon-assistant/internal/handlers"
	"xenon-assistant/internal/models"
)

func render(t *testing.T, name string, data interface{}) string {
	t.Helper()
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	var buf bytes.Buffer
	if err := r.Render(&buf, name, data); err != nil {
		t.Fatalf("Render: %v", err)
	}
	return buf.String()
}

func TestRender_ChatPage(t *testing.T) {
	page := handlers.ChatPage{
		Token: "tok",
		View: models.ChatView{
			Title:          "Xenon Trader Live Assistant",
			WelcomeMessage: "Welcome aboard",
			Configured:     true,
			State:          models.StateDone,
			Transcript: []models.ChatMessage{
				{Role: models.RoleUser, Content: "<script>alert(1)</script>"},
				{Role: models.RoleAssistant, Content: "Hello trader"},
			},
		},
		QuickActions: []models.QuickAction{{ID: "risk-management", Label: "⚠️ Risk Management"}},
	}

	out := render(t, "index.html", page)
	for _, want := range []string{
		"Xenon Trader Live Assistant",
		`data-token="tok"`,
		"Hello trader",
		"🔊 Speak",
		`data-action="risk-management"`,
		"&lt;script&gt;",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q", want)
		}
	}
	if strings.Contains(out, "<script>alert(1)") {
		t.Error("user content must be escaped")
	}
	if strings.Contains(out, "Welcome aboard</div>") {
		t.Error("welcome bubble only shows for an empty transcript")
	}
}

func TestRender_ChatPageNotConfigured(t *testing.T) {
	out := render(t, "index.html", handlers.ChatPage{View: models.ChatView{
		Title:          "T",
		WelcomeMessage: "Welcome aboard",
		Warning:        "This AI assistant is not yet configured. Please contact the administrator.",
	}})

	if !strings.Contains(out, "not yet configured") {
		t.Error("expected configuration warning")
	}
	if !strings.Contains(out, "🤖 Welcome aboard") {
		t.Error("expected welcome bubble")
	}
	if !strings.Contains(out, `id="query" name="message" placeholder="Ask about trading, market analysis, or anything else..." disabled`) {
		t.Error("expected input to be disabled")
	}
}

func TestRender_AdminPage(t *testing.T) {
	login := render(t, "admin.html", handlers.AdminPage{Token: "tok"})
	if !strings.Contains(login, `id="login-form"`) || strings.Contains(login, `id="settings-form"`) {
		t.Error("expected only the login form before authentication")
	}

	panel := render(t, "admin.html", handlers.AdminPage{
		Token:   "tok",
		IsAdmin: true,
		Settings: models.SettingsView{
			Credential:       "sk-or-********1234",
			CredentialSet:    true,
			DetectedProvider: "OpenRouter API key detected",
			Title:            "Desk",
		},
	})
	for _, want := range []string{`id="settings-form"`, "sk-or-********1234", "OpenRouter API key detected", `value="Desk"`} {
		if !strings.Contains(panel, want) {
			t.Errorf("expected admin panel to contain %q", want)
		}
	}
}

func TestStaticHandler(t *testing.T) {
	srv := http.StripPrefix("/static/", StaticHandler())
	for _, path := range []string{"/static/app.js", "/static/style.css"} {
		rr := httptest.NewRecorder()
		srv.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", path, rr.Code)
		}
	}
}
