package handlers

import (
	"context"
	"io"
	"log"
	"net/http"

	"github.com/google/uuid"

	"xenon-assistant/internal/middleware"
	"xenon-assistant/internal/models"
)

type pageSessions interface {
	NewSession(ctx context.Context) (*models.Session, error)
	Session(ctx context.Context, id uuid.UUID) (*models.Session, error)
	View(sess *models.Session) models.ChatView
	TopicGated() bool
}

type sessionTokens interface {
	tokenIssuer
	ParseSessionToken(token string) (uuid.UUID, error)
}

type settingsViewer interface {
	View() models.SettingsView
}

type pageRenderer interface {
	Render(w io.Writer, name string, data interface{}) error
}

type ChatPage struct {
	View         models.ChatView
	Token        string
	QuickActions []models.QuickAction
}

type AdminPage struct {
	Token      string
	IsAdmin    bool
	Settings   models.SettingsView
	TopicGated bool
}

// PageHandler serves the browser UI. A visitor without a valid session
// cookie gets a new session on first load.
type PageHandler struct {
	sessions     pageSessions
	tokens       sessionTokens
	settings     settingsViewer
	renderer     pageRenderer
	quickActions []models.QuickAction
	secureCookie bool
}

func NewPageHandler(sessions pageSessions, tokens sessionTokens, settings settingsViewer, renderer pageRenderer, quickActions []models.QuickAction, secureCookie bool) *PageHandler {
	return &PageHandler{
		sessions:     sessions,
		tokens:       tokens,
		settings:     settings,
		renderer:     renderer,
		quickActions: quickActions,
		secureCookie: secureCookie,
	}
}

// Index renders the chat page, or the admin page for ?admin=true.
func (h *PageHandler) Index(w http.ResponseWriter, r *http.Request) {
	sess, token, err := h.resolveSession(w, r)
	if err != nil {
		log.Printf("failed to start session: %v", err)
		http.Error(w, "Failed to start session", http.StatusInternalServerError)
		return
	}

	var name string
	var data interface{}
	if r.URL.Query().Get("admin") == "true" {
		name = "admin.html"
		page := AdminPage{Token: token, IsAdmin: sess.Admin, TopicGated: h.sessions.TopicGated()}
		if sess.Admin {
			page.Settings = h.settings.View()
		}
		data = page
	} else {
		name = "index.html"
		data = ChatPage{View: h.sessions.View(sess), Token: token, QuickActions: h.quickActions}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := h.renderer.Render(w, name, data); err != nil {
		log.Printf("failed to render %s: %v", name, err)
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
	}
}

func (h *PageHandler) resolveSession(w http.ResponseWriter, r *http.Request) (*models.Session, string, error) {
	ctx := r.Context()
	if token := middleware.TokenFromRequest(r); token != "" {
		if id, err := h.tokens.ParseSessionToken(token); err == nil {
			if sess, err := h.sessions.Session(ctx, id); err == nil {
				return sess, token, nil
			}
		}
	}

	sess, err := h.sessions.NewSession(ctx)
	if err != nil {
		return nil, "", err
	}
	token, err := h.tokens.GenerateSessionToken(sess.ID)
	if err != nil {
		return nil, "", err
	}
	h.tokens.SetSessionCookie(w, token, h.secureCookie)
	return sess, token, nil
}
