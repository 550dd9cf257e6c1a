package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"xenon-assistant/internal/middleware"
	"xenon-assistant/internal/models"
)

type settingsService interface {
	View() models.SettingsView
	Update(update models.SettingsUpdate) (models.SettingsSaveResponse, error)
}

type exchangeLister interface {
	ListRecent(ctx context.Context, limit int) ([]models.Exchange, error)
}

type AdminHandler struct {
	settings  settingsService
	chat      chatService
	events    eventPublisher
	exchanges exchangeLister
}

// NewAdminHandler accepts a nil exchanges lister when no audit log is configured.
func NewAdminHandler(settings settingsService, chat chatService, events eventPublisher, exchanges exchangeLister) *AdminHandler {
	return &AdminHandler{settings: settings, chat: chat, events: events, exchanges: exchanges}
}

func (h *AdminHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.settings.View())
}

func (h *AdminHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req models.SettingsUpdate
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	resp, err := h.settings.Update(req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// ClearHistory empties the admin's own chat transcript.
func (h *AdminHandler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.GetSessionID(r.Context())
	sess, err := h.chat.ClearHistory(r.Context(), sessionID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	h.events.Publish(r.Context(), sessionID, models.WSMessage{
		Type:    models.WSTranscriptCleared,
		Payload: models.GenerationEvent{SessionID: sessionID, State: sess.State},
	})
	writeJSON(w, http.StatusOK, map[string]string{"message": "Chat history cleared!"})
}

func (h *AdminHandler) Exchanges(w http.ResponseWriter, r *http.Request) {
	if h.exchanges == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"enabled":   false,
			"exchanges": []models.Exchange{},
		})
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	exchanges, err := h.exchanges.ListRecent(r.Context(), limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load exchanges", r))
		return
	}
	if exchanges == nil {
		exchanges = []models.Exchange{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"enabled":   true,
		"exchanges": exchanges,
	})
}
