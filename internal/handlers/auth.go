package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"xenon-assistant/internal/middleware"
	"xenon-assistant/internal/models"
	"xenon-assistant/internal/services"
)

type sessionCreator interface {
	NewSession(ctx context.Context) (*models.Session, error)
}

type adminAuthenticator interface {
	Login(ctx context.Context, sessionID uuid.UUID, password string) error
	Logout(ctx context.Context, sessionID uuid.UUID) error
}

type tokenIssuer interface {
	GenerateSessionToken(sessionID uuid.UUID) (string, error)
	SetSessionCookie(w http.ResponseWriter, token string, secure bool)
}

type AuthHandler struct {
	sessions     sessionCreator
	admin        adminAuthenticator
	tokens       tokenIssuer
	secureCookie bool
}

func NewAuthHandler(sessions sessionCreator, admin adminAuthenticator, tokens tokenIssuer, secureCookie bool) *AuthHandler {
	return &AuthHandler{sessions: sessions, admin: admin, tokens: tokens, secureCookie: secureCookie}
}

// CreateSession starts a fresh chat session and hands back its token.
func (h *AuthHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.NewSession(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	token, err := h.tokens.GenerateSessionToken(sess.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to issue session token", r))
		return
	}
	h.tokens.SetSessionCookie(w, token, h.secureCookie)

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"session_id": sess.ID,
		"token":      token,
	})
}

func (h *AuthHandler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if err := h.admin.Login(r.Context(), middleware.GetSessionID(r.Context()), req.Password); err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"admin": true})
}

func (h *AuthHandler) AdminLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.admin.Logout(r.Context(), middleware.GetSessionID(r.Context())); err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"admin": false})
}

// Shared helpers

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResp(code, message string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			RequestID: r.Header.Get("X-Request-ID"),
		},
	}
}

func errorRespWithFields(code, message string, fields map[string]string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			Fields:    fields,
			RequestID: r.Header.Get("X-Request-ID"),
		},
	}
}

func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch e := err.(type) {
	case *services.ValidationError:
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", e.Fields, r))
	case *services.ConfigurationError:
		writeJSON(w, http.StatusServiceUnavailable, errorResp("NOT_CONFIGURED", e.Message, r))
	case *services.DuplicateQueryError:
		writeJSON(w, http.StatusConflict, errorResp("DUPLICATE_QUERY", e.Message, r))
	case *services.BusyError:
		writeJSON(w, http.StatusConflict, errorResp("GENERATION_IN_PROGRESS", e.Message, r))
	case *services.NotFoundError:
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", e.Message, r))
	case *services.UnauthorizedError:
		writeJSON(w, http.StatusUnauthorized, errorResp("UNAUTHORIZED", e.Message, r))
	default:
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "An unexpected error occurred", r))
	}
}
