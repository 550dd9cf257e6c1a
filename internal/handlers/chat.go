package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"xenon-assistant/internal/middleware"
	"xenon-assistant/internal/models"
)

type chatService interface {
	Session(ctx context.Context, id uuid.UUID) (*models.Session, error)
	Submit(ctx context.Context, id uuid.UUID, query string) (*models.Session, error)
	Abort(ctx context.Context, id, jobID uuid.UUID, reason string) (*models.Session, error)
	ClearHistory(ctx context.Context, id uuid.UUID) (*models.Session, error)
	View(sess *models.Session) models.ChatView
}

type jobQueue interface {
	Enqueue(ctx context.Context, job models.GenerationJob) error
}

type eventPublisher interface {
	Publish(ctx context.Context, sessionID uuid.UUID, msg models.WSMessage)
}

type ChatHandler struct {
	chat         chatService
	queue        jobQueue
	events       eventPublisher
	quickActions []models.QuickAction
}

func NewChatHandler(chat chatService, queue jobQueue, events eventPublisher, quickActions []models.QuickAction) *ChatHandler {
	return &ChatHandler{
		chat:         chat,
		queue:        queue,
		events:       events,
		quickActions: quickActions,
	}
}

func (h *ChatHandler) Get(w http.ResponseWriter, r *http.Request) {
	sess, err := h.chat.Session(r.Context(), middleware.GetSessionID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.chat.View(sess))
}

func (h *ChatHandler) PostMessage(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	h.submit(w, r, req.Message)
}

func (h *ChatHandler) QuickActions(w http.ResponseWriter, r *http.Request) {
	actions := h.quickActions
	if actions == nil {
		actions = []models.QuickAction{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"quick_actions": actions})
}

// SubmitQuickAction injects a canned question through the free-text pipeline.
func (h *ChatHandler) SubmitQuickAction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	for _, a := range h.quickActions {
		if a.ID == id {
			h.submit(w, r, a.Question)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Quick action not found", r))
}

func (h *ChatHandler) Clear(w http.ResponseWriter, r *http.Request) {
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
	writeJSON(w, http.StatusOK, h.chat.View(sess))
}

func (h *ChatHandler) submit(w http.ResponseWriter, r *http.Request, query string) {
	ctx := r.Context()
	sessionID := middleware.GetSessionID(ctx)

	sess, err := h.chat.Submit(ctx, sessionID, query)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	job := sess.PendingGeneration()
	if err := h.queue.Enqueue(ctx, job); err != nil {
		log.Printf("failed to enqueue generation for session %s: %v", sessionID, err)
		if _, abortErr := h.chat.Abort(ctx, sessionID, job.ID, err.Error()); abortErr != nil {
			log.Printf("failed to release session %s: %v", sessionID, abortErr)
		}
		writeJSON(w, http.StatusServiceUnavailable, errorResp("QUEUE_UNAVAILABLE", "The assistant is busy. Please try again shortly.", r))
		return
	}

	h.events.Publish(ctx, sessionID, models.WSMessage{
		Type: models.WSGenerationPending,
		Payload: models.GenerationEvent{
			SessionID: sessionID,
			JobID:     job.ID,
			State:     models.StatePending,
		},
	})

	writeJSON(w, http.StatusAccepted, h.chat.View(sess))
}
