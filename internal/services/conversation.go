package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"xenon-assistant/internal/models"
	"xenon-assistant/internal/repository"
)

const (
	// HistoryWindow is how many prior transcript entries go upstream (three exchanges).
	HistoryWindow = 6
	// DuplicateWindow is how far back a repeated question is detected.
	DuplicateWindow = 10

	DefaultSystemPrompt = "You are a helpful AI assistant. Answer questions clearly and concisely."
)

// ErrNoPendingGeneration is returned by Complete when the session was cleared,
// already answered, or moved on to a newer question while the job waited.
var ErrNoPendingGeneration = errors.New("no generation pending for session")

type SessionRepository interface {
	Create(ctx context.Context, s *models.Session) error
	Get(ctx context.Context, id uuid.UUID) (*models.Session, error)
	Update(ctx context.Context, id uuid.UUID, fn func(*models.Session) error) (*models.Session, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type ChatDispatcher interface {
	Dispatch(ctx context.Context, messages []models.ChatMessage, credential string) (string, error)
}

type ExchangeRecorder interface {
	Record(ctx context.Context, e *models.Exchange) error
}

// Orchestrator turns a user query into an assistant turn for one session.
type Orchestrator struct {
	sessions      SessionRepository
	dispatcher    ChatDispatcher
	settings      *SettingsService
	filter        *TopicFilter
	recorder      ExchangeRecorder
	defaultPrompt string
}

func NewOrchestrator(sessions SessionRepository, dispatcher ChatDispatcher, settings *SettingsService) *Orchestrator {
	return &Orchestrator{
		sessions:      sessions,
		dispatcher:    dispatcher,
		settings:      settings,
		defaultPrompt: DefaultSystemPrompt,
	}
}

// WithTopicFilter switches to the topic-gated variant. Replies pass through
// f and the policy's prompt becomes the default system prompt.
func (o *Orchestrator) WithTopicFilter(f *TopicFilter) *Orchestrator {
	o.filter = f
	if p := strings.TrimSpace(f.SystemPrompt()); p != "" {
		o.defaultPrompt = p
	}
	return o
}

func (o *Orchestrator) WithRecorder(r ExchangeRecorder) *Orchestrator {
	o.recorder = r
	return o
}

func (o *Orchestrator) TopicGated() bool { return o.filter != nil }

func (o *Orchestrator) NewSession(ctx context.Context) (*models.Session, error) {
	sess := models.NewSession()
	if err := o.sessions.Create(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (o *Orchestrator) Session(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	sess, err := o.sessions.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, &NotFoundError{Message: "Session not found"}
	}
	return sess, err
}

// Submit records the user turn and marks the session pending. Rejected
// queries leave the session untouched.
func (o *Orchestrator) Submit(ctx context.Context, id uuid.UUID, query string) (*models.Session, error) {
	if !o.settings.Configured() {
		return nil, &ConfigurationError{Message: NotConfiguredWarning}
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, &ValidationError{Fields: map[string]string{"message": "Message is required"}}
	}

	sess, err := o.sessions.Update(ctx, id, func(s *models.Session) error {
		if s.Generating {
			return &BusyError{Message: "A reply is still being generated. Please wait."}
		}
		if isRecentQuestion(s.Transcript, query) {
			return &DuplicateQueryError{Message: DuplicateQueryWarning}
		}
		s.Append(models.ChatMessage{Role: models.RoleUser, Content: query})
		s.Generating = true
		s.PendingJob = uuid.New()
		s.State = models.StatePending
		s.LastError = ""
		return nil
	})
	if errors.Is(err, repository.ErrNotFound) {
		return nil, &NotFoundError{Message: "Session not found"}
	}
	return sess, err
}

// Complete produces the assistant turn for the pending question identified
// by jobID. Provider failures become the visible assistant text, so the only
// errors returned concern the session itself.
func (o *Orchestrator) Complete(ctx context.Context, id, jobID uuid.UUID) (*models.Session, error) {
	snapshot, err := o.Session(ctx, id)
	if err != nil {
		return nil, err
	}
	if !pendingFor(snapshot, jobID) {
		return nil, ErrNoPendingGeneration
	}

	settings := o.settings.Current()
	question, messages := o.buildMessages(snapshot.Transcript, settings.SystemPrompt)

	started := time.Now()
	reply, dispatchErr := o.dispatcher.Dispatch(ctx, messages, settings.Credential)
	elapsed := time.Since(started)

	state := models.StateDone
	content := reply
	filtered := false
	if dispatchErr != nil {
		state = models.StateFailed
		content = "Error: " + dispatchErr.Error()
	} else if o.filter != nil {
		content = o.filter.FilterReply(reply, question)
		filtered = content != reply
	}

	sess, err := o.sessions.Update(ctx, id, func(s *models.Session) error {
		if !pendingFor(s, jobID) {
			return ErrNoPendingGeneration
		}
		s.Append(models.ChatMessage{Role: models.RoleAssistant, Content: content})
		s.Generating = false
		s.PendingJob = uuid.Nil
		s.State = state
		s.LastError = ""
		if dispatchErr != nil {
			s.LastError = dispatchErr.Error()
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Message: "Session not found"}
		}
		return nil, err
	}

	o.record(ctx, &models.Exchange{
		SessionID:  id,
		Provider:   ClassifyCredential(settings.Credential).String(),
		Question:   question,
		Reply:      content,
		Filtered:   filtered,
		Failed:     dispatchErr != nil,
		DurationMs: elapsed.Milliseconds(),
	})
	return sess, nil
}

// Respond is the synchronous form: submit then complete in the caller's goroutine.
func (o *Orchestrator) Respond(ctx context.Context, id uuid.UUID, query string) (*models.Session, error) {
	sess, err := o.Submit(ctx, id, query)
	if err != nil {
		return nil, err
	}
	return o.Complete(ctx, id, sess.PendingJob)
}

// Abort withdraws a pending user turn that could not be scheduled, so the
// same question can be asked again.
func (o *Orchestrator) Abort(ctx context.Context, id, jobID uuid.UUID, reason string) (*models.Session, error) {
	sess, err := o.sessions.Update(ctx, id, func(s *models.Session) error {
		if !pendingFor(s, jobID) {
			return ErrNoPendingGeneration
		}
		if n := len(s.Transcript); n > 0 && s.Transcript[n-1].Role == models.RoleUser {
			s.Transcript = s.Transcript[:n-1]
		}
		s.Generating = false
		s.PendingJob = uuid.Nil
		s.State = models.StateFailed
		s.LastError = reason
		return nil
	})
	if errors.Is(err, repository.ErrNotFound) {
		return nil, &NotFoundError{Message: "Session not found"}
	}
	return sess, err
}

// ClearHistory empties the transcript. A reply still in flight is discarded.
func (o *Orchestrator) ClearHistory(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	sess, err := o.sessions.Update(ctx, id, func(s *models.Session) error {
		s.Transcript = []models.ChatMessage{}
		s.Generating = false
		s.PendingJob = uuid.Nil
		s.State = models.StateIdle
		s.LastError = ""
		return nil
	})
	if errors.Is(err, repository.ErrNotFound) {
		return nil, &NotFoundError{Message: "Session not found"}
	}
	return sess, err
}

func (o *Orchestrator) View(sess *models.Session) models.ChatView {
	settings := o.settings.Current()
	view := models.ChatView{
		Title:          settings.Title,
		WelcomeMessage: settings.WelcomeMessage,
		Configured:     o.settings.Configured(),
		Transcript:     []models.ChatMessage{},
		State:          models.StateIdle,
	}
	if !view.Configured {
		view.Warning = NotConfiguredWarning
	}
	if sess != nil {
		view.SessionID = sess.ID.String()
		view.Transcript = sess.Transcript
		view.Generating = sess.Generating
		view.State = sess.State
	}
	return view
}

// buildMessages returns the pending question and the outbound list:
// system prompt, up to HistoryWindow earlier entries, then the question.
func (o *Orchestrator) buildMessages(transcript []models.ChatMessage, systemPrompt string) (string, []models.ChatMessage) {
	if strings.TrimSpace(systemPrompt) == "" {
		systemPrompt = o.defaultPrompt
	}

	last := len(transcript) - 1
	for last >= 0 && transcript[last].Role != models.RoleUser {
		last--
	}
	question := ""
	if last >= 0 {
		question = transcript[last].Content
	} else {
		last = len(transcript)
	}

	start := last - HistoryWindow
	if start < 0 {
		start = 0
	}

	messages := make([]models.ChatMessage, 0, last-start+2)
	messages = append(messages, models.ChatMessage{Role: models.RoleSystem, Content: systemPrompt})
	messages = append(messages, transcript[start:last]...)
	messages = append(messages, models.ChatMessage{Role: models.RoleUser, Content: question})
	return question, messages
}

func (o *Orchestrator) record(ctx context.Context, e *models.Exchange) {
	if o.recorder == nil {
		return
	}
	if err := o.recorder.Record(ctx, e); err != nil {
		log.Printf("failed to record exchange for session %s: %v", e.SessionID, err)
	}
}

func pendingFor(s *models.Session, jobID uuid.UUID) bool {
	return s.Generating && s.PendingJob == jobID
}

func isRecentQuestion(transcript []models.ChatMessage, query string) bool {
	start := len(transcript) - DuplicateWindow
	if start < 0 {
		start = 0
	}
	for _, m := range transcript[start:] {
		if m.Role == models.RoleUser && strings.TrimSpace(m.Content) == query {
			return true
		}
	}
	return false
}
