package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"xenon-assistant/internal/models"
)

type stubTokens map[string]uuid.UUID

func (s stubTokens) ParseSessionToken(token string) (uuid.UUID, error) {
	id, ok := s[token]
	if !ok {
		return uuid.Nil, errors.New("invalid token")
	}
	return id, nil
}

func dial(t *testing.T, srv *httptest.Server, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func readEvent(t *testing.T, conn *websocket.Conn) models.WSMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg models.WSMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return msg
}

func TestHub_RejectsMissingOrBadToken(t *testing.T) {
	hub := NewHub(nil, stubTokens{})
	for _, target := range []string{"/ws", "/ws?token=bogus"} {
		rr := httptest.NewRecorder()
		hub.HandleWebSocket(rr, httptest.NewRequest(http.MethodGet, target, nil))
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("%s: expected 401, got %d", target, rr.Code)
		}
	}
}

func TestHub_LocalBroadcast(t *testing.T) {
	id := uuid.New()
	other := uuid.New()
	hub := NewHub(nil, stubTokens{"a": id, "b": other})
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWebSocket))
	defer srv.Close()

	conn := dial(t, srv, "a")
	bystander := dial(t, srv, "b")
	waitFor(t, func() bool { return hub.ConnectionCount(id) == 1 && hub.ConnectionCount(other) == 1 })

	hub.Publish(context.Background(), id, models.WSMessage{
		Type:    models.WSGenerationDone,
		Payload: models.GenerationEvent{SessionID: id, State: models.StateDone},
	})

	if msg := readEvent(t, conn); msg.Type != models.WSGenerationDone {
		t.Fatalf("expected %s, got %s", models.WSGenerationDone, msg.Type)
	}

	bystander.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	if _, _, err := bystander.ReadMessage(); err == nil {
		t.Fatal("events must not leak to other sessions")
	}

	conn.Close()
	waitFor(t, func() bool { return hub.ConnectionCount(id) == 0 })
}

func TestHub_RedisPubSub(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	id := uuid.New()
	hub := NewHub(client, stubTokens{"a": id})
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWebSocket))
	defer srv.Close()

	conn := dial(t, srv, "a")
	waitFor(t, func() bool { return mr.PubSubNumSub(channelName(id))[channelName(id)] == 1 })

	// A second hub without sockets stands in for another process.
	publisher := NewHub(client, stubTokens{})
	publisher.Publish(context.Background(), id, models.WSMessage{Type: models.WSGenerationPending})

	if msg := readEvent(t, conn); msg.Type != models.WSGenerationPending {
		t.Fatalf("expected %s, got %s", models.WSGenerationPending, msg.Type)
	}
}
