package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body.Error.Code
}

func TestSessionToken_RoundTrip(t *testing.T) {
	auth := NewSessionAuth("test-secret")
	id := uuid.New()

	token, err := auth.GenerateSessionToken(id)
	if err != nil {
		t.Fatalf("GenerateSessionToken: %v", err)
	}
	got, err := auth.ParseSessionToken(token)
	if err != nil {
		t.Fatalf("ParseSessionToken: %v", err)
	}
	if got != id {
		t.Fatalf("expected %s, got %s", id, got)
	}

	if _, err := NewSessionAuth("other-secret").ParseSessionToken(token); err == nil {
		t.Fatal("expected token signed with another secret to be rejected")
	}
}

func TestSessionAuth_Middleware(t *testing.T) {
	auth := NewSessionAuth("test-secret")
	id := uuid.New()
	valid, _ := auth.GenerateSessionToken(id)

	expired, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"session_id": id.String(),
		"exp":        time.Now().Add(-time.Minute).Unix(),
	}).SignedString(auth.Secret)

	noClaim, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Minute).Unix(),
	}).SignedString(auth.Secret)

	tests := []struct {
		name     string
		setup    func(r *http.Request)
		wantCode int
		wantErr  string
	}{
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+valid) }, http.StatusOK, ""},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: SessionCookieName, Value: valid}) }, http.StatusOK, ""},
		{"missing", func(r *http.Request) {}, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"wrong scheme", func(r *http.Request) { r.Header.Set("Authorization", "Basic "+valid) }, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"garbage", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"expired", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+expired) }, http.StatusUnauthorized, "TOKEN_EXPIRED"},
		{"no session claim", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+noClaim) }, http.StatusUnauthorized, "UNAUTHORIZED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen uuid.UUID
			h := auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = GetSessionID(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/chat", nil)
			tt.setup(req)
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			if rr.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d", tt.wantCode, rr.Code)
			}
			if tt.wantErr != "" {
				if code := errorCode(t, rr); code != tt.wantErr {
					t.Fatalf("expected %s, got %s", tt.wantErr, code)
				}
				return
			}
			if seen != id {
				t.Fatalf("expected session %s in context, got %s", id, seen)
			}
		})
	}
}

func TestSetSessionCookie(t *testing.T) {
	rr := httptest.NewRecorder()
	NewSessionAuth("s").SetSessionCookie(rr, "tok", true)

	cookies := rr.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected 1 cookie, got %d", len(cookies))
	}
	c := cookies[0]
	if c.Name != SessionCookieName || c.Value != "tok" || !c.HttpOnly || !c.Secure {
		t.Fatalf("unexpected cookie %+v", c)
	}
}

type stubAdmins map[uuid.UUID]bool

func (s stubAdmins) IsAdmin(ctx context.Context, id uuid.UUID) bool { return s[id] }

func TestRequireAdmin(t *testing.T) {
	admin := uuid.New()
	visitor := uuid.New()
	h := RequireAdmin(stubAdmins{admin: true})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	for id, want := range map[uuid.UUID]int{admin: http.StatusNoContent, visitor: http.StatusForbidden} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/settings", nil)
		req = req.WithContext(context.WithValue(req.Context(), SessionIDKey, id))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != want {
			t.Errorf("session %s: expected %d, got %d", id, want, rr.Code)
		}
	}
}
