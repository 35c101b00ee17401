package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cwygoda/lootdrop/internal/domain"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

const update = `{"update_id":1,"message":{"message_id":5,"date":0,"chat":{"id":42,"type":"private"},
	"text":"https://youtu.be/abc","entities":[{"type":"url","offset":0,"length":20}]}}`

func setupTestServer(secret string) (*Server, chan domain.Message) {
	messages := make(chan domain.Message, 1)
	return NewServer(messages, ":8080", secret, discard), messages
}

func postUpdate(srv *Server, body, secret string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if secret != "" {
		req.Header.Set(SecretHeader, secret)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestServer_Webhook_Success(t *testing.T) {
	srv, messages := setupTestServer("")

	rec := postUpdate(srv, update, "")

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}

	select {
	case msg := <-messages:
		if msg.ChatID != 42 || msg.MessageID != 5 {
			t.Errorf("message = %+v", msg)
		}
		if urls := msg.URLs(); len(urls) != 1 || urls[0] != "https://youtu.be/abc" {
			t.Errorf("URLs() = %v", urls)
		}
	default:
		t.Fatal("no message enqueued")
	}
}

func TestServer_Webhook_Secret(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   int
	}{
		{name: "valid", header: "s3cret", want: http.StatusNoContent},
		{name: "wrong", header: "guess", want: http.StatusUnauthorized},
		{name: "missing", header: "", want: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, messages := setupTestServer("s3cret")

			rec := postUpdate(srv, update, tt.header)

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
			if got := len(messages); (tt.want == http.StatusNoContent) != (got == 1) {
				t.Errorf("enqueued %d messages", got)
			}
		})
	}
}

func TestServer_Webhook_IgnoredUpdate(t *testing.T) {
	srv, messages := setupTestServer("")

	rec := postUpdate(srv, `{"update_id":2,"channel_post":{"message_id":1,"date":0,"chat":{"id":1,"type":"channel"}}}`, "")

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if len(messages) != 0 {
		t.Error("ignored update was enqueued")
	}
}

func TestServer_Webhook_InvalidJSON(t *testing.T) {
	srv, _ := setupTestServer("")

	rec := postUpdate(srv, `not json`, "")

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestServer_Webhook_Busy(t *testing.T) {
	srv := NewServer(make(chan domain.Message), ":8080", "", discard)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewBufferString(update)).WithContext(ctx)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}

func TestServer_Webhook_MethodNotAllowed(t *testing.T) {
	srv, _ := setupTestServer("")

	req := httptest.NewRequest(http.MethodGet, "/webhook", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
}

func TestServer_Health(t *testing.T) {
	srv, _ := setupTestServer("")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error: %v", err)
	}

	if resp["status"] != "ok" {
		t.Errorf("status = %q, want %q", resp["status"], "ok")
	}
}

func TestServer_ContentType(t *testing.T) {
	srv, _ := setupTestServer("")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	ct := rec.Header().Get("Content-Type")
	if ct != "application/json" {
		t.Errorf("Content-Type = %q, want %q", ct, "application/json")
	}
}

func TestServer_Port(t *testing.T) {
	srv, _ := setupTestServer("")
	if srv.Port() != 8080 {
		t.Errorf("Port() = %d, want 8080", srv.Port())
	}
	if srv.Addr() != ":8080" {
		t.Errorf("Addr() = %q", srv.Addr())
	}
}
