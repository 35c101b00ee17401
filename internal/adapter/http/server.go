package http

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/cwygoda/lootdrop/internal/adapter/telegram"
	"github.com/cwygoda/lootdrop/internal/domain"
)

// SecretHeader carries the webhook secret Telegram was registered with.
const SecretHeader = "X-Telegram-Bot-Api-Secret-Token"

const maxUpdateBytes = 1 << 20

// Server receives Telegram webhook deliveries and hands their messages to
// the worker.
type Server struct {
	messages chan<- domain.Message
	mux      *http.ServeMux
	server   *http.Server
	secret   string
	logger   *slog.Logger
}

// NewServer creates a new HTTP server.
func NewServer(messages chan<- domain.Message, addr, secret string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		messages: messages,
		mux:      http.NewServeMux(),
		secret:   secret,
		logger:   logger.With(slog.String("component", "webhook")),
	}
	s.routes()
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.mux,
	}
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("POST /webhook", s.handleWebhook)
	s.mux.HandleFunc("GET /health", s.handleHealth)
}

// errorResponse is the JSON error response.
type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if s.secret != "" && !s.verifySecret(r) {
		s.logger.Warn("webhook verification failed", slog.String("remote", r.RemoteAddr))
		s.writeError(w, http.StatusUnauthorized, "invalid secret token")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxUpdateBytes))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	update, err := telegram.DecodeUpdate(body)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	msg, ok := update.DomainMessage()
	if !ok {
		// Telegram only needs a 2xx to stop redelivering.
		w.WriteHeader(http.StatusNoContent)
		return
	}

	select {
	case s.messages <- msg:
		w.WriteHeader(http.StatusNoContent)
	case <-r.Context().Done():
		s.writeError(w, http.StatusServiceUnavailable, "busy")
	}
}

func (s *Server) verifySecret(r *http.Request) bool {
	got := r.Header.Get(SecretHeader)
	return subtle.ConstantTimeCompare([]byte(got), []byte(s.secret)) == 1
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg})
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// ServeHTTP implements http.Handler for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Addr returns the server address.
func (s *Server) Addr() string {
	return s.server.Addr
}

// Port extracts the port from the address.
func (s *Server) Port() int {
	addr := s.server.Addr
	if idx := strings.LastIndex(addr, ":"); idx >= 0 {
		port, _ := strconv.Atoi(addr[idx+1:])
		return port
	}
	return 0
}
