package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	contractx "github.com/novabite/assistant/agent/contract"
	"github.com/novabite/assistant/agent/orchestrator"
	sessionx "github.com/novabite/assistant/agent/session"
)

// Handler serves the assistant over HTTP.
type Handler struct {
	orc   *orchestrator.Orchestrator
	store sessionx.Store
}

func NewHandler(orc *orchestrator.Orchestrator, store sessionx.Store) *Handler {
	return &Handler{orc: orc, store: store}
}

// NewRouter wires HTTP routes to the orchestrator.
func NewRouter(orc *orchestrator.Orchestrator, store sessionx.Store) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	h := NewHandler(orc, store)

	r.Route("/api", func(api chi.Router) {
		api.Post("/chat", h.handleChat)
		api.Get("/sessions/{sessionID}/transcript", h.handleTranscript)
		api.Get("/health", h.handleHealth)
	})

	return r
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type chatResponse struct {
	SessionID string `json:"session_id"`
	Reply     string `json:"reply"`
}

// handleChat runs one conversational turn. A request without a session id
// starts a fresh session.
func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var payload chatRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sessionID := strings.TrimSpace(payload.SessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	reply, err := h.orc.Chat(r.Context(), sessionID, payload.Message)
	switch {
	case errors.Is(err, orchestrator.ErrInvalidMessage):
		respondError(w, http.StatusBadRequest, "message is required")
		return
	case errors.Is(err, orchestrator.ErrInvalidSession):
		respondError(w, http.StatusBadRequest, "session id is invalid")
		return
	case err != nil:
		log.Error().Err(err).Str("session_id", sessionID).Msg("chat turn failed")
		respondError(w, http.StatusInternalServerError, "assistant is unavailable, please try again")
		return
	}

	respondJSON(w, http.StatusOK, chatResponse{SessionID: sessionID, Reply: reply})
}

type transcriptResponse struct {
	SessionID string           `json:"session_id"`
	Turns     []contractx.Turn `json:"turns"`
}

func (h *Handler) handleTranscript(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	turns, err := h.store.History(r.Context(), sessionID)
	if errors.Is(err, sessionx.ErrInvalidSession) {
		respondError(w, http.StatusBadRequest, "session id is invalid")
		return
	}
	if err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("transcript load failed")
		respondError(w, http.StatusInternalServerError, "transcript is unavailable")
		return
	}
	if turns == nil {
		turns = []contractx.Turn{}
	}

	respondJSON(w, http.StatusOK, transcriptResponse{SessionID: sessionID, Turns: turns})
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
