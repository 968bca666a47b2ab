package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matthewbaird/leadpilot/internal/chat"
	"github.com/matthewbaird/leadpilot/internal/workspace"
)

// ChatHandler serves website chat sessions.
type ChatHandler struct {
	conversations *chat.Manager
	model         *workspace.Model
}

func NewChatHandler(conversations *chat.Manager, model *workspace.Model) *ChatHandler {
	return &ChatHandler{conversations: conversations, model: model}
}

type sessionResponse struct {
	ID    string     `json:"id"`
	State chat.State `json:"state"`
}

// CreateSession starts a conversation bound to the active workspace.
// POST /v1/chat/sessions
func (h *ChatHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	c := h.conversations.Create(h.model.Active().ID)
	writeJSON(w, http.StatusCreated, sessionResponse{ID: c.ID(), State: c.State()})
}

// GetSession returns the transcript and lead state.
// GET /v1/chat/sessions/{id}
func (h *ChatHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	c := h.lookup(w, r)
	if c == nil {
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{ID: c.ID(), State: c.State()})
}

type sendRequest struct {
	Message  string `json:"message"`
	Language string `json:"language,omitempty"`
}

// SendMessage runs one chat turn. Backend failures still answer 200 with the
// error recorded on the turn.
// POST /v1/chat/sessions/{id}/messages
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	c := h.lookup(w, r)
	if c == nil {
		return
	}
	var req sendRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	if req.Language != "" {
		if err := c.SetLanguage(r.Context(), req.Language); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_LANGUAGE", err.Error())
			return
		}
	}

	turn, err := c.Send(r.Context(), req.Message)
	switch {
	case errors.Is(err, chat.ErrEmptyMessage):
		writeError(w, http.StatusBadRequest, "EMPTY_MESSAGE", err.Error())
	case errors.Is(err, chat.ErrBusy):
		writeError(w, http.StatusConflict, "BUSY", err.Error())
	case err != nil:
		writeError(w, http.StatusInternalServerError, "CHAT_FAILED", err.Error())
	default:
		writeJSON(w, http.StatusOK, turn)
	}
}

func (h *ChatHandler) lookup(w http.ResponseWriter, r *http.Request) *chat.Conversation {
	id := chi.URLParam(r, "id")
	c := h.conversations.Get(id)
	if c == nil {
		writeError(w, http.StatusNotFound, "SESSION_NOT_FOUND", "chat session not found: "+id)
	}
	return c
}
