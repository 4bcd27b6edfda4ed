package api

import (
	"net/http"

	"github.com/mymichlin/discovery/internal/api/respond"
	"github.com/mymichlin/discovery/internal/core"
)

type ChatHandler struct {
	c *core.Core
}

func NewChatHandler(c *core.Core) *ChatHandler { return &ChatHandler{c: c} }

type chatRequest struct {
	Text string `json:"text"`
}

// History handles GET /api/chat.
func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	out, err := h.c.Chat.History(r.Context())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// Send handles POST /api/chat and returns the assistant's reply.
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeErr(w, r, err)
		return
	}
	reply, err := h.c.Chat.Send(r.Context(), req.Text)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, reply)
}

// Clear handles DELETE /api/chat.
func (h *ChatHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.c.Chat.Clear(r.Context()); err != nil {
		writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
