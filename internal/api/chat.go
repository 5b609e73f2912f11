package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/tikasheba/vaccine-ai/internal/chat"
)

// Responder answers one conversational exchange. Satisfied by
// *chat.Engine.
type Responder interface {
	Respond(ctx context.Context, history []chat.Turn, message string, persona chat.Persona) (string, []chat.Turn, error)
}

type chatHandler struct {
	engine Responder
	logger *slog.Logger
}

type chatRequest struct {
	Message string      `json:"message"`
	History []chat.Turn `json:"history"`
}

type chatResponse struct {
	Response string      `json:"response"`
	History  []chat.Turn `json:"history"`
}

// persona returns the handler for one persona endpoint. All four chat
// endpoints share this implementation; only the persona value differs.
func (h *chatHandler) persona(p chat.Persona) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		if strings.TrimSpace(req.Message) == "" {
			writeError(w, http.StatusBadRequest, kindValidation, "message is required")
			return
		}
		for _, turn := range req.History {
			if turn.Role != chat.RoleUser && turn.Role != chat.RoleAssistant {
				writeError(w, http.StatusBadRequest, kindValidation,
					"history roles must be 'user' or 'assistant'")
				return
			}
		}

		answer, updated, err := h.engine.Respond(r.Context(), req.History, req.Message, p)
		if err != nil {
			writeDomainError(w, err, h.logger)
			return
		}

		writeJSON(w, http.StatusOK, chatResponse{Response: answer, History: updated})
	}
}
