package chat

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kisansahay/kisan-sahay/backend/internal/service/conversation"
	"github.com/kisansahay/kisan-sahay/backend/pkg/utils"
)

// Handler exposes the conversation over HTTP for the single-page client.
type Handler struct {
	conv *conversation.Service
}

// New creates the conversation handler.
func New(conv *conversation.Service) *Handler {
	return &Handler{conv: conv}
}

// RegisterRoutes registers the conversation routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/conversation", h.handleGetConversation)
	r.Post("/conversation/messages", h.handleSendMessage)
	r.Delete("/conversation", h.handleClear)
}

// handleGetConversation returns the full conversation snapshot.
func (h *Handler) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.conv.Snapshot())
}

// handleSendMessage appends the farmer's turn and starts the advisory call.
// The model's reply arrives later over the websocket feed (or the next GET).
func (h *Handler) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Text  string `json:"text"`
		Image string `json:"image"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	msg, err := h.conv.Submit(r.Context(), payload.Text, payload.Image)
	switch {
	case errors.Is(err, conversation.ErrEmptyMessage):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, conversation.ErrBusy):
		utils.RespondError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusAccepted, msg)
}

// handleClear wipes the conversation. The client passes ?confirm=true after
// the user acknowledged the confirmation dialog.
func (h *Handler) handleClear(w http.ResponseWriter, r *http.Request) {
	confirmed := r.URL.Query().Get("confirm") == "true"

	if err := h.conv.Clear(confirmed); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
