package api

import (
	"net/http"
	"strconv"

	"github.com/erazemk/najdeno/internal/chat"
)

// MessagesHandler handles the conversation on an accepted claim.
type MessagesHandler struct {
	Chat *chat.Channel
}

type postMessageRequest struct {
	Body string `json:"body"`
}

// List handles GET /api/claims/{id}/messages. Clients poll it with ?after=
// set to the last message ID they have.
func (h *MessagesHandler) List(w http.ResponseWriter, r *http.Request) {
	claimID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var after int64
	if s := r.URL.Query().Get("after"); s != "" {
		after, err = strconv.ParseInt(s, 10, 64)
		if err != nil || after < 0 {
			jsonError(w, http.StatusBadRequest, "invalid after")
			return
		}
	}

	msgs, err := h.Chat.ListSince(r.Context(), claimID, identity(r).UserID, after)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, orEmpty(msgs))
}

// Post handles POST /api/claims/{id}/messages.
func (h *MessagesHandler) Post(w http.ResponseWriter, r *http.Request) {
	claimID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req postMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	msg, err := h.Chat.Post(r.Context(), claimID, identity(r).UserID, req.Body)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusCreated, msg)
}
