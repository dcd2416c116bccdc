package api

import (
	"net/http"

	"github.com/erazemk/najdeno/internal/model"
	"github.com/erazemk/najdeno/internal/resolve"
)

// ClaimsHandler handles claim submission and review.
type ClaimsHandler struct {
	Engine *resolve.Engine
}

type submitClaimRequest struct {
	Description string `json:"description"`
}

// Submit handles POST /api/items/{id}/claims.
func (h *ClaimsHandler) Submit(w http.ResponseWriter, r *http.Request) {
	itemID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req submitClaimRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	claim, err := h.Engine.SubmitClaim(r.Context(), resolve.SubmitClaimInput{
		ItemID:   itemID,
		Claimant: identity(r),
		Note:     req.Description,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusCreated, claim)
}

// Accept handles POST /api/items/{id}/claims/{claimID}/accept.
func (h *ClaimsHandler) Accept(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, model.DecisionAccept)
}

// Reject handles POST /api/items/{id}/claims/{claimID}/reject.
func (h *ClaimsHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, model.DecisionReject)
}

func (h *ClaimsHandler) respond(w http.ResponseWriter, r *http.Request, d model.Decision) {
	itemID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	claimID, err := pathID(r, "claimID")
	if err != nil {
		writeError(w, r, err)
		return
	}

	claim, err := h.Engine.RespondToClaim(r.Context(), claimID, itemID, d, identity(r).UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, claim)
}

// Get handles GET /api/claims/{id}.
func (h *ClaimsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	claim, err := h.Engine.Claim(r.Context(), id, identity(r).UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, claim)
}

// Received handles GET /api/claims/received.
func (h *ClaimsHandler) Received(w http.ResponseWriter, r *http.Request) {
	claims, err := h.Engine.ReceivedClaims(r.Context(), identity(r).UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, orEmpty(claims))
}

// Sent handles GET /api/claims/sent.
func (h *ClaimsHandler) Sent(w http.ResponseWriter, r *http.Request) {
	claims, err := h.Engine.SentClaims(r.Context(), identity(r).UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, orEmpty(claims))
}
