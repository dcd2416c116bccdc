package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/erazemk/najdeno/internal/apperr"
	"github.com/erazemk/najdeno/internal/blob"
	"github.com/erazemk/najdeno/internal/imaging"
	"github.com/erazemk/najdeno/internal/model"
	"github.com/erazemk/najdeno/internal/resolve"
)

// maxUploadSize bounds a photo upload request.
const maxUploadSize = 10 << 20

// ItemsHandler handles item endpoints.
type ItemsHandler struct {
	Engine *resolve.Engine
	Blobs  blob.Store
}

type createItemRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Location    string `json:"location"`
	ReportedOn  string `json:"reported_on"`
	Kind        string `json:"kind"`
}

// List handles GET /api/items.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := model.ItemFilter{
		Kind:     q.Get("kind"),
		Category: q.Get("category"),
		Status:   q.Get("status"),
		Query:    q.Get("q"),
	}
	if q.Get("mine") == "1" || q.Get("mine") == "true" {
		f.UserID = identity(r).UserID
	}

	items, err := h.Engine.ListItems(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, orEmpty(items))
}

// Create handles POST /api/items.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createItemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.Engine.CreateItem(r.Context(), resolve.NewItem{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Location:    req.Location,
		ReportedOn:  req.ReportedOn,
		Kind:        req.Kind,
		OwnerID:     identity(r).UserID,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusCreated, item)
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	item, err := h.Engine.GetItem(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Resolve handles POST /api/items/{id}/resolve.
func (h *ItemsHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	item, err := h.Engine.ResolveItem(r.Context(), id, identity(r).UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Claims handles GET /api/items/{id}/claims.
func (h *ItemsHandler) Claims(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	claims, err := h.Engine.ClaimsForItem(r.Context(), id, identity(r).UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, orEmpty(claims))
}

// UploadImage handles PUT /api/items/{id}/image.
func (h *ItemsHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if h.Blobs == nil {
		jsonError(w, http.StatusNotImplemented, "photo uploads are disabled")
		return
	}

	actor := identity(r).UserID
	item, err := h.Engine.GetItem(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if item.UserID != actor {
		writeError(w, r, apperr.Forbidden("only the owner of item %d can do that", id))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "image file required")
		return
	}
	defer file.Close()

	photo, err := imaging.Process(file, imaging.DefaultMaxDimension)
	if err != nil {
		if errors.Is(err, imaging.ErrUnsupported) || errors.Is(err, imaging.ErrTooLarge) {
			jsonError(w, http.StatusBadRequest, "image must be a JPEG, PNG or WebP photo")
			return
		}
		jsonError(w, http.StatusBadRequest, "could not read image")
		return
	}

	key := blob.NewKey("items", photo.ContentType)
	url, err := h.Blobs.Put(r.Context(), key, photo.Data, photo.ContentType)
	if err != nil {
		slog.Error("storing photo", "item", id, "error", err)
		jsonError(w, http.StatusServiceUnavailable, "failed to store image")
		return
	}

	item, err = h.Engine.SetItemImage(r.Context(), id, actor, url)
	if err != nil {
		// The photo is not referenced by any item, so drop it.
		if derr := h.Blobs.Delete(context.WithoutCancel(r.Context()), key); derr != nil {
			slog.Error("deleting unused photo", "item", id, "key", key, "error", derr)
		}
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Stats handles GET /api/stats.
func (h *ItemsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Engine.Stats(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, stats)
}
