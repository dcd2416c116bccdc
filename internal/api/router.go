package api

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/erazemk/najdeno/internal/blob"
	"github.com/erazemk/najdeno/internal/chat"
	"github.com/erazemk/najdeno/internal/resolve"
)

// Deps are the collaborators the API is built from.
type Deps struct {
	DB        *sql.DB
	Engine    *resolve.Engine
	Chat      *chat.Channel
	Blobs     blob.Store // nil disables photo uploads
	JWTSecret string
	TokenTTL  time.Duration
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: d.DB, JWTSecret: d.JWTSecret, TokenTTL: d.TokenTTL}
	itemsHandler := &ItemsHandler{Engine: d.Engine, Blobs: d.Blobs}
	claimsHandler := &ClaimsHandler{Engine: d.Engine}
	messagesHandler := &MessagesHandler{Chat: d.Chat}

	authMW := AuthMiddleware(d.JWTSecret, d.DB)
	authed := func(h http.HandlerFunc) http.Handler { return authMW(h) }

	// Public.
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	// Session.
	mux.Handle("POST /api/auth/logout", authed(authHandler.Logout))
	mux.Handle("GET /api/auth/me", authed(authHandler.Me))
	mux.Handle("PUT /api/auth/password", authed(authHandler.ChangePassword))

	// Items.
	mux.Handle("GET /api/items", authed(itemsHandler.List))
	mux.Handle("POST /api/items", authed(itemsHandler.Create))
	mux.Handle("GET /api/items/{id}", authed(itemsHandler.Get))
	mux.Handle("POST /api/items/{id}/resolve", authed(itemsHandler.Resolve))
	mux.Handle("PUT /api/items/{id}/image", authed(itemsHandler.UploadImage))
	mux.Handle("GET /api/items/{id}/claims", authed(itemsHandler.Claims))
	mux.Handle("GET /api/stats", authed(itemsHandler.Stats))

	// Claims.
	mux.Handle("POST /api/items/{id}/claims", authed(claimsHandler.Submit))
	mux.Handle("POST /api/items/{id}/claims/{claimID}/accept", authed(claimsHandler.Accept))
	mux.Handle("POST /api/items/{id}/claims/{claimID}/reject", authed(claimsHandler.Reject))
	mux.Handle("GET /api/claims/received", authed(claimsHandler.Received))
	mux.Handle("GET /api/claims/sent", authed(claimsHandler.Sent))
	mux.Handle("GET /api/claims/{id}", authed(claimsHandler.Get))

	// Messages.
	mux.Handle("GET /api/claims/{id}/messages", authed(messagesHandler.List))
	mux.Handle("POST /api/claims/{id}/messages", authed(messagesHandler.Post))

	return mux
}
