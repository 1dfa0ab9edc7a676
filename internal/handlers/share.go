package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mwhitfield/echojournal-backend/internal/middleware"
	"github.com/mwhitfield/echojournal-backend/internal/models"
	"github.com/mwhitfield/echojournal-backend/internal/store"
)

type shareRequest struct {
	// ExpiresIn is in seconds. Absent means the default window; an explicit
	// zero or negative value makes the link never expire.
	ExpiresIn *int64 `json:"expires_in"`
	Password  string `json:"password"`
}

type shareResponse struct {
	Success bool               `json:"success"`
	Message string             `json:"message,omitempty"`
	Share   *models.ShareGrant `json:"share,omitempty"`
}

type sharedEntryResponse struct {
	Success bool              `json:"success"`
	Entry   *models.EntryView `json:"entry,omitempty"`
}

// ShareEntry handles POST /api/entries/{id}/share. Sharing an already
// shared entry replaces its previous link outright.
func (api *API) ShareEntry(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := middleware.OwnerID(r)
	id, ok := entryID(r)
	if !ok {
		writeError(w, http.StatusNotFound, "Entry not found")
		return
	}

	var req shareRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	params := store.ShareParams{Password: req.Password}
	if req.ExpiresIn != nil {
		d := time.Duration(*req.ExpiresIn) * time.Second
		params.ExpiresIn = &d
	}

	grant, err := api.Shares.Share(r.Context(), ownerID, id, params)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	api.Stats.Invalidate(r.Context(), ownerID)
	writeJSON(w, http.StatusOK, shareResponse{Success: true, Message: "Entry shared", Share: grant})
}

// UnshareEntry handles DELETE /api/entries/{id}/share. The revoked token is
// dead immediately; in-flight redeems that already passed the gate keep
// their response.
func (api *API) UnshareEntry(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := middleware.OwnerID(r)
	id, ok := entryID(r)
	if !ok {
		writeError(w, http.StatusNotFound, "Entry not found")
		return
	}

	revoked, err := api.Shares.Unshare(r.Context(), ownerID, id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if !revoked {
		writeError(w, http.StatusNotFound, "Entry is not shared")
		return
	}

	api.Stats.Invalidate(r.Context(), ownerID)
	writeJSON(w, http.StatusOK, actionResponse{Success: true, Message: "Share revoked"})
}

// RedeemShare handles GET /api/shared/{token}. It is the one anonymous
// entry endpoint. A bad token, an expired link and a wrong password all
// produce the exact same response so callers cannot probe which tokens
// exist.
func (api *API) RedeemShare(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	password := r.URL.Query().Get("password")
	if password == "" {
		password = r.Header.Get("X-Share-Password")
	}

	view, err := api.Shares.Redeem(r.Context(), token, password)
	if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrUnauthorized) {
		writeError(w, http.StatusNotFound, "Shared entry not found")
		return
	}
	if err != nil {
		writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sharedEntryResponse{Success: true, Entry: view})
}
