package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mwhitfield/echojournal-backend/internal/middleware"
	"github.com/mwhitfield/echojournal-backend/internal/models"
	"github.com/mwhitfield/echojournal-backend/internal/store"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

type createEntryRequest struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Mood     string   `json:"mood"`
	Tags     []string `json:"tags"`
	AudioRef string   `json:"audio_ref"`
}

type updateEntryRequest struct {
	Title    *string   `json:"title"`
	Content  *string   `json:"content"`
	Mood     *string   `json:"mood"`
	Tags     *[]string `json:"tags"`
	AudioRef *string   `json:"audio_ref"`
}

type entryResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message,omitempty"`
	Entry   *models.Entry `json:"entry,omitempty"`
}

type entryListResponse struct {
	Success bool           `json:"success"`
	Entries []models.Entry `json:"entries"`
	Total   int            `json:"total"`
	Page    int            `json:"page"`
	Pages   int            `json:"pages"`
}

// entryID pulls the {id} route param and rejects anything that is not a UUID.
func entryID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	return id, err == nil
}

// CreateEntry handles POST /api/entries.
func (api *API) CreateEntry(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := middleware.OwnerID(r)

	var req createEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	entry, err := api.Entries.Create(r.Context(), ownerID, store.CreateParams{
		Title:    strings.TrimSpace(req.Title),
		Content:  req.Content,
		Mood:     req.Mood,
		Tags:     req.Tags,
		AudioRef: req.AudioRef,
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}

	api.Stats.Invalidate(r.Context(), ownerID)
	writeJSON(w, http.StatusCreated, entryResponse{Success: true, Message: "Entry created", Entry: entry})
}

// GetEntry handles GET /api/entries/{id}.
func (api *API) GetEntry(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := middleware.OwnerID(r)
	id, ok := entryID(r)
	if !ok {
		writeError(w, http.StatusNotFound, "Entry not found")
		return
	}

	entry, err := api.Entries.Get(r.Context(), ownerID, id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entryResponse{Success: true, Entry: entry})
}

// UpdateEntry handles PUT /api/entries/{id}. Absent fields are left alone.
func (api *API) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := middleware.OwnerID(r)
	id, ok := entryID(r)
	if !ok {
		writeError(w, http.StatusNotFound, "Entry not found")
		return
	}

	var req updateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	entry, err := api.Entries.Update(r.Context(), ownerID, id, store.UpdateParams{
		Title:    req.Title,
		Content:  req.Content,
		Mood:     req.Mood,
		Tags:     req.Tags,
		AudioRef: req.AudioRef,
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}

	api.Stats.Invalidate(r.Context(), ownerID)
	writeJSON(w, http.StatusOK, entryResponse{Success: true, Message: "Entry updated", Entry: entry})
}

// DeleteEntry handles DELETE /api/entries/{id}. Deletion tears down the
// entry's share link and audio blob with it.
func (api *API) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := middleware.OwnerID(r)
	id, ok := entryID(r)
	if !ok {
		writeError(w, http.StatusNotFound, "Entry not found")
		return
	}

	deleted, err := api.Entries.Delete(r.Context(), ownerID, id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "Entry not found")
		return
	}

	if api.Analyses != nil {
		// The entry is already gone; a leftover snapshot is harmless.
		if err := api.Analyses.DeleteForEntry(r.Context(), id.String()); err != nil {
			log.Printf("failed to remove analysis for entry %s: %v", id, err)
		}
	}

	api.Stats.Invalidate(r.Context(), ownerID)
	writeJSON(w, http.StatusOK, actionResponse{Success: true, Message: "Entry deleted"})
}

// ListEntries handles GET /api/entries with page, limit, sort, order, mood
// and search query params.
func (api *API) ListEntries(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := middleware.OwnerID(r)

	q := store.ListQuery{
		Page:      queryInt(r, "page", 1),
		PageSize:  queryInt(r, "limit", defaultPageSize),
		SortField: r.URL.Query().Get("sort"),
		SortOrder: r.URL.Query().Get("order"),
		Mood:      r.URL.Query().Get("mood"),
		Search:    r.URL.Query().Get("search"),
	}
	if q.Page < 1 || q.PageSize < 1 {
		writeError(w, http.StatusBadRequest, "page and limit must be positive")
		return
	}
	if q.PageSize > maxPageSize {
		q.PageSize = maxPageSize
	}

	page, err := api.Entries.List(r.Context(), ownerID, q)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, entryListResponse{
		Success: true,
		Entries: page.Items,
		Total:   page.Total,
		Page:    page.Page,
		Pages:   page.Pages,
	})
}

func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
