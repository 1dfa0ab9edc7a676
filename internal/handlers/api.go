package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"mime/multipart"
	"net/http"

	"github.com/mwhitfield/echojournal-backend/internal/analysis"
	"github.com/mwhitfield/echojournal-backend/internal/models"
	"github.com/mwhitfield/echojournal-backend/internal/services"
	"github.com/mwhitfield/echojournal-backend/internal/store"
)

// AudioUploader is the blob storage collaborator the audio handlers need.
// Production wires services.AudioStorage; tests wire a double.
type AudioUploader interface {
	UploadAudio(ctx context.Context, fileHeader *multipart.FileHeader, folder string) (string, error)
	RemoveBlob(ctx context.Context, ref string) error
}

// AnalysisStore persists analyzer snapshots. Production wires the Mongo
// implementation in services.
type AnalysisStore interface {
	Upsert(ctx context.Context, analysis *models.Analysis) error
	Get(ctx context.Context, userID, entryID string) (*models.Analysis, error)
	DeleteForEntry(ctx context.Context, entryID string) error
}

// API holds every collaborator the handlers need. Nothing here is a
// package-level global; main wires it once and hands it to the router.
type API struct {
	Entries  store.EntryStore
	Shares   store.ShareGate
	Users    store.UserStore
	Trends   store.TrendSource
	Tokens   *services.TokenService
	Hasher   store.PasswordHasher
	Audio    AudioUploader
	Analyses AnalysisStore
	Analyzer analysis.Analyzer
	Stats    *services.StatsCache

	MaxAudioBytes int64
}

type actionResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, actionResponse{Success: false, Message: message})
}

// writeStoreError maps core error kinds onto status codes. Unexpected
// faults surface as 503 without leaking their details.
func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "Entry not found")
	case errors.Is(err, store.ErrValidation):
		writeError(w, http.StatusBadRequest, "Invalid request")
	case errors.Is(err, store.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "Unauthorized")
	default:
		log.Printf("storage error: %v", err)
		writeError(w, http.StatusServiceUnavailable, "Storage unavailable")
	}
}
