package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/mwhitfield/echojournal-backend/internal/analysis"
	"github.com/mwhitfield/echojournal-backend/internal/middleware"
	"github.com/mwhitfield/echojournal-backend/internal/models"
	"github.com/mwhitfield/echojournal-backend/internal/services"
	"github.com/mwhitfield/echojournal-backend/internal/store"
)

type analysisResponse struct {
	Success  bool             `json:"success"`
	Message  string           `json:"message,omitempty"`
	Analysis *models.Analysis `json:"analysis,omitempty"`
	Entry    *models.Entry    `json:"entry,omitempty"`
}

// AnalyzeEntry handles POST /api/entries/{id}/analyze. It runs the wired
// analyzer over the entry text, stores the snapshot and writes the derived
// mood and tags back onto the entry.
func (api *API) AnalyzeEntry(w http.ResponseWriter, r *http.Request) {
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

	result := api.Analyzer.Analyze(entry.Title, entry.Content)

	snapshot := &models.Analysis{
		EntryID:     entry.ID.String(),
		UserID:      ownerID.String(),
		Mood:        result.Mood,
		Topics:      result.Topics,
		HeroJourney: result.HeroJourney,
	}
	if err := api.Analyses.Upsert(r.Context(), snapshot); err != nil {
		log.Printf("failed to store analysis for entry %s: %v", entry.ID, err)
		writeError(w, http.StatusServiceUnavailable, "Analysis storage unavailable")
		return
	}

	mood := result.Mood.PrimaryMood
	tags := analysis.Tags(result)
	updated, err := api.Entries.Update(r.Context(), ownerID, id, store.UpdateParams{
		Mood: &mood,
		Tags: &tags,
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}

	api.Stats.Invalidate(r.Context(), ownerID)
	writeJSON(w, http.StatusOK, analysisResponse{
		Success:  true,
		Message:  "Entry analyzed",
		Analysis: snapshot,
		Entry:    updated,
	})
}

// GetAnalysis handles GET /api/entries/{id}/analysis.
func (api *API) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := middleware.OwnerID(r)
	id, ok := entryID(r)
	if !ok {
		writeError(w, http.StatusNotFound, "Entry not found")
		return
	}

	// Ownership check rides on the entry lookup.
	if _, err := api.Entries.Get(r.Context(), ownerID, id); err != nil {
		writeStoreError(w, err)
		return
	}

	snapshot, err := api.Analyses.Get(r.Context(), ownerID.String(), id.String())
	if errors.Is(err, services.ErrAnalysisNotFound) {
		writeError(w, http.StatusNotFound, "Entry has not been analyzed")
		return
	}
	if err != nil {
		log.Printf("failed to load analysis for entry %s: %v", id, err)
		writeError(w, http.StatusServiceUnavailable, "Analysis storage unavailable")
		return
	}

	writeJSON(w, http.StatusOK, analysisResponse{Success: true, Analysis: snapshot})
}
