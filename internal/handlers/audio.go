package handlers

import (
	"log"
	"net/http"

	"github.com/mwhitfield/echojournal-backend/internal/middleware"
	"github.com/mwhitfield/echojournal-backend/internal/store"
)

const audioFolder = "echojournal/audio"

// UploadEntryAudio handles POST /api/entries/{id}/audio. The uploaded blob
// replaces any existing recording on the entry.
func (api *API) UploadEntryAudio(w http.ResponseWriter, r *http.Request) {
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

	r.Body = http.MaxBytesReader(w, r.Body, api.MaxAudioBytes)
	if err := r.ParseMultipartForm(api.MaxAudioBytes); err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "Audio file is too large")
		return
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Missing 'audio' file field")
		return
	}
	// Only the header is needed here; the uploader reopens the file itself.
	file.Close()

	ref, err := api.Audio.UploadAudio(r.Context(), header, audioFolder)
	if err != nil {
		log.Printf("audio upload failed: %v", err)
		writeError(w, http.StatusServiceUnavailable, "Audio upload failed")
		return
	}

	previous := entry.AudioRef
	updated, err := api.Entries.Update(r.Context(), ownerID, id, store.UpdateParams{AudioRef: &ref})
	if err != nil {
		// Orphaned upload; best effort cleanup.
		if rmErr := api.Audio.RemoveBlob(r.Context(), ref); rmErr != nil {
			log.Printf("failed to remove orphaned audio %s: %v", ref, rmErr)
		}
		writeStoreError(w, err)
		return
	}

	if previous != "" && previous != ref {
		if err := api.Audio.RemoveBlob(r.Context(), previous); err != nil {
			log.Printf("failed to remove replaced audio %s: %v", previous, err)
		}
	}

	api.Stats.Invalidate(r.Context(), ownerID)
	writeJSON(w, http.StatusOK, entryResponse{Success: true, Message: "Audio uploaded", Entry: updated})
}

// DeleteEntryAudio handles DELETE /api/entries/{id}/audio.
func (api *API) DeleteEntryAudio(w http.ResponseWriter, r *http.Request) {
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
	if entry.AudioRef == "" {
		writeError(w, http.StatusNotFound, "Entry has no audio")
		return
	}

	empty := ""
	updated, err := api.Entries.Update(r.Context(), ownerID, id, store.UpdateParams{AudioRef: &empty})
	if err != nil {
		writeStoreError(w, err)
		return
	}

	if err := api.Audio.RemoveBlob(r.Context(), entry.AudioRef); err != nil {
		log.Printf("failed to remove audio %s: %v", entry.AudioRef, err)
	}

	api.Stats.Invalidate(r.Context(), ownerID)
	writeJSON(w, http.StatusOK, entryResponse{Success: true, Message: "Audio removed", Entry: updated})
}
