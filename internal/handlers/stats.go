package handlers

import (
	"net/http"
	"time"

	"github.com/mwhitfield/echojournal-backend/internal/middleware"
	"github.com/mwhitfield/echojournal-backend/internal/models"
)

type statsResponse struct {
	Success bool               `json:"success"`
	Stats   *models.Statistics `json:"stats"`
}

type moodTrendResponse struct {
	Success bool                    `json:"success"`
	Trend   []models.MoodTrendPoint `json:"trend"`
}

// Statistics handles GET /api/stats. The aggregate is always derived from
// the live entry set; Redis only memoizes it between mutations.
func (api *API) Statistics(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := middleware.OwnerID(r)

	if cached, ok := api.Stats.Get(r.Context(), ownerID); ok {
		writeJSON(w, http.StatusOK, statsResponse{Success: true, Stats: cached})
		return
	}

	stats, err := api.Entries.ComputeStatistics(r.Context(), ownerID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	api.Stats.Set(r.Context(), ownerID, stats)

	writeJSON(w, http.StatusOK, statsResponse{Success: true, Stats: stats})
}

// MoodTrend handles GET /api/insights/moods?from=YYYY-MM-DD&to=YYYY-MM-DD.
// Defaults to the last 30 days when bounds are missing.
func (api *API) MoodTrend(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := middleware.OwnerID(r)

	now := time.Now().UTC()
	from := now.AddDate(0, 0, -30)
	to := now

	if raw := r.URL.Query().Get("from"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid 'from' date, expected YYYY-MM-DD")
			return
		}
		from = parsed
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid 'to' date, expected YYYY-MM-DD")
			return
		}
		to = parsed
	}
	if to.Before(from) {
		writeError(w, http.StatusBadRequest, "'to' must not be before 'from'")
		return
	}

	trend, err := api.Trends.MoodTrend(r.Context(), ownerID, from, to)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, moodTrendResponse{Success: true, Trend: trend})
}
