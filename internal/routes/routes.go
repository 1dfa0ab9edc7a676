package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"

	"github.com/mwhitfield/echojournal-backend/internal/handlers"
	"github.com/mwhitfield/echojournal-backend/internal/middleware"
	"github.com/mwhitfield/echojournal-backend/internal/services"
)

// New builds the full router. Everything under /api/entries, /api/stats and
// /api/insights requires a bearer token; /api/shared/{token} is the single
// anonymous entry surface.
func New(api *handlers.API, tokens *services.TokenService, redisClient *redis.Client, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Share-Password"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Use(middleware.RateLimit(redisClient))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", api.Signup)
			r.Post("/signin", api.Signin)
			r.With(middleware.RequireOwner(tokens)).Get("/me", api.Me)
		})

		// Anonymous share redemption.
		r.Get("/shared/{token}", api.RedeemShare)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireOwner(tokens))

			r.Route("/entries", func(r chi.Router) {
				r.Post("/", api.CreateEntry)
				r.Get("/", api.ListEntries)
				r.Get("/{id}", api.GetEntry)
				r.Put("/{id}", api.UpdateEntry)
				r.Delete("/{id}", api.DeleteEntry)

				r.Post("/{id}/share", api.ShareEntry)
				r.Delete("/{id}/share", api.UnshareEntry)

				r.Post("/{id}/audio", api.UploadEntryAudio)
				r.Delete("/{id}/audio", api.DeleteEntryAudio)

				r.Post("/{id}/analyze", api.AnalyzeEntry)
				r.Get("/{id}/analysis", api.GetAnalysis)
			})

			r.Get("/stats", api.Statistics)
			r.Get("/insights/moods", api.MoodTrend)
		})
	})

	return r
}
