package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/joho/godotenv"

	"github.com/mwhitfield/echojournal-backend/internal/analysis"
	"github.com/mwhitfield/echojournal-backend/internal/config"
	"github.com/mwhitfield/echojournal-backend/internal/database"
	"github.com/mwhitfield/echojournal-backend/internal/handlers"
	"github.com/mwhitfield/echojournal-backend/internal/routes"
	"github.com/mwhitfield/echojournal-backend/internal/services"
	"github.com/mwhitfield/echojournal-backend/internal/store"
	"github.com/mwhitfield/echojournal-backend/pkg/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	db, err := database.ConnectPostgres(cfg.PostgresURI)
	if err != nil {
		log.Fatalf("❌ Failed to connect to PostgreSQL: %v", err)
	}
	defer db.Close()

	redisClient, err := database.ConnectRedis(cfg.RedisURI)
	if err != nil {
		log.Fatalf("❌ Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	mongoDB, err := database.ConnectMongo(cfg.MongoURI)
	if err != nil {
		log.Fatalf("❌ Failed to connect to MongoDB: %v", err)
	}
	defer mongoDB.Client().Disconnect(context.Background())

	audioStorage, err := services.NewAudioStorage(cfg.CloudinaryName, cfg.CloudinaryKey, cfg.CloudinarySecret)
	if err != nil {
		log.Fatalf("❌ Failed to initialize Cloudinary: %v", err)
	}
	log.Println("✅ Cloudinary ready")

	hasher := utils.Argon2Hasher{}
	entryStore := store.NewPostgresStore(db, store.Options{
		Hasher:          hasher,
		Blobs:           audioStorage,
		ShareBaseURL:    cfg.FrontendURL,
		DefaultShareTTL: cfg.ShareDefaultTTL,
	})

	analysisStore := services.NewAnalysisStore(mongoDB)
	{
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := analysisStore.EnsureIndexes(ctx); err != nil {
			log.Printf("⚠️ Failed to create Mongo indexes: %v", err)
		}
		cancel()
	}

	services.StartShareSweeper(db, time.Hour)

	var analyzer analysis.Analyzer = analysis.KeywordAnalyzer{}
	if cfg.AnalyzerMode == "random" {
		analyzer = analysis.RandomAnalyzer{}
		log.Println("⚠️ Using randomized analyzer, demo mode")
	}

	api := &handlers.API{
		Entries:       entryStore,
		Shares:        entryStore,
		Users:         entryStore,
		Trends:        entryStore,
		Tokens:        services.NewTokenService(cfg.JWTSecret, cfg.JWTExpiry),
		Hasher:        hasher,
		Audio:         audioStorage,
		Analyses:      analysisStore,
		Analyzer:      analyzer,
		Stats:         services.NewStatsCache(redisClient),
		MaxAudioBytes: cfg.MaxAudioSizeMB * 1024 * 1024,
	}

	router := routes.New(api, api.Tokens, redisClient, cfg.AllowedOrigins)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Printf("🚀 EchoJournal backend listening on port %s", cfg.Port)
	if err := server.ListenAndServe(); err != nil {
		log.Fatalf("❌ Server failed: %v", err)
	}
}
