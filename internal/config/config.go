package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	PostgresURI      string
	RedisURI         string
	MongoURI         string
	JWTSecret        string
	JWTExpiry        time.Duration
	Port             string
	FrontendURL      string
	AllowedOrigins   []string // CORS: from ALLOWED_ORIGINS, falling back to FRONTEND_URL
	ShareDefaultTTL  time.Duration
	MaxAudioSizeMB   int64
	CloudinaryName   string
	CloudinaryKey    string
	CloudinarySecret string
	AnalyzerMode     string // "keyword" (default) or "random" for demos
	Environment      string
}

func Load() *Config {
	env := strings.ToLower(strings.TrimSpace(getEnv("ENV", "development")))

	allowedOrigins := parseOrigins(getEnv("ALLOWED_ORIGINS", ""))
	frontend := getEnv("FRONTEND_URL", "http://localhost:3000")
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{frontend}
	}

	return &Config{
		PostgresURI:      getEnv("POSTGRES_URI", "postgres://localhost:5432/echojournal?sslmode=disable"),
		RedisURI:         getEnv("REDIS_URI", "redis://localhost:6379/0"),
		MongoURI:         getEnv("MONGODB_URI", "mongodb://localhost:27017/echojournal"),
		JWTSecret:        getEnv("JWT_SECRET", "change-me-in-production"),
		JWTExpiry:        getDurationHours("JWT_EXPIRY_HOURS", 24),
		Port:             getEnv("PORT", "8080"),
		FrontendURL:      frontend,
		AllowedOrigins:   allowedOrigins,
		ShareDefaultTTL:  getDurationHours("SHARE_DEFAULT_EXPIRY_HOURS", 7*24),
		MaxAudioSizeMB:   getInt64("MAX_AUDIO_SIZE_MB", 10),
		CloudinaryName:   getEnv("CLOUDINARY_CLOUD_NAME", ""),
		CloudinaryKey:    getEnv("CLOUDINARY_API_KEY", ""),
		CloudinarySecret: getEnv("CLOUDINARY_API_SECRET", ""),
		AnalyzerMode:     strings.ToLower(getEnv("ANALYZER", "keyword")),
		Environment:      env,
	}
}

// IsProduction returns true when ENV is set to "production".
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func parseOrigins(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationHours(key string, defaultHours int) time.Duration {
	if value := os.Getenv(key); value != "" {
		if h, err := strconv.Atoi(value); err == nil && h > 0 {
			return time.Duration(h) * time.Hour
		}
	}
	return time.Duration(defaultHours) * time.Hour
}

func getInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}
