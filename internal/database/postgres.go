package database

import (
	"database/sql"
	"log"
	"time"

	_ "github.com/lib/pq"
)

// ConnectPostgres opens the PostgreSQL pool and bootstraps the schema.
func ConnectPostgres(postgresURI string) (*sql.DB, error) {
	db, err := sql.Open("postgres", postgresURI)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err = db.Ping(); err != nil {
		return nil, err
	}

	log.Println("✅ Connected to PostgreSQL")

	if err = InitPostgresTables(db); err != nil {
		return nil, err
	}
	return db, nil
}

// InitPostgresTables creates all necessary tables if they don't exist.
func InitPostgresTables(db *sql.DB) error {
	queries := []string{
		// Accounts. Only the username ever leaves this table.
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			username VARCHAR(20) NOT NULL UNIQUE,
			password_hash VARCHAR(255) NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,

		// Journal entries. is_public mirrors the presence of a live
		// shared_access row and is only ever flipped inside the same
		// transaction that touches that row.
		`CREATE TABLE IF NOT EXISTS journal_entries (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			title TEXT NOT NULL DEFAULT '',
			content TEXT NOT NULL DEFAULT '',
			mood VARCHAR(50),
			audio_ref TEXT,
			is_public BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,

		// Tags, position keeps the display order.
		`CREATE TABLE IF NOT EXISTS entry_tags (
			entry_id UUID NOT NULL REFERENCES journal_entries(id) ON DELETE CASCADE,
			tag VARCHAR(100) NOT NULL,
			position INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (entry_id, tag)
		)`,

		// At most one share per entry; re-sharing replaces the row.
		`CREATE TABLE IF NOT EXISTS shared_access (
			entry_id UUID PRIMARY KEY REFERENCES journal_entries(id) ON DELETE CASCADE,
			access_token VARCHAR(64) NOT NULL UNIQUE,
			password_hash VARCHAR(255),
			expires_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,

		`CREATE INDEX IF NOT EXISTS idx_users_username_lower ON users(LOWER(username))`,
		`CREATE INDEX IF NOT EXISTS idx_journal_entries_user_id ON journal_entries(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_journal_entries_created_at ON journal_entries(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_journal_entries_user_mood ON journal_entries(user_id, mood)`,
		`CREATE INDEX IF NOT EXISTS idx_entry_tags_entry_id ON entry_tags(entry_id)`,
		`CREATE INDEX IF NOT EXISTS idx_shared_access_token ON shared_access(access_token)`,
		`CREATE INDEX IF NOT EXISTS idx_shared_access_expires_at ON shared_access(expires_at)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return err
		}
	}

	log.Println("✅ PostgreSQL tables initialized")
	return nil
}
