package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/mwhitfield/echojournal-backend/internal/models"
)

// ErrUsernameTaken is returned when a signup collides with an existing
// username (case-insensitive).
var ErrUsernameTaken = errors.New("username already taken")

// UserStore is the account surface consumed by the auth handlers. The
// entry core never touches it; it only ever sees resolved owner ids.
type UserStore interface {
	CreateUser(ctx context.Context, username, passwordHash string) (*models.User, error)
	UserByUsername(ctx context.Context, username string) (*models.User, error)
	UserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

var _ UserStore = (*PostgresStore)(nil)
var _ UserStore = (*MemoryStore)(nil)

func (s *PostgresStore) CreateUser(ctx context.Context, username, passwordHash string) (*models.User, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM users WHERE LOWER(username) = LOWER($1))
	`, username).Scan(&exists)
	if err != nil {
		return nil, storageErr(err)
	}
	if exists {
		return nil, ErrUsernameTaken
	}

	u := models.User{ID: uuid.New(), Username: username, CreatedAt: s.opts.now()}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO users (id, username, password_hash, created_at) VALUES ($1, $2, $3, $4)
	`, u.ID, u.Username, passwordHash, u.CreatedAt)
	if err != nil {
		return nil, storageErr(err)
	}
	u.PasswordHash = passwordHash
	return &u, nil
}

func (s *PostgresStore) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash, created_at FROM users WHERE LOWER(username) = LOWER($1)
	`, username).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageErr(err)
	}
	return &u, nil
}

func (s *PostgresStore) UserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash, created_at FROM users WHERE id = $1
	`, id).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageErr(err)
	}
	return &u, nil
}

func (s *MemoryStore) CreateUser(ctx context.Context, username, passwordHash string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Username, username) {
			return nil, ErrUsernameTaken
		}
	}
	u := models.User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    s.opts.now(),
	}
	s.users[u.ID] = u
	s.owners[u.ID] = u.Username
	out := u
	return &out, nil
}

func (s *MemoryStore) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Username, username) {
			out := u
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) UserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := u
	return &out, nil
}
