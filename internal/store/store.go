package store

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mwhitfield/echojournal-backend/internal/models"
)

var (
	// ErrNotFound covers both a nonexistent entry and an entry owned by
	// someone else. Callers must not be able to tell the two apart.
	ErrNotFound = errors.New("entry not found")
	// ErrUnauthorized means a share password was required and missing or wrong.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrValidation means the caller supplied malformed input.
	ErrValidation = errors.New("invalid input")
	// ErrUnavailable wraps transient storage faults. Never retried here.
	ErrUnavailable = errors.New("storage unavailable")
)

// ShareTokenLength is the hex length of generated share tokens.
const ShareTokenLength = 32

// DefaultShareTTL applies when a share request does not mention expiry.
// Never-expiring links must be asked for explicitly.
const DefaultShareTTL = 7 * 24 * time.Hour

// CreateParams are the caller-supplied fields of a new entry.
type CreateParams struct {
	Title    string
	Content  string
	Mood     string
	Tags     []string
	AudioRef string
}

// UpdateParams carries a partial update. Nil fields are left untouched;
// Tags, when set, replaces the whole set.
type UpdateParams struct {
	Title    *string
	Content  *string
	Mood     *string
	Tags     *[]string
	AudioRef *string
}

// ListQuery selects, filters and pages one owner's entries. Pagination is
// 1-indexed. SortField outside the allow-list silently falls back to
// created_at.
type ListQuery struct {
	Page      int
	PageSize  int
	SortField string
	SortOrder string
	Mood      string
	Search    string
}

// ShareParams configures a share link. ExpiresIn nil means the default TTL;
// an explicit zero means the link never expires.
type ShareParams struct {
	ExpiresIn *time.Duration
	Password  string
}

// EntryStore is the capability set handed to callers. Implementations are
// safe for concurrent use; mutations on the same entry are serialized.
type EntryStore interface {
	Create(ctx context.Context, ownerID uuid.UUID, p CreateParams) (*models.Entry, error)
	Get(ctx context.Context, ownerID, id uuid.UUID) (*models.Entry, error)
	Update(ctx context.Context, ownerID, id uuid.UUID, p UpdateParams) (*models.Entry, error)
	Delete(ctx context.Context, ownerID, id uuid.UUID) (bool, error)
	List(ctx context.Context, ownerID uuid.UUID, q ListQuery) (*models.EntryPage, error)
	ComputeStatistics(ctx context.Context, ownerID uuid.UUID) (*models.Statistics, error)
}

// ShareGate issues and redeems read-only access tokens for single entries.
// At most one token is live per entry; sharing again replaces it.
type ShareGate interface {
	Share(ctx context.Context, ownerID, entryID uuid.UUID, p ShareParams) (*models.ShareGrant, error)
	Unshare(ctx context.Context, ownerID, entryID uuid.UUID) (bool, error)
	Redeem(ctx context.Context, token, password string) (*models.EntryView, error)
}

// PasswordHasher is the opaque hashing collaborator for share passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, digest string) bool
}

// BlobRemover deletes the audio blob behind an audio ref when its owning
// entry goes away.
type BlobRemover interface {
	RemoveBlob(ctx context.Context, ref string) error
}

// Options are the collaborators and policy shared by store implementations.
type Options struct {
	Hasher          PasswordHasher
	Blobs           BlobRemover
	ShareBaseURL    string
	DefaultShareTTL time.Duration
	Now             func() time.Time
}

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now().UTC()
}

func (o Options) shareTTL() time.Duration {
	if o.DefaultShareTTL > 0 {
		return o.DefaultShareTTL
	}
	return DefaultShareTTL
}

// NewShareToken returns a fresh unguessable token.
func NewShareToken() (string, error) {
	buf := make([]byte, ShareTokenLength/2)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// shareExpiry resolves the requested expiry against policy. A nil result
// means the link never expires.
func shareExpiry(p ShareParams, now time.Time, def time.Duration) *time.Time {
	if p.ExpiresIn == nil {
		t := now.Add(def)
		return &t
	}
	if *p.ExpiresIn <= 0 {
		return nil
	}
	t := now.Add(*p.ExpiresIn)
	return &t
}

// normalizeTags trims whitespace, drops empties and collapses duplicates,
// keeping first-occurrence order. Tags are a set on every entry.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}

// sortColumn maps an API sort field to a known column, defaulting to
// created_at rather than rejecting the request.
func sortColumn(field string) string {
	switch field {
	case "created_at", "updated_at", "title", "mood":
		return field
	}
	return "created_at"
}

func sortAscending(order string) bool {
	return order == "asc" || order == "ASC"
}
