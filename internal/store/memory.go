package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mwhitfield/echojournal-backend/internal/models"
)

// MemoryStore keeps everything in process behind one mutex, which satisfies
// the per-entry serialization the share invariant needs. It backs tests and
// local demos; production runs on PostgresStore.
type MemoryStore struct {
	mu      sync.Mutex
	opts    Options
	entries map[uuid.UUID]*memEntry
	tokens  map[string]uuid.UUID
	owners  map[uuid.UUID]string
	users   map[uuid.UUID]models.User
}

type memEntry struct {
	entry models.Entry
	share *memShare
}

type memShare struct {
	token        string
	passwordHash string
	expiresAt    *time.Time
}

var _ EntryStore = (*MemoryStore)(nil)
var _ ShareGate = (*MemoryStore)(nil)

func NewMemoryStore(opts Options) *MemoryStore {
	return &MemoryStore{
		opts:    opts,
		entries: make(map[uuid.UUID]*memEntry),
		tokens:  make(map[string]uuid.UUID),
		owners:  make(map[uuid.UUID]string),
		users:   make(map[uuid.UUID]models.User),
	}
}

// RegisterOwner records the display name used in shared entry views.
func (s *MemoryStore) RegisterOwner(ownerID uuid.UUID, displayName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.owners[ownerID] = displayName
}

func (s *MemoryStore) Create(ctx context.Context, ownerID uuid.UUID, p CreateParams) (*models.Entry, error) {
	if strings.TrimSpace(p.Title) == "" && strings.TrimSpace(p.Content) == "" {
		return nil, ErrValidation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.opts.now()
	e := models.Entry{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Title:     p.Title,
		Content:   p.Content,
		Mood:      p.Mood,
		Tags:      normalizeTags(p.Tags),
		AudioRef:  p.AudioRef,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.entries[e.ID] = &memEntry{entry: e}
	out := e
	return &out, nil
}

func (s *MemoryStore) Get(ctx context.Context, ownerID, id uuid.UUID) (*models.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.entries[id]
	if !ok || rec.entry.OwnerID != ownerID {
		return nil, ErrNotFound
	}
	out := s.snapshot(rec)
	return &out, nil
}

func (s *MemoryStore) Update(ctx context.Context, ownerID, id uuid.UUID, p UpdateParams) (*models.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.entries[id]
	if !ok || rec.entry.OwnerID != ownerID {
		return nil, ErrNotFound
	}
	if p.Title != nil {
		rec.entry.Title = *p.Title
	}
	if p.Content != nil {
		rec.entry.Content = *p.Content
	}
	if p.Mood != nil {
		rec.entry.Mood = *p.Mood
	}
	if p.Tags != nil {
		rec.entry.Tags = normalizeTags(*p.Tags)
	}
	if p.AudioRef != nil {
		rec.entry.AudioRef = *p.AudioRef
	}
	rec.entry.UpdatedAt = s.opts.now()
	out := s.snapshot(rec)
	return &out, nil
}

func (s *MemoryStore) Delete(ctx context.Context, ownerID, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	rec, ok := s.entries[id]
	if !ok || rec.entry.OwnerID != ownerID {
		s.mu.Unlock()
		return false, nil
	}
	if rec.share != nil {
		delete(s.tokens, rec.share.token)
	}
	audioRef := rec.entry.AudioRef
	delete(s.entries, id)
	s.mu.Unlock()

	if audioRef != "" && s.opts.Blobs != nil {
		// Row is gone either way; blob removal failures are not surfaced
		// to the caller.
		_ = s.opts.Blobs.RemoveBlob(ctx, audioRef)
	}
	return true, nil
}

func (s *MemoryStore) List(ctx context.Context, ownerID uuid.UUID, q ListQuery) (*models.EntryPage, error) {
	if q.Page < 1 || q.PageSize < 1 {
		return nil, ErrValidation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	matched := make([]models.Entry, 0)
	for _, rec := range s.entries {
		if rec.entry.OwnerID != ownerID {
			continue
		}
		e := s.snapshot(rec)
		if q.Mood != "" && e.Mood != q.Mood {
			continue
		}
		if q.Search != "" && !matchesSearch(e, q.Search) {
			continue
		}
		matched = append(matched, e)
	}

	sortEntries(matched, sortColumn(q.SortField), sortAscending(q.SortOrder))

	total := len(matched)
	pages := (total + q.PageSize - 1) / q.PageSize
	start := (q.Page - 1) * q.PageSize
	items := []models.Entry{}
	if start < total {
		end := start + q.PageSize
		if end > total {
			end = total
		}
		items = matched[start:end]
	}
	return &models.EntryPage{Items: items, Total: total, Page: q.Page, Pages: pages}, nil
}

func (s *MemoryStore) ComputeStatistics(ctx context.Context, ownerID uuid.UUID) (*models.Statistics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var scanned []statEntry
	for _, rec := range s.entries {
		if rec.entry.OwnerID != ownerID {
			continue
		}
		scanned = append(scanned, statEntry{
			CreatedAt: rec.entry.CreatedAt,
			Mood:      rec.entry.Mood,
			Tags:      rec.entry.Tags,
		})
	}
	return buildStatistics(scanned, s.opts.now()), nil
}

func (s *MemoryStore) Share(ctx context.Context, ownerID, entryID uuid.UUID, p ShareParams) (*models.ShareGrant, error) {
	token, err := NewShareToken()
	if err != nil {
		return nil, err
	}
	var digest string
	if p.Password != "" {
		digest, err = s.opts.Hasher.Hash(p.Password)
		if err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.entries[entryID]
	if !ok || rec.entry.OwnerID != ownerID {
		return nil, ErrNotFound
	}
	if rec.share != nil {
		delete(s.tokens, rec.share.token)
	}
	now := s.opts.now()
	expiresAt := shareExpiry(p, now, s.opts.shareTTL())
	rec.share = &memShare{token: token, passwordHash: digest, expiresAt: expiresAt}
	rec.entry.IsPublic = true
	rec.entry.UpdatedAt = now
	s.tokens[token] = entryID

	return &models.ShareGrant{
		Token:             token,
		URL:               s.opts.ShareBaseURL + "/shared/" + token,
		ExpiresAt:         expiresAt,
		PasswordProtected: digest != "",
	}, nil
}

func (s *MemoryStore) Unshare(ctx context.Context, ownerID, entryID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.entries[entryID]
	if !ok || rec.entry.OwnerID != ownerID {
		return false, nil
	}
	if rec.share == nil {
		return false, nil
	}
	delete(s.tokens, rec.share.token)
	rec.share = nil
	rec.entry.IsPublic = false
	rec.entry.UpdatedAt = s.opts.now()
	return true, nil
}

func (s *MemoryStore) Redeem(ctx context.Context, token, password string) (*models.EntryView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entryID, ok := s.tokens[token]
	if !ok {
		return nil, ErrNotFound
	}
	rec := s.entries[entryID]
	if rec == nil || rec.share == nil || rec.share.token != token {
		return nil, ErrNotFound
	}
	if rec.share.expiresAt != nil && !rec.share.expiresAt.After(s.opts.now()) {
		return nil, ErrNotFound
	}
	if rec.share.passwordHash != "" {
		if password == "" || !s.opts.Hasher.Verify(password, rec.share.passwordHash) {
			return nil, ErrUnauthorized
		}
	}
	e := rec.entry
	return &models.EntryView{
		Title:     e.Title,
		Content:   e.Content,
		Mood:      e.Mood,
		Tags:      append([]string(nil), e.Tags...),
		AudioRef:  e.AudioRef,
		Author:    s.owners[e.OwnerID],
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}, nil
}

// snapshot copies an entry and folds lazy share expiry into IsPublic.
func (s *MemoryStore) snapshot(rec *memEntry) models.Entry {
	e := rec.entry
	e.Tags = append([]string(nil), rec.entry.Tags...)
	e.IsPublic = rec.share != nil &&
		(rec.share.expiresAt == nil || rec.share.expiresAt.After(s.opts.now()))
	return e
}

func matchesSearch(e models.Entry, search string) bool {
	needle := strings.ToLower(search)
	if strings.Contains(strings.ToLower(e.Title), needle) ||
		strings.Contains(strings.ToLower(e.Content), needle) {
		return true
	}
	for _, t := range e.Tags {
		if strings.Contains(strings.ToLower(t), needle) {
			return true
		}
	}
	return false
}

func sortEntries(entries []models.Entry, column string, asc bool) {
	cmp := func(a, b models.Entry) int {
		switch column {
		case "updated_at":
			return a.UpdatedAt.Compare(b.UpdatedAt)
		case "title":
			return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
		case "mood":
			return strings.Compare(a.Mood, b.Mood)
		default:
			return a.CreatedAt.Compare(b.CreatedAt)
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		c := cmp(entries[i], entries[j])
		if asc {
			return c < 0
		}
		return c > 0
	})
}
