package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/mwhitfield/echojournal-backend/internal/models"
)

// PostgresStore is the production EntryStore and ShareGate. Mutations that
// touch the share invariant run in single-row transactions so is_public and
// the shared_access row never observably diverge.
type PostgresStore struct {
	db   *sql.DB
	opts Options
}

var _ EntryStore = (*PostgresStore)(nil)
var _ ShareGate = (*PostgresStore)(nil)

func NewPostgresStore(db *sql.DB, opts Options) *PostgresStore {
	return &PostgresStore{db: db, opts: opts}
}

const entryColumns = `
	e.id, e.user_id, e.title, e.content, COALESCE(e.mood, ''), COALESCE(e.audio_ref, ''),
	(sa.access_token IS NOT NULL AND (sa.expires_at IS NULL OR sa.expires_at > NOW())),
	e.created_at, e.updated_at,
	(SELECT COALESCE(array_agg(t.tag ORDER BY t.position), '{}') FROM entry_tags t WHERE t.entry_id = e.id)`

const entryFrom = `
	FROM journal_entries e
	LEFT JOIN shared_access sa ON sa.entry_id = e.id`

func scanEntry(row interface{ Scan(...interface{}) error }) (*models.Entry, error) {
	var e models.Entry
	var tags pq.StringArray
	err := row.Scan(&e.ID, &e.OwnerID, &e.Title, &e.Content, &e.Mood, &e.AudioRef,
		&e.IsPublic, &e.CreatedAt, &e.UpdatedAt, &tags)
	if err != nil {
		return nil, err
	}
	e.Tags = []string(tags)
	return &e, nil
}

func (s *PostgresStore) Create(ctx context.Context, ownerID uuid.UUID, p CreateParams) (*models.Entry, error) {
	if strings.TrimSpace(p.Title) == "" && strings.TrimSpace(p.Content) == "" {
		return nil, ErrValidation
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storageErr(err)
	}
	defer tx.Rollback()

	id := uuid.New()
	now := s.opts.now()
	tags := normalizeTags(p.Tags)
	_, err = tx.ExecContext(ctx, `
		INSERT INTO journal_entries (id, user_id, title, content, mood, audio_ref, is_public, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), FALSE, $7, $7)
	`, id, ownerID, p.Title, p.Content, p.Mood, p.AudioRef, now)
	if err != nil {
		return nil, storageErr(err)
	}
	if err := insertTags(ctx, tx, id, tags); err != nil {
		return nil, storageErr(err)
	}
	if err := tx.Commit(); err != nil {
		return nil, storageErr(err)
	}

	return &models.Entry{
		ID:        id,
		OwnerID:   ownerID,
		Title:     p.Title,
		Content:   p.Content,
		Mood:      p.Mood,
		Tags:      tags,
		AudioRef:  p.AudioRef,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *PostgresStore) Get(ctx context.Context, ownerID, id uuid.UUID) (*models.Entry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+entryColumns+entryFrom+`
		WHERE e.id = $1 AND e.user_id = $2
	`, id, ownerID)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageErr(err)
	}
	return e, nil
}

func (s *PostgresStore) Update(ctx context.Context, ownerID, id uuid.UUID, p UpdateParams) (*models.Entry, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storageErr(err)
	}
	defer tx.Rollback()

	var found uuid.UUID
	err = tx.QueryRowContext(ctx, `
		SELECT id FROM journal_entries WHERE id = $1 AND user_id = $2 FOR UPDATE
	`, id, ownerID).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageErr(err)
	}

	// Only supplied fields change; built the same way the list filters are.
	sets := []string{"updated_at = $1"}
	args := []interface{}{s.opts.now()}
	add := func(expr string, v interface{}) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf(expr, len(args)))
	}
	if p.Title != nil {
		add("title = $%d", *p.Title)
	}
	if p.Content != nil {
		add("content = $%d", *p.Content)
	}
	if p.Mood != nil {
		add("mood = NULLIF($%d, '')", *p.Mood)
	}
	if p.AudioRef != nil {
		add("audio_ref = NULLIF($%d, '')", *p.AudioRef)
	}
	args = append(args, id)
	query := fmt.Sprintf("UPDATE journal_entries SET %s WHERE id = $%d",
		strings.Join(sets, ", "), len(args))
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return nil, storageErr(err)
	}

	if p.Tags != nil {
		if _, err := tx.ExecContext(ctx, `DELETE FROM entry_tags WHERE entry_id = $1`, id); err != nil {
			return nil, storageErr(err)
		}
		if err := insertTags(ctx, tx, id, *p.Tags); err != nil {
			return nil, storageErr(err)
		}
	}

	row := tx.QueryRowContext(ctx, `
		SELECT `+entryColumns+entryFrom+`
		WHERE e.id = $1
	`, id)
	e, err := scanEntry(row)
	if err != nil {
		return nil, storageErr(err)
	}
	if err := tx.Commit(); err != nil {
		return nil, storageErr(err)
	}
	return e, nil
}

func (s *PostgresStore) Delete(ctx context.Context, ownerID, id uuid.UUID) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, storageErr(err)
	}
	defer tx.Rollback()

	var audioRef sql.NullString
	err = tx.QueryRowContext(ctx, `
		SELECT audio_ref FROM journal_entries WHERE id = $1 AND user_id = $2 FOR UPDATE
	`, id, ownerID).Scan(&audioRef)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, storageErr(err)
	}

	// entry_tags and shared_access rows go with it via ON DELETE CASCADE.
	if _, err := tx.ExecContext(ctx, `DELETE FROM journal_entries WHERE id = $1`, id); err != nil {
		return false, storageErr(err)
	}
	if err := tx.Commit(); err != nil {
		return false, storageErr(err)
	}

	if audioRef.Valid && audioRef.String != "" && s.opts.Blobs != nil {
		_ = s.opts.Blobs.RemoveBlob(ctx, audioRef.String)
	}
	return true, nil
}

func (s *PostgresStore) List(ctx context.Context, ownerID uuid.UUID, q ListQuery) (*models.EntryPage, error) {
	if q.Page < 1 || q.PageSize < 1 {
		return nil, ErrValidation
	}

	where := "WHERE e.user_id = $1"
	args := []interface{}{ownerID}
	if q.Mood != "" {
		args = append(args, q.Mood)
		where += fmt.Sprintf(" AND e.mood = $%d", len(args))
	}
	if q.Search != "" {
		args = append(args, "%"+escapeLike(q.Search)+"%")
		n := len(args)
		where += fmt.Sprintf(` AND (e.title ILIKE $%d OR e.content ILIKE $%d
			OR EXISTS (SELECT 1 FROM entry_tags t WHERE t.entry_id = e.id AND t.tag ILIKE $%d))`, n, n, n)
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM journal_entries e " + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, storageErr(err)
	}

	direction := "DESC"
	if sortAscending(q.SortOrder) {
		direction = "ASC"
	}
	// sortColumn only ever returns a known column name, so interpolating it
	// is safe.
	orderBy := fmt.Sprintf("ORDER BY e.%s %s, e.id", sortColumn(q.SortField), direction)

	args = append(args, q.PageSize, (q.Page-1)*q.PageSize)
	query := fmt.Sprintf("SELECT %s %s %s %s LIMIT $%d OFFSET $%d",
		entryColumns, entryFrom, where, orderBy, len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	items := []models.Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, storageErr(err)
		}
		items = append(items, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(err)
	}

	pages := (total + q.PageSize - 1) / q.PageSize
	return &models.EntryPage{Items: items, Total: total, Page: q.Page, Pages: pages}, nil
}

func (s *PostgresStore) ComputeStatistics(ctx context.Context, ownerID uuid.UUID) (*models.Statistics, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT e.created_at, COALESCE(e.mood, ''),
		       (SELECT COALESCE(array_agg(t.tag), '{}') FROM entry_tags t WHERE t.entry_id = e.id)
		FROM journal_entries e
		WHERE e.user_id = $1
	`, ownerID)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	var scanned []statEntry
	for rows.Next() {
		var se statEntry
		var tags pq.StringArray
		if err := rows.Scan(&se.CreatedAt, &se.Mood, &tags); err != nil {
			return nil, storageErr(err)
		}
		se.Tags = []string(tags)
		scanned = append(scanned, se)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(err)
	}
	return buildStatistics(scanned, s.opts.now()), nil
}

func (s *PostgresStore) Share(ctx context.Context, ownerID, entryID uuid.UUID, p ShareParams) (*models.ShareGrant, error) {
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

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storageErr(err)
	}
	defer tx.Rollback()

	var found uuid.UUID
	err = tx.QueryRowContext(ctx, `
		SELECT id FROM journal_entries WHERE id = $1 AND user_id = $2 FOR UPDATE
	`, entryID, ownerID).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageErr(err)
	}

	now := s.opts.now()
	expiresAt := shareExpiry(p, now, s.opts.shareTTL())

	// One live token per entry: re-sharing replaces the row wholesale and
	// the old token dies immediately.
	_, err = tx.ExecContext(ctx, `
		INSERT INTO shared_access (entry_id, access_token, password_hash, expires_at, created_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5)
		ON CONFLICT (entry_id) DO UPDATE
		SET access_token = EXCLUDED.access_token,
		    password_hash = EXCLUDED.password_hash,
		    expires_at = EXCLUDED.expires_at,
		    created_at = EXCLUDED.created_at
	`, entryID, token, digest, expiresAt, now)
	if err != nil {
		return nil, storageErr(err)
	}
	_, err = tx.ExecContext(ctx, `
		UPDATE journal_entries SET is_public = TRUE, updated_at = $2 WHERE id = $1
	`, entryID, now)
	if err != nil {
		return nil, storageErr(err)
	}
	if err := tx.Commit(); err != nil {
		return nil, storageErr(err)
	}

	return &models.ShareGrant{
		Token:             token,
		URL:               s.opts.ShareBaseURL + "/shared/" + token,
		ExpiresAt:         expiresAt,
		PasswordProtected: digest != "",
	}, nil
}

func (s *PostgresStore) Unshare(ctx context.Context, ownerID, entryID uuid.UUID) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, storageErr(err)
	}
	defer tx.Rollback()

	var found uuid.UUID
	err = tx.QueryRowContext(ctx, `
		SELECT id FROM journal_entries WHERE id = $1 AND user_id = $2 FOR UPDATE
	`, entryID, ownerID).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, storageErr(err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM shared_access WHERE entry_id = $1`, entryID)
	if err != nil {
		return false, storageErr(err)
	}
	deleted, _ := res.RowsAffected()
	if deleted == 0 {
		return false, nil
	}
	_, err = tx.ExecContext(ctx, `
		UPDATE journal_entries SET is_public = FALSE, updated_at = $2 WHERE id = $1
	`, entryID, s.opts.now())
	if err != nil {
		return false, storageErr(err)
	}
	if err := tx.Commit(); err != nil {
		return false, storageErr(err)
	}
	return true, nil
}

func (s *PostgresStore) Redeem(ctx context.Context, token, password string) (*models.EntryView, error) {
	var (
		view         models.EntryView
		tags         pq.StringArray
		passwordHash sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT e.title, e.content, COALESCE(e.mood, ''), COALESCE(e.audio_ref, ''),
		       u.username, e.created_at, e.updated_at, sa.password_hash,
		       (SELECT COALESCE(array_agg(t.tag ORDER BY t.position), '{}') FROM entry_tags t WHERE t.entry_id = e.id)
		FROM shared_access sa
		JOIN journal_entries e ON e.id = sa.entry_id
		JOIN users u ON u.id = e.user_id
		WHERE sa.access_token = $1
		  AND (sa.expires_at IS NULL OR sa.expires_at > NOW())
	`, token).Scan(&view.Title, &view.Content, &view.Mood, &view.AudioRef,
		&view.Author, &view.CreatedAt, &view.UpdatedAt, &passwordHash, &tags)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageErr(err)
	}
	if passwordHash.Valid && passwordHash.String != "" {
		if password == "" || !s.opts.Hasher.Verify(password, passwordHash.String) {
			return nil, ErrUnauthorized
		}
	}
	view.Tags = []string(tags)
	return &view, nil
}

func insertTags(ctx context.Context, tx *sql.Tx, entryID uuid.UUID, tags []string) error {
	for i, tag := range normalizeTags(tags) {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO entry_tags (entry_id, tag, position) VALUES ($1, $2, $3)
		`, entryID, tag, i); err != nil {
			return err
		}
	}
	return nil
}

// escapeLike neutralizes LIKE wildcards so search terms always match as
// plain substrings, the same as the in-memory search.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

func storageErr(err error) error {
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
