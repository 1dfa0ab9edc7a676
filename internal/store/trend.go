package store

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/mwhitfield/echojournal-backend/internal/models"
)

// TrendSource feeds the insights endpoint: per-day mood counts over a date
// range. Both bounds are calendar days; to is inclusive.
type TrendSource interface {
	MoodTrend(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]models.MoodTrendPoint, error)
}

var _ TrendSource = (*PostgresStore)(nil)
var _ TrendSource = (*MemoryStore)(nil)

func (s *PostgresStore) MoodTrend(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]models.MoodTrendPoint, error) {
	toEnd := truncateDay(to).AddDate(0, 0, 1)
	rows, err := s.db.QueryContext(ctx, `
		SELECT (created_at)::date AS d, mood, COUNT(*)
		FROM journal_entries
		WHERE user_id = $1 AND mood IS NOT NULL
		  AND created_at >= $2 AND created_at < $3
		GROUP BY d, mood
		ORDER BY d, mood
	`, ownerID, truncateDay(from), toEnd)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	points := []models.MoodTrendPoint{}
	for rows.Next() {
		var (
			d     time.Time
			p     models.MoodTrendPoint
			count int
		)
		if err := rows.Scan(&d, &p.Mood, &count); err != nil {
			return nil, storageErr(err)
		}
		p.Date = d.Format("2006-01-02")
		p.Count = count
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(err)
	}
	return points, nil
}

func (s *MemoryStore) MoodTrend(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]models.MoodTrendPoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := truncateDay(from)
	end := truncateDay(to).AddDate(0, 0, 1)

	type dayMood struct {
		date string
		mood string
	}
	counts := make(map[dayMood]int)
	for _, rec := range s.entries {
		e := rec.entry
		if e.OwnerID != ownerID || e.Mood == "" {
			continue
		}
		if e.CreatedAt.Before(start) || !e.CreatedAt.Before(end) {
			continue
		}
		counts[dayMood{truncateDay(e.CreatedAt).Format("2006-01-02"), e.Mood}]++
	}

	points := []models.MoodTrendPoint{}
	for key, count := range counts {
		points = append(points, models.MoodTrendPoint{Date: key.date, Mood: key.mood, Count: count})
	}
	sort.Slice(points, func(i, j int) bool {
		if points[i].Date != points[j].Date {
			return points[i].Date < points[j].Date
		}
		return points[i].Mood < points[j].Mood
	})
	return points, nil
}
