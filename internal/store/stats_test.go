package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 10, 30, 0, 0, time.UTC)
}

func statsFor(t *testing.T, days []time.Time, now time.Time) *statsResult {
	t.Helper()
	entries := make([]statEntry, 0, len(days))
	for _, d := range days {
		entries = append(entries, statEntry{CreatedAt: d})
	}
	s := buildStatistics(entries, now)
	return &statsResult{current: s.CurrentStreak, longest: s.LongestStreak}
}

type statsResult struct {
	current int
	longest int
}

func TestStreaks(t *testing.T) {
	now := day(2026, 8, 10)

	tests := []struct {
		name    string
		days    []time.Time
		current int
		longest int
	}{
		{
			name: "empty collection",
		},
		{
			name:    "single entry today",
			days:    []time.Time{day(2026, 8, 10)},
			current: 1,
			longest: 1,
		},
		{
			name:    "streak anchored at yesterday",
			days:    []time.Time{day(2026, 8, 9), day(2026, 8, 8), day(2026, 8, 7)},
			current: 3,
			longest: 3,
		},
		{
			name:    "latest entry two days ago breaks the streak",
			days:    []time.Time{day(2026, 8, 8), day(2026, 8, 7)},
			current: 0,
			longest: 2,
		},
		{
			name: "multiple entries on one day count once",
			days: []time.Time{
				day(2026, 8, 10), day(2026, 8, 10).Add(5 * time.Hour),
				day(2026, 8, 9),
			},
			current: 2,
			longest: 2,
		},
		{
			name: "gap splits runs, longest is the old one",
			days: []time.Time{
				day(2026, 8, 10),
				day(2026, 8, 5), day(2026, 8, 4), day(2026, 8, 3), day(2026, 8, 2),
			},
			current: 1,
			longest: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := statsFor(t, tt.days, now)
			if got.current != tt.current {
				t.Errorf("current streak = %d, want %d", got.current, tt.current)
			}
			if got.longest != tt.longest {
				t.Errorf("longest streak = %d, want %d", got.longest, tt.longest)
			}
		})
	}
}

func TestStatisticsHistograms(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	owner := uuid.New()

	seed := []CreateParams{
		{Title: "a", Mood: "happy", Tags: []string{"work", "coffee"}},
		{Title: "b", Mood: "happy", Tags: []string{"work"}},
		{Title: "c", Mood: "sad"},
		{Title: "d"},
	}
	for _, p := range seed {
		if _, err := s.Create(ctx, owner, p); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	stats, err := s.ComputeStatistics(ctx, owner)
	if err != nil {
		t.Fatalf("ComputeStatistics failed: %v", err)
	}
	if stats.TotalEntries != 4 {
		t.Errorf("TotalEntries = %d, want 4", stats.TotalEntries)
	}
	if stats.MoodCounts["happy"] != 2 || stats.MoodCounts["sad"] != 1 {
		t.Errorf("MoodCounts = %v", stats.MoodCounts)
	}
	if _, ok := stats.MoodCounts[""]; ok {
		t.Error("moodless entries must not appear in MoodCounts")
	}
	if stats.TagCounts["work"] != 2 || stats.TagCounts["coffee"] != 1 {
		t.Errorf("TagCounts = %v", stats.TagCounts)
	}
}

func TestStatisticsAreScopedToOwner(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	alice, bob := uuid.New(), uuid.New()

	mustCreate(t, s, alice, "alice 1")
	mustCreate(t, s, alice, "alice 2")
	mustCreate(t, s, bob, "bob 1")

	stats, err := s.ComputeStatistics(ctx, alice)
	if err != nil {
		t.Fatalf("ComputeStatistics failed: %v", err)
	}
	if stats.TotalEntries != 2 {
		t.Errorf("TotalEntries = %d, want 2", stats.TotalEntries)
	}
}
