package store

import (
	"sort"
	"time"

	"github.com/mwhitfield/echojournal-backend/internal/models"
)

// statEntry is the slice of an entry that statistics care about. Both
// implementations feed their scans through BuildStatistics so the streak
// and histogram rules live in exactly one place.
type statEntry struct {
	CreatedAt time.Time
	Mood      string
	Tags      []string
}

// buildStatistics derives totals, streaks and histograms from one owner's
// full entry collection. now anchors the streak walk.
func buildStatistics(entries []statEntry, now time.Time) *models.Statistics {
	stats := &models.Statistics{
		TotalEntries: len(entries),
		MoodCounts:   make(map[string]int),
		TagCounts:    make(map[string]int),
	}

	seen := make(map[time.Time]bool)
	days := make([]time.Time, 0, len(entries))
	for _, e := range entries {
		if e.Mood != "" {
			stats.MoodCounts[e.Mood]++
		}
		for _, t := range e.Tags {
			stats.TagCounts[t]++
		}
		day := truncateDay(e.CreatedAt)
		if !seen[day] {
			seen[day] = true
			days = append(days, day)
		}
	}
	if len(days) == 0 {
		return stats
	}

	// Newest first for the anchored walk.
	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })

	stats.CurrentStreak = currentStreak(days, truncateDay(now))
	stats.LongestStreak = longestStreak(days)
	return stats
}

// currentStreak counts consecutive days ending at today or yesterday.
// A most recent entry older than yesterday means the streak is over.
func currentStreak(days []time.Time, today time.Time) int {
	latest := days[0]
	if latest.Before(today.AddDate(0, 0, -1)) {
		return 0
	}
	streak := 1
	for i := 1; i < len(days); i++ {
		if days[i-1].Sub(days[i]) != 24*time.Hour {
			break
		}
		streak++
	}
	return streak
}

// longestStreak is the maximal run of consecutive days anywhere in the
// collection, regardless of how long ago it ended.
func longestStreak(days []time.Time) int {
	longest, run := 1, 1
	for i := 1; i < len(days); i++ {
		if days[i-1].Sub(days[i]) == 24*time.Hour {
			run++
			if run > longest {
				longest = run
			}
		} else {
			run = 1
		}
	}
	return longest
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
