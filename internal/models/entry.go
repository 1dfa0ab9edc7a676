package models

import (
	"time"

	"github.com/google/uuid"
)

// Entry is a single journal record owned by one user.
type Entry struct {
	ID        uuid.UUID `json:"id"`
	OwnerID   uuid.UUID `json:"-"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Mood      string    `json:"mood,omitempty"`
	Tags      []string  `json:"tags"`
	AudioRef  string    `json:"audio_ref,omitempty"`
	IsPublic  bool      `json:"is_public"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EntryView is the read-only projection returned when a share token is
// redeemed. It carries the author's display name and nothing else about
// the owning account.
type EntryView struct {
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Mood      string    `json:"mood,omitempty"`
	Tags      []string  `json:"tags"`
	AudioRef  string    `json:"audio_ref,omitempty"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EntryPage is one page of a list query.
type EntryPage struct {
	Items []Entry `json:"entries"`
	Total int     `json:"total"`
	Page  int     `json:"page"`
	Pages int     `json:"pages"`
}

// MoodTrendPoint is one (day, mood) bucket in the insights trend.
type MoodTrendPoint struct {
	Date  string `json:"date"`
	Mood  string `json:"mood"`
	Count int    `json:"count"`
}

// Statistics is the derived view over one owner's full entry collection.
// It is recomputed on demand, never stored.
type Statistics struct {
	TotalEntries  int            `json:"total_entries"`
	CurrentStreak int            `json:"current_streak"`
	LongestStreak int            `json:"longest_streak"`
	MoodCounts    map[string]int `json:"mood_counts"`
	TagCounts     map[string]int `json:"tag_counts"`
}
