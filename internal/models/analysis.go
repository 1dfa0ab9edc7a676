package models

import "time"

// MoodAnalysis is the mood portion of an analysis snapshot.
type MoodAnalysis struct {
	PrimaryMood string         `json:"primary_mood" bson:"primary_mood"`
	Intensity   float64        `json:"intensity" bson:"intensity"`
	MoodScores  map[string]int `json:"mood_scores" bson:"mood_scores"`
}

// TopicScore is one detected topic with its confidence.
type TopicScore struct {
	Topic      string  `json:"topic" bson:"topic"`
	Confidence float64 `json:"confidence" bson:"confidence"`
}

// Analysis is the persisted snapshot produced by running the analyzer over
// one entry. Superseded wholesale on re-analysis.
type Analysis struct {
	EntryID     string       `json:"entry_id" bson:"entry_id"`
	UserID      string       `json:"-" bson:"user_id"`
	Mood        MoodAnalysis `json:"mood_analysis" bson:"mood_analysis"`
	Topics      []TopicScore `json:"topic_analysis" bson:"topic_analysis"`
	HeroJourney string       `json:"hero_journey" bson:"hero_journey"`
	CreatedAt   time.Time    `json:"created_at" bson:"created_at"`
}
