// Package analysis provides the pluggable mood/topic analyzer behind
// POST /api/entries/{id}/analyze. The keyword implementation is fully
// deterministic; the randomized one exists for demos only. Nothing in the
// entry store or share gate depends on which one is wired in.
package analysis

import "github.com/mwhitfield/echojournal-backend/internal/models"

// Result is what an analyzer derives from one entry's text.
type Result struct {
	Mood        models.MoodAnalysis
	Topics      []models.TopicScore
	HeroJourney string
}

// Analyzer turns journaled text into mood and topic labels.
type Analyzer interface {
	Analyze(title, content string) Result
}

// Tags flattens a result's topics into the tag labels stored on an entry.
func Tags(r Result) []string {
	tags := make([]string, 0, len(r.Topics))
	for _, t := range r.Topics {
		tags = append(tags, t.Topic)
	}
	return tags
}
