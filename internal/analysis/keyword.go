package analysis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mwhitfield/echojournal-backend/internal/models"
)

// moodKeywords maps each mood label to the words that vote for it.
var moodKeywords = map[string][]string{
	"Happy":      {"happy", "joy", "great", "wonderful", "fantastic", "smile", "laugh"},
	"Excited":    {"excited", "thrilled", "anticipate"},
	"Calm":       {"calm", "peaceful", "relaxed", "serene", "tranquil", "quiet"},
	"Content":    {"content", "satisfied", "comfortable", "pleased", "fine"},
	"Optimistic": {"optimistic", "hopeful", "positive", "promising", "bright"},
	"Sad":        {"sad", "unhappy", "down", "blue", "depressed", "upset", "cry"},
	"Anxious":    {"anxious", "nervous", "worry", "concerned", "uneasy", "fear"},
	"Stressed":   {"stressed", "overwhelmed", "pressure", "tense", "strain"},
	"Tired":      {"tired", "exhausted", "fatigue", "sleepy", "drained", "weary"},
	"Frustrated": {"frustrated", "annoyed", "irritated", "bothered", "angry"},
	"Grateful":   {"grateful", "thankful", "appreciate", "blessed", "fortunate"},
	"Inspired":   {"inspired", "creative", "imagination", "idea", "vision"},
	"Motivated":  {"motivated", "determined", "driven", "focused", "goal"},
	"Confused":   {"confused", "uncertain", "unsure", "puzzled", "perplexed"},
	"Nostalgic":  {"nostalgic", "memory", "remember", "past", "childhood", "miss"},
}

// topicKeywords maps each topic tag to its trigger words.
var topicKeywords = map[string][]string{
	"Work":       {"work", "job", "career", "office", "project", "deadline", "meeting", "colleague", "boss", "client"},
	"Family":     {"family", "parent", "child", "mom", "dad", "brother", "sister", "spouse", "wife", "husband", "kid"},
	"Friends":    {"friend", "buddy", "pal", "social", "party", "gathering"},
	"Health":     {"health", "doctor", "sick", "illness", "symptom", "medicine", "hospital", "appointment"},
	"Fitness":    {"fitness", "exercise", "workout", "gym", "run", "training"},
	"Travel":     {"travel", "trip", "vacation", "flight", "journey", "visit"},
	"Food":       {"food", "meal", "dinner", "lunch", "breakfast", "cooking", "recipe", "coffee"},
	"Learning":   {"learning", "study", "course", "book", "reading", "class"},
	"Goals":      {"goal", "plan", "target", "ambition", "milestone"},
	"Reflection": {"reflect", "thinking", "realize", "understand", "perspective"},
	"Outdoors":   {"outdoors", "nature", "hike", "walk", "park", "garden"},
}

// journeyStages are the hero's-journey phases, in narrative order.
var journeyStages = []string{
	"Ordinary World",
	"Call to Adventure",
	"Refusal of the Call",
	"Meeting the Mentor",
	"Crossing the Threshold",
	"Tests, Allies, and Enemies",
	"Approach to the Inmost Cave",
	"Ordeal",
	"Reward",
	"The Road Back",
	"Resurrection",
	"Return with the Elixir",
}

// KeywordAnalyzer scores moods and topics by counting keyword hits. Same
// text in, same result out, which is what the tests and the API contract
// rely on.
type KeywordAnalyzer struct{}

var _ Analyzer = KeywordAnalyzer{}

func (KeywordAnalyzer) Analyze(title, content string) Result {
	words := tokenize(content)

	moodScores := make(map[string]int)
	topMood, topScore := "Neutral", 0
	for _, mood := range sortedKeys(moodKeywords) {
		score := countHits(words, moodKeywords[mood])
		moodScores[mood] = score
		if score > topScore {
			topMood, topScore = mood, score
		}
	}

	intensity := float64(topScore) / 3
	if intensity > 1 {
		intensity = 1
	}

	var topics []models.TopicScore
	for _, topic := range sortedKeys(topicKeywords) {
		if hits := countHits(words, topicKeywords[topic]); hits > 0 {
			topics = append(topics, models.TopicScore{
				Topic:      topic,
				Confidence: confidence(hits),
			})
		}
	}
	sort.SliceStable(topics, func(i, j int) bool {
		return topics[i].Confidence > topics[j].Confidence
	})
	if len(topics) > 5 {
		topics = topics[:5]
	}

	return Result{
		Mood: models.MoodAnalysis{
			PrimaryMood: topMood,
			Intensity:   intensity,
			MoodScores:  moodScores,
		},
		Topics:      topics,
		HeroJourney: heroJourney(title, words),
	}
}

// heroJourney picks a stage from the word count, so the narrative is stable
// for a given entry but varies across entries.
func heroJourney(title string, words []string) string {
	stage := journeyStages[len(words)%len(journeyStages)]
	return fmt.Sprintf("In this chapter of your journey, you find yourself in the %q phase. "+
		"Your entry %q reveals how you are navigating this important stage. "+
		"The challenges you face now are preparing you for what lies ahead, and the insights "+
		"you've gained will serve you well as your story continues to unfold.", stage, title)
}

func confidence(hits int) float64 {
	c := 0.5 + float64(hits)*0.15
	if c > 0.95 {
		c = 0.95
	}
	return c
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9') && r != '\''
	})
}

func countHits(words, keywords []string) int {
	hits := 0
	for _, w := range words {
		for _, k := range keywords {
			if w == k {
				hits++
			}
		}
	}
	return hits
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
