package analysis

import (
	"math/rand"
	"sort"

	"github.com/mwhitfield/echojournal-backend/internal/models"
)

// RandomAnalyzer behaves like KeywordAnalyzer but invents a mood and topics
// when the text gives no signal, the way the original demo client did.
// Demos only; never wire it into anything a test depends on.
type RandomAnalyzer struct {
	Keyword KeywordAnalyzer
}

var _ Analyzer = RandomAnalyzer{}

func (a RandomAnalyzer) Analyze(title, content string) Result {
	result := a.Keyword.Analyze(title, content)

	if result.Mood.PrimaryMood == "Neutral" {
		moods := sortedKeys(moodKeywords)
		result.Mood.PrimaryMood = moods[rand.Intn(len(moods))]
		result.Mood.Intensity = rand.Float64()*0.7 + 0.3
	}

	if len(result.Topics) == 0 {
		topics := sortedKeys(topicKeywords)
		rand.Shuffle(len(topics), func(i, j int) { topics[i], topics[j] = topics[j], topics[i] })
		n := 3 + rand.Intn(3)
		for i := 0; i < n && i < len(topics); i++ {
			result.Topics = append(result.Topics, models.TopicScore{
				Topic:      topics[i],
				Confidence: (95.0 - float64(i)*15 + float64(rand.Intn(11))) / 100,
			})
		}
		sort.SliceStable(result.Topics, func(i, j int) bool {
			return result.Topics[i].Confidence > result.Topics[j].Confidence
		})
	}
	return result
}
