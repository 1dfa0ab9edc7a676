package analysis

import (
	"reflect"
	"strings"
	"testing"
)

func TestAnalyzeIsDeterministic(t *testing.T) {
	a := KeywordAnalyzer{}
	title := "a long week"
	content := "work was stressful but I felt happy after the gym workout with my friend"

	first := a.Analyze(title, content)
	second := a.Analyze(title, content)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("same input produced different results:\n%+v\n%+v", first, second)
	}
}

func TestAnalyzeDetectsMood(t *testing.T) {
	a := KeywordAnalyzer{}

	tests := []struct {
		content string
		mood    string
	}{
		{"I was so happy today, full of joy and laugh after laugh", "Happy"},
		{"feeling anxious and nervous, so much worry about tomorrow", "Anxious"},
		{"exhausted and drained, just tired all day", "Tired"},
		{"bought some groceries", "Neutral"},
	}
	for _, tt := range tests {
		got := a.Analyze("t", tt.content)
		if got.Mood.PrimaryMood != tt.mood {
			t.Errorf("Analyze(%q).PrimaryMood = %q, want %q", tt.content, got.Mood.PrimaryMood, tt.mood)
		}
	}
}

func TestAnalyzeIntensityCapped(t *testing.T) {
	a := KeywordAnalyzer{}
	content := strings.Repeat("happy joy great wonderful ", 10)
	got := a.Analyze("t", content)
	if got.Mood.Intensity != 1 {
		t.Errorf("Intensity = %v, want capped at 1", got.Mood.Intensity)
	}
}

func TestAnalyzeTopics(t *testing.T) {
	a := KeywordAnalyzer{}
	content := "meeting at the office about the project deadline, then gym workout, " +
		"dinner with family, reading a book, a walk in the park, planning the trip"
	got := a.Analyze("t", content)

	if len(got.Topics) > 5 {
		t.Fatalf("topics = %d, want at most 5", len(got.Topics))
	}
	for i := 1; i < len(got.Topics); i++ {
		if got.Topics[i-1].Confidence < got.Topics[i].Confidence {
			t.Errorf("topics not sorted by confidence: %+v", got.Topics)
		}
	}
	for _, topic := range got.Topics {
		if topic.Confidence > 0.95 {
			t.Errorf("confidence %v over cap", topic.Confidence)
		}
	}
	if got.Topics[0].Topic != "Work" {
		t.Errorf("strongest topic = %q, want Work", got.Topics[0].Topic)
	}
}

func TestTagsFlattensTopics(t *testing.T) {
	a := KeywordAnalyzer{}
	got := a.Analyze("t", "gym workout then dinner with family")
	tags := Tags(got)
	if len(tags) != len(got.Topics) {
		t.Fatalf("tags = %v for topics %v", tags, got.Topics)
	}
	for i, topic := range got.Topics {
		if tags[i] != topic.Topic {
			t.Errorf("tags[%d] = %q, want %q", i, tags[i], topic.Topic)
		}
	}
}

func TestHeroJourneyMentionsTitle(t *testing.T) {
	a := KeywordAnalyzer{}
	got := a.Analyze("my big move", "packing boxes all day")
	if !strings.Contains(got.HeroJourney, "my big move") {
		t.Errorf("hero journey does not reference the entry title: %q", got.HeroJourney)
	}
}
