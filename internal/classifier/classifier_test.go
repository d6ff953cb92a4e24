package classifier

import (
	"testing"

	"github.com/mindmash-ai/mindmash/internal/models"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		query string
		want  Category
	}{
		// "how" alone would also satisfy the factual rule's wording, but
		// technical is checked first and must win.
		{"how does this algorithm work", CategoryTechnical},
		{"debug this for me", CategoryTechnical},
		{"calculate 2+2", CategoryMath},
		{"7 * 6 = ?", CategoryMath},
		{"what is entropy", CategoryFactual},
		{"imagine a city under the sea", CategoryCreative},
		{"write something unique about rain", CategoryCreative},
		{"when was the telephone invented", CategoryFactual},
		{"define entropy", CategoryFactual},
		{"do you think cats are better than dogs", CategoryOpinion},
		{"which framework is best", CategoryOpinion},
		{"python list comprehension help", CategoryCoding},
		{"compute the compound interest formula", CategoryMath},
		{"good morning everyone", CategoryGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			if got := Classify(tt.query); got != tt.want {
				t.Errorf("Classify(%q) = %s, want %s", tt.query, got, tt.want)
			}
		})
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	for i := 0; i < 10; i++ {
		if got := Classify("how does this algorithm work"); got != CategoryTechnical {
			t.Fatalf("classification changed between runs: %s", got)
		}
	}
}

func TestSuggestResponder(t *testing.T) {
	tests := []struct {
		category Category
		want     models.ModelID
	}{
		{CategoryTechnical, models.ModelGrok},
		{CategoryMath, models.ModelGrok},
		{CategoryCoding, models.ModelGrok},
		{CategoryCreative, models.ModelGemini},
		{CategoryFactual, models.ModelChatGPT},
		{CategoryOpinion, models.ModelChatGPT},
		{CategoryGeneral, models.ModelSystem},
	}

	for _, tt := range tests {
		if got := SuggestResponder(tt.category); got != tt.want {
			t.Errorf("SuggestResponder(%s) = %s, want %s", tt.category, got, tt.want)
		}
	}
}
