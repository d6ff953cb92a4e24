// Package classifier labels user queries by topic category and recommends a
// preferred responder. The output is advisory only: it never forces a model
// switch, it just feeds suggestion banners.
package classifier

import (
	"regexp"
	"strings"

	"github.com/mindmash-ai/mindmash/internal/models"
)

// Category is a coarse topic label for a user query.
type Category string

const (
	CategoryTechnical Category = "technical"
	CategoryCreative  Category = "creative"
	CategoryFactual   Category = "factual"
	CategoryOpinion   Category = "opinion"
	CategoryCoding    Category = "coding"
	CategoryMath      Category = "math"
	CategoryGeneral   Category = "general"
)

// The cascade below is ordered: categories overlap and the first match wins.
// Reordering the rules changes classification of queries like "how does this
// algorithm work" (technical, not factual).
var rules = []struct {
	category Category
	keywords []string
	pattern  *regexp.Regexp
}{
	{
		category: CategoryTechnical,
		keywords: []string{"code", "function", "algorithm", "debug", "error"},
		pattern:  regexp.MustCompile(`\b(how|why|what)\b.*\b(works?|function|system)\b`),
	},
	{
		category: CategoryCreative,
		keywords: []string{"create", "design", "imagine", "story", "idea"},
		pattern:  regexp.MustCompile(`\b(generate|make|write)\b.*\b(creative|novel|unique|interesting)\b`),
	},
	{
		category: CategoryFactual,
		keywords: []string{"fact", "when", "where", "who"},
		pattern:  regexp.MustCompile(`\b(what is|define|explain)\b`),
	},
	{
		category: CategoryOpinion,
		keywords: []string{"opinion", "think", "believe", "feel"},
		pattern:  regexp.MustCompile(`\b(should|would|could|better|best|worst)\b`),
	},
	{
		category: CategoryCoding,
		keywords: []string{"javascript", "python", "code", "function"},
		pattern:  regexp.MustCompile(`\b(implement|program|develop|build)\b.*\b(app|application|website|function)\b`),
	},
	{
		category: CategoryMath,
		keywords: []string{"calculate", "solve", "equation", "math"},
		pattern:  regexp.MustCompile(`\b(compute|formula|calculation)\b|[+\-*/^=]\s*\d|\d\s*[+\-*/^=]`),
	},
}

// Classify labels query with the first matching category of the cascade,
// defaulting to general.
func Classify(query string) Category {
	q := strings.ToLower(query)
	for _, rule := range rules {
		for _, kw := range rule.keywords {
			if strings.Contains(q, kw) {
				return rule.category
			}
		}
		if rule.pattern.MatchString(q) {
			return rule.category
		}
	}
	return CategoryGeneral
}

// SuggestResponder returns the model best suited for a category. The mapping
// is static: technical, math and coding queries go to Grok, creative ones to
// Gemini, factual and opinion ones to ChatGPT.
func SuggestResponder(category Category) models.ModelID {
	switch category {
	case CategoryTechnical, CategoryMath, CategoryCoding:
		return models.ModelGrok
	case CategoryCreative:
		return models.ModelGemini
	case CategoryFactual, CategoryOpinion:
		return models.ModelChatGPT
	default:
		return models.ModelSystem
	}
}
