package services

import (
	"context"
	"math"
	"strings"
	"unicode"
)

var (
	positiveKeywords = []string{
		"gain", "rise", "rally", "surge", "bull", "bullish", "positive", "growth", "strong",
		"beat", "outperform", "soar", "jump", "climb", "profit", "success", "high", "up",
		"boost", "upgrade", "optimistic",
	}
	negativeKeywords = []string{
		"loss", "fall", "crash", "bear", "bearish", "negative", "decline", "weak", "miss",
		"underperform", "plummet", "drop", "down", "disappoint", "concern", "low", "downgrade",
		"pessimistic", "struggle", "fail",
	}
)

// KeywordScorer is an offline PolarityScorer counting finance keywords.
// It backs the CLI without an API key and is the fallback when the LLM fails.
type KeywordScorer struct {
	positive []string
	negative []string
}

// NewKeywordScorer creates a scorer with the built-in keyword lists.
func NewKeywordScorer() *KeywordScorer {
	return &KeywordScorer{
		positive: positiveKeywords,
		negative: negativeKeywords,
	}
}

// ScoreTexts implements PolarityScorer.
func (k *KeywordScorer) ScoreTexts(_ context.Context, texts []string) ([]float64, error) {
	scores := make([]float64, len(texts))
	for i, text := range texts {
		scores[i] = k.Score(text)
	}
	return scores, nil
}

// Score counts the positive and negative keywords present in text, each at
// most once. Keywords of four or more letters also match inflected words
// ("falls", "higher"); shorter ones must match exactly so "up" never matches
// "update". One net hit scores ±0.5, each further hit adds 0.15, capped at ±0.9.
func (k *KeywordScorer) Score(text string) float64 {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	})

	net := k.count(words, k.positive) - k.count(words, k.negative)
	switch {
	case net > 0:
		return math.Min(0.5+float64(net-1)*0.15, 0.9)
	case net < 0:
		return math.Max(-0.5+float64(net+1)*0.15, -0.9)
	default:
		return 0
	}
}

func (k *KeywordScorer) count(words []string, keywords []string) int {
	n := 0
	for _, kw := range keywords {
		for _, w := range words {
			if w == kw || (len(kw) >= 4 && strings.HasPrefix(w, kw)) {
				n++
				break
			}
		}
	}
	return n
}
