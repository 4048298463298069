package models

// SentimentLabel classifies a polarity score.
type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "POSITIVE"
	SentimentNegative SentimentLabel = "NEGATIVE"
	SentimentNeutral  SentimentLabel = "NEUTRAL"
)

// SentimentSummary aggregates per-text polarity scores.
type SentimentSummary struct {
	OverallSentiment SentimentLabel   `json:"overall_sentiment"`
	OverallScore     float64          `json:"overall_score"`
	Confidence       float64          `json:"confidence"`
	TextsAnalyzed    int              `json:"texts_analyzed"`
	IndividualScores []float64        `json:"individual_scores"`
	Interpretations  []SentimentLabel `json:"interpretations"`
	Summary          string           `json:"summary"`
}

// SentimentStatus tells the caller why a result does or does not carry sentiment.
type SentimentStatus string

const (
	SentimentIncluded     SentimentStatus = "included"
	SentimentUnavailable  SentimentStatus = "unavailable"
	SentimentNotRequested SentimentStatus = "not_requested"
)
