package services

import (
	"fmt"
	"math"

	"github.com/irfndi/stockai-go/internal/models"
	"github.com/irfndi/stockai-go/internal/utils"
)

// DefaultSentimentDeadZone is the band around zero labelled NEUTRAL.
const DefaultSentimentDeadZone = 0.15

// SentimentAggregator folds per-text polarity scores into one summary.
type SentimentAggregator struct {
	deadZone float64
}

// NewSentimentAggregator creates an aggregator. A negative dead zone falls back to the default.
func NewSentimentAggregator(deadZone float64) *SentimentAggregator {
	if deadZone < 0 {
		deadZone = DefaultSentimentDeadZone
	}
	return &SentimentAggregator{deadZone: deadZone}
}

// Label classifies a single score against the dead zone.
func (a *SentimentAggregator) Label(score float64) models.SentimentLabel {
	switch {
	case score > a.deadZone:
		return models.SentimentPositive
	case score < -a.deadZone:
		return models.SentimentNegative
	default:
		return models.SentimentNeutral
	}
}

// Summarize aggregates scores, which must pair 1:1 with texts. Scores are
// clamped to [-1, 1]; NaN scores, an empty input or a length mismatch fail
// with an invalid input error and no partial summary.
func (a *SentimentAggregator) Summarize(texts []string, scores []float64) (*models.SentimentSummary, error) {
	if len(texts) == 0 {
		return nil, utils.NewInvalidInput("", "at least one text is required for sentiment analysis")
	}
	if len(texts) != len(scores) {
		return nil, utils.NewInvalidInput("", fmt.Sprintf("got %d scores for %d texts", len(scores), len(texts)))
	}

	clamped := make([]float64, len(scores))
	labels := make([]models.SentimentLabel, len(scores))
	var sum float64
	for i, s := range scores {
		if math.IsNaN(s) {
			return nil, utils.NewInvalidInput("", fmt.Sprintf("score %d is not a number", i))
		}
		clamped[i] = clamp(s, -1, 1)
		labels[i] = a.Label(clamped[i])
		sum += clamped[i]
	}

	n := float64(len(clamped))
	mean := sum / n

	var variance float64
	for _, s := range clamped {
		variance += (s - mean) * (s - mean)
	}
	stdDev := math.Sqrt(variance / n)

	label := a.Label(mean)
	return &models.SentimentSummary{
		OverallSentiment: label,
		OverallScore:     mean,
		Confidence:       1 - clamp(stdDev, 0, 1),
		TextsAnalyzed:    len(texts),
		IndividualScores: clamped,
		Interpretations:  labels,
		Summary: fmt.Sprintf("Analyzed %d text(s) with average sentiment score of %.2f, overall sentiment is %s",
			len(texts), mean, label),
	}, nil
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
