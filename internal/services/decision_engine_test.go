package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/irfndi/stockai-go/internal/models"
)

func indicators(rsi, macd *float64) models.IndicatorSet {
	set := models.IndicatorSet{MA20: models.Some(100.0)}
	if rsi != nil {
		set.RSI = models.Some(*rsi)
	}
	if macd != nil {
		set.MACD = models.Some(*macd)
	}
	return set
}

func f(v float64) *float64 { return &v }

func sentimentOf(label models.SentimentLabel, score float64) models.Optional[models.SentimentSummary] {
	return models.Some(models.SentimentSummary{
		OverallSentiment: label,
		OverallScore:     score,
		Confidence:       0.8,
		TextsAnalyzed:    3,
	})
}

func TestDecisionEngine_Table(t *testing.T) {
	engine := NewDecisionEngine(DefaultDecisionPolicy())
	none := models.None[models.SentimentSummary]()

	tests := []struct {
		name       string
		rsi, macd  *float64
		action     models.Action
		confidence float64
		reason     []string
	}{
		{"oversold with positive macd", f(28.5), f(3.2), models.ActionBuy, 0.9,
			[]string{"RSI 28.5 indicates oversold condition", "MACD shows positive momentum"}},
		{"oversold with negative macd", f(25), f(-1), models.ActionBuy, 0.8,
			[]string{"oversold"}},
		{"oversold without macd", f(25), nil, models.ActionBuy, 0.8,
			[]string{"MACD unavailable"}},
		{"overbought with negative macd", f(72.3), f(-1.5), models.ActionSell, 0.9,
			[]string{"RSI 72.3 indicates overbought condition", "MACD shows negative momentum"}},
		{"overbought with positive macd", f(75), f(0.5), models.ActionSell, 0.8,
			[]string{"overbought"}},
		{"neutral bullish bias", f(62.45), f(2.1234), models.ActionHold, 0.6,
			[]string{"neutral zone", "slight bullish bias"}},
		{"neutral bearish bias", f(45), f(-0.5), models.ActionHold, 0.6,
			[]string{"slight bearish bias"}},
		{"neutral flat macd", f(45), f(0), models.ActionHold, 0.5,
			[]string{"RSI 45.0 is in neutral zone"}},
		{"neutral without macd", f(50), nil, models.ActionHold, 0.5,
			[]string{"MACD unavailable"}},
		{"rsi absent", nil, nil, models.ActionHold, 0.4,
			[]string{"Insufficient price history"}},
		{"rsi absent macd present", nil, f(1.25), models.ActionHold, 0.4,
			[]string{"Insufficient price history", "MACD 1.2500 is positive"}},
		{"exactly 30 is neutral", f(30), f(1), models.ActionHold, 0.6, nil},
		{"exactly 70 is neutral", f(70), f(-1), models.ActionHold, 0.6, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := engine.Decide(indicators(tt.rsi, tt.macd), none)
			assert.Equal(t, tt.action, d.Action)
			assert.Equal(t, tt.confidence, d.Confidence)
			assert.NotEmpty(t, d.Reason)
			for _, want := range tt.reason {
				assert.Contains(t, d.Reason, want)
			}
		})
	}
}

func TestDecisionEngine_ActionFollowsRSI(t *testing.T) {
	engine := NewDecisionEngine(DefaultDecisionPolicy())

	for rsi := 0.0; rsi <= 100; rsi += 0.5 {
		for _, macd := range []*float64{nil, f(-2), f(0), f(2)} {
			d := engine.Decide(indicators(f(rsi), macd), models.None[models.SentimentSummary]())

			switch {
			case rsi < 30:
				assert.Equal(t, models.ActionBuy, d.Action, "rsi=%v", rsi)
			case rsi > 70:
				assert.Equal(t, models.ActionSell, d.Action, "rsi=%v", rsi)
			default:
				assert.Equal(t, models.ActionHold, d.Action, "rsi=%v", rsi)
			}
			assert.GreaterOrEqual(t, d.Confidence, 0.0)
			assert.LessOrEqual(t, d.Confidence, 1.0)
		}
	}
}

func TestDecisionEngine_SentimentAdjustment(t *testing.T) {
	engine := NewDecisionEngine(DefaultDecisionPolicy())

	tests := []struct {
		name       string
		rsi, macd  float64
		sentiment  models.Optional[models.SentimentSummary]
		action     models.Action
		confidence float64
		reason     string
	}{
		{"buy conflicts with negative news", 28.5, 3.2, sentimentOf(models.SentimentNegative, -0.6),
			models.ActionBuy, 0.7, "caution"},
		{"weak buy conflicts with negative news", 25, -1, sentimentOf(models.SentimentNegative, -0.6),
			models.ActionBuy, 0.6, "conflicts with the technical signal"},
		{"buy agrees with positive news", 25, -1, sentimentOf(models.SentimentPositive, 0.5),
			models.ActionBuy, 0.9, "supports the signal"},
		{"agreement is capped", 28.5, 3.2, sentimentOf(models.SentimentPositive, 0.5),
			models.ActionBuy, 0.95, "supports the signal"},
		{"sell agrees with negative news", 72.3, -1.5, sentimentOf(models.SentimentNegative, -0.4),
			models.ActionSell, 0.95, "supports the signal"},
		{"sell conflicts with positive news", 75, 0.5, sentimentOf(models.SentimentPositive, 0.4),
			models.ActionSell, 0.6, "caution"},
		{"neutral news leaves buy untouched", 28.5, 3.2, sentimentOf(models.SentimentNeutral, 0.05),
			models.ActionBuy, 0.9, "positive momentum"},
		{"hold ignores sentiment", 50, 1, sentimentOf(models.SentimentNegative, -0.9),
			models.ActionHold, 0.6, "slight bullish bias"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := engine.Decide(indicators(f(tt.rsi), f(tt.macd)), tt.sentiment)
			assert.Equal(t, tt.action, d.Action)
			assert.Equal(t, tt.confidence, d.Confidence)
			assert.Contains(t, d.Reason, tt.reason)
		})
	}
}

func TestDecisionEngine_ConflictFloor(t *testing.T) {
	policy := DefaultDecisionPolicy()
	policy.ConflictPenalty = 0.7
	engine := NewDecisionEngine(policy)

	d := engine.Decide(indicators(f(25), f(-1)), sentimentOf(models.SentimentNegative, -0.8))
	assert.Equal(t, models.ActionBuy, d.Action)
	assert.Equal(t, 0.3, d.Confidence)

	// Any opposing sentiment keeps a BUY within [floor, base)
	for _, penalty := range []float64{0.05, 0.2, 0.4, 0.9} {
		policy.ConflictPenalty = penalty
		d := NewDecisionEngine(policy).Decide(indicators(f(25), f(-1)), sentimentOf(models.SentimentNegative, -0.5))
		assert.GreaterOrEqual(t, d.Confidence, 0.3)
		assert.Less(t, d.Confidence, 0.8)
	}
}

func TestDecisionEngine_BiasThreshold(t *testing.T) {
	policy := DefaultDecisionPolicy()
	policy.MACDBiasThreshold = 0.01
	engine := NewDecisionEngine(policy)

	d := engine.Decide(indicators(f(50), f(0.005)), models.None[models.SentimentSummary]())
	assert.Equal(t, 0.5, d.Confidence)

	d = engine.Decide(indicators(f(50), f(0.02)), models.None[models.SentimentSummary]())
	assert.Equal(t, 0.6, d.Confidence)
	assert.Contains(t, d.Reason, "slight bullish bias")
}
