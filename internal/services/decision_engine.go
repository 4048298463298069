package services

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/irfndi/stockai-go/internal/config"
	"github.com/irfndi/stockai-go/internal/models"
)

// DecisionPolicy holds the thresholds and confidences of the decision table.
type DecisionPolicy struct {
	Oversold               float64
	Overbought             float64
	InsufficientConfidence float64
	BaseConfidence         float64
	StrongConfidence       float64
	NeutralConfidence      float64
	BiasConfidence         float64
	MACDBiasThreshold      float64
	ConflictPenalty        float64
	ConflictFloor          float64
	AgreementBoost         float64
	AgreementCap           float64
}

// DefaultDecisionPolicy returns the standard 30/70 RSI policy.
func DefaultDecisionPolicy() DecisionPolicy {
	return DecisionPolicy{
		Oversold:               30,
		Overbought:             70,
		InsufficientConfidence: 0.4,
		BaseConfidence:         0.8,
		StrongConfidence:       0.9,
		NeutralConfidence:      0.5,
		BiasConfidence:         0.6,
		MACDBiasThreshold:      0,
		ConflictPenalty:        0.2,
		ConflictFloor:          0.3,
		AgreementBoost:         0.1,
		AgreementCap:           0.95,
	}
}

// DecisionPolicyFromConfig maps the decision config section onto a policy.
func DecisionPolicyFromConfig(cfg config.DecisionConfig) DecisionPolicy {
	return DecisionPolicy{
		Oversold:               cfg.Oversold,
		Overbought:             cfg.Overbought,
		InsufficientConfidence: cfg.InsufficientConfidence,
		BaseConfidence:         cfg.BaseConfidence,
		StrongConfidence:       cfg.StrongConfidence,
		NeutralConfidence:      cfg.NeutralConfidence,
		BiasConfidence:         cfg.BiasConfidence,
		MACDBiasThreshold:      cfg.MACDBiasThreshold,
		ConflictPenalty:        cfg.ConflictPenalty,
		ConflictFloor:          cfg.ConflictFloor,
		AgreementBoost:         cfg.AgreementBoost,
		AgreementCap:           cfg.AgreementCap,
	}
}

// decisionRule is one row of the decision table. Rules are tried in order
// and the first whose match returns true decides.
type decisionRule struct {
	name   string
	match  func(in decisionInput) bool
	decide func(in decisionInput) models.Decision
}

type decisionInput struct {
	rsi     float64
	hasRSI  bool
	macd    float64
	hasMACD bool
}

// DecisionEngine turns indicators and optional sentiment into a Decision.
// It is pure and safe for concurrent use.
type DecisionEngine struct {
	policy DecisionPolicy
	rules  []decisionRule
}

// NewDecisionEngine builds the decision table for a policy.
func NewDecisionEngine(policy DecisionPolicy) *DecisionEngine {
	e := &DecisionEngine{policy: policy}
	e.rules = []decisionRule{
		{name: "insufficient_history", match: e.rsiMissing, decide: e.insufficientHistory},
		{name: "oversold", match: e.oversold, decide: e.buy},
		{name: "overbought", match: e.overbought, decide: e.sell},
		{name: "neutral", match: func(decisionInput) bool { return true }, decide: e.hold},
	}
	return e
}

// Decide applies the decision table, then adjusts BUY/SELL confidence when
// news sentiment is present and not neutral.
func (e *DecisionEngine) Decide(indicators models.IndicatorSet, sentiment models.Optional[models.SentimentSummary]) models.Decision {
	in := decisionInput{}
	in.rsi, in.hasRSI = indicators.RSI.Get()
	in.macd, in.hasMACD = indicators.MACD.Get()

	var decision models.Decision
	for _, rule := range e.rules {
		if rule.match(in) {
			decision = rule.decide(in)
			break
		}
	}

	if summary, ok := sentiment.Get(); ok {
		decision = e.adjustForSentiment(decision, summary)
	}

	decision.Confidence = roundConfidence(decision.Confidence)
	return decision
}

func (e *DecisionEngine) rsiMissing(in decisionInput) bool { return !in.hasRSI }
func (e *DecisionEngine) oversold(in decisionInput) bool   { return in.rsi < e.policy.Oversold }
func (e *DecisionEngine) overbought(in decisionInput) bool { return in.rsi > e.policy.Overbought }

func (e *DecisionEngine) insufficientHistory(in decisionInput) models.Decision {
	reason := "Insufficient price history to compute RSI"
	if in.hasMACD {
		reason += fmt.Sprintf("; MACD %.4f is %s", in.macd, polarity(in.macd))
	}
	return models.Decision{Action: models.ActionHold, Confidence: e.policy.InsufficientConfidence, Reason: reason}
}

func (e *DecisionEngine) buy(in decisionInput) models.Decision {
	d := models.Decision{
		Action:     models.ActionBuy,
		Confidence: e.policy.BaseConfidence,
		Reason:     fmt.Sprintf("RSI %.1f indicates oversold condition", in.rsi),
	}
	switch {
	case !in.hasMACD:
		d.Reason += " (MACD unavailable, insufficient data)"
	case in.macd > 0:
		d.Confidence = e.policy.StrongConfidence
		d.Reason += " and MACD shows positive momentum"
	}
	return d
}

func (e *DecisionEngine) sell(in decisionInput) models.Decision {
	d := models.Decision{
		Action:     models.ActionSell,
		Confidence: e.policy.BaseConfidence,
		Reason:     fmt.Sprintf("RSI %.1f indicates overbought condition", in.rsi),
	}
	switch {
	case !in.hasMACD:
		d.Reason += " (MACD unavailable, insufficient data)"
	case in.macd < 0:
		d.Confidence = e.policy.StrongConfidence
		d.Reason += " and MACD shows negative momentum"
	}
	return d
}

func (e *DecisionEngine) hold(in decisionInput) models.Decision {
	d := models.Decision{
		Action:     models.ActionHold,
		Confidence: e.policy.NeutralConfidence,
		Reason:     fmt.Sprintf("RSI %.1f is in neutral zone", in.rsi),
	}
	switch {
	case !in.hasMACD:
		d.Reason += " (MACD unavailable, insufficient data)"
	case in.macd > e.policy.MACDBiasThreshold:
		d.Confidence = e.policy.BiasConfidence
		d.Reason += " with slight bullish bias (positive MACD)"
	case in.macd < -e.policy.MACDBiasThreshold:
		d.Confidence = e.policy.BiasConfidence
		d.Reason += " with slight bearish bias (negative MACD)"
	}
	return d
}

func (e *DecisionEngine) adjustForSentiment(d models.Decision, s models.SentimentSummary) models.Decision {
	if d.Action == models.ActionHold || s.OverallSentiment == models.SentimentNeutral {
		return d
	}

	agrees := (d.Action == models.ActionBuy && s.OverallSentiment == models.SentimentPositive) ||
		(d.Action == models.ActionSell && s.OverallSentiment == models.SentimentNegative)

	if agrees {
		d.Confidence = math.Min(d.Confidence+e.policy.AgreementBoost, e.policy.AgreementCap)
		d.Reason += fmt.Sprintf("; %s news sentiment (%.2f) supports the signal", s.OverallSentiment, s.OverallScore)
		return d
	}

	d.Confidence = math.Max(d.Confidence-e.policy.ConflictPenalty, e.policy.ConflictFloor)
	d.Reason += fmt.Sprintf("; caution: %s news sentiment (%.2f) conflicts with the technical signal",
		s.OverallSentiment, s.OverallScore)
	return d
}

func polarity(v float64) string {
	switch {
	case v > 0:
		return "positive"
	case v < 0:
		return "negative"
	default:
		return "flat"
	}
}

// roundConfidence clamps to [0, 1] and rounds to two decimals.
func roundConfidence(c float64) float64 {
	return decimal.NewFromFloat(clamp(c, 0, 1)).Round(2).InexactFloat64()
}
