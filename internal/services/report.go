package services

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/irfndi/stockai-go/internal/models"
)

const (
	macdMomentumBand  = 0.005
	strongSignalLevel = 0.7
	lowConfidence     = 0.6
)

// BuildReport renders an AnalysisResult for people: indicator readings,
// a bullish/bearish tally, a risk grade and a recommendation sentence.
// Absent indicators read "unavailable" and never count as signals.
func BuildReport(result *models.AnalysisResult) *models.Report {
	tally := tallySignals(result.Indicators)
	risk := assessRisk(result.Indicators, result.Decision)

	return &models.Report{
		Symbol:       result.Symbol,
		GeneratedAt:  result.AnalyzedAt,
		Summary:      reportSummary(result),
		CurrentPrice: result.CurrentPrice,
		RSI: models.IndicatorReading{
			Value:          result.Indicators.RSI,
			Interpretation: interpretRSI(result.Indicators.RSI),
		},
		MA20: models.IndicatorReading{
			Value:          result.Indicators.MA20,
			Interpretation: interpretMA(result.CurrentPrice, result.Indicators.MA20),
		},
		MACD: models.IndicatorReading{
			Value:          result.Indicators.MACD,
			Interpretation: interpretMACD(result.Indicators.MACD),
		},
		Signals:        tally,
		Decision:       result.Decision,
		Risk:           risk,
		Recommendation: recommend(result.Decision, tally, risk),
		DataPoints:     result.PriceHistoryLength,
	}
}

// Report runs Analyze and renders the result.
func (s *AnalysisService) Report(ctx context.Context, req AnalysisRequest) (*models.Report, error) {
	result, err := s.Analyze(ctx, req)
	if err != nil {
		return nil, err
	}
	return BuildReport(result), nil
}

func reportSummary(r *models.AnalysisResult) string {
	outlook := "neutral"
	switch r.Decision.Action {
	case models.ActionBuy:
		outlook = "bullish"
	case models.ActionSell:
		outlook = "bearish"
	}
	return fmt.Sprintf("%s is trading at $%.2f with a %s outlook. %s signal with %.0f%% confidence.",
		r.Symbol, r.CurrentPrice, outlook, r.Decision.Action, math.Round(r.Decision.Confidence*100))
}

func interpretRSI(v models.Optional[float64]) string {
	rsi, ok := v.Get()
	switch {
	case !ok:
		return "unavailable"
	case rsi < 30:
		return "Oversold - Strong BUY signal"
	case rsi < 40:
		return "Approaching oversold"
	case rsi > 70:
		return "Overbought - Strong SELL signal"
	case rsi > 60:
		return "Approaching overbought"
	default:
		return "Neutral - In equilibrium"
	}
}

func interpretMA(price float64, v models.Optional[float64]) string {
	ma, ok := v.Get()
	if !ok || ma == 0 {
		return "unavailable"
	}
	if price > ma {
		return fmt.Sprintf("Price above MA20 (%.2f%%) - Bullish", (price-ma)/ma*100)
	}
	return fmt.Sprintf("Price below MA20 (%.2f%%) - Bearish", (ma-price)/ma*100)
}

func interpretMACD(v models.Optional[float64]) string {
	macd, ok := v.Get()
	switch {
	case !ok:
		return "unavailable"
	case macd > macdMomentumBand:
		return "Positive momentum - Bullish"
	case macd < -macdMomentumBand:
		return "Negative momentum - Bearish"
	default:
		return "Neutral momentum"
	}
}

func tallySignals(ind models.IndicatorSet) models.SignalTally {
	var t models.SignalTally
	if rsi, ok := ind.RSI.Get(); ok {
		if rsi < 30 {
			t.Bullish++
		}
		if rsi > 70 {
			t.Bearish++
		}
	}
	if macd, ok := ind.MACD.Get(); ok {
		if macd > 0 {
			t.Bullish++
		}
		if macd < 0 {
			t.Bearish++
		}
	}

	switch {
	case t.Bullish > t.Bearish:
		t.OverallStrength = "Strong Bullish"
	case t.Bearish > t.Bullish:
		t.OverallStrength = "Strong Bearish"
	default:
		t.OverallStrength = "Mixed"
	}
	return t
}

func assessRisk(ind models.IndicatorSet, d models.Decision) models.RiskAssessment {
	level := models.RiskLow
	if rsi, ok := ind.RSI.Get(); ok {
		switch {
		case rsi < 20 || rsi > 80:
			level = models.RiskHigh
		case rsi < 30 || rsi > 70:
			level = models.RiskModerate
		}
	}

	if d.Confidence < lowConfidence {
		switch level {
		case models.RiskLow:
			level = models.RiskModerate
		case models.RiskModerate:
			level = models.RiskHigh
		}
	}

	advice := "Use tight stop-loss and normal position size"
	if level == models.RiskHigh {
		advice = "Use wider stop-loss and reduced position size"
	}

	return models.RiskAssessment{
		Level:           level,
		ConfidenceScore: d.Confidence,
		Recommendation:  advice,
	}
}

func recommend(d models.Decision, t models.SignalTally, risk models.RiskAssessment) string {
	advice := strings.ToLower(risk.Recommendation)
	strong := d.Confidence > strongSignalLevel

	switch {
	case d.Action == models.ActionBuy && strong:
		return fmt.Sprintf("STRONG BUY - %s signals with %s risk. Consider entering a position with %s",
			t.OverallStrength, risk.Level, advice)
	case d.Action == models.ActionBuy:
		return "BUY - Mixed signals, enter cautiously with " + advice
	case d.Action == models.ActionSell && strong:
		return fmt.Sprintf("STRONG SELL - %s signals with %s risk. Consider exiting positions with %s",
			t.OverallStrength, risk.Level, advice)
	case d.Action == models.ActionSell:
		return "SELL - Mixed signals, exit cautiously with " + advice
	default:
		return fmt.Sprintf("HOLD - %s signals. Monitor price action and wait for clearer signals before making moves.",
			t.OverallStrength)
	}
}
