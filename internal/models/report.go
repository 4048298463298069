package models

import "time"

// RiskLevel grades how risky acting on a decision is.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskModerate RiskLevel = "MODERATE"
	RiskHigh     RiskLevel = "HIGH"
)

// IndicatorReading is one indicator value with its interpretation.
type IndicatorReading struct {
	Value          Optional[float64] `json:"value"`
	Interpretation string            `json:"interpretation"`
}

// SignalTally counts directional indicator signals.
type SignalTally struct {
	Bullish         int    `json:"bullish_signals"`
	Bearish         int    `json:"bearish_signals"`
	OverallStrength string `json:"overall_strength"`
}

// RiskAssessment summarizes risk for the recommended action.
type RiskAssessment struct {
	Level           RiskLevel `json:"level"`
	ConfidenceScore float64   `json:"confidence_score"`
	Recommendation  string    `json:"recommendation"`
}

// Report is a human-oriented rendering of an AnalysisResult.
type Report struct {
	Symbol         string           `json:"ticker"`
	GeneratedAt    time.Time        `json:"timestamp"`
	Summary        string           `json:"summary"`
	CurrentPrice   float64          `json:"current_price"`
	RSI            IndicatorReading `json:"rsi"`
	MA20           IndicatorReading `json:"moving_average_20"`
	MACD           IndicatorReading `json:"macd"`
	Signals        SignalTally      `json:"technical_analysis"`
	Decision       Decision         `json:"trading_decision"`
	Risk           RiskAssessment   `json:"risk_assessment"`
	Recommendation string           `json:"recommendation"`
	DataPoints     int              `json:"data_points"`
}
