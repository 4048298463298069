package models

import "time"

// AnalysisResult is the full outcome of analyzing one symbol.
type AnalysisResult struct {
	Symbol             string                     `json:"symbol"`
	Period             string                     `json:"period,omitempty"`
	CurrentPrice       float64                    `json:"current_price"`
	Indicators         IndicatorSet               `json:"indicators"`
	Decision           Decision                   `json:"decision"`
	Sentiment          Optional[SentimentSummary] `json:"sentiment"`
	SentimentStatus    SentimentStatus            `json:"sentiment_status"`
	SentimentError     string                     `json:"sentiment_error,omitempty"`
	PriceHistoryLength int                        `json:"price_history_length"`
	AnalyzedAt         time.Time                  `json:"analyzed_at"`
}

// AnalysisRecord is a persisted summary of an AnalysisResult.
type AnalysisRecord struct {
	ID                 string    `json:"id" db:"id"`
	Symbol             string    `json:"symbol" db:"symbol"`
	Action             Action    `json:"action" db:"action"`
	Confidence         float64   `json:"confidence" db:"confidence"`
	Reason             string    `json:"reason" db:"reason"`
	CurrentPrice       float64   `json:"current_price" db:"current_price"`
	SentimentLabel     *string   `json:"sentiment_label,omitempty" db:"sentiment_label"`
	PriceHistoryLength int       `json:"price_history_length" db:"price_history_length"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
}
