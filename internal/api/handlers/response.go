package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/irfndi/stockai-go/internal/middleware"
	"github.com/irfndi/stockai-go/internal/models"
	"github.com/irfndi/stockai-go/internal/utils"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error     string `json:"error"`
	Symbol    string `json:"symbol,omitempty"`
	Cause     string `json:"cause,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// statusForError maps the analysis error taxonomy onto HTTP codes. The
// outermost analysis error decides, so a wrapped cause cannot change the class.
func statusForError(err error) int {
	if ae, ok := utils.AsAnalysisError(err); ok {
		switch ae.Kind {
		case utils.KindInvalidInput:
			return http.StatusBadRequest
		case utils.KindDataUnavailable:
			return http.StatusNotFound
		case utils.KindSentimentUnavailable:
			return http.StatusServiceUnavailable
		}
	}

	switch {
	case errors.Is(err, utils.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, utils.ErrDataUnavailable):
		return http.StatusNotFound
	case errors.Is(err, utils.ErrSentimentUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// errorBody builds the response body for err. Unclassified errors hide their
// message behind a generic one.
func errorBody(err error, symbol string) ErrorResponse {
	var analysisErr *utils.AnalysisError
	if errors.As(err, &analysisErr) {
		if analysisErr.Symbol != "" {
			symbol = analysisErr.Symbol
		}
		return ErrorResponse{Error: analysisErr.Error(), Symbol: symbol, Cause: analysisErr.Cause}
	}

	var validationErr *utils.ValidationError
	if errors.As(err, &validationErr) {
		return ErrorResponse{Error: validationErr.Error(), Symbol: symbol}
	}

	return ErrorResponse{Error: "internal server error", Symbol: symbol}
}

func respondError(c *gin.Context, err error, symbol string) {
	status := statusForError(err)
	if status >= http.StatusInternalServerError {
		middleware.RecordError(c, err, "request failed")
	}
	writeError(c, status, errorBody(err, symbol))
}

func badRequest(c *gin.Context, message string) {
	writeError(c, http.StatusBadRequest, ErrorResponse{Error: message})
}

// writeError stamps body with the request ID before writing it.
func writeError(c *gin.Context, status int, body ErrorResponse) {
	body.RequestID = middleware.GetRequestID(c)
	c.JSON(status, body)
}

func round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

func roundOptional(v models.Optional[float64], places int32) *float64 {
	value, ok := v.Get()
	if !ok {
		return nil
	}
	r := round(value, places)
	return &r
}

// IndicatorsDTO carries rounded indicator values; null marks too-short history.
type IndicatorsDTO struct {
	RSI  *float64 `json:"rsi"`
	MA20 *float64 `json:"ma20"`
	MACD *float64 `json:"macd"`
}

func newIndicatorsDTO(ind models.IndicatorSet) IndicatorsDTO {
	return IndicatorsDTO{
		RSI:  roundOptional(ind.RSI, 2),
		MA20: roundOptional(ind.MA20, 2),
		MACD: roundOptional(ind.MACD, 4),
	}
}

// DecisionDTO is a decision with rounded confidence.
type DecisionDTO struct {
	Action     models.Action `json:"action"`
	Confidence float64       `json:"confidence"`
	Reason     string        `json:"reason"`
}

func newDecisionDTO(d models.Decision) DecisionDTO {
	return DecisionDTO{Action: d.Action, Confidence: round(d.Confidence, 2), Reason: d.Reason}
}

// SentimentDTO is a sentiment summary with rounded scores.
type SentimentDTO struct {
	TextsAnalyzed    int                     `json:"texts_analyzed"`
	OverallSentiment models.SentimentLabel   `json:"overall_sentiment"`
	OverallScore     float64                 `json:"overall_score"`
	IndividualScores []float64               `json:"individual_scores"`
	Interpretations  []models.SentimentLabel `json:"interpretations"`
	Confidence       float64                 `json:"confidence"`
	Summary          string                  `json:"summary"`
}

func newSentimentDTO(s models.SentimentSummary) *SentimentDTO {
	scores := make([]float64, len(s.IndividualScores))
	for i, v := range s.IndividualScores {
		scores[i] = round(v, 3)
	}
	return &SentimentDTO{
		TextsAnalyzed:    s.TextsAnalyzed,
		OverallSentiment: s.OverallSentiment,
		OverallScore:     round(s.OverallScore, 3),
		IndividualScores: scores,
		Interpretations:  s.Interpretations,
		Confidence:       round(s.Confidence, 2),
		Summary:          s.Summary,
	}
}

// AnalysisData is the payload of a successful analysis.
type AnalysisData struct {
	Period             string                 `json:"period"`
	CurrentPrice       float64                `json:"current_price"`
	Indicators         IndicatorsDTO          `json:"indicators"`
	Decision           DecisionDTO            `json:"decision"`
	Sentiment          *SentimentDTO          `json:"sentiment"`
	SentimentStatus    models.SentimentStatus `json:"sentiment_status"`
	SentimentError     string                 `json:"sentiment_error,omitempty"`
	PriceHistoryLength int                    `json:"price_history_length"`
	AnalyzedAt         string                 `json:"analyzed_at"`
}

// AnalysisResponse wraps one symbol's analysis.
type AnalysisResponse struct {
	Symbol string       `json:"symbol"`
	Status string       `json:"status"`
	Data   AnalysisData `json:"data"`
}

func newAnalysisResponse(r *models.AnalysisResult) AnalysisResponse {
	data := AnalysisData{
		Period:             r.Period,
		CurrentPrice:       round(r.CurrentPrice, 2),
		Indicators:         newIndicatorsDTO(r.Indicators),
		Decision:           newDecisionDTO(r.Decision),
		SentimentStatus:    r.SentimentStatus,
		SentimentError:     r.SentimentError,
		PriceHistoryLength: r.PriceHistoryLength,
		AnalyzedAt:         r.AnalyzedAt.Format(time.RFC3339),
	}
	if summary, ok := r.Sentiment.Get(); ok {
		data.Sentiment = newSentimentDTO(summary)
	}
	return AnalysisResponse{Symbol: r.Symbol, Status: "success", Data: data}
}

// ReadingDTO is one report indicator line.
type ReadingDTO struct {
	Value          *float64 `json:"value"`
	Interpretation string   `json:"interpretation"`
}

// ReportResponse is the JSON rendering of a report.
type ReportResponse struct {
	Ticker         string                `json:"ticker"`
	Timestamp      string                `json:"timestamp"`
	Summary        string                `json:"summary"`
	CurrentPrice   float64               `json:"current_price"`
	RSI            ReadingDTO            `json:"rsi"`
	MA20           ReadingDTO            `json:"moving_average_20"`
	MACD           ReadingDTO            `json:"macd"`
	Signals        models.SignalTally    `json:"technical_analysis"`
	Decision       DecisionDTO           `json:"trading_decision"`
	Risk           models.RiskAssessment `json:"risk_assessment"`
	Recommendation string                `json:"recommendation"`
	DataPoints     int                   `json:"data_points"`
}

func newReportResponse(r *models.Report) ReportResponse {
	risk := r.Risk
	risk.ConfidenceScore = round(risk.ConfidenceScore, 2)
	return ReportResponse{
		Ticker:         r.Symbol,
		Timestamp:      r.GeneratedAt.Format(time.RFC3339),
		Summary:        r.Summary,
		CurrentPrice:   round(r.CurrentPrice, 2),
		RSI:            ReadingDTO{Value: roundOptional(r.RSI.Value, 2), Interpretation: r.RSI.Interpretation},
		MA20:           ReadingDTO{Value: roundOptional(r.MA20.Value, 2), Interpretation: r.MA20.Interpretation},
		MACD:           ReadingDTO{Value: roundOptional(r.MACD.Value, 4), Interpretation: r.MACD.Interpretation},
		Signals:        r.Signals,
		Decision:       newDecisionDTO(r.Decision),
		Risk:           risk,
		Recommendation: r.Recommendation,
		DataPoints:     r.DataPoints,
	}
}
