package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/irfndi/stockai-go/internal/middleware"
	"github.com/irfndi/stockai-go/internal/models"
	"github.com/irfndi/stockai-go/internal/services"
	"github.com/irfndi/stockai-go/internal/utils"
)

const (
	defaultNewsLimit = 10
	maxNewsLimit     = 20
	maxBatchSymbols  = 20
)

// PeriodValidator reports whether a history period is supported.
type PeriodValidator func(period string) bool

type AnalysisHandler struct {
	service     *services.AnalysisService
	news        services.NewsSource
	validPeriod PeriodValidator
	logger      *logrus.Logger
}

// AnalyzeRequest is the body of POST /stocks/analyze.
type AnalyzeRequest struct {
	Ticker           string `json:"ticker"`
	Timeframe        string `json:"timeframe"`
	IncludeSentiment bool   `json:"include_sentiment"`
	NewsLimit        int    `json:"news_limit"`
}

// BatchRequest is the body of POST /stocks/analyze/batch.
type BatchRequest struct {
	Symbols          []string `json:"symbols"`
	Timeframe        string   `json:"timeframe"`
	IncludeSentiment bool     `json:"include_sentiment"`
}

// SentimentRequest is the body of POST /stocks/sentiment/analyze.
type SentimentRequest struct {
	Texts []string `json:"texts"`
}

// BatchItem is one symbol's outcome in a batch response.
type BatchItem struct {
	Symbol string         `json:"symbol"`
	Status string         `json:"status"`
	Data   *AnalysisData  `json:"data,omitempty"`
	Error  *ErrorResponse `json:"error,omitempty"`
}

// BatchResponse lists batch outcomes in request order.
type BatchResponse struct {
	Results   []BatchItem `json:"results"`
	Count     int         `json:"count"`
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
}

// NewsResponse lists recent headlines for a symbol.
type NewsResponse struct {
	Status   string               `json:"status"`
	Symbol   string               `json:"symbol"`
	Count    int                  `json:"count"`
	Articles []models.NewsArticle `json:"articles"`
}

func NewAnalysisHandler(service *services.AnalysisService, news services.NewsSource, validPeriod PeriodValidator, logger *logrus.Logger) *AnalysisHandler {
	if validPeriod == nil {
		validPeriod = func(string) bool { return true }
	}
	return &AnalysisHandler{
		service:     service,
		news:        news,
		validPeriod: validPeriod,
		logger:      logger,
	}
}

// GetAnalysis handles GET /stocks/analyze/:symbol.
func (h *AnalysisHandler) GetAnalysis(c *gin.Context) {
	includeSentiment, err := strconv.ParseBool(c.DefaultQuery("sentiment", "false"))
	if err != nil {
		badRequest(c, "sentiment must be a boolean")
		return
	}
	newsLimit, err := strconv.Atoi(c.DefaultQuery("news_limit", "0"))
	if err != nil || newsLimit < 0 {
		badRequest(c, "news_limit must be a non-negative integer")
		return
	}

	h.analyze(c, services.AnalysisRequest{
		Symbol:           c.Param("symbol"),
		Period:           c.Query("period"),
		IncludeSentiment: includeSentiment,
		NewsLimit:        newsLimit,
	})
}

// PostAnalysis handles POST /stocks/analyze.
func (h *AnalysisHandler) PostAnalysis(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Ticker) == "" {
		badRequest(c, "ticker is required")
		return
	}

	h.analyze(c, services.AnalysisRequest{
		Symbol:           req.Ticker,
		Period:           req.Timeframe,
		IncludeSentiment: req.IncludeSentiment,
		NewsLimit:        req.NewsLimit,
	})
}

func (h *AnalysisHandler) analyze(c *gin.Context, req services.AnalysisRequest) {
	if req.Period != "" && !h.validPeriod(req.Period) {
		respondError(c, utils.NewInvalidInput(req.Symbol, "unsupported period "+strconv.Quote(req.Period)), req.Symbol)
		return
	}

	middleware.AddSpanAttribute(c, "stock.symbol", req.Symbol)
	result, err := h.service.Analyze(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, strings.ToUpper(req.Symbol))
		return
	}

	c.JSON(http.StatusOK, newAnalysisResponse(result))
}

// PostBatch handles POST /stocks/analyze/batch. Per-symbol failures are
// reported inline and never fail the request.
func (h *AnalysisHandler) PostBatch(c *gin.Context) {
	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	if len(req.Symbols) == 0 {
		badRequest(c, "at least one symbol is required")
		return
	}
	if len(req.Symbols) > maxBatchSymbols {
		badRequest(c, "at most "+strconv.Itoa(maxBatchSymbols)+" symbols per batch")
		return
	}
	if req.Timeframe != "" && !h.validPeriod(req.Timeframe) {
		badRequest(c, "unsupported timeframe "+strconv.Quote(req.Timeframe))
		return
	}

	entries := h.service.AnalyzeBatch(c.Request.Context(), req.Symbols, services.AnalysisRequest{
		Period:           req.Timeframe,
		IncludeSentiment: req.IncludeSentiment,
	})

	response := BatchResponse{Results: make([]BatchItem, len(entries)), Count: len(entries)}
	for i, entry := range entries {
		if entry.Err != nil {
			body := errorBody(entry.Err, strings.ToUpper(entry.Symbol))
			response.Results[i] = BatchItem{Symbol: body.Symbol, Status: "error", Error: &body}
			response.Failed++
			continue
		}
		analysis := newAnalysisResponse(entry.Result)
		response.Results[i] = BatchItem{Symbol: analysis.Symbol, Status: "success", Data: &analysis.Data}
		response.Succeeded++
	}

	c.JSON(http.StatusOK, response)
}

// GetReport handles GET /stocks/report/:symbol.
func (h *AnalysisHandler) GetReport(c *gin.Context) {
	req := services.AnalysisRequest{Symbol: c.Param("symbol"), Period: c.Query("period")}
	if req.Period != "" && !h.validPeriod(req.Period) {
		respondError(c, utils.NewInvalidInput(req.Symbol, "unsupported period "+strconv.Quote(req.Period)), req.Symbol)
		return
	}

	report, err := h.service.Report(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, strings.ToUpper(req.Symbol))
		return
	}

	c.JSON(http.StatusOK, newReportResponse(report))
}

// PostSentiment handles POST /stocks/sentiment/analyze.
func (h *AnalysisHandler) PostSentiment(c *gin.Context) {
	var req SentimentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	if len(req.Texts) == 0 {
		badRequest(c, "At least one text is required")
		return
	}

	summary, err := h.service.AnalyzeTexts(c.Request.Context(), req.Texts)
	if err != nil {
		respondError(c, err, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "success",
		"analysis": newSentimentDTO(*summary),
	})
}

// GetNews handles GET /stocks/news/:symbol.
func (h *AnalysisHandler) GetNews(c *gin.Context) {
	symbol, err := utils.NormalizeSymbol(c.Param("symbol"))
	if err != nil {
		respondError(c, err, c.Param("symbol"))
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultNewsLimit)))
	if err != nil || limit < 1 || limit > maxNewsLimit {
		badRequest(c, "limit must be between 1 and "+strconv.Itoa(maxNewsLimit))
		return
	}
	if h.news == nil {
		writeError(c, http.StatusServiceUnavailable, ErrorResponse{Error: "news source not configured", Symbol: symbol})
		return
	}

	start := time.Now()
	articles, err := h.news.FetchNews(c.Request.Context(), symbol, limit)
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"symbol": symbol,
			"error":  err.Error(),
		}).Error("Failed to fetch news")
		middleware.RecordError(c, err, "news fetch failed")
		writeError(c, http.StatusBadGateway, ErrorResponse{Error: "failed to fetch news", Symbol: symbol, Cause: err.Error()})
		return
	}
	if articles == nil {
		articles = []models.NewsArticle{}
	}

	h.logger.WithFields(logrus.Fields{
		"symbol":      symbol,
		"articles":    len(articles),
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("Served news")

	c.JSON(http.StatusOK, NewsResponse{Status: "success", Symbol: symbol, Count: len(articles), Articles: articles})
}
