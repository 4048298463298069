package services

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/irfndi/stockai-go/internal/logging"
	"github.com/irfndi/stockai-go/internal/models"
	"github.com/irfndi/stockai-go/internal/telemetry"
	"github.com/irfndi/stockai-go/internal/utils"
)

const (
	defaultPeriod           = "1y"
	defaultNewsLimit        = 5
	maxNewsLimit            = 20
	defaultBatchConcurrency = 4
)

// AnalysisRequest describes one symbol analysis.
type AnalysisRequest struct {
	Symbol           string
	Period           string
	IncludeSentiment bool
	NewsLimit        int
}

// BatchEntry is the outcome for one symbol of AnalyzeBatch. Exactly one of
// Result and Err is set.
type BatchEntry struct {
	Symbol string
	Result *models.AnalysisResult
	Err    error
}

// AnalysisServiceConfig wires an AnalysisService. Only Prices is required.
type AnalysisServiceConfig struct {
	Prices           PriceSource
	News             NewsSource
	Scorer           PolarityScorer
	Recorder         AnalysisRecorder
	Indicators       *IndicatorEngine
	Aggregator       *SentimentAggregator
	Decisions        *DecisionEngine
	Logger           *logrus.Logger
	Events           *logging.Logger
	DefaultPeriod    string
	DefaultNewsLimit int
	BatchConcurrency int
}

// AnalysisService runs the indicator, sentiment and decision pipeline for a symbol.
type AnalysisService struct {
	prices     PriceSource
	news       NewsSource
	scorer     PolarityScorer
	recorder   AnalysisRecorder
	indicators *IndicatorEngine
	aggregator *SentimentAggregator
	decisions  *DecisionEngine
	logger     *logrus.Logger
	events     *logging.Logger
	tracer     trace.Tracer

	defaultPeriod    string
	defaultNewsLimit int
	batchConcurrency int
	now              func() time.Time
}

// NewAnalysisService creates a service, filling unset engines with defaults.
func NewAnalysisService(cfg AnalysisServiceConfig) *AnalysisService {
	s := &AnalysisService{
		prices:           cfg.Prices,
		news:             cfg.News,
		scorer:           cfg.Scorer,
		recorder:         cfg.Recorder,
		indicators:       cfg.Indicators,
		aggregator:       cfg.Aggregator,
		decisions:        cfg.Decisions,
		logger:           cfg.Logger,
		events:           cfg.Events,
		tracer:           telemetry.GetAnalysisTracer(),
		defaultPeriod:    cfg.DefaultPeriod,
		defaultNewsLimit: cfg.DefaultNewsLimit,
		batchConcurrency: cfg.BatchConcurrency,
		now:              time.Now,
	}
	if s.indicators == nil {
		s.indicators = NewIndicatorEngine(DefaultIndicatorPeriods())
	}
	if s.aggregator == nil {
		s.aggregator = NewSentimentAggregator(DefaultSentimentDeadZone)
	}
	if s.decisions == nil {
		s.decisions = NewDecisionEngine(DefaultDecisionPolicy())
	}
	if s.logger == nil {
		s.logger = logrus.New()
	}
	if s.defaultPeriod == "" {
		s.defaultPeriod = defaultPeriod
	}
	if s.defaultNewsLimit <= 0 {
		s.defaultNewsLimit = defaultNewsLimit
	}
	if s.batchConcurrency <= 0 {
		s.batchConcurrency = defaultBatchConcurrency
	}
	return s
}

// SentimentEnabled reports whether news and a scorer are wired.
func (s *AnalysisService) SentimentEnabled() bool {
	return s.news != nil && s.scorer != nil
}

// Evaluate is the pure core: indicators from bars, then a decision blended
// with the optional sentiment. It performs no I/O.
func (s *AnalysisService) Evaluate(symbol string, bars []models.PriceBar, sentiment models.Optional[models.SentimentSummary]) (*models.AnalysisResult, error) {
	if len(bars) == 0 {
		return nil, utils.NewDataUnavailable(symbol, "price series is empty", nil)
	}

	closes := models.Closes(bars)
	current := closes[len(closes)-1]
	if math.IsNaN(current) || math.IsInf(current, 0) {
		return nil, utils.NewDataUnavailable(symbol, "latest close is not a finite number", nil)
	}

	indicators := s.indicators.Compute(closes)
	decision := s.decisions.Decide(indicators, sentiment)

	status := models.SentimentNotRequested
	if sentiment.Present() {
		status = models.SentimentIncluded
	}

	return &models.AnalysisResult{
		Symbol:             symbol,
		CurrentPrice:       current,
		Indicators:         indicators,
		Decision:           decision,
		Sentiment:          sentiment,
		SentimentStatus:    status,
		PriceHistoryLength: len(bars),
		AnalyzedAt:         s.now().UTC(),
	}, nil
}

// SummarizeSentiment aggregates precomputed scores for texts.
func (s *AnalysisService) SummarizeSentiment(texts []string, scores []float64) (*models.SentimentSummary, error) {
	return s.aggregator.Summarize(texts, scores)
}

// AnalyzeTexts scores free texts with the configured scorer and summarizes them.
func (s *AnalysisService) AnalyzeTexts(ctx context.Context, texts []string) (*models.SentimentSummary, error) {
	if len(texts) == 0 {
		return nil, utils.NewInvalidInput("", "at least one text is required for sentiment analysis")
	}
	if s.scorer == nil {
		return nil, utils.NewSentimentUnavailable("", "no sentiment scorer configured", nil)
	}

	scores, err := s.scorer.ScoreTexts(ctx, texts)
	if err != nil {
		return nil, utils.NewSentimentUnavailable("", "polarity scoring failed", err)
	}
	summary, err := s.aggregator.Summarize(texts, scores)
	if err != nil {
		return nil, utils.NewSentimentUnavailable("", "sentiment aggregation failed", err)
	}
	return summary, nil
}

// Analyze fetches prices and, when requested, news sentiment for one symbol.
// A price failure is fatal. A sentiment failure is logged and the result is
// returned technical-only with SentimentStatus "unavailable".
func (s *AnalysisService) Analyze(ctx context.Context, req AnalysisRequest) (*models.AnalysisResult, error) {
	start := s.now()

	symbol, err := utils.NormalizeSymbol(req.Symbol)
	if err != nil {
		return nil, err
	}
	period := req.Period
	if period == "" {
		period = s.defaultPeriod
	}

	ctx, span := s.tracer.Start(ctx, "AnalysisService.Analyze", trace.WithAttributes(
		attribute.String("symbol", symbol),
		attribute.String("period", period),
		attribute.Bool("include_sentiment", req.IncludeSentiment),
	))
	defer span.End()

	log := s.logger.WithFields(logrus.Fields{"symbol": symbol, "period": period})

	bars, err := s.prices.FetchPrices(ctx, symbol, period)
	if err != nil {
		err = asDataUnavailable(symbol, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "price fetch failed")
		log.WithError(err).Error("Failed to fetch price history")
		return nil, err
	}

	sentiment := models.None[models.SentimentSummary]()
	var sentimentErr error
	if req.IncludeSentiment {
		summary, err := s.fetchSentiment(ctx, symbol, s.newsLimit(req.NewsLimit))
		if err != nil {
			sentimentErr = err
			span.AddEvent("sentiment unavailable", trace.WithAttributes(attribute.String("error", err.Error())))
			log.WithError(err).Warn("Sentiment unavailable, continuing with technical analysis only")
		} else {
			sentiment = models.Some(*summary)
		}
	}

	result, err := s.Evaluate(symbol, bars, sentiment)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "evaluation failed")
		return nil, err
	}
	result.Period = period
	if sentimentErr != nil {
		result.SentimentStatus = models.SentimentUnavailable
		result.SentimentError = sentimentErr.Error()
	}

	span.SetAttributes(
		attribute.String("decision.action", string(result.Decision.Action)),
		attribute.Float64("decision.confidence", result.Decision.Confidence),
		attribute.String("sentiment.status", string(result.SentimentStatus)),
	)

	if s.recorder != nil {
		if err := s.recorder.Record(ctx, result); err != nil {
			log.WithError(err).Warn("Failed to record analysis result")
		}
	}

	if s.events != nil {
		s.events.LogAnalysis(symbol, string(result.Decision.Action), result.Decision.Confidence,
			string(result.SentimentStatus), s.now().Sub(start))
	}

	log.WithFields(logrus.Fields{
		"action":      result.Decision.Action,
		"confidence":  result.Decision.Confidence,
		"data_points": result.PriceHistoryLength,
		"sentiment":   result.SentimentStatus,
		"duration_ms": s.now().Sub(start).Milliseconds(),
	}).Info("Analysis completed")

	return result, nil
}

// AnalyzeBatch analyzes symbols concurrently with bounded parallelism. One
// symbol failing never cancels the others; entries keep the input order.
func (s *AnalysisService) AnalyzeBatch(ctx context.Context, symbols []string, req AnalysisRequest) []BatchEntry {
	entries := make([]BatchEntry, len(symbols))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.batchConcurrency)
	for i, symbol := range symbols {
		g.Go(func() error {
			r := req
			r.Symbol = symbol
			result, err := s.Analyze(gctx, r)
			entries[i] = BatchEntry{Symbol: symbol, Result: result, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return entries
}

func (s *AnalysisService) fetchSentiment(ctx context.Context, symbol string, limit int) (*models.SentimentSummary, error) {
	if !s.SentimentEnabled() {
		return nil, utils.NewSentimentUnavailable(symbol, "no news source or scorer configured", nil)
	}

	articles, err := s.news.FetchNews(ctx, symbol, limit)
	if err != nil {
		return nil, utils.NewSentimentUnavailable(symbol, "news fetch failed", err)
	}
	if len(articles) == 0 {
		return nil, utils.NewSentimentUnavailable(symbol, "no recent news articles", nil)
	}

	texts := make([]string, len(articles))
	for i, a := range articles {
		texts[i] = a.ScorerInput()
	}

	scores, err := s.scorer.ScoreTexts(ctx, texts)
	if err != nil {
		return nil, utils.NewSentimentUnavailable(symbol, "polarity scoring failed", err)
	}

	summary, err := s.aggregator.Summarize(texts, scores)
	if err != nil {
		return nil, utils.NewSentimentUnavailable(symbol, "sentiment aggregation failed", err)
	}
	return summary, nil
}

func (s *AnalysisService) newsLimit(requested int) int {
	switch {
	case requested <= 0:
		return s.defaultNewsLimit
	case requested > maxNewsLimit:
		return maxNewsLimit
	default:
		return requested
	}
}

// asDataUnavailable keeps typed errors from the source and wraps the rest.
func asDataUnavailable(symbol string, err error) error {
	if errors.Is(err, utils.ErrDataUnavailable) || errors.Is(err, utils.ErrInvalidInput) {
		return err
	}
	return utils.NewDataUnavailable(symbol, "price fetch failed", err)
}
