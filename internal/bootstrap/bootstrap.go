// Package bootstrap builds the analysis pipeline shared by the server and the CLI.
package bootstrap

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/irfndi/stockai-go/internal/config"
	"github.com/irfndi/stockai-go/internal/llm"
	"github.com/irfndi/stockai-go/internal/logging"
	"github.com/irfndi/stockai-go/internal/marketdata"
	"github.com/irfndi/stockai-go/internal/services"
)

// MarketSources builds the Yahoo price and news sources behind retry and
// circuit breakers.
func MarketSources(cfg *config.Config, logger *logrus.Logger) (services.PriceSource, services.NewsSource) {
	timeout := config.Duration(cfg.MarketData.Timeout, 15*time.Second)
	policy := services.DefaultRetryPolicy(cfg.MarketData.MaxRetries)

	prices := services.NewResilientPriceSource(
		marketdata.NewYahooPriceSource(logger),
		services.NewCircuitBreaker("yahoo_prices", services.CircuitBreakerConfig{}, logger),
		policy, logger)
	news := services.NewResilientNewsSource(
		marketdata.NewYahooNewsSource(cfg.MarketData.NewsBaseURL, timeout, logger),
		services.NewCircuitBreaker("yahoo_news", services.CircuitBreakerConfig{}, logger),
		policy, logger)
	return prices, news
}

// Scorer returns the configured polarity scorer and whether it is LLM
// backed. The Anthropic scorer always falls back to keyword scoring.
func Scorer(cfg config.LLMConfig, logger *logrus.Logger) (services.PolarityScorer, bool) {
	keyword := services.NewKeywordScorer()
	if cfg.Provider != "anthropic" {
		return keyword, false
	}

	scorer, err := llm.NewAnthropicScorer(llm.Config{
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
		Timeout:     config.Duration(cfg.Timeout, 30*time.Second),
	}, logger)
	if err != nil {
		logger.WithError(err).Warn("Anthropic scorer unavailable, using keyword scorer")
		return keyword, false
	}

	breaker := services.NewCircuitBreaker("anthropic", services.CircuitBreakerConfig{
		FailureThreshold: 3,
		Timeout:          time.Minute,
	}, logger)
	return services.NewFallbackScorer(scorer, keyword, breaker, logger), true
}

// Pipeline holds the optional collaborators of an AnalysisService.
type Pipeline struct {
	Prices   services.PriceSource
	News     services.NewsSource
	Scorer   services.PolarityScorer
	Recorder services.AnalysisRecorder
}

// AnalysisService wires an AnalysisService with engines configured from cfg.
func AnalysisService(cfg *config.Config, p Pipeline, logger *logrus.Logger, events *logging.Logger) *services.AnalysisService {
	return services.NewAnalysisService(services.AnalysisServiceConfig{
		Prices:           p.Prices,
		News:             p.News,
		Scorer:           p.Scorer,
		Recorder:         p.Recorder,
		Indicators:       services.NewIndicatorEngine(services.IndicatorPeriodsFromConfig(cfg.Analysis)),
		Aggregator:       services.NewSentimentAggregator(cfg.Sentiment.DeadZone),
		Decisions:        services.NewDecisionEngine(services.DecisionPolicyFromConfig(cfg.Decision)),
		Logger:           logger,
		Events:           events,
		DefaultPeriod:    cfg.MarketData.DefaultPeriod,
		DefaultNewsLimit: cfg.MarketData.NewsLimit,
		BatchConcurrency: cfg.Watchlist.MaxConcurrency,
	})
}
