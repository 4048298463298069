package services

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/irfndi/stockai-go/internal/models"
)

// ResilientPriceSource wraps a PriceSource with retries behind a circuit breaker.
type ResilientPriceSource struct {
	next    PriceSource
	breaker *CircuitBreaker
	policy  RetryPolicy
	logger  *logrus.Logger
}

// NewResilientPriceSource creates the wrapper.
func NewResilientPriceSource(next PriceSource, breaker *CircuitBreaker, policy RetryPolicy, logger *logrus.Logger) *ResilientPriceSource {
	return &ResilientPriceSource{next: next, breaker: breaker, policy: policy, logger: logger}
}

// FetchPrices implements PriceSource.
func (r *ResilientPriceSource) FetchPrices(ctx context.Context, symbol, period string) ([]models.PriceBar, error) {
	var bars []models.PriceBar
	err := r.breaker.Execute(ctx, func(ctx context.Context) error {
		return Retry(ctx, r.policy, r.logger, "fetch_prices", func(ctx context.Context) error {
			var err error
			bars, err = r.next.FetchPrices(ctx, symbol, period)
			return err
		})
	})
	return bars, err
}

// ResilientNewsSource wraps a NewsSource with retries behind a circuit breaker.
type ResilientNewsSource struct {
	next    NewsSource
	breaker *CircuitBreaker
	policy  RetryPolicy
	logger  *logrus.Logger
}

// NewResilientNewsSource creates the wrapper.
func NewResilientNewsSource(next NewsSource, breaker *CircuitBreaker, policy RetryPolicy, logger *logrus.Logger) *ResilientNewsSource {
	return &ResilientNewsSource{next: next, breaker: breaker, policy: policy, logger: logger}
}

// FetchNews implements NewsSource.
func (r *ResilientNewsSource) FetchNews(ctx context.Context, symbol string, limit int) ([]models.NewsArticle, error) {
	var articles []models.NewsArticle
	err := r.breaker.Execute(ctx, func(ctx context.Context) error {
		return Retry(ctx, r.policy, r.logger, "fetch_news", func(ctx context.Context) error {
			var err error
			articles, err = r.next.FetchNews(ctx, symbol, limit)
			return err
		})
	})
	return articles, err
}

// FallbackScorer tries the primary scorer behind a breaker and falls back
// to a secondary scorer (usually the keyword scorer) when it fails.
type FallbackScorer struct {
	primary   PolarityScorer
	secondary PolarityScorer
	breaker   *CircuitBreaker
	logger    *logrus.Logger
}

// NewFallbackScorer creates the wrapper. A nil secondary disables fallback.
func NewFallbackScorer(primary, secondary PolarityScorer, breaker *CircuitBreaker, logger *logrus.Logger) *FallbackScorer {
	return &FallbackScorer{primary: primary, secondary: secondary, breaker: breaker, logger: logger}
}

// ScoreTexts implements PolarityScorer.
func (f *FallbackScorer) ScoreTexts(ctx context.Context, texts []string) ([]float64, error) {
	var scores []float64
	err := f.breaker.Execute(ctx, func(ctx context.Context) error {
		var err error
		scores, err = f.primary.ScoreTexts(ctx, texts)
		return err
	})
	if err == nil {
		return scores, nil
	}
	if f.secondary == nil {
		return nil, err
	}

	f.logger.WithFields(logrus.Fields{
		"texts": len(texts),
		"error": err.Error(),
	}).Warn("Primary sentiment scorer failed, using fallback scorer")
	return f.secondary.ScoreTexts(ctx, texts)
}
