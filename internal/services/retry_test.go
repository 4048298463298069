package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/stockai-go/internal/models"
	"github.com/irfndi/stockai-go/internal/utils"
)

func fastPolicy(retries int) RetryPolicy {
	return RetryPolicy{
		MaxRetries:    retries,
		InitialDelay:  time.Millisecond,
		MaxDelay:      2 * time.Millisecond,
		BackoffFactor: 2,
	}
}

func TestRetry(t *testing.T) {
	t.Run("succeeds after transient failures", func(t *testing.T) {
		attempts := 0
		err := Retry(context.Background(), fastPolicy(3), quietLogger(), "test", func(context.Context) error {
			attempts++
			if attempts < 3 {
				return errUpstream
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, attempts)
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		attempts := 0
		err := Retry(context.Background(), fastPolicy(2), quietLogger(), "test", func(context.Context) error {
			attempts++
			return errUpstream
		})
		assert.ErrorIs(t, err, errUpstream)
		assert.Equal(t, 3, attempts)
	})

	t.Run("does not retry invalid input", func(t *testing.T) {
		attempts := 0
		err := Retry(context.Background(), fastPolicy(5), quietLogger(), "test", func(context.Context) error {
			attempts++
			return utils.NewInvalidInput("X", "bad")
		})
		assert.True(t, errors.Is(err, utils.ErrInvalidInput))
		assert.Equal(t, 1, attempts)
	})

	t.Run("does not retry missing data", func(t *testing.T) {
		attempts := 0
		err := Retry(context.Background(), fastPolicy(5), quietLogger(), "test", func(context.Context) error {
			attempts++
			return utils.NewDataUnavailable("NOPE", "no price data for period 1y", nil)
		})
		assert.ErrorIs(t, err, utils.ErrDataUnavailable)
		assert.Equal(t, 1, attempts)
	})

	t.Run("stops on cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		policy := fastPolicy(5)
		policy.InitialDelay = time.Hour
		policy.MaxDelay = time.Hour

		attempts := 0
		err := Retry(ctx, policy, quietLogger(), "test", func(context.Context) error {
			attempts++
			cancel()
			return errUpstream
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, attempts)
	})
}

func TestResilientPriceSource(t *testing.T) {
	prices := new(MockPriceSource)
	bars := barsFromCloses([]float64{1, 2, 3})
	prices.On("FetchPrices", mock.Anything, "AAPL", "1y").Return(nil, errUpstream).Once()
	prices.On("FetchPrices", mock.Anything, "AAPL", "1y").Return(bars, nil).Once()

	breaker := NewCircuitBreaker("prices", CircuitBreakerConfig{FailureThreshold: 5}, quietLogger())
	source := NewResilientPriceSource(prices, breaker, fastPolicy(2), quietLogger())

	got, err := source.FetchPrices(context.Background(), "AAPL", "1y")
	require.NoError(t, err)
	assert.Equal(t, bars, got)
	prices.AssertNumberOfCalls(t, "FetchPrices", 2)
}

func TestResilientPriceSource_UnknownSymbolsKeepCircuitClosed(t *testing.T) {
	prices := new(MockPriceSource)
	bars := barsFromCloses([]float64{1, 2, 3})
	prices.On("FetchPrices", mock.Anything, "NOPE", "1y").
		Return(nil, utils.NewDataUnavailable("NOPE", "no price data for period 1y", nil))
	prices.On("FetchPrices", mock.Anything, "AAPL", "1y").Return(bars, nil)

	breaker := NewCircuitBreaker("prices", CircuitBreakerConfig{FailureThreshold: 5, Timeout: time.Hour}, quietLogger())
	source := NewResilientPriceSource(prices, breaker, fastPolicy(2), quietLogger())

	for i := 0; i < 10; i++ {
		_, err := source.FetchPrices(context.Background(), "NOPE", "1y")
		assert.ErrorIs(t, err, utils.ErrDataUnavailable)
	}
	prices.AssertNumberOfCalls(t, "FetchPrices", 10)
	assert.Equal(t, Closed, breaker.State())

	got, err := source.FetchPrices(context.Background(), "AAPL", "1y")
	require.NoError(t, err)
	assert.Equal(t, bars, got)
}

func TestResilientNewsSource(t *testing.T) {
	news := new(MockNewsSource)
	news.On("FetchNews", mock.Anything, "AAPL", 5).Return(nil, errUpstream)

	breaker := NewCircuitBreaker("news", CircuitBreakerConfig{FailureThreshold: 1, Timeout: time.Hour}, quietLogger())
	source := NewResilientNewsSource(news, breaker, fastPolicy(1), quietLogger())

	_, err := source.FetchNews(context.Background(), "AAPL", 5)
	assert.ErrorIs(t, err, errUpstream)

	_, err = source.FetchNews(context.Background(), "AAPL", 5)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	news.AssertNumberOfCalls(t, "FetchNews", 2)
}

func TestFallbackScorer(t *testing.T) {
	primary := new(MockScorer)
	primary.On("ScoreTexts", mock.Anything, []string{"Shares surge"}).Return(nil, errors.New("api down"))

	breaker := NewCircuitBreaker("llm", CircuitBreakerConfig{}, quietLogger())
	scorer := NewFallbackScorer(primary, NewKeywordScorer(), breaker, quietLogger())

	scores, err := scorer.ScoreTexts(context.Background(), []string{"Shares surge"})
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5}, scores)

	noFallback := NewFallbackScorer(primary, nil, breaker, quietLogger())
	_, err = noFallback.ScoreTexts(context.Background(), []string{"Shares surge"})
	assert.Error(t, err)
}

func TestPriceSourceFunc(t *testing.T) {
	fn := PriceSourceFunc(func(ctx context.Context, symbol, period string) ([]models.PriceBar, error) {
		return barsFromCloses([]float64{42}), nil
	})
	bars, err := fn.FetchPrices(context.Background(), "X", "1d")
	require.NoError(t, err)
	assert.Len(t, bars, 1)
}
