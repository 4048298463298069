package bootstrap

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/stockai-go/internal/config"
	"github.com/irfndi/stockai-go/internal/models"
	"github.com/irfndi/stockai-go/internal/services"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestScorer(t *testing.T) {
	scorer, llmBacked := Scorer(config.LLMConfig{Provider: "keyword"}, quietLogger())
	assert.IsType(t, &services.KeywordScorer{}, scorer)
	assert.False(t, llmBacked)

	scorer, llmBacked = Scorer(config.LLMConfig{Provider: "anthropic"}, quietLogger())
	assert.IsType(t, &services.KeywordScorer{}, scorer, "missing key falls back to keywords")
	assert.False(t, llmBacked)

	scorer, llmBacked = Scorer(config.LLMConfig{Provider: "anthropic", APIKey: "sk-test"}, quietLogger())
	assert.IsType(t, &services.FallbackScorer{}, scorer)
	assert.True(t, llmBacked)
}

func TestMarketSources(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	prices, news := MarketSources(cfg, quietLogger())
	assert.IsType(t, &services.ResilientPriceSource{}, prices)
	assert.IsType(t, &services.ResilientNewsSource{}, news)
}

func TestAnalysisService_UsesConfiguredPolicy(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)
	cfg.MarketData.DefaultPeriod = "6mo"
	cfg.Analysis.MAPeriod = 5

	var gotPeriod string
	prices := services.PriceSourceFunc(func(_ context.Context, _, period string) ([]models.PriceBar, error) {
		gotPeriod = period
		start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		bars := make([]models.PriceBar, 8)
		for i := range bars {
			bars[i] = models.PriceBar{Date: start.AddDate(0, 0, i), Close: 10 + float64(i)}
		}
		return bars, nil
	})

	svc := AnalysisService(cfg, Pipeline{Prices: prices}, quietLogger(), nil)
	result, err := svc.Analyze(context.Background(), services.AnalysisRequest{Symbol: "IBM"})
	require.NoError(t, err)

	assert.Equal(t, "6mo", gotPeriod)
	ma, ok := result.Indicators.MA20.Get()
	require.True(t, ok, "five-bar moving average needs only eight closes")
	assert.InDelta(t, 15.0, ma, 1e-9)
	assert.False(t, result.Indicators.RSI.Present())
}
