package services

import (
	"context"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"

	"github.com/irfndi/stockai-go/internal/models"
)

type MockPriceSource struct {
	mock.Mock
}

func (m *MockPriceSource) FetchPrices(ctx context.Context, symbol, period string) ([]models.PriceBar, error) {
	args := m.Called(ctx, symbol, period)
	bars, _ := args.Get(0).([]models.PriceBar)
	return bars, args.Error(1)
}

type MockNewsSource struct {
	mock.Mock
}

func (m *MockNewsSource) FetchNews(ctx context.Context, symbol string, limit int) ([]models.NewsArticle, error) {
	args := m.Called(ctx, symbol, limit)
	articles, _ := args.Get(0).([]models.NewsArticle)
	return articles, args.Error(1)
}

type MockScorer struct {
	mock.Mock
}

func (m *MockScorer) ScoreTexts(ctx context.Context, texts []string) ([]float64, error) {
	args := m.Called(ctx, texts)
	scores, _ := args.Get(0).([]float64)
	return scores, args.Error(1)
}

type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) Record(ctx context.Context, result *models.AnalysisResult) error {
	args := m.Called(ctx, result)
	return args.Error(0)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifySignals(ctx context.Context, results []*models.AnalysisResult) error {
	args := m.Called(ctx, results)
	return args.Error(0)
}

type MockSymbolLister struct {
	mock.Mock
}

func (m *MockSymbolLister) AllSymbols(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	symbols, _ := args.Get(0).([]string)
	return symbols, args.Error(1)
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// barsFromCloses builds daily bars ending today from closing prices.
func barsFromCloses(closes []float64) []models.PriceBar {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]models.PriceBar, len(closes))
	for i, c := range closes {
		bars[i] = models.PriceBar{
			Date:   start.AddDate(0, 0, i),
			Open:   c,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Volume: 1_000_000,
		}
	}
	return bars
}

func risingCloses(n int) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	return closes
}

func fallingCloses(n int) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = 200 - float64(i)
	}
	return closes
}
