package services

import (
	"context"

	"github.com/irfndi/stockai-go/internal/models"
)

// PriceSource fetches daily bars for a symbol, ascending by date.
type PriceSource interface {
	FetchPrices(ctx context.Context, symbol, period string) ([]models.PriceBar, error)
}

// NewsSource fetches recent headlines for a symbol.
type NewsSource interface {
	FetchNews(ctx context.Context, symbol string, limit int) ([]models.NewsArticle, error)
}

// PolarityScorer maps each text to a polarity score in [-1, 1].
// The returned slice pairs 1:1 with the input.
type PolarityScorer interface {
	ScoreTexts(ctx context.Context, texts []string) ([]float64, error)
}

// AnalysisRecorder persists completed analyses.
type AnalysisRecorder interface {
	Record(ctx context.Context, result *models.AnalysisResult) error
}

// PriceSourceFunc adapts a function to PriceSource.
type PriceSourceFunc func(ctx context.Context, symbol, period string) ([]models.PriceBar, error)

// FetchPrices calls f.
func (f PriceSourceFunc) FetchPrices(ctx context.Context, symbol, period string) ([]models.PriceBar, error) {
	return f(ctx, symbol, period)
}

// NewsSourceFunc adapts a function to NewsSource.
type NewsSourceFunc func(ctx context.Context, symbol string, limit int) ([]models.NewsArticle, error)

// FetchNews calls f.
func (f NewsSourceFunc) FetchNews(ctx context.Context, symbol string, limit int) ([]models.NewsArticle, error) {
	return f(ctx, symbol, limit)
}
