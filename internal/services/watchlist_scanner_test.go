package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/stockai-go/internal/models"
)

func scannerPrices() PriceSource {
	return PriceSourceFunc(func(ctx context.Context, symbol, period string) ([]models.PriceBar, error) {
		switch symbol {
		case "UP":
			return barsFromCloses(risingCloses(60)), nil
		case "DOWN":
			return barsFromCloses(fallingCloses(60)), nil
		case "FLAT":
			return barsFromCloses([]float64{10}), nil
		default:
			return nil, errors.New("no data")
		}
	})
}

func TestWatchlistScanner_RunOnce(t *testing.T) {
	lister := new(MockSymbolLister)
	notifier := new(MockNotifier)
	lister.On("AllSymbols", mock.Anything).Return([]string{"DOWN", "FLAT", "GONE", "UP"}, nil)
	notifier.On("NotifySignals", mock.Anything, mock.MatchedBy(func(results []*models.AnalysisResult) bool {
		return len(results) == 2
	})).Return(nil)

	svc := newTestService(scannerPrices(), nil, nil, nil)
	scanner := NewWatchlistScanner(svc, lister, notifier, quietLogger(), nil, WatchlistScannerConfig{
		StaticSymbols: []string{"UP"},
		MinConfidence: 0.7,
	})

	summary := scanner.RunOnce(context.Background())
	require.NotNil(t, summary)

	assert.Equal(t, 4, summary.Symbols)
	assert.Equal(t, 1, summary.Failures)
	require.Len(t, summary.Signals, 2)

	actions := map[string]models.Action{}
	for _, r := range summary.Signals {
		actions[r.Symbol] = r.Decision.Action
	}
	assert.Equal(t, models.ActionSell, actions["UP"])
	assert.Equal(t, models.ActionBuy, actions["DOWN"])

	assert.Same(t, summary, scanner.LastScan())
	lister.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestWatchlistScanner_ListerFailureUsesStaticSymbols(t *testing.T) {
	lister := new(MockSymbolLister)
	lister.On("AllSymbols", mock.Anything).Return(nil, errors.New("redis unavailable"))

	svc := newTestService(scannerPrices(), nil, nil, nil)
	scanner := NewWatchlistScanner(svc, lister, nil, quietLogger(), nil, WatchlistScannerConfig{
		StaticSymbols: []string{"FLAT"},
	})

	summary := scanner.RunOnce(context.Background())
	require.NotNil(t, summary)
	assert.Equal(t, 1, summary.Symbols)
	assert.Empty(t, summary.Signals)
}

func TestWatchlistScanner_MinConfidenceFiltersSignals(t *testing.T) {
	notifier := new(MockNotifier)

	svc := newTestService(scannerPrices(), nil, nil, nil)
	scanner := NewWatchlistScanner(svc, nil, notifier, quietLogger(), nil, WatchlistScannerConfig{
		StaticSymbols: []string{"UP", "DOWN"},
		MinConfidence: 0.85,
	})

	summary := scanner.RunOnce(context.Background())
	assert.Empty(t, summary.Signals)
	notifier.AssertNotCalled(t, "NotifySignals", mock.Anything, mock.Anything)
}

func TestWatchlistScanner_StartRejectsBadSchedule(t *testing.T) {
	svc := newTestService(scannerPrices(), nil, nil, nil)
	scanner := NewWatchlistScanner(svc, nil, nil, quietLogger(), nil, WatchlistScannerConfig{Schedule: "not a schedule"})

	err := scanner.Start(context.Background())
	assert.Error(t, err)
}

func TestWatchlistScanner_StartStop(t *testing.T) {
	svc := newTestService(scannerPrices(), nil, nil, nil)
	scanner := NewWatchlistScanner(svc, nil, nil, quietLogger(), nil, WatchlistScannerConfig{Schedule: "@every 1h"})

	require.NoError(t, scanner.Start(context.Background()))
	scanner.Stop()
	assert.Nil(t, scanner.LastScan())
}
