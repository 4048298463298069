package marketdata

import (
	"context"
	"fmt"
	"sort"
	"time"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/sirupsen/logrus"

	"github.com/irfndi/stockai-go/internal/models"
	"github.com/irfndi/stockai-go/internal/utils"
)

// chartFetcher returns raw daily bars for symbol between start and end.
type chartFetcher func(symbol string, start, end time.Time) ([]*finance.ChartBar, error)

// YahooPriceSource fetches daily bars from the Yahoo Finance chart API.
type YahooPriceSource struct {
	fetch  chartFetcher
	logger *logrus.Logger
	now    func() time.Time
}

// NewYahooPriceSource creates a price source backed by finance-go.
func NewYahooPriceSource(logger *logrus.Logger) *YahooPriceSource {
	return &YahooPriceSource{
		fetch:  fetchChart,
		logger: logger,
		now:    time.Now,
	}
}

// FetchPrices implements services.PriceSource. Bars without a positive close
// are dropped; the result is ascending by date.
func (y *YahooPriceSource) FetchPrices(ctx context.Context, symbol, period string) ([]models.PriceBar, error) {
	end := y.now()
	start, err := periodStart(period, end)
	if err != nil {
		return nil, utils.NewInvalidInput(symbol, err.Error())
	}

	type outcome struct {
		bars []*finance.ChartBar
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		bars, err := y.fetch(symbol, start, end)
		done <- outcome{bars, err}
	}()

	var raw []*finance.ChartBar
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case out := <-done:
		if out.err != nil {
			return nil, fmt.Errorf("failed to get historical data for %s: %w", symbol, out.err)
		}
		raw = out.bars
	}

	bars := make([]models.PriceBar, 0, len(raw))
	for _, b := range raw {
		if bar, ok := barFromChart(b); ok {
			bars = append(bars, bar)
		}
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })

	if len(bars) == 0 {
		return nil, utils.NewDataUnavailable(symbol, fmt.Sprintf("no price data for period %s", period), nil)
	}

	y.logger.WithFields(logrus.Fields{
		"symbol": symbol,
		"period": period,
		"bars":   len(bars),
	}).Debug("Fetched price history")

	return bars, nil
}

func fetchChart(symbol string, start, end time.Time) ([]*finance.ChartBar, error) {
	params := &chart.Params{
		Symbol:   symbol,
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
		Interval: datetime.OneDay,
	}

	iter := chart.Get(params)
	var bars []*finance.ChartBar
	for iter.Next() {
		bars = append(bars, iter.Bar())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return bars, nil
}

func barFromChart(b *finance.ChartBar) (models.PriceBar, bool) {
	if b == nil || !b.Close.IsPositive() {
		return models.PriceBar{}, false
	}
	return models.PriceBar{
		Date:   time.Unix(int64(b.Timestamp), 0).UTC(),
		Open:   b.Open.InexactFloat64(),
		High:   b.High.InexactFloat64(),
		Low:    b.Low.InexactFloat64(),
		Close:  b.Close.InexactFloat64(),
		Volume: int64(b.Volume),
	}, true
}
