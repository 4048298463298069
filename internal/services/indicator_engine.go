package services

import (
	"math"

	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/momentum"
	"github.com/cinar/indicator/v2/trend"

	"github.com/irfndi/stockai-go/internal/config"
	"github.com/irfndi/stockai-go/internal/models"
)

// IndicatorPeriods configures the lookback of each indicator.
type IndicatorPeriods struct {
	RSI      int
	MA       int
	MACDFast int
	MACDSlow int
}

// DefaultIndicatorPeriods returns RSI(14), SMA(20) and MACD(12,26).
func DefaultIndicatorPeriods() IndicatorPeriods {
	return IndicatorPeriods{RSI: 14, MA: 20, MACDFast: 12, MACDSlow: 26}
}

// IndicatorPeriodsFromConfig reads periods from the analysis config section.
func IndicatorPeriodsFromConfig(cfg config.AnalysisConfig) IndicatorPeriods {
	return IndicatorPeriods{
		RSI:      cfg.RSIPeriod,
		MA:       cfg.MAPeriod,
		MACDFast: cfg.MACDFast,
		MACDSlow: cfg.MACDSlow,
	}
}

// IndicatorEngine computes the latest RSI, moving average and MACD of a close series.
// It holds no mutable state and is safe for concurrent use.
type IndicatorEngine struct {
	periods IndicatorPeriods
}

// NewIndicatorEngine creates an engine with the given periods.
func NewIndicatorEngine(periods IndicatorPeriods) *IndicatorEngine {
	return &IndicatorEngine{periods: periods}
}

// Compute returns the indicator values at the last close. Histories that are
// too short leave the affected field absent; it never fails.
func (e *IndicatorEngine) Compute(closes []float64) models.IndicatorSet {
	return models.IndicatorSet{
		RSI:  e.RSI(closes),
		MA20: e.MovingAverage(closes),
		MACD: e.MACD(closes),
	}
}

// RSI computes Wilder's relative strength index. It needs period+1 closes:
// the first period changes seed the averages, later changes are smoothed.
func (e *IndicatorEngine) RSI(closes []float64) models.Optional[float64] {
	period := e.periods.RSI
	if period < 1 || len(closes) < period+1 || !allFinite(closes) {
		return models.None[float64]()
	}

	rsi := momentum.NewRsiWithPeriod[float64](period)
	value, ok := lastValue(rsi.Compute(helper.SliceToChan(closes)))
	if !ok {
		return models.None[float64]()
	}
	// Both averages are zero on a flat window; with no losses RSI reads 100.
	if math.IsNaN(value) {
		return finite(100)
	}
	return finite(value)
}

// MovingAverage is the simple mean of the last MA closes.
func (e *IndicatorEngine) MovingAverage(closes []float64) models.Optional[float64] {
	period := e.periods.MA
	if period < 1 || len(closes) < period {
		return models.None[float64]()
	}

	sma := trend.NewSmaWithPeriod[float64](period)
	value, ok := lastValue(sma.Compute(helper.SliceToChan(closes)))
	if !ok {
		return models.None[float64]()
	}
	return finite(value)
}

// MACD is EMA(fast) minus EMA(slow) at the last close. Both EMAs are seeded
// with the SMA of their first span.
func (e *IndicatorEngine) MACD(closes []float64) models.Optional[float64] {
	fast, slow := e.periods.MACDFast, e.periods.MACDSlow
	if fast < 1 || slow <= fast || len(closes) < slow {
		return models.None[float64]()
	}

	fastEMA, ok := lastValue(trend.NewEmaWithPeriod[float64](fast).Compute(helper.SliceToChan(closes)))
	if !ok {
		return models.None[float64]()
	}
	slowEMA, ok := lastValue(trend.NewEmaWithPeriod[float64](slow).Compute(helper.SliceToChan(closes)))
	if !ok {
		return models.None[float64]()
	}
	return finite(fastEMA - slowEMA)
}

func lastValue(values <-chan float64) (float64, bool) {
	s := helper.ChanToSlice(values)
	if len(s) == 0 {
		return 0, false
	}
	return s[len(s)-1], true
}

func allFinite(values []float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func finite(v float64) models.Optional[float64] {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return models.None[float64]()
	}
	return models.Some(v)
}
