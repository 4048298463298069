package services

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndicatorEngine_RSI(t *testing.T) {
	engine := NewIndicatorEngine(DefaultIndicatorPeriods())

	t.Run("absent below period plus one", func(t *testing.T) {
		for n := 1; n < 15; n++ {
			assert.False(t, engine.RSI(risingCloses(n)).Present(), "n=%d", n)
		}
		assert.True(t, engine.RSI(risingCloses(15)).Present())
	})

	t.Run("all gains is 100", func(t *testing.T) {
		rsi, ok := engine.RSI(risingCloses(40)).Get()
		require.True(t, ok)
		assert.Equal(t, 100.0, rsi)
	})

	t.Run("flat series is 100", func(t *testing.T) {
		flat := make([]float64, 30)
		for i := range flat {
			flat[i] = 42
		}
		rsi, ok := engine.RSI(flat).Get()
		require.True(t, ok)
		assert.Equal(t, 100.0, rsi)
	})

	t.Run("all losses is 0", func(t *testing.T) {
		rsi, ok := engine.RSI(fallingCloses(40)).Get()
		require.True(t, ok)
		assert.InDelta(t, 0.0, rsi, 1e-9)
	})

	t.Run("balanced seed then wilder smoothing", func(t *testing.T) {
		closes := []float64{100}
		for i := 0; i < 14; i++ {
			if i%2 == 0 {
				closes = append(closes, closes[len(closes)-1]+1)
			} else {
				closes = append(closes, closes[len(closes)-1]-1)
			}
		}
		rsi, ok := engine.RSI(closes).Get()
		require.True(t, ok)
		assert.InDelta(t, 50.0, rsi, 1e-9)

		// avgGain = (0.5*13+2)/14, avgLoss = 0.5*13/14
		closes = append(closes, closes[len(closes)-1]+2)
		rsi, ok = engine.RSI(closes).Get()
		require.True(t, ok)
		assert.InDelta(t, 100-100*6.5/15, rsi, 1e-9)
	})

	t.Run("always within bounds", func(t *testing.T) {
		closes := make([]float64, 120)
		for i := range closes {
			closes[i] = 100 + 10*math.Sin(float64(i)/3) + float64(i%7)
		}
		for n := 15; n <= len(closes); n++ {
			rsi, ok := engine.RSI(closes[:n]).Get()
			require.True(t, ok)
			assert.GreaterOrEqual(t, rsi, 0.0)
			assert.LessOrEqual(t, rsi, 100.0)
		}
	})
}

func TestIndicatorEngine_MovingAverage(t *testing.T) {
	engine := NewIndicatorEngine(DefaultIndicatorPeriods())

	assert.False(t, engine.MovingAverage(risingCloses(19)).Present())

	closes := risingCloses(35)
	ma, ok := engine.MovingAverage(closes).Get()
	require.True(t, ok)

	var sum float64
	for _, c := range closes[len(closes)-20:] {
		sum += c
	}
	assert.InDelta(t, sum/20, ma, 1e-6)
}

func TestIndicatorEngine_MACD(t *testing.T) {
	engine := NewIndicatorEngine(DefaultIndicatorPeriods())

	assert.False(t, engine.MACD(risingCloses(25)).Present())
	assert.True(t, engine.MACD(risingCloses(26)).Present())

	macd, ok := engine.MACD(risingCloses(60)).Get()
	require.True(t, ok)
	assert.Greater(t, macd, 0.0)

	macd, ok = engine.MACD(fallingCloses(60)).Get()
	require.True(t, ok)
	assert.Less(t, macd, 0.0)

	flat := make([]float64, 40)
	for i := range flat {
		flat[i] = 50
	}
	macd, ok = engine.MACD(flat).Get()
	require.True(t, ok)
	assert.InDelta(t, 0.0, macd, 1e-12)
}

func TestIndicatorEngine_Compute(t *testing.T) {
	engine := NewIndicatorEngine(DefaultIndicatorPeriods())

	tests := []struct {
		name     string
		n        int
		wantRSI  bool
		wantMA   bool
		wantMACD bool
	}{
		{"single close", 1, false, false, false},
		{"rsi only", 15, true, false, false},
		{"rsi and ma", 20, true, true, false},
		{"all indicators", 26, true, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := engine.Compute(risingCloses(tt.n))
			assert.Equal(t, tt.wantRSI, set.RSI.Present())
			assert.Equal(t, tt.wantMA, set.MA20.Present())
			assert.Equal(t, tt.wantMACD, set.MACD.Present())
		})
	}
}

func TestIndicatorEngine_NonFiniteInputBecomesAbsent(t *testing.T) {
	engine := NewIndicatorEngine(DefaultIndicatorPeriods())
	closes := risingCloses(30)
	closes[29] = math.Inf(1)

	set := engine.Compute(closes)
	assert.False(t, set.RSI.Present())
	assert.False(t, set.MA20.Present())
	assert.False(t, set.MACD.Present())
}

func TestIndicatorEngine_CustomPeriods(t *testing.T) {
	engine := NewIndicatorEngine(IndicatorPeriods{RSI: 5, MA: 3, MACDFast: 2, MACDSlow: 4})

	set := engine.Compute([]float64{1, 2, 3, 4, 5, 6})
	assert.True(t, set.RSI.Present())
	ma, ok := set.MA20.Get()
	require.True(t, ok)
	assert.InDelta(t, 5.0, ma, 1e-9)
	// EMA2 seeds at 1.5 and ends at 5.5; EMA4 seeds at 2.5 and ends at 4.5.
	macd, ok := set.MACD.Get()
	require.True(t, ok)
	assert.InDelta(t, 1.0, macd, 1e-9)
}
