package models

// IndicatorSet is the latest value of each indicator. A field is absent when
// the series was too short to compute it.
type IndicatorSet struct {
	RSI  Optional[float64] `json:"rsi"`
	MA20 Optional[float64] `json:"ma20"`
	MACD Optional[float64] `json:"macd"`
}
