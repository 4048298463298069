package marketdata

import (
	"time"

	"github.com/irfndi/stockai-go/internal/utils"
)

// periodStart maps a Yahoo-style range ("6mo", "1y", "ytd") to the first day
// to request, relative to now.
func periodStart(period string, now time.Time) (time.Time, error) {
	switch period {
	case "1d":
		return now.AddDate(0, 0, -1), nil
	case "5d":
		return now.AddDate(0, 0, -5), nil
	case "1mo":
		return now.AddDate(0, -1, 0), nil
	case "3mo":
		return now.AddDate(0, -3, 0), nil
	case "6mo":
		return now.AddDate(0, -6, 0), nil
	case "1y", "":
		return now.AddDate(-1, 0, 0), nil
	case "2y":
		return now.AddDate(-2, 0, 0), nil
	case "5y":
		return now.AddDate(-5, 0, 0), nil
	case "10y":
		return now.AddDate(-10, 0, 0), nil
	case "ytd":
		return time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location()), nil
	case "max":
		return time.Date(1970, 1, 2, 0, 0, 0, 0, time.UTC), nil
	default:
		return time.Time{}, utils.NewValidationErrorf("unsupported period %q", period)
	}
}

// ValidPeriod reports whether period is accepted by the price source.
func ValidPeriod(period string) bool {
	_, err := periodStart(period, time.Now())
	return err == nil
}
