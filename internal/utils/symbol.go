package utils

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// MaxSymbolLength bounds ticker symbols such as "BRK-B" or "^GSPC".
const MaxSymbolLength = 12

var upper = cases.Upper(language.Und)

// NormalizeSymbol trims and upper-cases a ticker and checks its shape.
// Accepted characters are letters, digits, '.', '-', '^' and '='.
func NormalizeSymbol(raw string) (string, error) {
	symbol := upper.String(strings.TrimSpace(raw))
	if symbol == "" {
		return "", NewInvalidInput(raw, "symbol is required")
	}
	if len(symbol) > MaxSymbolLength {
		return "", NewInvalidInput(symbol, "symbol is longer than 12 characters")
	}
	for _, r := range symbol {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '.', r == '-', r == '^', r == '=':
		default:
			return "", NewInvalidInput(symbol, "symbol contains invalid character "+string(r))
		}
	}
	return symbol, nil
}
