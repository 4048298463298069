package utils

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{
		Message: "test error message",
	}

	assert.Equal(t, "test error message", err.Error())
}

func TestNewValidationErrorf(t *testing.T) {
	err := NewValidationErrorf("limit must be between %d and %d", 1, 20)

	assert.Equal(t, "limit must be between 1 and 20", err.Error())
	validationErr, ok := err.(*ValidationError)
	assert.True(t, ok)
	assert.Equal(t, "limit must be between 1 and 20", validationErr.Message)
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestAnalysisError_Is(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"data unavailable", NewDataUnavailable("AAPL", "empty series", nil), ErrDataUnavailable},
		{"sentiment unavailable", NewSentimentUnavailable("AAPL", "news fetch failed", errors.New("timeout")), ErrSentimentUnavailable},
		{"invalid input", NewInvalidInput("", "no texts"), ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, errors.Is(tt.err, tt.sentinel))
			wrapped := fmt.Errorf("outer: %w", tt.err)
			assert.True(t, errors.Is(wrapped, tt.sentinel))
		})
	}

	assert.False(t, errors.Is(NewDataUnavailable("AAPL", "x", nil), ErrInvalidInput))
}

func TestAnalysisError_MessageAndUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewDataUnavailable("MSFT", "price fetch failed", cause)

	assert.Equal(t, "price data unavailable for MSFT: price fetch failed: connection refused", err.Error())
	assert.True(t, errors.Is(err, cause))

	ae, ok := AsAnalysisError(fmt.Errorf("wrap: %w", err))
	require.True(t, ok)
	assert.Equal(t, KindDataUnavailable, ae.Kind)
	assert.Equal(t, "MSFT", ae.Symbol)
	assert.Equal(t, "price fetch failed", ae.Cause)
}

func TestNormalizeSymbol(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"aapl", "AAPL", false},
		{"  brk-b ", "BRK-B", false},
		{"^gspc", "^GSPC", false},
		{"eurusd=x", "EURUSD=X", false},
		{"bbca.jk", "BBCA.JK", false},
		{"", "", true},
		{"AAPL MSFT", "", true},
		{"TOOLONGSYMBOL1", "", true},
		{"A$PL", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := NormalizeSymbol(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidInput))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
