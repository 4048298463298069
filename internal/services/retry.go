package services

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/irfndi/stockai-go/internal/utils"
)

// RetryPolicy defines retry behavior for failed operations
type RetryPolicy struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
	JitterEnabled bool
}

// DefaultRetryPolicy is used for the quote and news APIs.
func DefaultRetryPolicy(maxRetries int) RetryPolicy {
	return RetryPolicy{
		MaxRetries:    maxRetries,
		InitialDelay:  200 * time.Millisecond,
		MaxDelay:      2 * time.Second,
		BackoffFactor: 2.0,
		JitterEnabled: true,
	}
}

// Retry runs op until it succeeds, the policy is exhausted or ctx ends.
// Invalid input, missing data, open circuits and context errors are never retried.
func Retry(ctx context.Context, policy RetryPolicy, logger *logrus.Logger, name string, op func(context.Context) error) error {
	delay := policy.InitialDelay
	var err error

	for attempt := 0; attempt <= policy.MaxRetries; attempt++ {
		if err = op(ctx); err == nil {
			return nil
		}
		if !retryable(err) || attempt == policy.MaxRetries {
			break
		}

		wait := delay
		if policy.JitterEnabled {
			// up to 25% either way
			wait += time.Duration(float64(delay) * 0.25 * (2*rand.Float64() - 1))
		}

		logger.WithFields(logrus.Fields{
			"operation": name,
			"attempt":   attempt + 1,
			"delay_ms":  wait.Milliseconds(),
			"error":     err.Error(),
		}).Debug("Retrying operation")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}

		delay = time.Duration(float64(delay) * policy.BackoffFactor)
		if delay > policy.MaxDelay {
			delay = policy.MaxDelay
		}
	}
	return err
}

func retryable(err error) bool {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	case errors.Is(err, ErrCircuitOpen):
		return false
	case errors.Is(err, utils.ErrInvalidInput), errors.Is(err, utils.ErrDataUnavailable):
		return false
	}
	return true
}
