package prediction

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// Guarded wraps a Predictor with a circuit breaker. An open breaker fails
// calls fast with KindUnavailable. Calls are never retried.
type Guarded struct {
	next    Predictor
	breaker *gobreaker.CircuitBreaker
}

// Guard trips after the given number of consecutive execution failures or
// timeouts. A threshold of zero returns next unchanged.
func Guard(next Predictor, failures uint32, logger *zap.Logger) Predictor {
	if failures == 0 {
		return next
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	settings := gobreaker.Settings{
		Name:        "prediction-bridge",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			switch KindOf(err) {
			case KindExecutionFailure, KindTimeout:
				return false
			}
			return true
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}

	return &Guarded{
		next:    next,
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

// Run forwards to the wrapped Predictor unless the breaker is open
func (g *Guarded) Run(ctx context.Context, req Request) (any, error) {
	result, err := g.breaker.Execute(func() (interface{}, error) {
		return g.next.Run(ctx, req)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, newError(KindUnavailable, req.Command, "prediction service is temporarily unavailable", err)
	}
	return result, err
}

// State reports the breaker state for health endpoints
func (g *Guarded) State() string {
	return g.breaker.State().String()
}
