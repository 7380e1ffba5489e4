package nse

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/eddiefleurent/downtrend_puts/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

// Source defines the market data the screener consumes
type Source interface {
	FetchIndexSnapshot(ctx context.Context) (*models.IndexSnapshot, error)
	FetchHistoricalSeries(ctx context.Context, symbol, window string) (models.HistoricalSeries, error)
	FetchLotSizeTable(ctx context.Context) (*models.LotSizeTable, error)
	FetchOptionChain(ctx context.Context, symbol string) (*models.OptionChain, error)
}

// Ensure Client implements Source at compile time.
var _ Source = (*Client)(nil)

// CircuitBreakerSource wraps a Source with circuit breaker functionality
type CircuitBreakerSource struct {
	source  Source
	breaker *gobreaker.CircuitBreaker
}

var _ Source = (*CircuitBreakerSource)(nil)

// CircuitBreakerSettings configures circuit breaker behavior
type CircuitBreakerSettings struct {
	MaxRequests  uint32        // Max requests when half-open
	Interval     time.Duration // Reset counts interval
	Timeout      time.Duration // Open circuit duration
	MinRequests  uint32        // Min requests before tripping
	FailureRatio float64       // Failure ratio threshold
	// Logger receives state changes. Nil uses the logrus standard logger.
	Logger logrus.FieldLogger
}

// DefaultCircuitBreakerSettings returns the settings used when none are configured.
func DefaultCircuitBreakerSettings() CircuitBreakerSettings {
	return CircuitBreakerSettings{
		MaxRequests:  3,
		Interval:     60 * time.Second,
		Timeout:      30 * time.Second,
		MinRequests:  5,
		FailureRatio: 0.6,
	}
}

// NewCircuitBreakerSource creates a CircuitBreakerSource with default settings
func NewCircuitBreakerSource(source Source) *CircuitBreakerSource {
	return NewCircuitBreakerSourceWithSettings(source, DefaultCircuitBreakerSettings())
}

// NewCircuitBreakerSourceWithSettings creates a CircuitBreakerSource with custom settings
func NewCircuitBreakerSourceWithSettings(source Source, settings CircuitBreakerSettings) *CircuitBreakerSource {
	logger := settings.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	gbSettings := gobreaker.Settings{
		Name:        "MarketDataCircuitBreaker",
		MaxRequests: settings.MaxRequests,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests == 0 || counts.Requests < settings.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= settings.FailureRatio
		},
		// Content problems (a malformed row, a missing lot size) say nothing
		// about the site's health.
		IsSuccessful: func(err error) bool {
			return err == nil || !isTransportFailure(err)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
		},
	}

	return &CircuitBreakerSource{
		source:  source,
		breaker: gobreaker.NewCircuitBreaker(gbSettings),
	}
}

// State returns the breaker's current state.
func (c *CircuitBreakerSource) State() gobreaker.State {
	return c.breaker.State()
}

// isTransportFailure reports whether err came from the network or a server-side HTTP status.
func isTransportFailure(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status >= 500 || apiErr.Status == 429
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// execCircuitBreaker is a generic helper for circuit breaker wrapper methods
func execCircuitBreaker[T any](
	breaker *gobreaker.CircuitBreaker,
	source Source,
	sentinel error,
	fn func(Source) (T, error),
) (T, error) {
	var zero T
	res, err := breaker.Execute(func() (interface{}, error) { return fn(source) })
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return zero, fmt.Errorf("%w: %w: %w", sentinel, models.ErrCircuitOpen, err)
		}
		return zero, err
	}
	if res == nil {
		return zero, nil
	}
	v, ok := res.(T)
	if !ok {
		return zero, errors.New("circuit breaker: type assertion failed")
	}
	return v, nil
}

// FetchIndexSnapshot wraps the underlying source call with circuit breaker
func (c *CircuitBreakerSource) FetchIndexSnapshot(ctx context.Context) (*models.IndexSnapshot, error) {
	return execCircuitBreaker(c.breaker, c.source, models.ErrDataUnavailable,
		func(s Source) (*models.IndexSnapshot, error) { return s.FetchIndexSnapshot(ctx) })
}

// FetchHistoricalSeries wraps the underlying source call with circuit breaker
func (c *CircuitBreakerSource) FetchHistoricalSeries(ctx context.Context, symbol, window string) (models.HistoricalSeries, error) {
	return execCircuitBreaker(c.breaker, c.source, models.ErrHistoryUnavailable,
		func(s Source) (models.HistoricalSeries, error) { return s.FetchHistoricalSeries(ctx, symbol, window) })
}

// FetchLotSizeTable wraps the underlying source call with circuit breaker
func (c *CircuitBreakerSource) FetchLotSizeTable(ctx context.Context) (*models.LotSizeTable, error) {
	return execCircuitBreaker(c.breaker, c.source, models.ErrLotSizeNotFound,
		func(s Source) (*models.LotSizeTable, error) { return s.FetchLotSizeTable(ctx) })
}

// FetchOptionChain wraps the underlying source call with circuit breaker
func (c *CircuitBreakerSource) FetchOptionChain(ctx context.Context, symbol string) (*models.OptionChain, error) {
	return execCircuitBreaker(c.breaker, c.source, models.ErrChainUnavailable,
		func(s Source) (*models.OptionChain, error) { return s.FetchOptionChain(ctx, symbol) })
}
