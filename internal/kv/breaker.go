package kv

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/abgdnv/gocatalog/internal/config"
	"github.com/sony/gobreaker/v2"
)

// ErrUnavailable is returned while the breaker rejects calls to a failing backend.
var ErrUnavailable = errors.New("kv backend unavailable")

type lookup struct {
	value string
	found bool
}

// BreakerStore guards a Store with a circuit breaker. After cfg.ConsecutiveFailures failed calls it
// rejects calls with ErrUnavailable for cfg.OpenTimeout, then lets a probe through.
type BreakerStore struct {
	next Store
	cb   *gobreaker.CircuitBreaker[any]
}

// NewBreakerStore wraps next. Context cancellation does not count as a backend failure.
func NewBreakerStore(next Store, cfg config.CircuitBreakerConfig, logger *slog.Logger) *BreakerStore {
	st := gobreaker.Settings{
		Name:        "kv-store",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("KV circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	}
	return &BreakerStore{
		next: next,
		cb:   gobreaker.NewCircuitBreaker[any](st),
	}
}

func (b *BreakerStore) Get(ctx context.Context, key string) (string, bool, error) {
	res, err := b.cb.Execute(func() (any, error) {
		value, found, err := b.next.Get(ctx, key)
		return lookup{value: value, found: found}, err
	})
	if err != nil {
		return "", false, translateBreakerErr(err)
	}
	l := res.(lookup)
	return l.value, l.found, nil
}

func (b *BreakerStore) Set(ctx context.Context, key, value string) error {
	_, err := b.cb.Execute(func() (any, error) {
		return nil, b.next.Set(ctx, key, value)
	})
	return translateBreakerErr(err)
}

func (b *BreakerStore) Close() error {
	return b.next.Close()
}

// State reports the breaker state, for diagnostics.
func (b *BreakerStore) State() gobreaker.State {
	return b.cb.State()
}

func translateBreakerErr(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return err
}

var (
	_ Store = (*BoltStore)(nil)
	_ Store = (*PgStore)(nil)
	_ Store = (*BreakerStore)(nil)
)
