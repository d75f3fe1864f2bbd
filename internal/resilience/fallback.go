package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrAllFailed is returned when no entry of a [FallbackGroup] served a call.
// The per-entry errors are joined onto it.
var ErrAllFailed = errors.New("resilience: all entries failed")

// FallbackConfig is the breaker template applied to every entry of a
// [FallbackGroup]. The entry name overrides CircuitBreaker.Name.
type FallbackConfig struct {
	CircuitBreaker CircuitBreakerConfig
}

type entry[T any] struct {
	name    string
	value   T
	breaker *CircuitBreaker
}

// FallbackGroup holds interchangeable values in priority order, each behind
// its own [CircuitBreaker]. Entries must be added before the group is shared
// between goroutines.
type FallbackGroup[T any] struct {
	cfg     FallbackConfig
	entries []entry[T]
}

// NewFallbackGroup returns an empty group. Add entries with [FallbackGroup.Add].
func NewFallbackGroup[T any](cfg FallbackConfig) *FallbackGroup[T] {
	return &FallbackGroup[T]{cfg: cfg}
}

// Add appends value under name. Entries are tried in the order they are added.
func (g *FallbackGroup[T]) Add(name string, value T) *FallbackGroup[T] {
	bc := g.cfg.CircuitBreaker
	bc.Name = name
	g.entries = append(g.entries, entry[T]{name: name, value: value, breaker: NewCircuitBreaker(bc)})
	return g
}

// Len returns the number of entries.
func (g *FallbackGroup[T]) Len() int { return len(g.entries) }

// Names returns the entry names in priority order.
func (g *FallbackGroup[T]) Names() []string {
	names := make([]string, len(g.entries))
	for i, e := range g.entries {
		names[i] = e.name
	}
	return names
}

// States returns the breaker state of every entry keyed by name.
func (g *FallbackGroup[T]) States() map[string]State {
	out := make(map[string]State, len(g.entries))
	for _, e := range g.entries {
		out[e.name] = e.breaker.State()
	}
	return out
}

// Execute runs fn against each entry until one succeeds and returns the name
// of the entry that served the call.
func (g *FallbackGroup[T]) Execute(ctx context.Context, fn func(context.Context, T) error) (string, error) {
	_, served, err := Do(ctx, g, func(ctx context.Context, v T) (struct{}, error) {
		return struct{}{}, fn(ctx, v)
	})
	return served, err
}

// Do is [FallbackGroup.Execute] for calls that produce a value. It stops early
// when ctx ends. On failure the returned error wraps [ErrAllFailed] and every
// entry's error.
func Do[T, R any](ctx context.Context, g *FallbackGroup[T], fn func(context.Context, T) (R, error)) (R, string, error) {
	var (
		zero R
		errs []error
	)
	if len(g.entries) == 0 {
		return zero, "", fmt.Errorf("%w: group is empty", ErrAllFailed)
	}
	for i := range g.entries {
		e := &g.entries[i]
		if err := ctx.Err(); err != nil {
			return zero, "", err
		}

		var out R
		err := e.breaker.Execute(ctx, func(ctx context.Context) error {
			var callErr error
			out, callErr = fn(ctx, e.value)
			return callErr
		})
		if err == nil {
			return out, e.name, nil
		}

		if errors.Is(err, ErrCircuitOpen) {
			slog.Debug("fallback entry skipped", "entry", e.name)
		} else {
			slog.Warn("fallback entry failed", "entry", e.name, "err", err)
		}
		errs = append(errs, fmt.Errorf("%s: %w", e.name, err))
	}
	return zero, "", fmt.Errorf("%w: %w", ErrAllFailed, errors.Join(errs...))
}
