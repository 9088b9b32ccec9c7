// Package resource provides typed, cache-backed hooks over backend REST
// resources. Every consumer of the same resource shares one cache entry.
package resource

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kailas-cloud/searchdeck/internal/cache"
	"github.com/kailas-cloud/searchdeck/internal/domain"
)

// State is what a consumer of a resource observes.
type State[T any] struct {
	Data         T
	Err          *domain.FetchError
	IsLoading    bool
	IsValidating bool
}

// Resource is a typed hook over one cache key.
type Resource[T any] struct {
	key      string
	cache    Cache
	src      cache.Source
	interval time.Duration

	disabled bool
	empty    T
}

func newResource[T any](c Cache, f Fetcher, path string) *Resource[T] {
	return &Resource[T]{
		key:   path,
		cache: c,
		src: cache.Source{
			Fetch: func(ctx context.Context) (any, error) {
				var out T
				if err := f.GetJSON(ctx, path, &out); err != nil {
					return nil, domain.AsFetchError(err)
				}
				return out, nil
			},
			Decode: func(raw []byte) (any, error) {
				var out T
				if err := json.Unmarshal(raw, &out); err != nil {
					return nil, fmt.Errorf("%w: %w", domain.ErrMalformedPayload, err)
				}
				return out, nil
			},
		},
	}
}

// disabledResource never fetches and always reports empty settled data.
func disabledResource[T any](key string, empty T) *Resource[T] {
	return &Resource[T]{key: key, disabled: true, empty: empty}
}

// Key returns the cache key, which is the backend path.
func (r *Resource[T]) Key() string { return r.key }

// Disabled reports whether the resource is switched off for this deployment.
func (r *Resource[T]) Disabled() bool { return r.disabled }

// Load returns cached state, fetching once if nothing is cached yet.
func (r *Resource[T]) Load(ctx context.Context) State[T] {
	if r.disabled {
		return State[T]{Data: r.empty}
	}
	return stateOf[T](r.cache.Get(ctx, r.key, r.src))
}

// State returns the current state without fetching.
func (r *Resource[T]) State() State[T] {
	if r.disabled {
		return State[T]{Data: r.empty}
	}
	return stateOf[T](r.cache.Peek(r.key))
}

// Refresh forces revalidation. Every subscriber of the key is notified.
func (r *Resource[T]) Refresh(ctx context.Context) State[T] {
	if r.disabled {
		return State[T]{Data: r.empty}
	}
	return stateOf[T](r.cache.Revalidate(ctx, r.key, r.src))
}

// Subscribe calls fn on every state change until the returned func is called.
func (r *Resource[T]) Subscribe(fn func(State[T])) (unsubscribe func()) {
	if r.disabled {
		return func() {}
	}
	return r.cache.Subscribe(r.key, func(e cache.Entry) {
		fn(stateOf[T](e))
	})
}

// StartPolling revalidates in the background at the resource's refresh
// interval until ctx is done. No-op for resources without an interval.
func (r *Resource[T]) StartPolling(ctx context.Context) {
	if r.disabled || r.interval <= 0 {
		return
	}
	go r.cache.Poll(ctx, r.key, r.interval, r.src)
}

func stateOf[T any](e cache.Entry) State[T] {
	data, _ := e.Data.(T)
	return State[T]{
		Data:         data,
		Err:          domain.AsFetchError(e.Err),
		IsLoading:    e.IsLoading,
		IsValidating: e.IsValidating,
	}
}
