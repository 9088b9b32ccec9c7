package resource

import (
	"context"
	"time"

	"github.com/kailas-cloud/searchdeck/internal/cache"
)

// Fetcher loads a backend REST resource.
type Fetcher interface {
	GetJSON(ctx context.Context, path string, out any) error
}

// Cache is the shared keyed store hooks read through.
type Cache interface {
	Get(ctx context.Context, key string, src cache.Source) cache.Entry
	Peek(key string) cache.Entry
	Revalidate(ctx context.Context, key string, src cache.Source) cache.Entry
	Subscribe(key string, fn cache.Listener) (unsubscribe func())
	Poll(ctx context.Context, key string, interval time.Duration, src cache.Source)
}
