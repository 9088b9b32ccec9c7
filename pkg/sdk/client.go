package searchdeck

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/searchdeck/internal/cache"
	"github.com/kailas-cloud/searchdeck/internal/db"
	dbRedis "github.com/kailas-cloud/searchdeck/internal/db/redis"
	"github.com/kailas-cloud/searchdeck/internal/transport/backend"
	healthuc "github.com/kailas-cloud/searchdeck/internal/usecase/health"
	resourceuc "github.com/kailas-cloud/searchdeck/internal/usecase/resource"
	searchuc "github.com/kailas-cloud/searchdeck/internal/usecase/search"
)

const defaultReadinessTimeout = 10 * time.Second

// Client is the searchdeck SDK entry point. Safe for concurrent use.
type Client struct {
	store     db.Store // nil without a snapshot store
	streamer  searchuc.Streamer
	hooks     *resourceuc.Hooks
	healthSvc healthUseCase
	cfg       *clientConfig
	obs       *observer
}

// New creates a Client. When a snapshot store is configured, ctx bounds
// the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.baseURL == "" {
		return nil, errors.New("searchdeck: backend URL required (use WithBackend)")
	}
	if cfg.defaultSearchType != "" && !cfg.defaultSearchType.IsValid() {
		return nil, fmt.Errorf("searchdeck: unknown search type %q", cfg.defaultSearchType)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	client, err := backend.NewClient(backend.Config{
		BaseURL:    cfg.baseURL,
		APIKey:     cfg.apiKey,
		HTTPClient: cfg.httpClient,
	})
	if err != nil {
		return nil, fmt.Errorf("searchdeck: %w", err)
	}

	var store db.Store
	if cfg.driver != "" {
		store, err = createStore(cfg)
		if err != nil {
			return nil, err
		}
		if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
			store.Close()
			return nil, fmt.Errorf("searchdeck: snapshot store not ready: %w", err)
		}
	}

	return wireClient(client, store, cfg, obs), nil
}

func createStore(cfg *clientConfig) (db.Store, error) {
	switch cfg.driver {
	case "valkey", "redis":
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:      cfg.addrs,
			Password:   cfg.password,
			Standalone: cfg.standalone,
		})
		if err != nil {
			return nil, fmt.Errorf("searchdeck: create %s store: %w", cfg.driver, err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("searchdeck: unknown driver %q", cfg.driver)
	}
}

func wireClient(client *backend.Client, store db.Store, cfg *clientConfig, obs *observer) *Client {
	lookups, fetches := obs.cacheCounters()
	cacheCfg := cache.Config{
		SnapshotTTL: cfg.snapshotTTL,
		Lookups:     lookups,
		Fetches:     fetches,
	}
	// Pass nil interface (not typed nil pointer) when no store is configured.
	var pinger healthuc.StorePinger
	if store != nil {
		cacheCfg.Snapshots = store
		pinger = store
	}

	hooks := resourceuc.NewHooks(cache.New(cacheCfg), client, resourceuc.Config{
		Enterprise:            cfg.enterprise,
		IndexingStatusRefresh: cfg.indexingStatusRefresh,
	})

	return &Client{
		store:     store,
		streamer:  client,
		hooks:     hooks,
		healthSvc: healthuc.New(client, pinger),
		cfg:       cfg,
		obs:       obs,
	}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks that the backend and, if configured, the snapshot store respond.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	report := c.healthSvc.Check(ctx)
	for name, res := range report.Checks {
		if res != healthuc.CheckOK {
			return fmt.Errorf("ping: %s unavailable", name)
		}
	}
	return nil
}

// NewSection creates an independent search section with the client's
// personas, filters and default search type.
func (c *Client) NewSection() *Section {
	return &Section{
		Section: searchuc.New(c.streamer, searchuc.Config{
			Personas:          c.cfg.personas,
			DocumentSets:      c.cfg.documentSets,
			Sources:           c.cfg.sources,
			DefaultSearchType: c.cfg.defaultSearchType,
			Outcomes:          c.obs.searchOutcomes(),
		}),
		obs: c.obs,
	}
}

// Resources returns the cached admin resources.
func (c *Client) Resources() *Resources {
	return &Resources{hooks: c.hooks, obs: c.obs}
}
