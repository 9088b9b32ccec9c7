package searchdeck

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client

	driver      string // "valkey", "redis" or "" for in-process only
	addrs       []string
	password    string
	standalone  bool
	snapshotTTL time.Duration

	enterprise            bool
	indexingStatusRefresh time.Duration

	personas          []Persona
	documentSets      []DocumentSet
	sources           []string
	defaultSearchType SearchType

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithBackend sets the search backend base URL and API key.
// The key is sent as a bearer token; leave it empty for open backends.
func WithBackend(baseURL, apiKey string) Option {
	return optionFunc(func(c *clientConfig) {
		c.baseURL = baseURL
		c.apiKey = apiKey
	})
}

// WithHTTPClient replaces the HTTP client used for backend calls.
// Do not set Timeout on it: answer streams stay open until the answer ends.
func WithHTTPClient(hc *http.Client) Option {
	return optionFunc(func(c *clientConfig) {
		c.httpClient = hc
	})
}

// WithValkey keeps resource snapshots in a Valkey instance.
func WithValkey(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "valkey"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithRedis keeps resource snapshots in a Redis instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "redis"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithStandalone disables cluster topology discovery.
// Use for standalone Valkey/Redis instances (not managed by cluster operator).
func WithStandalone() Option {
	return optionFunc(func(c *clientConfig) {
		c.standalone = true
	})
}

// WithSnapshotTTL sets how long resource snapshots live in the store.
// Default: 10 minutes.
func WithSnapshotTTL(ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.snapshotTTL = ttl
	})
}

// WithEnterprise enables enterprise-only resources (user groups).
func WithEnterprise() Option {
	return optionFunc(func(c *clientConfig) {
		c.enterprise = true
	})
}

// WithIndexingStatusRefresh sets the indexing status polling interval.
// Default: 30 seconds.
func WithIndexingStatusRefresh(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.indexingStatusRefresh = d
	})
}

// WithPersonas sets the personas a section can select. The first is the default.
func WithPersonas(p ...Persona) Option {
	return optionFunc(func(c *clientConfig) {
		c.personas = p
	})
}

// WithDocumentSets sets the document sets offered as filters.
func WithDocumentSets(sets ...DocumentSet) Option {
	return optionFunc(func(c *clientConfig) {
		c.documentSets = sets
	})
}

// WithSources sets the source types offered as filters.
func WithSources(sources ...string) Option {
	return optionFunc(func(c *clientConfig) {
		c.sources = sources
	})
}

// WithDefaultSearchType sets the search type new sections start with.
// Default: SearchSemantic.
func WithDefaultSearchType(t SearchType) Option {
	return optionFunc(func(c *clientConfig) {
		c.defaultSearchType = t
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
