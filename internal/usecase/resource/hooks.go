package resource

import (
	"fmt"
	"time"

	"github.com/kailas-cloud/searchdeck/internal/domain"
	"github.com/kailas-cloud/searchdeck/internal/domain/admin"
)

// Backend paths of the admin resources.
const (
	PathCredentials    = "/manage/admin/credential"
	PathDocBoosts      = "/manage/admin/doc-boosts"
	PathIndexingStatus = "/manage/admin/connector/indexing-status"
	PathUsers          = "/manage/users"
	PathUserGroups     = "/manage/admin/user-group"
)

const (
	// DefaultIndexingStatusRefresh is how often indexing status is polled.
	DefaultIndexingStatusRefresh = 30 * time.Second
	// MaxDocBoostLimit caps the doc-boost page size.
	MaxDocBoostLimit = 1000
)

// Config holds hook settings.
type Config struct {
	Enterprise            bool          // enables user groups
	IndexingStatusRefresh time.Duration // 0 = DefaultIndexingStatusRefresh
}

// Hooks hands out resources for the admin views.
type Hooks struct {
	cache   Cache
	fetcher Fetcher
	cfg     Config
}

// NewHooks creates the hook set.
func NewHooks(c Cache, f Fetcher, cfg Config) *Hooks {
	if cfg.IndexingStatusRefresh <= 0 {
		cfg.IndexingStatusRefresh = DefaultIndexingStatusRefresh
	}
	return &Hooks{cache: c, fetcher: f, cfg: cfg}
}

// EnterpriseEnabled reports whether enterprise-only resources are served.
func (h *Hooks) EnterpriseEnabled() bool { return h.cfg.Enterprise }

// Credentials lists connector credentials.
func (h *Hooks) Credentials() *Resource[[]admin.Credential] {
	return newResource[[]admin.Credential](h.cache, h.fetcher, PathCredentials)
}

// DocumentBoosts lists the most boosted (or, ascending, most demoted) documents.
func (h *Hooks) DocumentBoosts(ascending bool, limit int) (*Resource[[]admin.DocumentBoostStatus], error) {
	if limit < 1 || limit > MaxDocBoostLimit {
		return nil, fmt.Errorf("%w: limit must be between 1 and %d", domain.ErrInvalidRequest, MaxDocBoostLimit)
	}
	path := fmt.Sprintf("%s?ascending=%t&limit=%d", PathDocBoosts, ascending, limit)
	return newResource[[]admin.DocumentBoostStatus](h.cache, h.fetcher, path), nil
}

// IndexingStatus lists connector indexing status. Call StartPolling to keep it fresh.
func (h *Hooks) IndexingStatus() *Resource[[]admin.ConnectorIndexingStatus] {
	r := newResource[[]admin.ConnectorIndexingStatus](h.cache, h.fetcher, PathIndexingStatus)
	r.interval = h.cfg.IndexingStatusRefresh
	return r
}

// Users lists backend users.
func (h *Hooks) Users() *Resource[[]admin.User] {
	return newResource[[]admin.User](h.cache, h.fetcher, PathUsers)
}

// UserGroups lists user groups. Without enterprise features it reports an
// empty settled list and never calls the backend.
func (h *Hooks) UserGroups() *Resource[[]admin.UserGroup] {
	if !h.cfg.Enterprise {
		return disabledResource(PathUserGroups, []admin.UserGroup{})
	}
	return newResource[[]admin.UserGroup](h.cache, h.fetcher, PathUserGroups)
}
