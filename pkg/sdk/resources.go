package searchdeck

import (
	"context"
	"time"

	resourceuc "github.com/kailas-cloud/searchdeck/internal/usecase/resource"
)

// Resources hands out cached admin resources. Resources with the same key
// share one cache entry, so concurrent loads hit the backend once.
type Resources struct {
	hooks *resourceuc.Hooks
	obs   *observer
}

// Credentials lists connector credentials.
func (r *Resources) Credentials() *Resource[[]Credential] { return r.hooks.Credentials() }

// DocumentBoosts lists the most boosted documents, or the most demoted with
// ascending set. limit must be between 1 and 1000.
func (r *Resources) DocumentBoosts(ascending bool, limit int) (*Resource[[]DocumentBoostStatus], error) {
	return r.hooks.DocumentBoosts(ascending, limit)
}

// IndexingStatus lists connector indexing status. Call StartPolling on the
// result to keep it fresh.
func (r *Resources) IndexingStatus() *Resource[[]ConnectorIndexingStatus] {
	return r.hooks.IndexingStatus()
}

// Users lists backend users.
func (r *Resources) Users() *Resource[[]User] { return r.hooks.Users() }

// UserGroups lists user groups. Without WithEnterprise it is always an
// empty settled list.
func (r *Resources) UserGroups() *Resource[[]UserGroup] { return r.hooks.UserGroups() }

// Load is Resource.Load with SDK logging and metrics.
func Load[T any](ctx context.Context, r *Resources, res *Resource[T]) ResourceState[T] {
	start := time.Now()
	st := res.Load(ctx)
	var err error
	if st.Err != nil {
		err = st.Err
	}
	r.obs.observe("resource.load", start, err, "key", res.Key())
	return st
}
