package searchdeck

import (
	"context"
	"time"

	"github.com/google/uuid"

	searchuc "github.com/kailas-cloud/searchdeck/internal/usecase/search"
)

// Section holds the state of one search UI: filters, persona, overrides and
// the latest view. Settings methods are promoted from the underlying section.
type Section struct {
	*searchuc.Section
	obs *observer
}

// Search runs query with the section's settings and returns the final view.
// A superseded search returns the newer view with a nil error.
func (s *Section) Search(ctx context.Context, query string) (View, error) {
	return s.SearchWith(ctx, query, Overrides{})
}

// SearchWith runs query with one-off overrides.
func (s *Section) SearchWith(ctx context.Context, query string, o Overrides) (v View, err error) {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	start := time.Now()
	defer func() {
		s.obs.observe("search", start, err, "search_id", o.ID, "superseded", isSuperseded(v, o.ID, err))
	}()
	return s.Section.Search(ctx, query, o)
}

// isSuperseded reports whether v belongs to a newer search than id.
func isSuperseded(v View, id string, err error) bool {
	return err == nil && v.SearchID != id
}
