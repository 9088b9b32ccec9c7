package search

import (
	"github.com/kailas-cloud/searchdeck/internal/domain/search/mode"
	"github.com/kailas-cloud/searchdeck/internal/domain/search/response"
	"github.com/kailas-cloud/searchdeck/internal/domain/search/validation"
)

// Overrides adjusts a single search.
type Overrides struct {
	ID         string          // caller-assigned search id; generated when empty
	SearchType mode.SearchType // empty = section search type
	Offset     *int            // nil = section default offset
}

// DefaultOverrides are section-wide settings applied to every search.
type DefaultOverrides struct {
	ForceDisplayQA bool `json:"force_display_qa"`
	Offset         int  `json:"offset"`
}

// View is a point-in-time copy of a section. Version grows with every
// applied change, so consumers can drop snapshots older than one they have.
type View struct {
	SearchID   string                   `json:"search_id"`
	Version    uint64                   `json:"version"`
	Query      string                   `json:"query"`
	Response   *response.SearchResponse `json:"response"`
	Validation validation.Response      `json:"validation"`
	IsFetching bool                     `json:"is_fetching"`
	Overrides  DefaultOverrides         `json:"overrides"`
}
