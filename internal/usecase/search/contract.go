package search

import (
	"context"

	"github.com/kailas-cloud/searchdeck/internal/domain/search/request"
	"github.com/kailas-cloud/searchdeck/internal/domain/search/response"
	"github.com/kailas-cloud/searchdeck/internal/domain/search/validation"
)

// Streamer runs the two backend streams of a search.
type Streamer interface {
	StreamSearch(ctx context.Context, req request.Request, u response.Updates) error
	StreamValidation(ctx context.Context, query string, update func(validation.Response)) error
}
