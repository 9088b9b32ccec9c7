package request

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/searchdeck/internal/domain/search/filter"
	"github.com/kailas-cloud/searchdeck/internal/domain/search/mode"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search query length.
	MaxQueryLength = 4096
	MaxOffset      = 1000
	MinTemperature = 0.0
	MaxTemperature = 2.0
)

// LLMOverride pins the model used to answer a single query.
type LLMOverride struct {
	Name      string `json:"name"`
	Provider  string `json:"provider"`
	ModelName string `json:"model_name"`
}

// IsZero reports whether no override field is set.
func (o LLMOverride) IsZero() bool {
	return o.Name == "" && o.Provider == "" && o.ModelName == ""
}

// Request is a validated streamed-search request.
type Request struct {
	query       string
	filters     filter.Snapshot
	personaID   int64
	searchType  mode.SearchType
	offset      int
	llmOverride *LLMOverride
	temperature *float64
}

// New validates and normalizes search parameters.
// Defaults: searchType=semantic.
func New(
	query string,
	filters filter.Snapshot,
	personaID int64,
	st mode.SearchType,
	offset int,
) (Request, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Request{}, fmt.Errorf("query is required")
	}
	if len(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("query too long (max %d chars)", MaxQueryLength)
	}
	if st == "" {
		st = mode.Semantic
	}
	if !st.IsValid() {
		return Request{}, fmt.Errorf("invalid search type: %q", st)
	}
	if offset < 0 || offset > MaxOffset {
		return Request{}, fmt.Errorf("offset must be between 0 and %d", MaxOffset)
	}

	return Request{
		query:      query,
		filters:    filters,
		personaID:  personaID,
		searchType: st,
		offset:     offset,
	}, nil
}

// WithLLMOverride returns a copy of r answering with the given model.
// A zero override and nil temperature leave r unchanged.
func (r Request) WithLLMOverride(o LLMOverride, temperature *float64) (Request, error) {
	if temperature != nil {
		if *temperature < MinTemperature || *temperature > MaxTemperature {
			return Request{}, fmt.Errorf("temperature must be between %.0f and %.0f", MinTemperature, MaxTemperature)
		}
		t := *temperature
		r.temperature = &t
	}
	if !o.IsZero() {
		r.llmOverride = &o
	}
	return r, nil
}

// Query returns the query text.
func (r *Request) Query() string { return r.query }

// Filters returns the filter snapshot captured at submission.
func (r *Request) Filters() filter.Snapshot { return r.filters }

// PersonaID returns the persona answering the query (0 = backend default).
func (r *Request) PersonaID() int64 { return r.personaID }

// SearchType returns the retrieval strategy.
func (r *Request) SearchType() mode.SearchType { return r.searchType }

// Offset returns the result page offset.
func (r *Request) Offset() int { return r.offset }

// LLMOverride returns the model override, or nil.
func (r *Request) LLMOverride() *LLMOverride { return r.llmOverride }

// Temperature returns the sampling temperature override, or nil.
func (r *Request) Temperature() *float64 { return r.temperature }
