package searchdeck

import (
	"github.com/kailas-cloud/searchdeck/internal/domain/admin"
	"github.com/kailas-cloud/searchdeck/internal/domain/persona"
	"github.com/kailas-cloud/searchdeck/internal/domain/search/filter"
	"github.com/kailas-cloud/searchdeck/internal/domain/search/mode"
	"github.com/kailas-cloud/searchdeck/internal/domain/search/request"
	"github.com/kailas-cloud/searchdeck/internal/domain/search/response"
	"github.com/kailas-cloud/searchdeck/internal/domain/search/validation"
	resourceuc "github.com/kailas-cloud/searchdeck/internal/usecase/resource"
	searchuc "github.com/kailas-cloud/searchdeck/internal/usecase/search"
)

// SearchType controls the retrieval strategy.
type SearchType = mode.SearchType

// Search type constants.
const (
	SearchSemantic SearchType = mode.Semantic
	SearchKeyword  SearchType = mode.Keyword
	SearchHybrid   SearchType = mode.Hybrid
)

// FlowType is the flow the backend predicts for a query.
type FlowType = mode.FlowType

// Flow type constants.
const (
	FlowSearch         FlowType = mode.FlowSearch
	FlowQuestionAnswer FlowType = mode.FlowQuestionAnswer
)

// Search view types.
type (
	View             = searchuc.View
	Overrides        = searchuc.Overrides
	DefaultOverrides = searchuc.DefaultOverrides
	SearchResponse   = response.SearchResponse
	Document         = response.Document
	Quote            = response.Quote
	Validation       = validation.Response
	LLMOverride      = request.LLMOverride
)

// Filter and persona types.
type (
	Persona        = persona.Persona
	DocumentSet    = filter.DocumentSet
	Tag            = filter.Tag
	TimeRange      = filter.TimeRange
	FilterManager  = filter.Manager
	FilterSnapshot = filter.Snapshot
)

// Admin resource types.
type (
	Credential              = admin.Credential
	DocumentBoostStatus     = admin.DocumentBoostStatus
	Connector               = admin.Connector
	ConnectorIndexingStatus = admin.ConnectorIndexingStatus
	User                    = admin.User
	UserGroup               = admin.UserGroup
)

// Resource is a cached backend resource.
type Resource[T any] = resourceuc.Resource[T]

// ResourceState is the cached state of a Resource.
type ResourceState[T any] = resourceuc.State[T]
