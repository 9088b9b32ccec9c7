package mode

// SearchType is the retrieval strategy requested from the backend.
type SearchType string

// Search type constants.
const (
	Semantic SearchType = "semantic"
	Keyword  SearchType = "keyword"
	// Hybrid lets the backend combine keyword and semantic retrieval.
	Hybrid SearchType = "hybrid"
)

// IsValid checks if the search type is one of the supported values.
func (t SearchType) IsValid() bool {
	return t == Semantic || t == Keyword || t == Hybrid
}

// FlowType is the flow the backend predicts for a query.
type FlowType string

// Flow type constants.
const (
	FlowSearch         FlowType = "search"
	FlowQuestionAnswer FlowType = "question-answer"
)

// IsValid checks if the flow type is one of the supported values.
func (f FlowType) IsValid() bool {
	return f == FlowSearch || f == FlowQuestionAnswer
}
