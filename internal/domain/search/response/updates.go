package response

import "github.com/kailas-cloud/searchdeck/internal/domain/search/mode"

// Updates is the set of per-field callbacks a search stream reports through.
// Each callback touches exactly one field of the SearchResponse.
type Updates struct {
	AppendAnswer        func(piece string)
	Quotes              func([]Quote)
	Documents           func([]Document)
	SuggestedSearchType func(mode.SearchType)
	SuggestedFlowType   func(mode.FlowType)
	SelectedDocIndices  func([]int)
	Error               func(msg string)
	MessageID           func(id int64)
}

// Bind returns Updates that write straight into r.
// Callers own synchronization.
func Bind(r *SearchResponse) Updates {
	return Updates{
		AppendAnswer:        r.AppendAnswer,
		Quotes:              r.SetQuotes,
		Documents:           r.SetDocuments,
		SuggestedSearchType: r.SetSuggestedSearchType,
		SuggestedFlowType:   r.SetSuggestedFlowType,
		SelectedDocIndices:  r.SetSelectedDocIndices,
		Error:               r.SetError,
		MessageID:           r.SetMessageID,
	}
}
