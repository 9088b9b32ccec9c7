package response

import (
	"strings"
	"time"

	"github.com/kailas-cloud/searchdeck/internal/domain/search/mode"
)

// Quote is a passage the answer was grounded on.
type Quote struct {
	Quote              string `json:"quote"`
	DocumentID         string `json:"document_id"`
	Link               string `json:"link,omitempty"`
	SourceType         string `json:"source_type"`
	SemanticIdentifier string `json:"semantic_identifier"`
	Blurb              string `json:"blurb"`
}

// Document is a retrieved search hit.
type Document struct {
	DocumentID         string         `json:"document_id"`
	ChunkInd           int            `json:"chunk_ind"`
	SemanticIdentifier string         `json:"semantic_identifier"`
	Link               string         `json:"link,omitempty"`
	Blurb              string         `json:"blurb"`
	SourceType         string         `json:"source_type"`
	Boost              int            `json:"boost"`
	Hidden             bool           `json:"hidden"`
	Score              *float64       `json:"score,omitempty"`
	MatchHighlights    []string       `json:"match_highlights,omitempty"`
	Metadata           map[string]any `json:"metadata,omitempty"`
	UpdatedAt          *time.Time     `json:"updated_at,omitempty"`
}

// SearchResponse is the incrementally assembled view of one search.
// Every field is nil until its stream event arrives. The answer is appended
// piece by piece; every other field is overwritten by later events.
type SearchResponse struct {
	Answer              *string          `json:"answer"`
	Quotes              []Quote          `json:"quotes"`
	Documents           []Document       `json:"documents"`
	SuggestedSearchType *mode.SearchType `json:"suggested_search_type"`
	SuggestedFlowType   *mode.FlowType   `json:"suggested_flow_type"`
	SelectedDocIndices  []int            `json:"selected_doc_indices"`
	Error               *string          `json:"error"`
	MessageID           *int64           `json:"message_id"`

	answer strings.Builder
	issued *string
}

// New returns the empty initial response.
func New() *SearchResponse {
	return &SearchResponse{}
}

// AppendAnswer appends an answer piece. Appends reuse one growing buffer,
// so a long stream of pieces costs linear time overall.
func (r *SearchResponse) AppendAnswer(piece string) {
	if r.Answer != r.issued {
		// Answer was set or cloned from outside: restart the buffer from it.
		r.answer = strings.Builder{}
		if r.Answer != nil {
			r.answer.WriteString(*r.Answer)
		}
	}
	r.answer.WriteString(piece)
	s := r.answer.String()
	r.Answer = &s
	r.issued = r.Answer
}

// SetQuotes replaces the quotes.
func (r *SearchResponse) SetQuotes(q []Quote) { r.Quotes = q }

// SetDocuments replaces the document list.
func (r *SearchResponse) SetDocuments(d []Document) { r.Documents = d }

// SetSuggestedSearchType records the backend's predicted search type.
func (r *SearchResponse) SetSuggestedSearchType(t mode.SearchType) { r.SuggestedSearchType = &t }

// SetSuggestedFlowType records the backend's predicted flow.
func (r *SearchResponse) SetSuggestedFlowType(f mode.FlowType) { r.SuggestedFlowType = &f }

// SetSelectedDocIndices records which documents the relevance filter kept.
func (r *SearchResponse) SetSelectedDocIndices(idx []int) { r.SelectedDocIndices = idx }

// SetError records an error message.
func (r *SearchResponse) SetError(msg string) { r.Error = &msg }

// SetMessageID records the backend message id.
func (r *SearchResponse) SetMessageID(id int64) { r.MessageID = &id }

// Clone returns a deep copy.
func (r *SearchResponse) Clone() *SearchResponse {
	if r == nil {
		return nil
	}
	c := &SearchResponse{
		Answer:              clonePtr(r.Answer),
		SuggestedSearchType: clonePtr(r.SuggestedSearchType),
		SuggestedFlowType:   clonePtr(r.SuggestedFlowType),
		Error:               clonePtr(r.Error),
		MessageID:           clonePtr(r.MessageID),
	}
	if r.Quotes != nil {
		c.Quotes = append([]Quote(nil), r.Quotes...)
	}
	if r.Documents != nil {
		c.Documents = make([]Document, len(r.Documents))
		for i := range r.Documents {
			c.Documents[i] = r.Documents[i].clone()
		}
	}
	if r.SelectedDocIndices != nil {
		c.SelectedDocIndices = append([]int(nil), r.SelectedDocIndices...)
	}
	return c
}

func (d Document) clone() Document {
	d.Score = clonePtr(d.Score)
	d.UpdatedAt = clonePtr(d.UpdatedAt)
	if d.MatchHighlights != nil {
		d.MatchHighlights = append([]string(nil), d.MatchHighlights...)
	}
	if d.Metadata != nil {
		md := make(map[string]any, len(d.Metadata))
		for k, v := range d.Metadata {
			md[k] = v
		}
		d.Metadata = md
	}
	return d
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
