package backend

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/kailas-cloud/searchdeck/internal/domain/search/filter"
	"github.com/kailas-cloud/searchdeck/internal/domain/search/mode"
	"github.com/kailas-cloud/searchdeck/internal/domain/search/request"
	"github.com/kailas-cloud/searchdeck/internal/domain/search/response"
)

const searchPath = "/query/stream-answer-with-quote"

type searchBody struct {
	Query       string               `json:"query"`
	PersonaID   int64                `json:"persona_id"`
	SearchType  mode.SearchType      `json:"search_type"`
	Offset      int                  `json:"offset"`
	Filters     filter.Snapshot      `json:"filters"`
	LLMOverride *request.LLMOverride `json:"llm_override,omitempty"`
	Temperature *float64             `json:"temperature,omitempty"`
}

// StreamSearch runs the streamed search for req and reports every packet
// through u. Error packets from the backend go to u.Error and the stream
// continues. A returned error means the stream could not be read to the end.
func (c *Client) StreamSearch(ctx context.Context, req request.Request, u response.Updates) error {
	body := searchBody{
		Query:       req.Query(),
		PersonaID:   req.PersonaID(),
		SearchType:  req.SearchType(),
		Offset:      req.Offset(),
		Filters:     req.Filters(),
		LLMOverride: req.LLMOverride(),
		Temperature: req.Temperature(),
	}

	resp, err := c.do(ctx, endpointSearch, http.MethodPost, searchPath, body)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	return readPackets(ctx, resp.Body, func(p packet) error {
		return c.dispatchSearch(p, u)
	})
}

// dispatchSearch applies one packet. A packet may carry several keys
// (top_documents arrives together with the predictions).
func (c *Client) dispatchSearch(p packet, u response.Updates) error {
	handled := false

	var docs []response.Document
	ok, err := field(p, "top_documents", &docs)
	if err != nil {
		return err
	}
	if ok {
		handled = true
		countEvent(endpointSearch, "top_documents")
		emit(u.Documents, docs)
	}

	var predictedSearch *mode.SearchType
	ok, err = field(p, "predicted_search", &predictedSearch)
	if err != nil {
		return err
	}
	if ok && predictedSearch != nil && predictedSearch.IsValid() {
		handled = true
		emit(u.SuggestedSearchType, *predictedSearch)
	}

	var predictedFlow *mode.FlowType
	ok, err = field(p, "predicted_flow", &predictedFlow)
	if err != nil {
		return err
	}
	if ok && predictedFlow != nil && predictedFlow.IsValid() {
		handled = true
		emit(u.SuggestedFlowType, *predictedFlow)
	}

	var indices []int
	ok, err = field(p, "relevant_chunk_indices", &indices)
	if err != nil {
		return err
	}
	if ok {
		handled = true
		countEvent(endpointSearch, "relevant_chunk_indices")
		emit(u.SelectedDocIndices, indices)
	}

	var piece *string
	ok, err = field(p, "answer_piece", &piece)
	if err != nil {
		return err
	}
	if ok {
		handled = true
		countEvent(endpointSearch, "answer_piece")
		// null marks the end of the answer
		if piece != nil {
			emit(u.AppendAnswer, *piece)
		}
	}

	var quotes []response.Quote
	ok, err = field(p, "quotes", &quotes)
	if err != nil {
		return err
	}
	if ok {
		handled = true
		countEvent(endpointSearch, "quotes")
		emit(u.Quotes, quotes)
	}

	var msg *string
	ok, err = field(p, "error", &msg)
	if err != nil {
		return err
	}
	if ok && msg != nil {
		handled = true
		countEvent(endpointSearch, "error")
		emit(u.Error, *msg)
	}

	var messageID *int64
	ok, err = field(p, "message_id", &messageID)
	if err != nil {
		return err
	}
	if ok && messageID != nil {
		handled = true
		countEvent(endpointSearch, "message_id")
		emit(u.MessageID, *messageID)
	}

	if !handled {
		countEvent(endpointSearch, "unknown")
		c.logger.Debug("ignoring unknown search packet", zap.Int("keys", len(p)))
	}
	return nil
}
