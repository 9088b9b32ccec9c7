package backend

import (
	"context"
	"net/http"
	"strings"

	"github.com/kailas-cloud/searchdeck/internal/domain/search/validation"
)

const validationPath = "/query/stream-query-validation"

type validationBody struct {
	Query string `json:"query"`
}

// StreamValidation asks the backend whether query looks answerable.
// update receives partial responses: reasoning is accumulated and sent whole
// on every piece, answerable and error are sent as they arrive.
func (c *Client) StreamValidation(ctx context.Context, query string, update func(validation.Response)) error {
	resp, err := c.do(ctx, endpointValidation, http.MethodPost, validationPath, validationBody{Query: query})
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	var reasoning strings.Builder
	return readPackets(ctx, resp.Body, func(p packet) error {
		var piece string
		ok, err := field(p, "reasoning", &piece)
		if err != nil {
			return err
		}
		if ok {
			countEvent(endpointValidation, "reasoning")
			reasoning.WriteString(piece)
			full := reasoning.String()
			emit(update, validation.Response{Reasoning: &full})
			return nil
		}

		var answerable bool
		ok, err = field(p, "answerable", &answerable)
		if err != nil {
			return err
		}
		if ok {
			countEvent(endpointValidation, "answerable")
			emit(update, validation.Response{Answerable: &answerable})
			return nil
		}

		var msg string
		ok, err = field(p, "error", &msg)
		if err != nil {
			return err
		}
		if ok {
			countEvent(endpointValidation, "error")
			emit(update, validation.Response{Error: &msg})
			return nil
		}

		countEvent(endpointValidation, "unknown")
		return nil
	})
}
