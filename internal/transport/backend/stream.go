package backend

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/kailas-cloud/searchdeck/internal/domain"
	"github.com/kailas-cloud/searchdeck/internal/metrics"
)

// maxPacketSize bounds a single NDJSON line. top_documents packets can be large.
const maxPacketSize = 4 << 20

type packet map[string]json.RawMessage

// readPackets decodes newline-delimited JSON objects from r and hands each to fn.
// A line that is not a JSON object aborts the stream with ErrMalformedPayload.
func readPackets(ctx context.Context, r io.Reader, fn func(packet) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), maxPacketSize)

	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %w", domain.ErrCancelled, err)
		}
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var p packet
		if err := json.Unmarshal(line, &p); err != nil {
			return fmt.Errorf("%w: stream line: %w", domain.ErrMalformedPayload, err)
		}
		if err := fn(p); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %w", domain.ErrCancelled, ctx.Err())
		}
		return fmt.Errorf("%w: read stream: %w", domain.ErrTransport, err)
	}
	return nil
}

// field decodes p[key] into out. Reports whether the key was present.
func field[T any](p packet, key string, out *T) (bool, error) {
	raw, ok := p[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return true, fmt.Errorf("%w: field %q: %w", domain.ErrMalformedPayload, key, err)
	}
	return true, nil
}

func countEvent(stream, event string) {
	metrics.StreamEventsTotal.WithLabelValues(stream, event).Inc()
}

func emit[T any](fn func(T), v T) {
	if fn != nil {
		fn(v)
	}
}
