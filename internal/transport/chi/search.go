package chi

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/google/uuid"

	"github.com/kailas-cloud/searchdeck/internal/domain/persona"
	"github.com/kailas-cloud/searchdeck/internal/domain/search/filter"
	"github.com/kailas-cloud/searchdeck/internal/domain/search/mode"
	"github.com/kailas-cloud/searchdeck/internal/domain/search/request"
	searchuc "github.com/kailas-cloud/searchdeck/internal/usecase/search"
)

type searchRequest struct {
	Query        string               `json:"query"`
	Sources      []string             `json:"sources"`
	DocumentSets []string             `json:"document_sets"`
	Tags         []filter.Tag         `json:"tags"`
	TimeRange    *filter.TimeRange    `json:"time_range"`
	PersonaID    *int64               `json:"persona_id"`
	SearchType   mode.SearchType      `json:"search_type"`
	Offset       *int                 `json:"offset"`
	LLMOverride  *request.LLMOverride `json:"llm_override"`
	Temperature  *float64             `json:"temperature"`
}

type searchStateResponse struct {
	View                  searchuc.View        `json:"view"`
	PersonaID             int64                `json:"persona_id"`
	Personas              []persona.Persona    `json:"personas"`
	AvailableSources      []string             `json:"available_sources"`
	AvailableDocumentSets []filter.DocumentSet `json:"available_document_sets"`
	Filters               filter.Snapshot      `json:"filters"`
}

// Search handles POST /api/search. The response is NDJSON: one view per
// applied update of this search, then the final view. The stream ends early,
// without a final view, when a newer search on the same session supersedes it.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	sessionID, sec, err := s.sessions.acquire(r.Header.Get(sessionHeader))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.Header().Set(sessionHeader, sessionID)

	if err := applySearchSettings(sec, &req); err != nil {
		s.handleDomainError(w, err)
		return
	}

	stream := newViewStream(uuid.NewString())
	unsubscribe := sec.Subscribe(stream.offer)
	defer unsubscribe()

	type outcome struct {
		view searchuc.View
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		v, err := sec.Search(r.Context(), req.Query, searchuc.Overrides{
			ID:         stream.searchID,
			SearchType: req.SearchType,
			Offset:     req.Offset,
		})
		done <- outcome{view: v, err: err}
	}()

	out := newNDJSONWriter(w)
	for {
		select {
		case <-stream.signal:
			out.write(stream.latest())
			if stream.superseded() {
				return
			}
		case res := <-done:
			if res.err != nil {
				if !out.started {
					s.handleDomainError(w, res.err)
				}
				return
			}
			if res.view.SearchID == stream.searchID {
				out.write(&res.view)
			}
			return
		case <-r.Context().Done():
			<-done
			return
		}
	}
}

// SearchState handles GET /api/search/state.
func (s *Server) SearchState(w http.ResponseWriter, r *http.Request) {
	sessionID, sec, err := s.sessions.acquire(r.Header.Get(sessionHeader))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.Header().Set(sessionHeader, sessionID)

	sources, docSets := sec.AvailableFilters()
	writeJSON(w, http.StatusOK, searchStateResponse{
		View:                  sec.Snapshot(),
		PersonaID:             sec.PersonaID(),
		Personas:              sec.Personas(),
		AvailableSources:      sources,
		AvailableDocumentSets: docSets,
		Filters:               sec.Filters().Snapshot(),
	})
}

// CancelSearch handles DELETE /api/search.
func (s *Server) CancelSearch(w http.ResponseWriter, r *http.Request) {
	if sec, ok := s.sessions.lookup(r.Header.Get(sessionHeader)); ok {
		sec.Cancel()
	}
	w.WriteHeader(http.StatusNoContent)
}

func applySearchSettings(sec *searchuc.Section, req *searchRequest) error {
	f := sec.Filters()
	f.SetSources(req.Sources...)
	f.SetDocumentSets(req.DocumentSets...)
	f.SetTags(req.Tags...)
	if req.TimeRange != nil {
		f.SetTimeRange(req.TimeRange.Start, req.TimeRange.End)
	} else {
		f.ClearTimeRange()
	}

	if req.PersonaID != nil {
		if err := sec.SelectPersona(*req.PersonaID); err != nil {
			return err
		}
	}

	var o request.LLMOverride
	if req.LLMOverride != nil {
		o = *req.LLMOverride
	}
	return sec.SetLLMOverride(o, req.Temperature)
}

// viewStream collects the views of one search from a section subscription.
// Only the newest view is kept; signal wakes the writer.
type viewStream struct {
	searchID string
	signal   chan struct{}

	mu       sync.Mutex
	view     *searchuc.View
	started  bool
	replaced bool
}

func newViewStream(searchID string) *viewStream {
	return &viewStream{searchID: searchID, signal: make(chan struct{}, 1)}
}

func (v *viewStream) offer(view searchuc.View) {
	v.mu.Lock()
	switch {
	case view.SearchID == v.searchID:
		v.started = true
		if v.view == nil || view.Version > v.view.Version {
			v.view = &view
		}
	case v.started:
		v.replaced = true
	default:
		v.mu.Unlock()
		return
	}
	v.mu.Unlock()

	select {
	case v.signal <- struct{}{}:
	default:
	}
}

func (v *viewStream) latest() *searchuc.View {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.view
}

func (v *viewStream) superseded() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.replaced
}

// ndjsonWriter writes views as newline-delimited JSON, skipping stale ones.
type ndjsonWriter struct {
	w       http.ResponseWriter
	rc      *http.ResponseController
	enc     *json.Encoder
	started bool
	sent    uint64
}

func newNDJSONWriter(w http.ResponseWriter) *ndjsonWriter {
	return &ndjsonWriter{w: w, rc: http.NewResponseController(w), enc: json.NewEncoder(w)}
}

func (n *ndjsonWriter) write(v *searchuc.View) {
	if v == nil || (n.started && v.Version <= n.sent) {
		return
	}
	if !n.started {
		n.w.Header().Set("Content-Type", "application/x-ndjson")
		n.w.Header().Set("Cache-Control", "no-cache")
		n.w.WriteHeader(http.StatusOK)
		n.started = true
	}
	_ = n.enc.Encode(v)
	_ = n.rc.Flush()
	n.sent = v.Version
}
