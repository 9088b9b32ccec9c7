// Package search orchestrates streamed searches for one UI session.
//
// Every search runs two backend streams at once: the answer stream and the
// question-validation stream. A new search supersedes the previous one; late
// updates of a superseded search are dropped, never applied.
package search

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/searchdeck/internal/cancel"
	"github.com/kailas-cloud/searchdeck/internal/domain"
	"github.com/kailas-cloud/searchdeck/internal/domain/persona"
	"github.com/kailas-cloud/searchdeck/internal/domain/search/filter"
	"github.com/kailas-cloud/searchdeck/internal/domain/search/mode"
	"github.com/kailas-cloud/searchdeck/internal/domain/search/request"
	"github.com/kailas-cloud/searchdeck/internal/domain/search/response"
	"github.com/kailas-cloud/searchdeck/internal/domain/search/validation"
	logpkg "github.com/kailas-cloud/searchdeck/internal/logger"
)

// Search outcomes.
const (
	OutcomeCompleted  = "completed"
	OutcomeSuperseded = "superseded"
)

const malformedMessage = "Received a malformed response from the search backend."

// Config holds section settings. Every field is optional.
type Config struct {
	Personas          []persona.Persona
	DocumentSets      []filter.DocumentSet
	Sources           []string
	DefaultSearchType mode.SearchType
	Logger            *zap.Logger
	Outcomes          *prometheus.CounterVec // labels: outcome
}

// Section is the search state of one UI session. Safe for concurrent use.
type Section struct {
	streamer Streamer
	filters  *filter.Manager
	personas []persona.Persona
	docSets  []filter.DocumentSet
	sources  []string
	logger   *zap.Logger
	outcomes *prometheus.CounterVec

	notifyMu sync.Mutex // orders listener calls by version
	mu       sync.Mutex
	token    *cancel.Token
	searchID string
	query    string
	version  uint64
	resp     *response.SearchResponse
	valid    validation.Response
	fetching bool

	personaID   int64
	searchType  mode.SearchType
	defaults    DefaultOverrides
	llm         request.LLMOverride
	temperature *float64

	subs    map[uint64]func(View)
	nextSub uint64
}

// New creates a section. The first persona is selected.
func New(streamer Streamer, cfg Config) *Section {
	st := cfg.DefaultSearchType
	if !st.IsValid() {
		st = mode.Semantic
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Section{
		streamer:   streamer,
		filters:    filter.NewManager(),
		personas:   cfg.Personas,
		docSets:    cfg.DocumentSets,
		sources:    cfg.Sources,
		logger:     logger,
		outcomes:   cfg.Outcomes,
		resp:       response.New(),
		valid:      validation.Default(),
		personaID:  persona.DefaultID(cfg.Personas),
		searchType: st,
		subs:       make(map[uint64]func(View)),
	}
}

// Filters returns the section's filter state.
func (s *Section) Filters() *filter.Manager { return s.filters }

// Search supersedes any running search, streams a new one and waits until
// both of its streams have ended. Stream failures are reported in the view,
// not as an error; an error means the search never started. When the search
// is superseded while running, the newer search's view is returned.
func (s *Section) Search(ctx context.Context, query string, o Overrides) (View, error) {
	req, err := s.buildRequest(query, o)
	if err != nil {
		return View{}, err
	}

	id := o.ID
	if id == "" {
		id = uuid.NewString()
	}
	tok := cancel.New()
	resp := response.New()

	s.commit(nil, func() {
		// cancelled under the section lock: no update of the old search can land after this
		s.token.Cancel()
		s.token = tok
		s.searchID = id
		s.query = req.Query()
		s.resp = resp
		s.valid = validation.Default()
		s.fetching = true
	})

	log := logpkg.FromContext(ctx, s.logger).With(zap.String("search_id", id))
	log.Info("search started",
		zap.String("search_type", string(req.SearchType())),
		zap.Int("offset", req.Offset()),
		zap.Int64("persona_id", req.PersonaID()),
	)
	start := time.Now()

	u := s.bind(tok, resp)
	validate := guarded(s, tok, func(p validation.Response) { s.valid = s.valid.Merge(p) })

	var g errgroup.Group
	g.Go(func() error {
		if err := s.streamer.StreamSearch(ctx, req, u); err != nil {
			s.reportFailure(log, "search stream failed", err, u.Error)
		}
		return nil
	})
	g.Go(func() error {
		if err := s.streamer.StreamValidation(ctx, req.Query(), validate); err != nil {
			s.reportFailure(log, "validation stream failed", err, func(msg string) {
				validate(validation.Response{Error: &msg})
			})
		}
		return nil
	})
	_ = g.Wait()

	s.commit(tok, func() { s.fetching = false })

	outcome := OutcomeCompleted
	if tok.IsCancelled() {
		outcome = OutcomeSuperseded
	}
	if s.outcomes != nil {
		s.outcomes.WithLabelValues(outcome).Inc()
	}
	log.Info("search finished",
		zap.String("outcome", outcome),
		zap.Duration("duration", time.Since(start)),
	)

	return s.Snapshot(), nil
}

// Cancel supersedes the running search without starting a new one.
func (s *Section) Cancel() {
	s.commit(nil, func() {
		if s.token.IsCancelled() {
			return
		}
		s.token.Cancel()
		s.fetching = false
	})
}

// Snapshot returns a deep copy of the current state.
func (s *Section) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// Subscribe calls fn with a fresh view after every applied change until the
// returned func is called. fn runs synchronously and must not call Search.
func (s *Section) Subscribe(fn func(View)) (unsubscribe func()) {
	s.mu.Lock()
	s.nextSub++
	id := s.nextSub
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// bind wraps every field update of resp in the guard of tok.
func (s *Section) bind(tok *cancel.Token, resp *response.SearchResponse) response.Updates {
	raw := response.Bind(resp)
	return response.Updates{
		AppendAnswer:        guarded(s, tok, raw.AppendAnswer),
		Quotes:              guarded(s, tok, raw.Quotes),
		Documents:           guarded(s, tok, raw.Documents),
		SuggestedSearchType: guarded(s, tok, raw.SuggestedSearchType),
		SuggestedFlowType:   guarded(s, tok, raw.SuggestedFlowType),
		SelectedDocIndices:  guarded(s, tok, raw.SelectedDocIndices),
		Error:               guarded(s, tok, raw.Error),
		MessageID:           guarded(s, tok, raw.MessageID),
	}
}

// guarded returns fn as a section update: a no-op once tok is cancelled,
// otherwise applied under the section lock and published to subscribers.
func guarded[T any](s *Section, tok *cancel.Token, fn func(T)) func(T) {
	return cancel.Guard(tok, func(v T) {
		s.commit(tok, func() { fn(v) })
	})
}

// commit applies mutate under the lock unless tok is cancelled, then
// notifies subscribers. A nil tok always applies.
func (s *Section) commit(tok *cancel.Token, mutate func()) bool {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	if tok.IsCancelled() {
		s.mu.Unlock()
		return false
	}
	mutate()
	s.version++
	view := s.viewLocked()
	listeners := make([]func(View), 0, len(s.subs))
	for _, fn := range s.subs {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(view)
	}
	return true
}

func (s *Section) viewLocked() View {
	return View{
		SearchID:   s.searchID,
		Version:    s.version,
		Query:      s.query,
		Response:   s.resp.Clone(),
		Validation: s.valid.Clone(),
		IsFetching: s.fetching,
		Overrides:  s.defaults,
	}
}

func (s *Section) reportFailure(log *zap.Logger, msg string, err error, report func(string)) {
	if errors.Is(err, domain.ErrCancelled) {
		log.Debug(msg, zap.Error(err))
		return
	}
	log.Warn(msg, zap.Error(err))
	report(failureMessage(err))
}

func failureMessage(err error) string {
	if errors.Is(err, domain.ErrMalformedPayload) {
		return malformedMessage
	}
	fe := domain.AsFetchError(err)
	if d := fe.Detail(); d != "" {
		return d
	}
	return fe.Message
}

func (s *Section) buildRequest(query string, o Overrides) (request.Request, error) {
	s.mu.Lock()
	st := s.searchType
	offset := s.defaults.Offset
	personaID := s.personaID
	llm := s.llm
	temperature := s.temperature
	s.mu.Unlock()

	if o.SearchType != "" {
		st = o.SearchType
	}
	if o.Offset != nil {
		offset = *o.Offset
	}

	req, err := request.New(query, s.filters.Snapshot(), personaID, st, offset)
	if err != nil {
		return request.Request{}, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}
	req, err = req.WithLLMOverride(llm, temperature)
	if err != nil {
		return request.Request{}, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}
	return req, nil
}
