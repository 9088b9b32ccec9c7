package search

import (
	"fmt"

	"github.com/kailas-cloud/searchdeck/internal/domain"
	"github.com/kailas-cloud/searchdeck/internal/domain/persona"
	"github.com/kailas-cloud/searchdeck/internal/domain/search/filter"
	"github.com/kailas-cloud/searchdeck/internal/domain/search/mode"
	"github.com/kailas-cloud/searchdeck/internal/domain/search/request"
)

// SelectPersona picks the persona answering later searches.
func (s *Section) SelectPersona(id int64) error {
	if _, ok := persona.Find(s.personas, id); !ok {
		return fmt.Errorf("persona %d: %w", id, domain.ErrNotFound)
	}
	s.mu.Lock()
	s.personaID = id
	s.mu.Unlock()
	return nil
}

// PersonaID returns the selected persona (0 when none are configured).
func (s *Section) PersonaID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.personaID
}

// Personas returns the configured personas.
func (s *Section) Personas() []persona.Persona {
	return append([]persona.Persona(nil), s.personas...)
}

// SetSearchType sets the search type used when a search has no override.
func (s *Section) SetSearchType(t mode.SearchType) error {
	if !t.IsValid() {
		return fmt.Errorf("%w: invalid search type %q", domain.ErrInvalidRequest, t)
	}
	s.mu.Lock()
	s.searchType = t
	s.mu.Unlock()
	return nil
}

// SearchType returns the section search type.
func (s *Section) SearchType() mode.SearchType {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.searchType
}

// SetOffset sets the default result offset.
func (s *Section) SetOffset(offset int) error {
	if offset < 0 || offset > request.MaxOffset {
		return fmt.Errorf("%w: offset must be between 0 and %d", domain.ErrInvalidRequest, request.MaxOffset)
	}
	s.commit(nil, func() { s.defaults.Offset = offset })
	return nil
}

// ForceDisplayQA asks the UI to show the answer section even when the
// backend predicts a plain search flow.
func (s *Section) ForceDisplayQA(force bool) {
	s.commit(nil, func() { s.defaults.ForceDisplayQA = force })
}

// ResetOverrides restores the default overrides.
func (s *Section) ResetOverrides() {
	s.commit(nil, func() { s.defaults = DefaultOverrides{} })
}

// DefaultOverrides returns the section-wide overrides.
func (s *Section) DefaultOverrides() DefaultOverrides {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.defaults
}

// SetLLMOverride pins the model and temperature for later searches.
// A zero override and nil temperature clear it.
func (s *Section) SetLLMOverride(o request.LLMOverride, temperature *float64) error {
	if temperature != nil && (*temperature < request.MinTemperature || *temperature > request.MaxTemperature) {
		return fmt.Errorf("%w: temperature must be between %.0f and %.0f",
			domain.ErrInvalidRequest, request.MinTemperature, request.MaxTemperature)
	}
	var t *float64
	if temperature != nil {
		v := *temperature
		t = &v
	}
	s.mu.Lock()
	s.llm = o
	s.temperature = t
	s.mu.Unlock()
	return nil
}

// AvailableFilters returns the sources and document sets the selected
// persona can search.
func (s *Section) AvailableFilters() ([]string, []filter.DocumentSet) {
	p, _ := persona.Find(s.personas, s.PersonaID())
	return filter.ComputeAvailable(p.DocumentSets, s.sources, s.docSets)
}
