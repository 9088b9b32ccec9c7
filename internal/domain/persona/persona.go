package persona

import "github.com/kailas-cloud/searchdeck/internal/domain/search/filter"

// Persona is a backend-defined profile selecting model and behavior for a query.
type Persona struct {
	ID           int64                `json:"id"`
	Name         string               `json:"name"`
	Description  string               `json:"description,omitempty"`
	DocumentSets []filter.DocumentSet `json:"document_sets,omitempty"`
}

// Find returns the persona with the given id.
func Find(personas []Persona, id int64) (Persona, bool) {
	for _, p := range personas {
		if p.ID == id {
			return p, true
		}
	}
	return Persona{}, false
}

// DefaultID is the id of the first persona, or 0 when there are none.
func DefaultID(personas []Persona) int64 {
	if len(personas) == 0 {
		return 0
	}
	return personas[0].ID
}
