package filter

import (
	"sort"
	"sync"
	"time"
)

// MaxSelectedPerGroup caps how many values a single filter group can hold.
const MaxSelectedPerGroup = 64

// Tag is a key/value document tag.
type Tag struct {
	Key   string `json:"tag_key"`
	Value string `json:"tag_value"`
}

// TimeRange bounds documents by update time. Either end may be open.
type TimeRange struct {
	Start *time.Time `json:"start,omitempty"`
	End   *time.Time `json:"end,omitempty"`
}

// Snapshot is the immutable filter state read at query submission.
type Snapshot struct {
	Sources      []string   `json:"source_type,omitempty"`
	DocumentSets []string   `json:"document_set,omitempty"`
	Tags         []Tag      `json:"tags,omitempty"`
	TimeRange    *TimeRange `json:"time_range,omitempty"`
}

// IsEmpty reports whether no filter is selected.
func (s Snapshot) IsEmpty() bool {
	return len(s.Sources) == 0 && len(s.DocumentSets) == 0 && len(s.Tags) == 0 && s.TimeRange == nil
}

// Manager holds user-selected search filters. Each group is independent;
// there is no cross-field validation. Safe for concurrent use.
type Manager struct {
	mu        sync.RWMutex
	sources   map[string]struct{}
	docSets   map[string]struct{}
	tags      map[Tag]struct{}
	timeRange *TimeRange
}

// NewManager creates an empty filter manager.
func NewManager() *Manager {
	return &Manager{
		sources: make(map[string]struct{}),
		docSets: make(map[string]struct{}),
		tags:    make(map[Tag]struct{}),
	}
}

// SetSources replaces the selected sources.
func (m *Manager) SetSources(sources ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sources = toSet(sources)
}

// ToggleSource adds the source if absent, removes it otherwise.
// Returns true if the source is selected after the call.
func (m *Manager) ToggleSource(source string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return toggle(m.sources, source)
}

// SelectedSources returns the selected sources in sorted order.
func (m *Manager) SelectedSources() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return sortedKeys(m.sources)
}

// SetDocumentSets replaces the selected document sets.
func (m *Manager) SetDocumentSets(names ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docSets = toSet(names)
}

// ToggleDocumentSet adds the document set if absent, removes it otherwise.
func (m *Manager) ToggleDocumentSet(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return toggle(m.docSets, name)
}

// SelectedDocumentSets returns the selected document sets in sorted order.
func (m *Manager) SelectedDocumentSets() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return sortedKeys(m.docSets)
}

// SetTags replaces the selected tags.
func (m *Manager) SetTags(tags ...Tag) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tags = make(map[Tag]struct{}, len(tags))
	for _, t := range tags {
		if t.Key == "" || len(m.tags) >= MaxSelectedPerGroup {
			continue
		}
		m.tags[t] = struct{}{}
	}
}

// ToggleTag adds the tag if absent, removes it otherwise.
func (m *Manager) ToggleTag(tag Tag) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tags[tag]; ok {
		delete(m.tags, tag)
		return false
	}
	if tag.Key == "" || len(m.tags) >= MaxSelectedPerGroup {
		return false
	}
	m.tags[tag] = struct{}{}
	return true
}

// SelectedTags returns the selected tags ordered by key, then value.
func (m *Manager) SelectedTags() []Tag {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return sortedTags(m.tags)
}

// SetTimeRange sets the time range. Both bounds nil clears it.
func (m *Manager) SetTimeRange(start, end *time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if start == nil && end == nil {
		m.timeRange = nil
		return
	}
	m.timeRange = &TimeRange{Start: copyTime(start), End: copyTime(end)}
}

// ClearTimeRange removes the time range.
func (m *Manager) ClearTimeRange() {
	m.SetTimeRange(nil, nil)
}

// TimeRange returns a copy of the selected time range, or nil.
func (m *Manager) TimeRange() *TimeRange {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copyRange(m.timeRange)
}

// Reset clears every filter group.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sources = make(map[string]struct{})
	m.docSets = make(map[string]struct{})
	m.tags = make(map[Tag]struct{})
	m.timeRange = nil
}

// Snapshot returns the aggregate filter state for query submission.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Snapshot{
		Sources:      sortedKeys(m.sources),
		DocumentSets: sortedKeys(m.docSets),
		Tags:         sortedTags(m.tags),
		TimeRange:    copyRange(m.timeRange),
	}
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v == "" || len(set) >= MaxSelectedPerGroup {
			continue
		}
		set[v] = struct{}{}
	}
	return set
}

func toggle(set map[string]struct{}, v string) bool {
	if _, ok := set[v]; ok {
		delete(set, v)
		return false
	}
	if v == "" || len(set) >= MaxSelectedPerGroup {
		return false
	}
	set[v] = struct{}{}
	return true
}

func sortedKeys(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sortedTags(set map[Tag]struct{}) []Tag {
	if len(set) == 0 {
		return nil
	}
	out := make([]Tag, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Key != out[j].Key {
			return out[i].Key < out[j].Key
		}
		return out[i].Value < out[j].Value
	})
	return out
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func copyRange(r *TimeRange) *TimeRange {
	if r == nil {
		return nil
	}
	return &TimeRange{Start: copyTime(r.Start), End: copyTime(r.End)}
}
