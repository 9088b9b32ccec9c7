package filter

import "sort"

// DocumentSet is a named group of documents drawn from one or more sources.
type DocumentSet struct {
	ID      int64    `json:"id"`
	Name    string   `json:"name"`
	Sources []string `json:"sources"`
}

// ComputeAvailable narrows the filters a user can pick.
// When the selected persona is pinned to document sets, only those sets and
// the sources they draw from are offered; otherwise everything is.
// Sources are de-duplicated and sorted.
func ComputeAvailable(
	personaSets []DocumentSet, sources []string, docSets []DocumentSet,
) ([]string, []DocumentSet) {
	if len(personaSets) == 0 {
		return dedupe(sources), docSets
	}

	var personaSources []string
	for _, ds := range personaSets {
		personaSources = append(personaSources, ds.Sources...)
	}
	return dedupe(personaSources), personaSets
}

func dedupe(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
