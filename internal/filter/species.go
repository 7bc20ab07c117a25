package filter

import (
	"strings"

	"github.com/vburojevic/mscope/internal/domain"
)

// SpeciesFilter keeps entries in which any listed species was counted
type SpeciesFilter struct {
	species []string
}

// NewSpeciesFilter creates a species filter. A trailing * matches by prefix.
func NewSpeciesFilter(species []string) *SpeciesFilter {
	return &SpeciesFilter{species: species}
}

func (f *SpeciesFilter) Match(entry domain.HistoryEntry) bool {
	if len(f.species) == 0 {
		return true
	}
	return containsSpecies(entry.Snapshot(), f.species)
}

// LocationFilter keeps entries sampled at a location starting with prefix
type LocationFilter struct {
	prefix string
}

// NewLocationFilter creates a location filter
func NewLocationFilter(prefix string) *LocationFilter {
	return &LocationFilter{prefix: prefix}
}

func (f *LocationFilter) Match(entry domain.HistoryEntry) bool {
	if f.prefix == "" {
		return true
	}
	return strings.HasPrefix(entry.Snapshot().Environmental().Location, f.prefix)
}

// containsSpecies reports whether r counted a species named in names, in
// its distribution or its alerts. Names are compared case-insensitively.
func containsSpecies(r domain.AnalysisResult, names []string) bool {
	for _, row := range r.SpeciesDistribution() {
		if speciesMatches(row.Name, names) {
			return true
		}
	}
	for _, a := range r.HighRiskAlerts() {
		if speciesMatches(a.Name, names) {
			return true
		}
	}
	return false
}

func speciesMatches(name string, names []string) bool {
	name = strings.ToLower(name)
	for _, n := range names {
		n = strings.ToLower(n)
		if prefix, ok := strings.CutSuffix(n, "*"); ok {
			if strings.HasPrefix(name, prefix) {
				return true
			}
		} else if name == n {
			return true
		}
	}
	return false
}
