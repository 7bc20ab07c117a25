package filter

import (
	"regexp"

	"github.com/vburojevic/mscope/internal/domain"
)

// ExcludePatternFilter drops entries whose name matches a pattern
type ExcludePatternFilter struct {
	pattern *regexp.Regexp
}

// NewExcludePatternFilter creates an exclusion filter from a pattern string
func NewExcludePatternFilter(pattern string) (*ExcludePatternFilter, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return &ExcludePatternFilter{pattern: re}, nil
}

// Match returns true if the entry name does NOT match the exclusion pattern
func (f *ExcludePatternFilter) Match(entry domain.HistoryEntry) bool {
	if f.pattern == nil {
		return true
	}
	return !f.pattern.MatchString(entry.Name())
}

// ExcludeSpeciesFilter drops entries in which any listed species was counted
type ExcludeSpeciesFilter struct {
	species []string
}

// NewExcludeSpeciesFilter creates an exclusion filter for species names.
// A trailing * matches by prefix.
func NewExcludeSpeciesFilter(species []string) *ExcludeSpeciesFilter {
	return &ExcludeSpeciesFilter{species: species}
}

func (f *ExcludeSpeciesFilter) Match(entry domain.HistoryEntry) bool {
	if len(f.species) == 0 {
		return true
	}
	return !containsSpecies(entry.Snapshot(), f.species)
}
