package filter

import (
	"regexp"

	"github.com/vburojevic/mscope/internal/domain"
)

// NameFilter keeps entries whose sample name matches a pattern
type NameFilter struct {
	pattern *regexp.Regexp
}

// NewNameFilter creates a name filter from a pattern string
func NewNameFilter(pattern string) (*NameFilter, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return &NameFilter{pattern: re}, nil
}

// NewNameFilterFromRegexp creates a name filter from a compiled regexp
func NewNameFilterFromRegexp(re *regexp.Regexp) *NameFilter {
	return &NameFilter{pattern: re}
}

func (f *NameFilter) Match(entry domain.HistoryEntry) bool {
	if f.pattern == nil {
		return true
	}
	return f.pattern.MatchString(entry.Name())
}
