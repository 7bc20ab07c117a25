package filter

import (
	"fmt"
	"regexp"

	"github.com/vburojevic/mscope/internal/domain"
)

// Options are the user-facing history filters, as given on the command line
// or in a query string.
type Options struct {
	Pattern  string   // name regex
	Exclude  []string // name regexes to drop
	Where    []string // where expressions, ANDed
	Risk     string   // minimum alert level
	Species  []string
	Location string // location prefix
}

// Build compiles opts. A nil Pipeline means no filtering. Every failure
// wraps domain.ErrInvalidFilter.
func Build(opts Options) (*Pipeline, error) {
	var pattern *regexp.Regexp
	if opts.Pattern != "" {
		var err error
		pattern, err = regexp.Compile(opts.Pattern)
		if err != nil {
			return nil, invalidFilter("pattern", err)
		}
	}

	var excludePatterns []*regexp.Regexp
	for _, excl := range opts.Exclude {
		re, err := regexp.Compile(excl)
		if err != nil {
			return nil, invalidFilter("exclude", err)
		}
		excludePatterns = append(excludePatterns, re)
	}

	where, err := NewWhereFilter(opts.Where)
	if err != nil {
		return nil, invalidFilter("where", err)
	}

	var extra []Filter
	if opts.Risk != "" {
		level, err := domain.ParseRiskLevel(opts.Risk)
		if err != nil {
			return nil, invalidFilter("risk", err)
		}
		extra = append(extra, NewRiskFilter(level))
	}
	if len(opts.Species) > 0 {
		extra = append(extra, NewSpeciesFilter(opts.Species))
	}
	if opts.Location != "" {
		extra = append(extra, NewLocationFilter(opts.Location))
	}

	return NewPipeline(pattern, excludePatterns, where, extra...), nil
}

func invalidFilter(what string, err error) error {
	return fmt.Errorf("%w: %s: %v", domain.ErrInvalidFilter, what, err)
}
