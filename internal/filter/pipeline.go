package filter

import (
	"iter"
	"regexp"

	"github.com/vburojevic/mscope/internal/domain"
)

// Pipeline chains name pattern, exclude and where predicates so callers can
// reuse a single matcher.
type Pipeline struct {
	pattern  *regexp.Regexp
	excludes []*regexp.Regexp
	extra    []Filter
	where    *WhereFilter
}

// NewPipeline returns nil when there is nothing to filter on; a nil
// Pipeline matches every entry.
func NewPipeline(pattern *regexp.Regexp, excludes []*regexp.Regexp, where *WhereFilter, extra ...Filter) *Pipeline {
	if pattern == nil && len(excludes) == 0 && where == nil && len(extra) == 0 {
		return nil
	}
	return &Pipeline{pattern: pattern, excludes: excludes, where: where, extra: extra}
}

// Match returns true when the entry passes all predicates.
func (p *Pipeline) Match(entry domain.HistoryEntry) bool {
	if p == nil || entry.IsZero() {
		return true
	}
	if p.pattern != nil && !p.pattern.MatchString(entry.Name()) {
		return false
	}
	for _, ex := range p.excludes {
		if ex.MatchString(entry.Name()) {
			return false
		}
	}
	for _, f := range p.extra {
		if !f.Match(entry) {
			return false
		}
	}
	if p.where != nil && !p.where.Match(entry) {
		return false
	}
	return true
}

// Select collects the entries of seq that match, keeping their order.
func (p *Pipeline) Select(seq iter.Seq[domain.HistoryEntry]) []domain.HistoryEntry {
	out := make([]domain.HistoryEntry, 0)
	for e := range seq {
		if p.Match(e) {
			out = append(out, e)
		}
	}
	return out
}
