package cli

import (
	"github.com/vburojevic/mscope/internal/filter"
)

// FilterFlags selects saved samples for history commands.
type FilterFlags struct {
	Pattern  string   `short:"p" help:"Keep samples whose name matches this regex"`
	Exclude  []string `short:"x" help:"Drop samples whose name matches this regex (repeatable)"`
	Where    []string `short:"w" help:"Field expression, e.g. 'risk>=moderate && total>=40' (repeatable, ANDed)"`
	Risk     string   `help:"Keep samples with an alert at or above this level (low, moderate, high)"`
	Species  []string `help:"Keep samples containing this species; a trailing * matches by prefix (repeatable)"`
	Location string   `help:"Keep samples whose location starts with this prefix"`
}

// buildFilters compiles the flags into a pipeline; nil means no filtering.
func (f FilterFlags) buildFilters() (*filter.Pipeline, error) {
	return filter.Build(filter.Options{
		Pattern:  f.Pattern,
		Exclude:  f.Exclude,
		Where:    f.Where,
		Risk:     f.Risk,
		Species:  f.Species,
		Location: f.Location,
	})
}
