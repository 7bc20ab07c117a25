package filter

import (
	"regexp"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vburojevic/mscope/internal/domain"
)

const (
	chennai   = "13.0827° N, 80.2707° E"
	bengaluru = "12.9716° N, 77.5946° E"
)

func entry(t testing.TB, id, name string, savedAt time.Time, spec domain.ResultSpec) domain.HistoryEntry {
	t.Helper()
	spec.Environmental.Timestamp = savedAt.Add(-time.Minute)
	res, err := domain.NewAnalysisResult(spec)
	require.NoError(t, err)
	e, err := domain.NewHistoryEntry(id, name, savedAt, res)
	require.NoError(t, err)
	return e
}

// samples returns bay (high risk), dock (moderate risk) and reef (no alerts).
func samples(t testing.TB) (bay, dock, reef domain.HistoryEntry) {
	bay = entry(t, "history_1", "Bay-Sample-001", time.Date(2026, 10, 1, 10, 0, 0, 0, time.UTC), domain.ResultSpec{
		ID:             "scan_1",
		TotalOrganisms: 80,
		UniqueSpecies:  9,
		HighRiskAlerts: []domain.RiskAlert{{Name: "Dinophysis", Species: "Dinoflagellate", Count: 5, RiskLevel: domain.RiskHigh}},
		Environmental:  domain.Environmental{Location: chennai, Temperature: "28.1°C"},
		SpeciesDistribution: []domain.SpeciesCount{
			{Name: "Chaetoceros", Count: 30},
			{Name: "Thalassiosira", Count: 25},
			{Name: "Prorocentrum", Count: 15},
			{Name: "Dinophysis", Count: 5},
			{Name: "Other", Count: 5},
		},
	})
	dock = entry(t, "history_2", "Dock-A-5", time.Date(2026, 10, 3, 8, 0, 0, 0, time.UTC), domain.ResultSpec{
		ID:             "scan_2",
		TotalOrganisms: 40,
		UniqueSpecies:  4,
		HighRiskAlerts: []domain.RiskAlert{{Name: "Pseudo-nitzschia", Species: "Diatom", Count: 3, RiskLevel: domain.RiskModerate}},
		Environmental:  domain.Environmental{Location: bengaluru, Temperature: "18.5°C"},
		SpeciesDistribution: []domain.SpeciesCount{
			{Name: "Chaetoceros", Count: 20},
			{Name: "Skeletonema", Count: 20},
		},
	})
	reef = entry(t, "history_3", "Reef-Clean", time.Date(2026, 10, 5, 0, 0, 0, 0, time.UTC), domain.ResultSpec{
		ID:             "scan_3",
		TotalOrganisms: 12,
		UniqueSpecies:  2,
		Environmental:  domain.Environmental{Location: chennai, Temperature: "24.0°C"},
		SpeciesDistribution: []domain.SpeciesCount{
			{Name: "Navicula", Count: 7},
			{Name: "Nitzschia", Count: 5},
		},
	})
	return bay, dock, reef
}

// matches reports f.Match for bay, dock and reef in that order.
func matches(t *testing.T, f Filter) [3]bool {
	t.Helper()
	bay, dock, reef := samples(t)
	return [3]bool{f.Match(bay), f.Match(dock), f.Match(reef)}
}

func TestChain(t *testing.T) {
	t.Run("empty chain matches all", func(t *testing.T) {
		assert.Equal(t, [3]bool{true, true, true}, matches(t, NewChain()))
	})

	t.Run("all filters must pass", func(t *testing.T) {
		chain := NewChain(
			NewNameFilterFromRegexp(regexp.MustCompile("^(Bay|Reef)")),
			NewRiskFilter(domain.RiskModerate),
		)
		assert.Equal(t, [3]bool{true, false, false}, matches(t, chain))
	})

	t.Run("add filter to chain", func(t *testing.T) {
		chain := NewChain()
		chain.Add(NewRiskFilter(domain.RiskHigh))
		assert.Equal(t, [3]bool{true, false, false}, matches(t, chain))
	})
}

func TestOrChain(t *testing.T) {
	t.Run("empty OR chain matches all", func(t *testing.T) {
		assert.Equal(t, [3]bool{true, true, true}, matches(t, NewOrChain()))
	})

	t.Run("any filter can pass", func(t *testing.T) {
		chain := NewOrChain(
			NewNameFilterFromRegexp(regexp.MustCompile("^Dock")),
			NewRiskFilter(domain.RiskHigh),
		)
		assert.Equal(t, [3]bool{true, true, false}, matches(t, chain))
	})
}

func TestNameFilter(t *testing.T) {
	t.Run("nil pattern matches all", func(t *testing.T) {
		assert.Equal(t, [3]bool{true, true, true}, matches(t, NewNameFilterFromRegexp(nil)))
	})

	t.Run("case sensitive by default", func(t *testing.T) {
		f, err := NewNameFilter("bay")
		require.NoError(t, err)
		assert.Equal(t, [3]bool{false, false, false}, matches(t, f))
	})

	t.Run("case insensitive with flag", func(t *testing.T) {
		f, err := NewNameFilter("(?i)bay")
		require.NoError(t, err)
		assert.Equal(t, [3]bool{true, false, false}, matches(t, f))
	})

	t.Run("invalid pattern returns error", func(t *testing.T) {
		_, err := NewNameFilter("[")
		assert.Error(t, err)
	})
}

func TestExcludePatternFilter(t *testing.T) {
	t.Run("excludes matching names", func(t *testing.T) {
		f, err := NewExcludePatternFilter("Clean$")
		require.NoError(t, err)
		assert.Equal(t, [3]bool{true, true, false}, matches(t, f))
	})

	t.Run("invalid pattern returns error", func(t *testing.T) {
		_, err := NewExcludePatternFilter("(")
		assert.Error(t, err)
	})
}

func TestSpeciesFilters(t *testing.T) {
	t.Run("empty list is a no-op", func(t *testing.T) {
		assert.Equal(t, [3]bool{true, true, true}, matches(t, NewSpeciesFilter(nil)))
		assert.Equal(t, [3]bool{true, true, true}, matches(t, NewExcludeSpeciesFilter(nil)))
	})

	t.Run("exact names ignore case", func(t *testing.T) {
		assert.Equal(t, [3]bool{true, true, false}, matches(t, NewSpeciesFilter([]string{"chaetoceros"})))
		assert.Equal(t, [3]bool{false, true, true}, matches(t, NewExcludeSpeciesFilter([]string{"Dinophysis"})))
	})

	t.Run("wildcard prefix", func(t *testing.T) {
		assert.Equal(t, [3]bool{false, false, true}, matches(t, NewSpeciesFilter([]string{"Nav*"})))
		assert.Equal(t, [3]bool{true, false, true}, matches(t, NewExcludeSpeciesFilter([]string{"Skeleto*"})))
	})

	t.Run("alert organisms count as present", func(t *testing.T) {
		assert.Equal(t, [3]bool{false, true, false}, matches(t, NewSpeciesFilter([]string{"Pseudo-nitzschia"})))
	})
}

func TestLocationFilter(t *testing.T) {
	assert.Equal(t, [3]bool{true, true, true}, matches(t, NewLocationFilter("")))
	assert.Equal(t, [3]bool{true, false, true}, matches(t, NewLocationFilter("13.0827")))
}

func TestRiskFilter(t *testing.T) {
	tests := []struct {
		name     string
		minLevel domain.RiskLevel
		expected [3]bool
	}{
		{"no minimum keeps everything", "", [3]bool{true, true, true}},
		{"low needs any alert", domain.RiskLow, [3]bool{true, true, false}},
		{"moderate", domain.RiskModerate, [3]bool{true, true, false}},
		{"high", domain.RiskHigh, [3]bool{true, false, false}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, matches(t, NewRiskFilter(tt.minLevel)))
		})
	}
}

func TestParseWhereClause(t *testing.T) {
	t.Run("operators", func(t *testing.T) {
		tests := []struct {
			clause, field, op, value string
		}{
			{"risk>=moderate", "risk", ">=", "moderate"},
			{"total<=40", "total", "<=", "40"},
			{"name!=Dock-A-5", "name", "!=", "Dock-A-5"},
			{"name~bay", "name", "~", "bay"},
			{"name!~bay", "name", "!~", "bay"},
			{"name^Bay", "name", "^", "Bay"},
			{"name$001", "name", "$", "001"},
			{"savedAt>=2026-10-03", "savedAt", ">=", "2026-10-03"},
		}
		for _, tt := range tests {
			wc, err := ParseWhereClause(tt.clause)
			require.NoError(t, err, tt.clause)
			assert.Equal(t, tt.field, wc.Field, tt.clause)
			assert.Equal(t, tt.op, wc.Operator, tt.clause)
			assert.Equal(t, tt.value, wc.Value, tt.clause)
		}
	})

	t.Run("quoted values may contain operators", func(t *testing.T) {
		wc, err := ParseWhereClause(`name="a=b"`)
		require.NoError(t, err)
		assert.Equal(t, "a=b", wc.Value)
	})

	t.Run("errors", func(t *testing.T) {
		for _, clause := range []string{"risk", "pid=1", "name~[", "=x", "name="} {
			_, err := ParseWhereClause(clause)
			assert.Error(t, err, clause)
		}
	})
}

func TestWhereClauseMatch(t *testing.T) {
	tests := []struct {
		clause   string
		expected [3]bool
	}{
		{"risk=high", [3]bool{true, false, false}},
		{"risk>=moderate", [3]bool{true, true, false}},
		{"risk<=moderate", [3]bool{false, true, true}},
		{"total>=40", [3]bool{true, true, false}},
		{"total=80", [3]bool{true, false, false}},
		{"total!=80", [3]bool{false, true, true}},
		{"unique<=4", [3]bool{false, true, true}},
		{"alerts=0", [3]bool{false, false, true}},
		{"temperature>=20", [3]bool{true, false, true}},
		{"temperature<=18.5°C", [3]bool{false, true, false}},
		{"savedAt>=2026-10-03", [3]bool{false, true, true}},
		{"savedAt<=2026-10-01T10:00:00Z", [3]bool{true, false, false}},
		{"species~Skeleto", [3]bool{false, true, false}},
		{"species!~Chaetoceros", [3]bool{false, false, true}},
		{"name^Bay", [3]bool{true, false, false}},
		{"name$001", [3]bool{true, false, false}},
		{"location^13.08", [3]bool{true, false, true}},
		{"scan=scan_2", [3]bool{false, true, false}},
		{"id=history_3", [3]bool{false, false, true}},
		{"name>=A", [3]bool{false, false, false}},
		{"total>=many", [3]bool{false, false, false}},
	}

	for _, tt := range tests {
		t.Run(tt.clause, func(t *testing.T) {
			wc, err := ParseWhereClause(tt.clause)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, matches(t, wc))
		})
	}
}

func TestWhereFilter(t *testing.T) {
	t.Run("nil for empty clauses", func(t *testing.T) {
		f, err := NewWhereFilter(nil)
		require.NoError(t, err)
		assert.Nil(t, f)
		assert.True(t, f.Match(domain.HistoryEntry{}))
	})

	t.Run("AND logic for multiple clauses", func(t *testing.T) {
		f, err := NewWhereFilter([]string{"total>=40", "risk=high"})
		require.NoError(t, err)
		assert.Equal(t, [3]bool{true, false, false}, matches(t, f))
	})

	t.Run("expressions", func(t *testing.T) {
		tests := []struct {
			expr     string
			expected [3]bool
		}{
			{`(risk=high || name^Dock) && !species~/navicula/i`, [3]bool{true, true, false}},
			{`risk=moderate or alerts=0`, [3]bool{false, true, true}},
			{`savedAt>=2026-10-03 and savedAt<=2026-10-04`, [3]bool{false, true, false}},
			{`location="13.0827° N, 80.2707° E"`, [3]bool{true, false, true}},
			{`temperature<=18.5`, [3]bool{false, true, false}},
			{`not (total>=40)`, [3]bool{false, false, true}},
		}
		for _, tt := range tests {
			f, err := NewWhereFilter([]string{tt.expr})
			require.NoError(t, err, tt.expr)
			assert.Equal(t, tt.expected, matches(t, f), tt.expr)
		}
	})

	t.Run("invalid expressions return errors", func(t *testing.T) {
		for _, expr := range []string{
			"pid=1",
			"name=",
			"(risk=high",
			`name~"x`,
			"risk=high &",
			"total>40",
			"name~/[/",
		} {
			_, err := NewWhereFilter([]string{expr})
			assert.Error(t, err, expr)
		}
	})
}

func TestPipeline(t *testing.T) {
	bay, dock, reef := samples(t)
	all := []domain.HistoryEntry{reef, dock, bay}

	t.Run("nothing to filter", func(t *testing.T) {
		p := NewPipeline(nil, nil, nil)
		assert.Nil(t, p)
		assert.True(t, p.Match(bay))
		assert.Equal(t, all, p.Select(slices.Values(all)))
	})

	t.Run("combines predicates and keeps order", func(t *testing.T) {
		where, err := NewWhereFilter([]string{"risk>=low"})
		require.NoError(t, err)
		p := NewPipeline(
			regexp.MustCompile("-"),
			[]*regexp.Regexp{regexp.MustCompile("^Reef")},
			where,
			NewSpeciesFilter([]string{"Chaetoceros"}),
		)
		assert.Equal(t, []domain.HistoryEntry{dock, bay}, p.Select(slices.Values(all)))
	})

	t.Run("extra filters alone", func(t *testing.T) {
		p := NewPipeline(nil, nil, nil, NewLocationFilter("12.97"))
		require.NotNil(t, p)
		assert.Equal(t, []domain.HistoryEntry{dock}, p.Select(slices.Values(all)))
	})
}

func TestBuild(t *testing.T) {
	bay, dock, reef := samples(t)
	all := []domain.HistoryEntry{reef, dock, bay}

	t.Run("empty options", func(t *testing.T) {
		p, err := Build(Options{})
		require.NoError(t, err)
		assert.Nil(t, p)
	})

	t.Run("all options", func(t *testing.T) {
		p, err := Build(Options{
			Pattern:  "-",
			Exclude:  []string{"^Dock"},
			Where:    []string{"total>=10"},
			Risk:     "high",
			Species:  []string{"Dino*"},
			Location: "13.",
		})
		require.NoError(t, err)
		assert.Equal(t, []domain.HistoryEntry{bay}, p.Select(slices.Values(all)))
	})

	t.Run("errors wrap ErrInvalidFilter", func(t *testing.T) {
		for _, opts := range []Options{
			{Pattern: "["},
			{Exclude: []string{"("}},
			{Where: []string{"pid=1"}},
			{Risk: "severe"},
		} {
			_, err := Build(opts)
			require.ErrorIs(t, err, domain.ErrInvalidFilter)
			assert.Equal(t, domain.CodeInvalidFilter, domain.Code(err))
		}
	})
}
