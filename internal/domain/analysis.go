// Package domain defines the analysis result model, history entries, the
// derived statistics computed from them and the session state enumerations.
//
// AnalysisResult and HistoryEntry are immutable values: their fields are
// only reachable through accessors that return copies, and the only way to
// build one is through a validating constructor.
package domain

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"
)

// RiskLevel classifies a high-risk alert.
type RiskLevel string

const (
	RiskLow      RiskLevel = "Low"
	RiskModerate RiskLevel = "Moderate"
	RiskHigh     RiskLevel = "High"
)

// Valid reports whether r is one of the known risk levels.
func (r RiskLevel) Valid() bool {
	switch r {
	case RiskLow, RiskModerate, RiskHigh:
		return true
	}
	return false
}

// Rank orders risk levels from Low (1) to High (3). Unknown levels rank 0.
func (r RiskLevel) Rank() int {
	switch r {
	case RiskLow:
		return 1
	case RiskModerate:
		return 2
	case RiskHigh:
		return 3
	}
	return 0
}

// ParseRiskLevel parses a risk level name case-insensitively.
func ParseRiskLevel(s string) (RiskLevel, error) {
	for _, r := range []RiskLevel{RiskLow, RiskModerate, RiskHigh} {
		if strings.EqualFold(strings.TrimSpace(s), string(r)) {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown risk level %q (use low, moderate, high)", s)
}

// RiskAlert flags an organism detected at a concerning count.
type RiskAlert struct {
	Name      string    `json:"name"`
	Species   string    `json:"species"`
	Count     int       `json:"count"`
	RiskLevel RiskLevel `json:"risk"`
}

// SpeciesCount is one row of the species distribution.
type SpeciesCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Environmental carries the sampling conditions of a scan.
type Environmental struct {
	Location    string    `json:"location"`
	Temperature string    `json:"temperature"`
	Timestamp   time.Time `json:"timestamp"`
}

// ResultSpec is the raw, unvalidated shape a scan source fills in.
type ResultSpec struct {
	ID                  string         `json:"id"`
	ImageRef            string         `json:"image"`
	TotalOrganisms      int            `json:"totalOrganisms"`
	UniqueSpecies       int            `json:"uniqueSpecies"`
	HighRiskAlerts      []RiskAlert    `json:"highRiskAlerts"`
	Environmental       Environmental  `json:"environmental"`
	SpeciesDistribution []SpeciesCount `json:"speciesDistribution"`
}

// AnalysisResult is the validated output of one scan.
type AnalysisResult struct {
	id            string
	imageRef      string
	total         int
	unique        int
	alerts        []RiskAlert
	environmental Environmental
	distribution  []SpeciesCount
}

// MaxCount bounds every organism count, and the sum of the species
// distribution, so percentages can be computed in int arithmetic.
const MaxCount = 1 << 40

// NewAnalysisResult validates spec and returns the immutable result built
// from it. Every failure wraps ErrInvalidResult.
func NewAnalysisResult(spec ResultSpec) (AnalysisResult, error) {
	if strings.TrimSpace(spec.ID) == "" {
		return AnalysisResult{}, invalid("id is required")
	}
	if spec.TotalOrganisms < 0 {
		return AnalysisResult{}, invalid("totalOrganisms is negative (%d)", spec.TotalOrganisms)
	}
	if spec.UniqueSpecies < 0 {
		return AnalysisResult{}, invalid("uniqueSpecies is negative (%d)", spec.UniqueSpecies)
	}
	if spec.TotalOrganisms > MaxCount || spec.UniqueSpecies > MaxCount {
		return AnalysisResult{}, invalid("counts above %d are not supported", MaxCount)
	}
	for i, a := range spec.HighRiskAlerts {
		if a.Count < 0 {
			return AnalysisResult{}, invalid("highRiskAlerts[%d] (%s) has negative count %d", i, a.Name, a.Count)
		}
		if a.Count > MaxCount {
			return AnalysisResult{}, invalid("highRiskAlerts[%d] (%s) count %d exceeds %d", i, a.Name, a.Count, MaxCount)
		}
		if !a.RiskLevel.Valid() {
			return AnalysisResult{}, invalid("highRiskAlerts[%d] (%s) has unknown risk level %q", i, a.Name, a.RiskLevel)
		}
	}
	if spec.Environmental.Timestamp.IsZero() {
		return AnalysisResult{}, invalid("environmental.timestamp is not a valid instant")
	}
	seen := make(map[string]struct{}, len(spec.SpeciesDistribution))
	sum := 0
	for i, s := range spec.SpeciesDistribution {
		if strings.TrimSpace(s.Name) == "" {
			return AnalysisResult{}, invalid("speciesDistribution[%d] has no name", i)
		}
		if s.Count < 0 {
			return AnalysisResult{}, invalid("speciesDistribution[%d] (%s) has negative count %d", i, s.Name, s.Count)
		}
		if sum += s.Count; s.Count > MaxCount || sum > MaxCount {
			return AnalysisResult{}, invalid("speciesDistribution counts exceed %d at [%d] (%s)", MaxCount, i, s.Name)
		}
		if _, dup := seen[s.Name]; dup {
			return AnalysisResult{}, invalid("speciesDistribution has duplicate name %q", s.Name)
		}
		seen[s.Name] = struct{}{}
	}

	env := spec.Environmental
	env.Timestamp = env.Timestamp.UTC()
	return AnalysisResult{
		id:            spec.ID,
		imageRef:      spec.ImageRef,
		total:         spec.TotalOrganisms,
		unique:        spec.UniqueSpecies,
		alerts:        compact(spec.HighRiskAlerts),
		environmental: env,
		distribution:  compact(spec.SpeciesDistribution),
	}, nil
}

// compact copies s, normalizing empty slices to nil so that results compare
// equal regardless of how their empty lists were spelled on input.
func compact[T any](s []T) []T {
	if len(s) == 0 {
		return nil
	}
	return slices.Clone(s)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidResult, fmt.Sprintf(format, args...))
}

func (r AnalysisResult) ID() string                   { return r.id }
func (r AnalysisResult) ImageRef() string             { return r.imageRef }
func (r AnalysisResult) TotalOrganisms() int          { return r.total }
func (r AnalysisResult) UniqueSpecies() int           { return r.unique }
func (r AnalysisResult) Environmental() Environmental { return r.environmental }

// HighRiskAlerts returns a copy of the alert list.
func (r AnalysisResult) HighRiskAlerts() []RiskAlert { return slices.Clone(r.alerts) }

// SpeciesDistribution returns a copy of the distribution in scan order.
func (r AnalysisResult) SpeciesDistribution() []SpeciesCount { return slices.Clone(r.distribution) }

// IsZero reports whether r was never built by NewAnalysisResult.
func (r AnalysisResult) IsZero() bool { return r.id == "" }

// Spec returns the raw shape of r. Modifying it and passing it back to
// NewAnalysisResult is the only way to derive a changed result.
func (r AnalysisResult) Spec() ResultSpec {
	return ResultSpec{
		ID:                  r.id,
		ImageRef:            r.imageRef,
		TotalOrganisms:      r.total,
		UniqueSpecies:       r.unique,
		HighRiskAlerts:      slices.Clone(r.alerts),
		Environmental:       r.environmental,
		SpeciesDistribution: slices.Clone(r.distribution),
	}
}

// Clone returns a deep copy of r sharing no backing arrays.
func (r AnalysisResult) Clone() AnalysisResult {
	r.alerts = slices.Clone(r.alerts)
	r.distribution = slices.Clone(r.distribution)
	return r
}

// MarshalJSON encodes r using the ResultSpec wire shape.
func (r AnalysisResult) MarshalJSON() ([]byte, error) {
	spec := r.Spec()
	if spec.HighRiskAlerts == nil {
		spec.HighRiskAlerts = []RiskAlert{}
	}
	if spec.SpeciesDistribution == nil {
		spec.SpeciesDistribution = []SpeciesCount{}
	}
	return json.Marshal(spec)
}

// UnmarshalJSON decodes and validates a result, so data loaded from disk or
// received over the wire passes the same boundary checks as a fresh scan.
func (r *AnalysisResult) UnmarshalJSON(data []byte) error {
	var spec ResultSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResult, err)
	}
	res, err := NewAnalysisResult(spec)
	if err != nil {
		return err
	}
	*r = res
	return nil
}
