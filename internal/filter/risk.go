package filter

import (
	"github.com/vburojevic/mscope/internal/domain"
)

// RiskFilter keeps entries with at least one alert at or above a risk level
type RiskFilter struct {
	minLevel domain.RiskLevel
}

// NewRiskFilter creates a risk filter
func NewRiskFilter(minLevel domain.RiskLevel) *RiskFilter {
	return &RiskFilter{minLevel: minLevel}
}

// Match returns true if the entry's highest alert is >= the minimum level
func (f *RiskFilter) Match(entry domain.HistoryEntry) bool {
	return highestRisk(entry.Snapshot()).Rank() >= f.minLevel.Rank()
}

// highestRisk returns the most severe alert level in r, or "" without alerts.
func highestRisk(r domain.AnalysisResult) domain.RiskLevel {
	var top domain.RiskLevel
	for _, a := range r.HighRiskAlerts() {
		if a.RiskLevel.Rank() > top.Rank() {
			top = a.RiskLevel
		}
	}
	return top
}
