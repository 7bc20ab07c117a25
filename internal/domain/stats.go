package domain

// Share is one species' slice of the distribution.
type Share struct {
	Name       string `json:"name"`
	Count      int    `json:"count"`
	Percentage int    `json:"percentage"`
}

// Statistics are the display aggregates derived from a result. They are
// never stored.
type Statistics struct {
	Total  int     `json:"total"`
	Shares []Share `json:"shares"`
}

// ComputeStatistics derives the percentage distribution of r.
//
// Each share is rounded independently (half up), so percentages may not sum
// to exactly 100. When the total is zero every percentage is 0.
func ComputeStatistics(r AnalysisResult) Statistics {
	total := 0
	for _, s := range r.distribution {
		total += s.Count
	}
	shares := make([]Share, 0, len(r.distribution))
	for _, s := range r.distribution {
		shares = append(shares, Share{
			Name:       s.Name,
			Count:      s.Count,
			Percentage: percentOf(s.Count, total),
		})
	}
	return Statistics{Total: total, Shares: shares}
}

// percentOf returns round(100*count/total) in integer arithmetic.
func percentOf(count, total int) int {
	if total <= 0 {
		return 0
	}
	return (200*count + total) / (2 * total)
}

// PercentSum returns the sum of all share percentages. It differs from 100
// when independent rounding drifts.
func (s Statistics) PercentSum() int {
	sum := 0
	for _, sh := range s.Shares {
		sum += sh.Percentage
	}
	return sum
}

// Share returns the share named name.
func (s Statistics) Share(name string) (Share, bool) {
	for _, sh := range s.Shares {
		if sh.Name == name {
			return sh, true
		}
	}
	return Share{}, false
}
