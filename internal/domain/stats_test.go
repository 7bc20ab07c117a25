package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeStatistics(t *testing.T) {
	r, err := NewAnalysisResult(sampleSpec())
	require.NoError(t, err)

	stats := ComputeStatistics(r)
	assert.Equal(t, 80, stats.Total)
	require.Len(t, stats.Shares, 5)

	// Order follows the distribution.
	names := make([]string, 0, len(stats.Shares))
	for _, s := range stats.Shares {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"Chaetoceros", "Thalassiosira", "Prorocentrum", "Dinophysis", "Other"}, names)

	dino, ok := stats.Share("Dinophysis")
	require.True(t, ok)
	assert.Equal(t, 5, dino.Count)
	assert.Equal(t, 6, dino.Percentage) // round(6.25)

	chaeto, _ := stats.Share("Chaetoceros")
	assert.Equal(t, 38, chaeto.Percentage) // round(37.5)
	thal, _ := stats.Share("Thalassiosira")
	assert.Equal(t, 31, thal.Percentage) // round(31.25)
	proro, _ := stats.Share("Prorocentrum")
	assert.Equal(t, 19, proro.Percentage) // round(18.75)

	// Independent rounding happens to land on 100 for this sample.
	assert.Equal(t, 100, stats.PercentSum())
}

func TestComputeStatisticsZeroTotal(t *testing.T) {
	spec := sampleSpec()
	for i := range spec.SpeciesDistribution {
		spec.SpeciesDistribution[i].Count = 0
	}
	r, err := NewAnalysisResult(spec)
	require.NoError(t, err)

	stats := ComputeStatistics(r)
	assert.Equal(t, 0, stats.Total)
	for _, s := range stats.Shares {
		assert.Equal(t, 0, s.Percentage, s.Name)
	}
}

func TestComputeStatisticsEmptyDistribution(t *testing.T) {
	spec := sampleSpec()
	spec.SpeciesDistribution = nil
	r, err := NewAnalysisResult(spec)
	require.NoError(t, err)

	stats := ComputeStatistics(r)
	assert.Equal(t, 0, stats.Total)
	assert.Empty(t, stats.Shares)
	assert.NotNil(t, stats.Shares)
}

func TestComputeStatisticsRoundingDrift(t *testing.T) {
	spec := sampleSpec()
	spec.SpeciesDistribution = []SpeciesCount{{Name: "A", Count: 1}, {Name: "B", Count: 1}, {Name: "C", Count: 1}}
	r, err := NewAnalysisResult(spec)
	require.NoError(t, err)

	stats := ComputeStatistics(r)
	for _, s := range stats.Shares {
		assert.Equal(t, 33, s.Percentage)
	}
	assert.Equal(t, 99, stats.PercentSum())

	spec.SpeciesDistribution = []SpeciesCount{{Name: "A", Count: 1}, {Name: "B", Count: 1}}
	r, err = NewAnalysisResult(spec)
	require.NoError(t, err)
	assert.Equal(t, 100, ComputeStatistics(r).PercentSum())

	spec.SpeciesDistribution = []SpeciesCount{{Name: "A", Count: 1}, {Name: "B", Count: 1}, {Name: "C", Count: 2}, {Name: "D", Count: 4}}
	r, err = NewAnalysisResult(spec)
	require.NoError(t, err)
	// 12.5, 12.5, 25, 50 -> 13, 13, 25, 50
	assert.Equal(t, 101, ComputeStatistics(r).PercentSum())
}

func TestComputeStatisticsBounds(t *testing.T) {
	spec := sampleSpec()
	for total := 1; total <= 60; total++ {
		spec.SpeciesDistribution = []SpeciesCount{{Name: "A", Count: total / 3}, {Name: "B", Count: total - total/3}}
		r, err := NewAnalysisResult(spec)
		require.NoError(t, err)

		stats := ComputeStatistics(r)
		assert.Equal(t, total, stats.Total)
		for _, s := range stats.Shares {
			assert.GreaterOrEqual(t, s.Percentage, 0)
			assert.LessOrEqual(t, s.Percentage, 100)
		}
	}
}

func TestComputeStatisticsLargeCounts(t *testing.T) {
	spec := sampleSpec()
	spec.SpeciesDistribution = []SpeciesCount{
		{Name: "A", Count: MaxCount / 2},
		{Name: "B", Count: MaxCount/2 - 1},
		{Name: "C", Count: 1},
	}
	r, err := NewAnalysisResult(spec)
	require.NoError(t, err)

	stats := ComputeStatistics(r)
	assert.Equal(t, MaxCount, stats.Total)
	a, _ := stats.Share("A")
	b, _ := stats.Share("B")
	c, _ := stats.Share("C")
	assert.Equal(t, 50, a.Percentage)
	assert.Equal(t, 50, b.Percentage)
	assert.Equal(t, 0, c.Percentage)
}

func TestComputeStatisticsIsPure(t *testing.T) {
	r, err := NewAnalysisResult(sampleSpec())
	require.NoError(t, err)
	assert.Equal(t, ComputeStatistics(r), ComputeStatistics(r.Clone()))
}
