package scan

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/vburojevic/mscope/internal/domain"
	"github.com/vburojevic/mscope/internal/ident"
)

// DefaultLocation is the sampling site reported by the mock instrument.
const DefaultLocation = "13.0827° N, 80.2707° E"

// speciesRange is the [min, min+span) count range of one mock species.
type speciesRange struct {
	name string
	min  int
	span int
}

var mockSpecies = []speciesRange{
	{"Chaetoceros", 30, 20},
	{"Thalassiosira", 25, 20},
	{"Prorocentrum", 15, 15},
	{"Dinophysis", 5, 10},
	{"Other", 10, 10},
}

// MockSource fabricates plausible plankton scans. It is safe for concurrent use.
type MockSource struct {
	mu       sync.Mutex
	rng      *rand.Rand
	clk      clock.Clock
	ids      ident.Generator
	location string
}

// MockOption configures a MockSource.
type MockOption func(*MockSource)

// WithSeed makes the generated values reproducible.
func WithSeed(seed uint64) MockOption {
	return func(m *MockSource) { m.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)) }
}

// WithClock sets the clock used for scan timestamps.
func WithClock(clk clock.Clock) MockOption {
	return func(m *MockSource) { m.clk = clk }
}

// WithIDs sets the ID generator for produced results.
func WithIDs(gen ident.Generator) MockOption {
	return func(m *MockSource) { m.ids = gen }
}

// WithLocation overrides the reported sampling location.
func WithLocation(loc string) MockOption {
	return func(m *MockSource) {
		if loc != "" {
			m.location = loc
		}
	}
}

// NewMockSource creates a mock instrument.
func NewMockSource(opts ...MockOption) *MockSource {
	m := &MockSource{
		clk:      clock.New(),
		ids:      ident.Scan(),
		location: DefaultLocation,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.rng == nil {
		m.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return m
}

// Produce returns a freshly generated result.
func (m *MockSource) Produce(ctx context.Context) (domain.AnalysisResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("%w: %w", domain.ErrAcquisition, err)
	}

	m.mu.Lock()
	spec := m.generate()
	m.mu.Unlock()

	return domain.NewAnalysisResult(spec)
}

func (m *MockSource) generate() domain.ResultSpec {
	dist := make([]domain.SpeciesCount, 0, len(mockSpecies))
	for _, s := range mockSpecies {
		dist = append(dist, domain.SpeciesCount{Name: s.name, Count: s.min + m.rng.IntN(s.span)})
	}

	return domain.ResultSpec{
		ID:             m.ids(),
		ImageRef:       fmt.Sprintf("https://placehold.co/600x400/1f2937/a0aec0?text=Microscope+Feed+%d", m.rng.IntN(100)),
		TotalOrganisms: 50 + m.rng.IntN(100),
		UniqueSpecies:  8 + m.rng.IntN(5),
		HighRiskAlerts: []domain.RiskAlert{
			{Name: "Dinophysis", Species: "Dinoflagellate", Count: 5 + m.rng.IntN(10), RiskLevel: domain.RiskHigh},
		},
		Environmental: domain.Environmental{
			Location:    m.location,
			Temperature: fmt.Sprintf("%.1f°C", 27+m.rng.Float64()*2),
			Timestamp:   m.clk.Now().UTC(),
		},
		SpeciesDistribution: dist,
	}
}
