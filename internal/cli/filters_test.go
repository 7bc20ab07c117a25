package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vburojevic/mscope/internal/domain"
)

func TestBuildFilters_Valid(t *testing.T) {
	p, err := FilterFlags{Pattern: "foo", Exclude: []string{"bar"}, Where: []string{"risk=high"}}.buildFilters()
	require.NoError(t, err)
	assert.NotNil(t, p)
}

func TestBuildFilters_Empty(t *testing.T) {
	p, err := FilterFlags{}.buildFilters()
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestBuildFilters_Invalid(t *testing.T) {
	_, err := FilterFlags{Pattern: "[["}.buildFilters()
	assert.ErrorIs(t, err, domain.ErrInvalidFilter)

	_, err = FilterFlags{Risk: "extreme"}.buildFilters()
	assert.ErrorIs(t, err, domain.ErrInvalidFilter)
}
