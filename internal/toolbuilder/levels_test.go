package toolbuilder

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepProfileEndpointsMatchDepthAndRadii(t *testing.T) {
	levels := stepProfile(10, 2, 1, 8)
	require.NotEmpty(t, levels)

	first := levels[0]
	assert.InDelta(t, 0, first.z, 1e-9)
	assert.InDelta(t, -2, first.offset, 1e-9)

	last := levels[len(levels)-1]
	assert.InDelta(t, -10, last.z, 1e-9)
	assert.InDelta(t, 1, last.offset, 1e-9)

	// Every sample's z must be monotonically non-increasing.
	for i := 1; i < len(levels); i++ {
		assert.LessOrEqual(t, levels[i].z, levels[i-1].z+1e-9)
	}
}

func TestStepProfileClampsOversizedRadiiToHalfDepth(t *testing.T) {
	levels := stepProfile(4, 5, 5, 4)
	last := levels[len(levels)-1]
	assert.InDelta(t, -4, last.z, 1e-9)
	// With rt=rb=depth/2=2, the top arc's offset swing should not exceed 2.
	for _, lv := range levels {
		assert.LessOrEqual(t, math.Abs(lv.offset), 2+1e-9)
	}
}

func TestStepProfileZeroRadiiProducesVerticalWallOnly(t *testing.T) {
	levels := stepProfile(5, 0, 0, 8)
	for _, lv := range levels {
		assert.InDelta(t, 0, lv.offset, 1e-9)
	}
	assert.InDelta(t, 0, levels[0].z, 1e-9)
	assert.InDelta(t, -5, levels[len(levels)-1].z, 1e-9)
}
