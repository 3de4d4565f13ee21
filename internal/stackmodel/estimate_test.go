package stackmodel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimateMaterialGroupsByMaterial(t *testing.T) {
	layers := []StackupLayer{
		{ID: "a", Material: "birch"},
		{ID: "b", Material: "birch"},
		{ID: "c", Material: "acrylic"},
	}

	results := EstimateMaterial(layers, 1600, 1220, 2440, 10, map[string]float64{
		"birch":   45.0,
		"acrylic": 30.0,
	})

	require.Len(t, results, 2)
	assert.Equal(t, "birch", results[0].Material)
	assert.InDelta(t, 3200, results[0].TotalLayerArea, 0.001)
	assert.Equal(t, "acrylic", results[1].Material)
	assert.InDelta(t, 1600, results[1].TotalLayerArea, 0.001)
}

func TestEstimateMaterialZeroSheetArea(t *testing.T) {
	layers := []StackupLayer{{ID: "a", Material: "mdf"}}
	results := EstimateMaterial(layers, 900, 0, 0, 10, nil)
	require.Len(t, results, 1)
	assert.Equal(t, 0, results[0].SheetsNeededMin)
}

func TestDefaultColorCyclesTableau10(t *testing.T) {
	assert.Equal(t, DefaultColor(0), DefaultColor(10))
	assert.NotEqual(t, DefaultColor(0), DefaultColor(1))
}
