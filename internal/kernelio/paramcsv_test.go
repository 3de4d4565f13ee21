package kernelio

import (
	"testing"

	"github.com/piwi3910/stackfab/internal/stackmodel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeKeyReplacesNonIdentifierChars(t *testing.T) {
	assert.Equal(t, "Board_Width", SanitizeKey("Board Width"))
	assert.Equal(t, "_10mm", SanitizeKey("10mm"))
	assert.Equal(t, "D", SanitizeKey("D"))
	assert.Equal(t, "_", SanitizeKey(""))
}

func TestParseParameterCSVWithHeader(t *testing.T) {
	data := []byte("Name,Unit,Expression,Value,Comments,Favorite\n" +
		"Board Width,mm,400,400,outer edge,true\n" +
		"Tool Dia,in,0.25,0.25,,false\n")

	params, err := ParseParameterCSV(data)
	require.NoError(t, err)
	require.Len(t, params, 2)

	assert.Equal(t, "Board_Width", params[0].Key)
	assert.Equal(t, stackmodel.UnitMM, params[0].Unit)
	assert.Equal(t, "400", params[0].Expression)
	assert.Equal(t, "outer edge", params[0].Comments)
	assert.True(t, params[0].Favorite)

	assert.Equal(t, "Tool_Dia", params[1].Key)
	assert.Equal(t, stackmodel.UnitIn, params[1].Unit)
	assert.False(t, params[1].Favorite)
}

func TestParseParameterCSVPositionalFallback(t *testing.T) {
	data := []byte("D,mm,10,10,,false\n")
	params, err := ParseParameterCSV(data)
	require.NoError(t, err)
	require.Len(t, params, 1)
	assert.Equal(t, "D", params[0].Key)
	assert.Equal(t, "10", params[0].Expression)
}

func TestMergeParametersUpdatesExistingAndAppendsNew(t *testing.T) {
	existing := []stackmodel.Parameter{
		{ID: "id1", Key: "D", Expression: "8", Unit: stackmodel.UnitMM},
	}
	imported := []ImportedParameter{
		{Key: "D", Expression: "12", Unit: stackmodel.UnitIn},
		{Key: "H", Expression: "30", Unit: stackmodel.UnitMM},
	}
	nextID := 0
	merged := MergeParameters(existing, imported, func() string {
		nextID++
		return "new" + string(rune('0'+nextID))
	})

	require.Len(t, merged, 2)
	assert.Equal(t, "id1", merged[0].ID, "existing id is preserved on update")
	assert.Equal(t, "12", merged[0].Expression)
	assert.Equal(t, stackmodel.UnitIn, merged[0].Unit)

	assert.Equal(t, "H", merged[1].Key)
	assert.Equal(t, "30", merged[1].Expression)
}
