package params

import (
	"testing"

	"github.com/piwi3910/stackfab/internal/stackerr"
	"github.com/piwi3910/stackfab/internal/stackmodel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveSimpleDependencyChain(t *testing.T) {
	ps := []stackmodel.Parameter{
		{Key: "a", Expression: "b + 1"},
		{Key: "b", Expression: "c + 1"},
		{Key: "c", Expression: "1"},
	}
	out := Resolve(ps)
	byKey := map[string]stackmodel.Parameter{}
	for _, p := range out {
		byKey[p.Key] = p
	}
	assert.InDelta(t, 1, byKey["c"].Value, 1e-9)
	assert.InDelta(t, 2, byKey["b"].Value, 1e-9)
	assert.InDelta(t, 3, byKey["a"].Value, 1e-9)
	for _, p := range out {
		assert.NoError(t, p.Err)
	}
}

// a = b+1, b = c+1, c = a+1 is a three-cycle: all members flagged.
func TestResolveCycleDetection(t *testing.T) {
	ps := []stackmodel.Parameter{
		{Key: "a", Expression: "b + 1"},
		{Key: "b", Expression: "c + 1"},
		{Key: "c", Expression: "a + 1"},
	}
	out := Resolve(ps)
	for _, p := range out {
		assert.Equal(t, 0.0, p.Value)
		require.Error(t, p.Err)
		var cycleErr *stackerr.Cycle
		require.ErrorAs(t, p.Err, &cycleErr)
		assert.Len(t, cycleErr.Members, 3)
	}
}

func TestResolveSelfReferenceIsCycle(t *testing.T) {
	ps := []stackmodel.Parameter{
		{Key: "a", Expression: "a + 1"},
	}
	out := Resolve(ps)
	require.Error(t, out[0].Err)
	var cycleErr *stackerr.Cycle
	require.ErrorAs(t, out[0].Err, &cycleErr)
}

func TestResolveUnrelatedParametersDoNotAbortBatch(t *testing.T) {
	ps := []stackmodel.Parameter{
		{Key: "good", Expression: "2 * 3"},
		{Key: "bad", Expression: "missing + 1"},
	}
	out := Resolve(ps)
	assert.InDelta(t, 6, out[0].Value, 1e-9)
	assert.NoError(t, out[0].Err)
	require.Error(t, out[1].Err)
}

func TestDependsOnTransitiveReachability(t *testing.T) {
	ps := []stackmodel.Parameter{
		{Key: "a", Expression: "b + 1"},
		{Key: "b", Expression: "c + 1"},
		{Key: "c", Expression: "1"},
	}
	assert.True(t, DependsOn(ps, "a", "c"))
	assert.False(t, DependsOn(ps, "c", "a"))
}

func TestResolveEquivalenceUnderReordering(t *testing.T) {
	forward := []stackmodel.Parameter{
		{Key: "a", Expression: "1"},
		{Key: "b", Expression: "a + 1"},
		{Key: "c", Expression: "b + 1"},
	}
	backward := []stackmodel.Parameter{
		{Key: "c", Expression: "b + 1"},
		{Key: "b", Expression: "a + 1"},
		{Key: "a", Expression: "1"},
	}
	fOut := Resolve(forward)
	bOut := Resolve(backward)
	fByKey := map[string]float64{}
	for _, p := range fOut {
		fByKey[p.Key] = p.Value
	}
	for _, p := range bOut {
		assert.Equal(t, fByKey[p.Key], p.Value)
	}
}
