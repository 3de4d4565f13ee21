package expr

import (
	"errors"
	"testing"

	"github.com/piwi3910/stackfab/internal/stackerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvalBasicArithmetic(t *testing.T) {
	v, err := Eval("2 + 3 * 4", nil)
	require.NoError(t, err)
	assert.InDelta(t, 14, v, 1e-9)
}

func TestEvalUnaryMinusAndParens(t *testing.T) {
	v, err := Eval("-(2 + 3) * 2", nil)
	require.NoError(t, err)
	assert.InDelta(t, -10, v, 1e-9)
}

func TestEvalPowerRightAssociative(t *testing.T) {
	v, err := Eval("2 ^ 3 ^ 2", nil)
	require.NoError(t, err)
	assert.InDelta(t, 512, v, 1e-9) // 2^(3^2), not (2^3)^2
}

func TestEvalUnitSuffixReducesToMM(t *testing.T) {
	v, err := Eval("1 in", nil)
	require.NoError(t, err)
	assert.InDelta(t, 25.4, v, 1e-9)

	v, err = Eval("5 mm + 1 in", nil)
	require.NoError(t, err)
	assert.InDelta(t, 30.4, v, 1e-9)
}

func TestEvalIdentifierLookup(t *testing.T) {
	v, err := Eval("D / 2", Scope{"D": 10})
	require.NoError(t, err)
	assert.InDelta(t, 5, v, 1e-9)
}

func TestEvalUnknownIdentifier(t *testing.T) {
	_, err := Eval("unknown + 1", Scope{})
	require.Error(t, err)
	var exprErr *stackerr.Expression
	require.True(t, errors.As(err, &exprErr))
	assert.Equal(t, stackerr.UnknownIdentifier, exprErr.Kind)
}

func TestEvalDivideByZero(t *testing.T) {
	_, err := Eval("1 / 0", nil)
	require.Error(t, err)
	var exprErr *stackerr.Expression
	require.True(t, errors.As(err, &exprErr))
	assert.Equal(t, stackerr.Domain, exprErr.Kind)
}

func TestEvalSyntaxError(t *testing.T) {
	_, err := Eval("1 + + ", nil)
	require.Error(t, err)
}

func TestEvalBlankExpressionIsZero(t *testing.T) {
	v, err := Eval("   ", nil)
	require.NoError(t, err)
	assert.Equal(t, 0.0, v)
}

func TestEvalEquivalenceUnderParameterReordering(t *testing.T) {
	scopeA := Scope{"a": 1, "b": 2, "c": 3}
	scopeB := Scope{"c": 3, "a": 1, "b": 2}
	va, err := Eval("a + b * c", scopeA)
	require.NoError(t, err)
	vb, err := Eval("a + b * c", scopeB)
	require.NoError(t, err)
	assert.Equal(t, va, vb)
}
