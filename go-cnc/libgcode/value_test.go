package libgcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParameterAsStringUnquotesAndUnescapes(t *testing.T) {
	p := NewParameter('C', `"Fancy "" Fan"`)
	s, err := p.AsString()
	require.NoError(t, err)
	assert.Equal(t, `Fancy " Fan`, s)
}

func TestParameterAsStringReformatsBareNumber(t *testing.T) {
	p := NewParameter('S', "007")
	s, err := p.AsString()
	require.NoError(t, err)
	assert.Equal(t, "7", s)
}

func TestParameterAsIntegerAndFloat(t *testing.T) {
	h, err := NewParameter('H', "-1").AsInteger()
	require.NoError(t, err)
	assert.Equal(t, int64(-1), h)

	s, err := NewParameter('S', "0.5").AsFloat()
	require.NoError(t, err)
	assert.InDelta(t, 0.5, s, 1e-4)
}

func TestParameterExpressionRejectsNumericCoercion(t *testing.T) {
	p := NewParameter('R', "{machine.axes[0].min}")
	assert.True(t, p.IsExpression())

	_, err := p.AsInteger()
	require.Error(t, err)
	var mismatch *TypeMismatch
	assert.ErrorAs(t, err, &mismatch)
}

func TestParameterAsBool(t *testing.T) {
	tcs := []struct {
		raw  string
		want bool
	}{
		{"true", true},
		{"FALSE", false},
		{"1", true},
		{"0", false},
	}
	for _, tc := range tcs {
		b, err := NewParameter('S', tc.raw).AsBool()
		require.NoError(t, err, tc.raw)
		assert.Equal(t, tc.want, b, tc.raw)
	}
}

func TestParameterAsDriverID(t *testing.T) {
	d, err := NewParameter('P', "1.2").AsDriverID()
	require.NoError(t, err)
	assert.Equal(t, DriverID{Board: 1, Driver: 2}, d)
	assert.Equal(t, int64(1<<16|2), d.Encode())
}

func TestParameterAsDriverIDArray(t *testing.T) {
	ds, err := NewParameter('P', "2:0.3:1.4").AsDriverIDArray()
	require.NoError(t, err)
	require.Len(t, ds, 3)
	assert.Equal(t, int64(2), ds[0].Encode())
	assert.Equal(t, int64(3), ds[1].Encode())
	assert.Equal(t, int64(1<<16|4), ds[2].Encode())
}

func TestParameterAsFloatArrayScalarIsSingleton(t *testing.T) {
	fs, err := NewParameter('X', "1.5").AsFloatArray()
	require.NoError(t, err)
	assert.Equal(t, []float64{1.5}, fs)
}

func TestSplitArrayRejectsEmptyElements(t *testing.T) {
	_, err := splitArray("1::2")
	assert.Error(t, err)

	_, err = splitArray("1:2:")
	assert.Error(t, err)
}

func TestParameterResolveInfersKind(t *testing.T) {
	v, err := NewParameter('S', "22").Resolve()
	require.NoError(t, err)
	assert.Equal(t, KindInteger, v.Kind)
	assert.Equal(t, "22", v.String())

	v, err = NewParameter('S', "0.5").Resolve()
	require.NoError(t, err)
	assert.Equal(t, KindFloat, v.Kind)

	v, err = NewParameter('P', "1:2:3").Resolve()
	require.NoError(t, err)
	assert.Equal(t, KindIntegerArray, v.Kind)
	assert.Equal(t, "1:2:3", v.String())

	v, err = NewParameter('C', `"hi"`).Resolve()
	require.NoError(t, err)
	assert.Equal(t, KindString, v.Kind)
	assert.Equal(t, "hi", v.String())
}
