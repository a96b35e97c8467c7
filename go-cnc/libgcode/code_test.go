package libgcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeResetReusesParameterStorage(t *testing.T) {
	c := &Code{}
	c.AddParameter(NewParameter('X', "1"))
	c.AddParameter(NewParameter('Y', "2"))
	capBefore := cap(c.Parameters)

	c.Reset()
	assert.Equal(t, 0, len(c.Parameters))
	assert.Equal(t, capBefore, cap(c.Parameters))
	assert.Equal(t, TypeNone, c.Type)
	assert.Nil(t, c.LineNumber)
	assert.False(t, c.HasComment)
}

func TestCodeParameterLookup(t *testing.T) {
	c := &Code{}
	c.AddParameter(NewParameter('x', "1"))
	c.AddParameter(NewParameter('Y', "2"))

	p, ok := c.Parameter('X')
	assert.True(t, ok)
	assert.Equal(t, byte('X'), p.Letter)

	p, ok = c.Parameter('y')
	assert.True(t, ok)
	assert.Equal(t, "2", p.Raw)

	_, ok = c.Parameter('Z')
	assert.False(t, ok)
}

func TestCodeTypeString(t *testing.T) {
	tcs := []struct {
		typ  CodeType
		want string
	}{
		{TypeNone, "None"},
		{TypeComment, "Comment"},
		{TypeGCode, "GCode"},
		{TypeMCode, "MCode"},
		{TypeTCode, "TCode"},
		{TypeKeyword, "Keyword"},
		{CodeType(99), "Unknown"},
	}
	for _, tc := range tcs {
		assert.Equal(t, tc.want, tc.typ.String())
	}
}
