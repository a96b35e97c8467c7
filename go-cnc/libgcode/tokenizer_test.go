package libgcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitConcreteScenarios(t *testing.T) {
	t.Run("bare axis letters expand to zero", func(t *testing.T) {
		codes, err := Split("G28 X Y")
		require.NoError(t, err)
		require.Len(t, codes, 1)
		assert.Equal(t, TypeGCode, codes[0].Type)
		assert.Equal(t, 28, *codes[0].MajorNumber)
		require.Len(t, codes[0].Parameters, 2)
		assert.Equal(t, "0", codes[0].Parameters[0].Raw)
		assert.Equal(t, byte('X'), codes[0].Parameters[0].Letter)
		assert.Equal(t, "0", codes[0].Parameters[1].Raw)
		assert.Equal(t, byte('Y'), codes[0].Parameters[1].Letter)
	})

	t.Run("semicolon comment", func(t *testing.T) {
		codes, err := Split("G29 S1 ; load heightmap")
		require.NoError(t, err)
		require.Len(t, codes, 1)
		s, _ := codes[0].Parameter('S')
		v, err := s.AsInteger()
		require.NoError(t, err)
		assert.Equal(t, int64(1), v)
		assert.Equal(t, " load heightmap", codes[0].Comment)
	})

	t.Run("major and minor command number", func(t *testing.T) {
		codes, err := Split("G54.6")
		require.NoError(t, err)
		require.Len(t, codes, 1)
		assert.Equal(t, 54, *codes[0].MajorNumber)
		require.NotNil(t, codes[0].MinorNumber)
		assert.Equal(t, 6, *codes[0].MinorNumber)
	})

	t.Run("bare G53 propagates EnforceAbsolutePosition to siblings only", func(t *testing.T) {
		codes, err := Split("G53 G1 X100 G0 Y200\nG1 Z50")
		require.NoError(t, err)
		require.Len(t, codes, 3)

		assert.Equal(t, 1, *codes[0].MajorNumber)
		assert.NotZero(t, codes[0].Flags&EnforceAbsolutePosition)

		assert.Equal(t, 0, *codes[1].MajorNumber)
		assert.NotZero(t, codes[1].Flags&EnforceAbsolutePosition)

		assert.Equal(t, 1, *codes[2].MajorNumber)
		assert.Zero(t, codes[2].Flags&EnforceAbsolutePosition)
	})

	t.Run("bare G53 alone on a line is emitted as its own code", func(t *testing.T) {
		codes, err := Split("G53\nG1 X1")
		require.NoError(t, err)
		require.Len(t, codes, 2)
		assert.Equal(t, TypeGCode, codes[0].Type)
		assert.Equal(t, 53, *codes[0].MajorNumber)
		assert.Zero(t, codes[1].Flags&EnforceAbsolutePosition)
	})

	t.Run("quoted string with doubled-quote escape", func(t *testing.T) {
		codes, err := Split(`M106 P1 C"Fancy "" Fan" H-1 S0.5`)
		require.NoError(t, err)
		require.Len(t, codes, 1)
		c := codes[0]
		assert.Equal(t, 106, *c.MajorNumber)
		require.Len(t, c.Parameters, 4)

		cp, _ := c.Parameter('C')
		s, err := cp.AsString()
		require.NoError(t, err)
		assert.Equal(t, `Fancy " Fan`, s)

		hp, _ := c.Parameter('H')
		h, err := hp.AsInteger()
		require.NoError(t, err)
		assert.Equal(t, int64(-1), h)

		sp, _ := c.Parameter('S')
		sv, err := sp.AsFloat()
		require.NoError(t, err)
		assert.InDelta(t, 0.5, sv, 1e-4)
	})

	t.Run("dotted DriverId parameter, T never treated as a sibling", func(t *testing.T) {
		codes, err := Split("M569 P1.2 S1 T0.5")
		require.NoError(t, err)
		require.Len(t, codes, 1)
		c := codes[0]

		pp, _ := c.Parameter('P')
		d, err := pp.AsDriverID()
		require.NoError(t, err)
		assert.Equal(t, int64(1<<16|2), d.Encode())

		tp, _ := c.Parameter('T')
		tv, err := tp.AsFloat()
		require.NoError(t, err)
		assert.InDelta(t, 0.5, tv, 1e-9)
	})

	t.Run("DriverId array mixes packed and dotted forms", func(t *testing.T) {
		codes, err := Split("M915 P2:0.3:1.4 S22")
		require.NoError(t, err)
		require.Len(t, codes, 1)
		pp, _ := codes[0].Parameter('P')
		ds, err := pp.AsDriverIDArray()
		require.NoError(t, err)
		require.Len(t, ds, 3)
		assert.Equal(t, int64(2), ds[0].Encode())
		assert.Equal(t, int64(3), ds[1].Encode())
		assert.Equal(t, int64(1<<16|4), ds[2].Encode())
	})

	t.Run("keyword with argument, inline comment, and trailing comment join", func(t *testing.T) {
		codes, err := Split(`  if machine.tool.is.great <= 0.03 (some nice) ; comment`)
		require.NoError(t, err)
		require.Len(t, codes, 1)
		c := codes[0]
		assert.Equal(t, TypeKeyword, c.Type)
		assert.Equal(t, KeywordIf, c.Keyword)
		require.NotNil(t, c.KeywordArg)
		assert.Equal(t, "machine.tool.is.great <= 0.03", *c.KeywordArg)
		assert.Equal(t, "some nice comment", c.Comment)
		assert.Equal(t, 2, c.Indent)
	})

	t.Run("compact form with no separators", func(t *testing.T) {
		codes, err := Split(`M302D"dummy"P1`)
		require.NoError(t, err)
		require.Len(t, codes, 1)
		c := codes[0]
		assert.Equal(t, 302, *c.MajorNumber)
		dp, _ := c.Parameter('D')
		s, err := dp.AsString()
		require.NoError(t, err)
		assert.Equal(t, "dummy", s)
		pp, _ := c.Parameter('P')
		pv, err := pp.AsInteger()
		require.NoError(t, err)
		assert.Equal(t, int64(1), pv)
	})

	t.Run("line number and indent", func(t *testing.T) {
		codes, err := Split("  N123 G1 X5 Y3")
		require.NoError(t, err)
		require.Len(t, codes, 1)
		c := codes[0]
		require.NotNil(t, c.LineNumber)
		assert.Equal(t, 123, *c.LineNumber)
		assert.Equal(t, 2, c.Indent)
		assert.Equal(t, 1, *c.MajorNumber)
		xp, _ := c.Parameter('X')
		xv, _ := xp.AsInteger()
		assert.Equal(t, int64(5), xv)
		yp, _ := c.Parameter('Y')
		yv, _ := yp.AsInteger()
		assert.Equal(t, int64(3), yv)
	})
}

func TestSplitBlankLinesAreSkipped(t *testing.T) {
	codes, err := Split("\n\nG1 X1\n\n")
	require.NoError(t, err)
	require.Len(t, codes, 1)
	assert.Equal(t, 1, *codes[0].MajorNumber)
}

func TestSplitParenCommentDoesNotEndCode(t *testing.T) {
	codes, err := Split("G1 X1 (note) Y2")
	require.NoError(t, err)
	require.Len(t, codes, 1)
	c := codes[0]
	require.Len(t, c.Parameters, 2)
	assert.Equal(t, byte('X'), c.Parameters[0].Letter)
	assert.Equal(t, byte('Y'), c.Parameters[1].Letter)
	assert.Equal(t, "note", c.Comment)
}

func TestSplitSiblingAfterParenCommentIsStillDetected(t *testing.T) {
	codes, err := Split("G1 X1 (note) G2 Y2")
	require.NoError(t, err)
	require.Len(t, codes, 2)
	assert.Equal(t, 1, *codes[0].MajorNumber)
	assert.Equal(t, "note", codes[0].Comment)
	assert.Equal(t, 2, *codes[1].MajorNumber)
	yp, _ := codes[1].Parameter('Y')
	yv, _ := yp.AsInteger()
	assert.Equal(t, int64(2), yv)
}

func TestSplitCommentOnlyLine(t *testing.T) {
	codes, err := Split("; full line comment")
	require.NoError(t, err)
	require.Len(t, codes, 1)
	assert.Equal(t, TypeComment, codes[0].Type)
	assert.Equal(t, " full line comment", codes[0].Comment)
}

func TestSplitRejectsUnexpectedCharacter(t *testing.T) {
	_, err := Split("G1 X1 & Y2")
	require.Error(t, err)
	var pe *ParseError
	assert.ErrorAs(t, err, &pe)
}
