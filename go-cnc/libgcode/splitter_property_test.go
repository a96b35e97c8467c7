package libgcode

import (
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// simpleLine generates a single well-formed G-code command line with no
// comments, quoting or expressions, so both sides of a property can be
// compared structurally without worrying about corpus-specific edge cases.
func simpleLine(letter byte, major int, axis byte, value int) string {
	return fmt.Sprintf("%c%d %c%d", letter, major, axis, value)
}

// TestProperty1_TrailingNewlineIsImmaterial verifies that appending a
// newline to an input with none yields the same code sequence.
func TestProperty1_TrailingNewlineIsImmaterial(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("parse(s) == parse(s + \"\\n\") for single-line input", prop.ForAll(
		func(major int, axis string, value int) bool {
			letter := byte('G')
			axisLetter := axis[0]

			s := simpleLine(letter, major, axisLetter, value)

			withoutNL, err1 := Split(s)
			withNL, err2 := Split(s + "\n")
			if err1 != nil || err2 != nil {
				return err1 == nil && err2 == nil
			}
			if len(withoutNL) != len(withNL) {
				return false
			}
			for i := range withoutNL {
				if !codesEqual(withoutNL[i], withNL[i]) {
					return false
				}
			}
			return true
		},
		gen.IntRange(0, 999),
		gen.OneConstOf("X", "Y", "Z", "U"),
		gen.IntRange(0, 999),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// TestProperty4_SiblingConcatenation verifies that tokenizing "a G<b>" on
// one physical line (where a does not itself set enforcing_abs) produces
// the same two codes as tokenizing "a" and "G<b>" independently.
func TestProperty4_SiblingConcatenation(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("a + b on one line == concat(parse(a), parse(b))", prop.ForAll(
		func(majorA, valueA, majorB, valueB int) bool {
			a := simpleLine('G', majorA, 'X', valueA)
			b := simpleLine('G', majorB, 'Y', valueB)

			combined, err := Split(a + " " + b)
			if err != nil {
				return false
			}
			separate, err := Split(a + "\n" + b)
			if err != nil {
				return false
			}
			if len(combined) != 2 || len(separate) != 2 {
				return false
			}
			return codesEqual(combined[0], separate[0]) && codesEqual(combined[1], separate[1])
		},
		gen.IntRange(0, 99),
		gen.IntRange(0, 999),
		gen.IntRange(0, 99),
		gen.IntRange(0, 999),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func codesEqual(a, b Code) bool {
	if a.Type != b.Type || a.Flags != b.Flags {
		return false
	}
	if !intPtrEqual(a.MajorNumber, b.MajorNumber) || !intPtrEqual(a.MinorNumber, b.MinorNumber) {
		return false
	}
	if len(a.Parameters) != len(b.Parameters) {
		return false
	}
	for i := range a.Parameters {
		if a.Parameters[i].Letter != b.Parameters[i].Letter || a.Parameters[i].Raw != b.Parameters[i].Raw {
			return false
		}
	}
	return true
}

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
