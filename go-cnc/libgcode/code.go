package libgcode

// CodeType classifies a parsed Code.
type CodeType int

const (
	TypeNone CodeType = iota
	TypeComment
	TypeGCode
	TypeMCode
	TypeTCode
	TypeKeyword
)

func (t CodeType) String() string {
	switch t {
	case TypeNone:
		return "None"
	case TypeComment:
		return "Comment"
	case TypeGCode:
		return "GCode"
	case TypeMCode:
		return "MCode"
	case TypeTCode:
		return "TCode"
	case TypeKeyword:
		return "Keyword"
	default:
		return "Unknown"
	}
}

// Keyword identifies a structured-programming keyword code.
type Keyword int

const (
	KeywordNone Keyword = iota
	KeywordIf
	KeywordElseIf
	KeywordElse
	KeywordWhile
	KeywordBreak
	KeywordReturn
	KeywordAbort
	KeywordVar
	KeywordSet
)

var keywordWords = map[string]Keyword{
	"if":       KeywordIf,
	"elif":     KeywordElseIf,
	"else":     KeywordElse,
	"while":    KeywordWhile,
	"break":    KeywordBreak,
	"continue": KeywordBreak,
	"return":   KeywordReturn,
	"abort":    KeywordAbort,
	"var":      KeywordVar,
	"set":      KeywordSet,
}

// Flags is a bitset of per-code modifiers.
type Flags uint32

const (
	// EnforceAbsolutePosition is set when a bare G53 preceded this code
	// on the same physical line.
	EnforceAbsolutePosition Flags = 1 << iota
	// IsFromMacro marks a code that originated from a macro file rather
	// than a live input channel. The tokenizer never sets this itself;
	// it is carried through for callers that read macros via this
	// package's Splitter.
	IsFromMacro
	// Asynchronous marks a code the host may execute without waiting
	// for the previous code to complete.
	Asynchronous
)

// Code is a single parsed G-code command. Instances are meant to be
// reused: call Reset before handing one to Tokenizer.Parse again, which
// the tokenizer also does internally at the start of every Parse call.
type Code struct {
	LineNumber   *int
	Indent       int
	Type         CodeType
	Keyword      Keyword
	KeywordArg   *string
	MajorNumber  *int
	MinorNumber  *int
	Parameters   []Parameter
	Comment      string
	HasComment   bool
	Flags        Flags
}

// Reset clears a Code back to its zero value so a Tokenizer can reuse the
// backing storage (in particular Parameters' underlying array) across
// many Parse calls, avoiding a per-code allocation in hot scanning loops.
func (c *Code) Reset() {
	c.LineNumber = nil
	c.Indent = 0
	c.Type = TypeNone
	c.Keyword = KeywordNone
	c.KeywordArg = nil
	c.MajorNumber = nil
	c.MinorNumber = nil
	c.Parameters = c.Parameters[:0]
	c.Comment = ""
	c.HasComment = false
	c.Flags = 0
}

// AddParameter appends a parsed Parameter to the code, preserving source
// order. Letters are not deduplicated; callers decide how to handle
// repeats.
func (c *Code) AddParameter(p Parameter) {
	c.Parameters = append(c.Parameters, p)
}

// Parameter returns the first parameter with the given letter (case
// folded to upper case), and whether one was found.
func (c *Code) Parameter(letter byte) (Parameter, bool) {
	letter = upperByte(letter)
	for _, p := range c.Parameters {
		if p.Letter == letter {
			return p, true
		}
	}
	return Parameter{}, false
}

func upperByte(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - ('a' - 'A')
	}
	return b
}
