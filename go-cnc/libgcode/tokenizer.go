package libgcode

import "strconv"

// axisLetters is the set of letters that may appear bare (with no value)
// in a parameter list, expanding to a zero value per letter. RepRapFirmware
// uses this for commands like "G92 XYZ".
const axisLetters = "XYZUVWABCD"

// Tokenizer is a pull-based G-code scanner. It carries per-physical-line
// state (indentation, whether a line number has already been consumed)
// across successive Parse calls on the same Source, but never the
// enforcing_abs carry bit: callers own that explicitly so they can reason
// about line boundaries independently of the tokenizer's internal state.
type Tokenizer struct {
	atLineStart bool
	indent      int
}

// NewTokenizer returns a Tokenizer positioned at the start of a stream.
func NewTokenizer() *Tokenizer {
	return &Tokenizer{atLineStart: true}
}

// Parse consumes as much of src as is needed to produce the next Code
// and writes it into out, which is cleared first. It returns false (with
// out left empty) once src is fully exhausted. enforcingAbs is the
// caller-owned carry bit for the G53 "enforce absolute position" prefix;
// Parse reads it to decide whether to flag the produced code, and writes
// to it when a bare G53 is consumed or when a physical line ends.
func (t *Tokenizer) Parse(src *Source, out *Code, enforcingAbs *bool) (bool, error) {
	out.Reset()

	for {
		if t.atLineStart {
			if !src.More() {
				return false, nil
			}
			t.indent = t.measureIndent(src)
			t.atLineStart = false

			if isLineEnd(src) {
				out.Type = TypeNone
				out.Indent = t.indent
				t.consumeLineEnd(src)
				t.atLineStart = true
				*enforcingAbs = false
				return true, nil
			}

			t.tryParseLineNumber(src, out)
		}

		out.Indent = t.indent

		sibling, err := t.parseOneCode(src, out, enforcingAbs)
		if err != nil {
			return false, err
		}
		if sibling {
			continue
		}
		return true, nil
	}
}

func (t *Tokenizer) measureIndent(src *Source) int {
	indent := 0
	for {
		c, ok := src.Peek()
		if !ok || (c != ' ' && c != '\t') {
			break
		}
		indent++
		src.Advance()
	}
	return indent
}

func isLineEnd(src *Source) bool {
	c, ok := src.Peek()
	return !ok || c == '\n' || c == '\r'
}

func (t *Tokenizer) consumeLineEnd(src *Source) {
	c, ok := src.Peek()
	if !ok {
		return
	}
	if c == '\r' {
		src.Advance()
		if c2, ok2 := src.Peek(); ok2 && c2 == '\n' {
			src.Advance()
		}
		return
	}
	if c == '\n' {
		src.Advance()
	}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isAlpha(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

func toUpper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - ('a' - 'A')
	}
	return c
}

func (t *Tokenizer) tryParseLineNumber(src *Source, out *Code) {
	c, ok := src.Peek()
	if !ok || (c != 'N' && c != 'n') {
		return
	}
	d, ok := src.PeekAt(1)
	if !ok || !isDigit(d) {
		return
	}
	src.Advance()
	start := src.pos
	for {
		d, ok := src.Peek()
		if !ok || !isDigit(d) {
			break
		}
		src.Advance()
	}
	n, _ := strconv.Atoi(string(src.data[start:src.pos]))
	out.LineNumber = &n

	t.skipInlineSpace(src)
}

func (t *Tokenizer) skipInlineSpace(src *Source) {
	for {
		c, ok := src.Peek()
		if !ok || (c != ' ' && c != '\t') {
			break
		}
		src.Advance()
	}
}

// parseOneCode parses a single command starting at the current cursor
// position, which must be at CommandStart (just past indent and any line
// number). It reports sibling=true when a bare G53 was consumed as a
// prefix and the caller should loop to parse the code it modifies.
func (t *Tokenizer) parseOneCode(src *Source, out *Code, enforcingAbs *bool) (sibling bool, err error) {
	c, ok := src.Peek()
	if !ok || c == '\n' || c == '\r' {
		// Nothing left on the line (e.g. "N5 " with no command).
		t.finishLine(src, enforcingAbs)
		out.Type = TypeNone
		return false, nil
	}

	if c == ';' || c == '(' {
		if err := t.scanCommentOnlyLine(src, out); err != nil {
			return false, err
		}
		t.finishLine(src, enforcingAbs)
		out.Type = TypeComment
		return false, nil
	}

	if c == 'g' || c == 'G' || c == 'm' || c == 'M' || c == 't' || c == 'T' {
		return t.parseCommandCode(src, out, enforcingAbs)
	}

	if c >= 'a' && c <= 'z' {
		if kw, arg := t.tryParseKeyword(src); kw != KeywordNone {
			out.Type = TypeKeyword
			out.Keyword = kw
			out.KeywordArg = arg
			if err := t.scanTrailingComments(src, out); err != nil {
				return false, err
			}
			t.finishLine(src, enforcingAbs)
			return false, nil
		}
	}

	return false, parseErrorf(src.Offset(), "unexpected character %q at command position", string(c))
}

var keywordArgless = map[Keyword]bool{
	KeywordElse:  true,
	KeywordBreak: true,
}

// tryParseKeyword attempts to match a reserved lowercase keyword word at
// the cursor and, if matched, consumes the whole rest of the line up to
// any comment marker as its argument.
func (t *Tokenizer) tryParseKeyword(src *Source) (Keyword, *string) {
	start := src.pos
	p := src.pos
	for p < len(src.data) && src.data[p] >= 'a' && src.data[p] <= 'z' {
		p++
	}
	word := string(src.data[start:p])
	kw, ok := keywordWords[word]
	if !ok {
		return KeywordNone, nil
	}
	src.pos = p

	// Argument runs until a comment marker or end of line.
	argStart := src.pos
	for {
		c, ok := src.Peek()
		if !ok || c == '\n' || c == '\r' || c == ';' || c == '(' {
			break
		}
		src.Advance()
	}
	raw := string(src.data[argStart:src.pos])
	trimmed := trimSpace(raw)

	if keywordArgless[kw] {
		return kw, nil
	}
	return kw, &trimmed
}

func trimSpace(s string) string {
	i, j := 0, len(s)
	for i < j && isSpaceByte(s[i]) {
		i++
	}
	for j > i && isSpaceByte(s[j-1]) {
		j--
	}
	return s[i:j]
}

func isSpaceByte(c byte) bool { return c == ' ' || c == '\t' }

// finishLine consumes through to (and including) a newline if one is
// present, resetting the tokenizer's per-line state and clearing the
// enforcing_abs carry. It does nothing when already at a sibling
// boundary mid-line.
func (t *Tokenizer) finishLine(src *Source, enforcingAbs *bool) {
	if isLineEnd(src) {
		t.consumeLineEnd(src)
		t.atLineStart = true
		*enforcingAbs = false
	}
}

// parseCommandCode parses a G/M/T command including its parameter list,
// applying G53 prefix-propagation rules.
func (t *Tokenizer) parseCommandCode(src *Source, out *Code, enforcingAbs *bool) (sibling bool, err error) {
	letterByte, _ := src.Peek()
	letter := toUpper(letterByte)
	src.Advance()

	switch letter {
	case 'G':
		out.Type = TypeGCode
	case 'M':
		out.Type = TypeMCode
	case 'T':
		out.Type = TypeTCode
	}

	if c, ok := src.Peek(); ok && c == '-' {
		return false, parseErrorf(src.Offset(), "command number cannot be negative")
	}

	majorStart := src.pos
	for {
		c, ok := src.Peek()
		if !ok || !isDigit(c) {
			break
		}
		src.Advance()
	}
	if src.pos == majorStart {
		return false, parseErrorf(src.Offset(), "expected a number after command letter %q", string(letter))
	}
	major, _ := strconv.Atoi(string(src.data[majorStart:src.pos]))
	out.MajorNumber = &major

	if c, ok := src.Peek(); ok && c == '.' {
		src.Advance()
		minorStart := src.pos
		for {
			c, ok := src.Peek()
			if !ok || !isDigit(c) {
				break
			}
			src.Advance()
		}
		if src.pos == minorStart {
			return false, parseErrorf(src.Offset(), "expected digits after '.' in command number")
		}
		minor, _ := strconv.Atoi(string(src.data[minorStart:src.pos]))
		out.MinorNumber = &minor
	}

	endedBySibling, err := t.parseParameterList(src, out)
	if err != nil {
		return false, err
	}

	bareG53 := letter == 'G' && major == 53 && out.MinorNumber == nil && len(out.Parameters) == 0
	if bareG53 && endedBySibling {
		out.Reset()
		*enforcingAbs = true
		return true, nil
	}

	if !bareG53 && *enforcingAbs {
		out.Flags |= EnforceAbsolutePosition
	}

	if !endedBySibling {
		t.finishLine(src, enforcingAbs)
	}
	return false, nil
}

// parseParameterList parses parameters, inline comments, and detects the
// two ways a code ends: a sibling command starting after a whitespace
// gap, or reaching a comment/newline/EOF. It reports endedBySibling=true
// in the former case, leaving the cursor positioned at the sibling's
// first byte.
func (t *Tokenizer) parseParameterList(src *Source, out *Code) (endedBySibling bool, err error) {
	for {
		gap := t.skipInlineGap(src)

		c, ok := src.Peek()
		if !ok || c == '\n' || c == '\r' {
			return false, nil
		}

		if c == ';' {
			if err := t.scanSemicolonComment(src, out); err != nil {
				return false, err
			}
			return false, nil
		}

		if c == '(' {
			if err := t.scanParenComment(src, out); err != nil {
				return false, err
			}
			continue
		}

		if gap && (c == 'g' || c == 'G' || c == 'm' || c == 'M') {
			return true, nil
		}

		if !isAlpha(c) {
			return false, parseErrorf(src.Offset(), "unexpected character %q in parameter list", string(c))
		}

		if err := t.parseOneParameter(src, out); err != nil {
			return false, err
		}
	}
}

// skipInlineGap skips spaces/tabs between tokens on the same line and
// reports whether any were actually consumed (compact forms have none).
func (t *Tokenizer) skipInlineGap(src *Source) bool {
	skipped := false
	for {
		c, ok := src.Peek()
		if !ok || (c != ' ' && c != '\t') {
			break
		}
		skipped = true
		src.Advance()
	}
	return skipped
}

func (t *Tokenizer) parseOneParameter(src *Source, out *Code) error {
	letterByte, _ := src.Peek()
	letter := toUpper(letterByte)
	src.Advance()

	next, hasNext := src.Peek()

	switch {
	case hasNext && next == '"':
		raw, err := t.scanQuoted(src)
		if err != nil {
			return err
		}
		out.AddParameter(NewParameter(letter, raw))
		return nil
	case hasNext && next == '{':
		raw, err := t.scanExpression(src)
		if err != nil {
			return err
		}
		out.AddParameter(NewParameter(letter, raw))
		return nil
	default:
		raw := t.scanBare(src)
		if raw == "" {
			isAxis := false
			for i := 0; i < len(axisLetters); i++ {
				if axisLetters[i] == letter {
					isAxis = true
					break
				}
			}
			if isAxis {
				raw = "0"
			}
		}
		out.AddParameter(NewParameter(letter, raw))
		return nil
	}
}

func isBareBoundary(c byte, ok bool) bool {
	if !ok {
		return true
	}
	return isAlpha(c) || c == ';' || c == '(' || c == ' ' || c == '\t' || c == '\r' || c == '\n'
}

func (t *Tokenizer) scanBare(src *Source) string {
	start := src.pos
	for {
		c, ok := src.Peek()
		if isBareBoundary(c, ok) {
			break
		}
		src.Advance()
	}
	return string(src.data[start:src.pos])
}

func (t *Tokenizer) scanQuoted(src *Source) (string, error) {
	start := src.pos
	src.Advance() // opening quote
	for {
		c, ok := src.Peek()
		if !ok || c == '\n' || c == '\r' {
			return "", parseErrorf(src.Offset(), "unterminated quoted string")
		}
		if c == '"' {
			src.Advance()
			if c2, ok2 := src.Peek(); ok2 && c2 == '"' {
				src.Advance()
				continue
			}
			return string(src.data[start:src.pos]), nil
		}
		src.Advance()
	}
}

func (t *Tokenizer) scanExpression(src *Source) (string, error) {
	start := src.pos
	depth := 0
	for {
		c, ok := src.Peek()
		if !ok || c == '\n' || c == '\r' {
			return "", parseErrorf(src.Offset(), "unterminated expression")
		}
		src.Advance()
		switch c {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return string(src.data[start:src.pos]), nil
			}
		}
	}
}

// scanTrailingComments consumes every comment segment remaining on the
// line (any number of "(...)" comments followed by an optional ';'
// comment), used after a keyword's argument.
func (t *Tokenizer) scanTrailingComments(src *Source, out *Code) error {
	for {
		t.skipInlineGap(src)
		c, ok := src.Peek()
		if !ok || c == '\n' || c == '\r' {
			return nil
		}
		switch c {
		case '(':
			if err := t.scanParenComment(src, out); err != nil {
				return err
			}
		case ';':
			return t.scanSemicolonComment(src, out)
		default:
			return nil
		}
	}
}

// scanCommentOnlyLine handles a physical line whose command position
// starts directly with a comment marker, producing a Comment code.
func (t *Tokenizer) scanCommentOnlyLine(src *Source, out *Code) error {
	c, _ := src.Peek()
	if c == ';' {
		return t.scanSemicolonComment(src, out)
	}
	return t.scanParenComment(src, out)
}

// scanSemicolonComment consumes a ';' comment running to end of line.
func (t *Tokenizer) scanSemicolonComment(src *Source, out *Code) error {
	src.Advance() // ';'
	start := src.pos
	for {
		c, ok := src.Peek()
		if !ok || c == '\n' || c == '\r' {
			break
		}
		src.Advance()
	}
	t.appendComment(out, string(src.data[start:src.pos]))
	return nil
}

// scanParenComment consumes a single "(...)" inline comment, or an
// unterminated "(" running to end of line, and appends its contents
// (parens stripped) to out.Comment. The caller resumes normal parameter
// scanning afterward, since a paren comment does not end the code.
func (t *Tokenizer) scanParenComment(src *Source, out *Code) error {
	src.Advance() // '('
	start := src.pos
	for {
		c, ok := src.Peek()
		if !ok || c == '\n' || c == '\r' {
			t.appendComment(out, string(src.data[start:src.pos]))
			return nil
		}
		if c == ')' {
			t.appendComment(out, string(src.data[start:src.pos]))
			src.Advance()
			return nil
		}
		src.Advance()
	}
}

func (t *Tokenizer) appendComment(out *Code, text string) {
	out.Comment += text
	out.HasComment = true
}
