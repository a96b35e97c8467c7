package libgcode

// Splitter turns a whole buffer of G-code text into a sequence of Codes by
// driving a Tokenizer across it and threading the enforcing_abs carry bit
// itself, so callers never have to manage it by hand.
type Splitter struct {
	tok          *Tokenizer
	src          *Source
	enforcingAbs bool
}

// NewSplitter returns a Splitter over the given text, starting at its
// first byte.
func NewSplitter(text string) *Splitter {
	return &Splitter{
		tok: NewTokenizer(),
		src: NewSource(text),
	}
}

// Next parses and returns the next non-swallowed Code, or reports done=true
// once the input is exhausted. Codes of Type TypeNone (a blank line) are
// skipped rather than returned, since they carry no information a caller
// would act on.
func (s *Splitter) Next() (code Code, done bool, err error) {
	for {
		var c Code
		ok, err := s.tok.Parse(s.src, &c, &s.enforcingAbs)
		if err != nil {
			return Code{}, false, err
		}
		if !ok {
			return Code{}, true, nil
		}
		if c.Type == TypeNone {
			continue
		}
		return c, false, nil
	}
}

// All drains the Splitter into a slice. Intended for tests and small
// inputs; long-running scans should call Next in a loop so they can react
// to cancellation between codes.
func (s *Splitter) All() ([]Code, error) {
	var out []Code
	for {
		c, done, err := s.Next()
		if err != nil {
			return out, err
		}
		if done {
			return out, nil
		}
		out = append(out, c)
	}
}

// Split is a convenience wrapper that tokenizes a complete string in one
// call.
func Split(text string) ([]Code, error) {
	return NewSplitter(text).All()
}
