package todo

import (
	"errors"
	"fmt"
	"strings"
)

// Parse error kinds. Every error returned by Parse wraps exactly one of these
// inside a *ParseError, so callers can match with errors.Is.
var (
	ErrMissingRegion       = errors.New("missing detail region")
	ErrUnrecognizedLine    = errors.New("unrecognized line")
	ErrIndentJump          = errors.New("invalid indent jump")
	ErrDuplicateID         = errors.New("duplicate id")
	ErrUnknownField        = errors.New("unknown detail field")
	ErrUnresolvedReference = errors.New("unresolved reference")
	ErrMalformedTimestamp  = errors.New("malformed timestamp")
	ErrDuplicateField      = errors.New("duplicate detail field")
	ErrInvalidID           = errors.New("invalid id")
)

// ParseError reports a fatal problem at a specific line of a task document.
type ParseError struct {
	Line int    // 1-based line number, 0 when the error is not tied to a line
	Text string // raw text of the offending line
	ID   ID     // owning task id, if known
	Key  string // field key, for field errors
	Msg  string // human readable detail
	Err  error  // one of the Err* sentinels
}

func (e *ParseError) Error() string {
	var b strings.Builder
	if e.Line > 0 {
		fmt.Fprintf(&b, "line %d: ", e.Line)
	}
	if e.Msg != "" {
		b.WriteString(e.Msg)
	} else {
		b.WriteString(e.Err.Error())
	}
	if e.Text != "" {
		fmt.Fprintf(&b, " (%q)", e.Text)
	}
	if e.Msg != "" {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap returns the underlying sentinel error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

func lineError(err error, line int, text string, format string, args ...any) *ParseError {
	return &ParseError{
		Line: line,
		Text: text,
		Msg:  fmt.Sprintf(format, args...),
		Err:  err,
	}
}
