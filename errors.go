package vmdl

import "fmt"

// ErrorType categorizes a parse failure.
type ErrorType string

const (
	ErrorTypeMalformedLine ErrorType = "malformed_line" // line with neither '=' nor ':'
	ErrorTypeKeyConflict   ErrorType = "key_conflict"   // path used as both leaf and container
)

// Error is returned by Parse when a document cannot be turned into a tree.
type Error struct {
	Type ErrorType
	Line int    // 1-based, MalformedLine only
	Text string // original line, MalformedLine only
	Path string // dotted path, KeyConflict only
}

// Sentinels for errors.Is; they match any *Error of the same Type.
var (
	ErrMalformedLine = &Error{Type: ErrorTypeMalformedLine}
	ErrKeyConflict   = &Error{Type: ErrorTypeKeyConflict}
)

func (e *Error) Error() string {
	switch e.Type {
	case ErrorTypeMalformedLine:
		return fmt.Sprintf("Invalid line format at line %d: %s", e.Line, e.Text)
	case ErrorTypeKeyConflict:
		return fmt.Sprintf("Key conflict: '%s' is both a value and an object", e.Path)
	default:
		return fmt.Sprintf("vmdl: %s", e.Type)
	}
}

// Is reports whether target is an *Error of the same Type.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Type == e.Type
}

func malformedLine(line int, text string) *Error {
	return &Error{Type: ErrorTypeMalformedLine, Line: line, Text: text}
}

func keyConflict(path string) *Error {
	return &Error{Type: ErrorTypeKeyConflict, Path: path}
}
