// Package errors defines the error taxonomy shared across the engine:
// sentinel errors for container and index failures, and a structured
// SyntaxError for query-compiler failures that carries the source offset.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrOutOfRange         = errors.New("index out of range")
	ErrSizeMismatch       = errors.New("bit set sizes do not match")
	ErrDocumentNotFound   = errors.New("document not found")
	ErrInvalidDocument    = errors.New("invalid document")
	ErrBadSignature       = errors.New("bad index file signature")
	ErrUnsupportedVersion = errors.New("unsupported index file version")
)

// SyntaxError reports a malformed query: unbalanced parentheses, an
// unterminated phrase, an invalid proximity suffix, or an unknown character.
// Position is the byte offset into the query text.
type SyntaxError struct {
	Message  string
	Position int
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("query syntax error at position %d: %s", e.Position, e.Message)
}

// NewSyntaxError creates a SyntaxError at the given source offset.
func NewSyntaxError(position int, format string, args ...any) *SyntaxError {
	return &SyntaxError{
		Message:  fmt.Sprintf(format, args...),
		Position: position,
	}
}

// IsSyntaxError reports whether err is (or wraps) a SyntaxError, returning it
// if so.
func IsSyntaxError(err error) (*SyntaxError, bool) {
	var se *SyntaxError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// HTTPStatusCode maps an error to the HTTP status the handler layer should
// respond with.
func HTTPStatusCode(err error) int {
	if _, ok := IsSyntaxError(err); ok {
		return http.StatusBadRequest
	}
	switch {
	case errors.Is(err, ErrDocumentNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidDocument), errors.Is(err, ErrOutOfRange):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
