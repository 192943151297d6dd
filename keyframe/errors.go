package keyframe

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrEmptySequence is returned by operations that need at least one frame.
	ErrEmptySequence = errors.New("keyframe sequence is empty")
	// ErrFrameOutOfRange is returned when a frame index does not address a frame.
	ErrFrameOutOfRange = errors.New("frame index out of range")
	// ErrAlphaOutOfRange is returned when a blend parameter is outside the open interval (0, 1).
	ErrAlphaOutOfRange = errors.New("interpolation only supports alpha in the exclusive range (0, 1)")
	// ErrFrameSizeMismatch is returned when frames being blended do not all hold one pose per node.
	ErrFrameSizeMismatch = errors.New("frames and hierarchy have different numbers of poses")
	// ErrMalformedCSV is wrapped by every ParseError.
	ErrMalformedCSV = errors.New("malformed keyframe csv")
)

// ParseError describes the first row of a keyframe file that could not be imported. Row is 1-based and
// counts the header.
type ParseError struct {
	Row    int
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: row %d: %s", ErrMalformedCSV, e.Row, e.Reason)
}

// Unwrap lets errors.Is match ErrMalformedCSV.
func (e *ParseError) Unwrap() error {
	return ErrMalformedCSV
}

func newParseError(row int, format string, args ...interface{}) *ParseError {
	return &ParseError{Row: row, Reason: fmt.Sprintf(format, args...)}
}
