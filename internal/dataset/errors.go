package dataset

import (
	"errors"
	"strconv"
	"strings"
)

// Error variables for dataset operations.
var (
	ErrNotFound          = errors.New("dataset not found")
	ErrCorrupt           = errors.New("dataset is corrupt")
	ErrUnsupportedFormat = errors.New("unsupported dataset format")
	ErrLocked            = errors.New("dataset is locked by another process")
	ErrDirEmpty          = errors.New("dataset directory cannot be empty")
)

// Error attaches the file (and line, when known) to a dataset failure.
//
// It formats as "<cause> (file=X line=N)":
//
//	dataset is corrupt: order 12 listed twice (file=transactions.csv line=13)
type Error struct {
	// File is the file name relative to the dataset directory.
	File string

	// Line is the 1-based line number, or 0 when the failure is not tied to a line.
	Line int

	Err error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}

	var parts []string

	if e.File != "" {
		parts = append(parts, "file="+e.File)
	}

	if e.Line > 0 {
		parts = append(parts, "line="+strconv.Itoa(e.Line))
	}

	cause := ""
	if e.Err != nil {
		cause = e.Err.Error()
	}

	if len(parts) == 0 {
		return cause
	}

	suffix := "(" + strings.Join(parts, " ") + ")"
	if cause == "" {
		return suffix
	}

	return cause + " " + suffix
}

// Unwrap returns the underlying error for use with [errors.Is] and [errors.As].
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.Err
}
