package engine

import (
	"errors"
	"fmt"

	"github.com/playkit-contrib/kcontrib/internal/naming"
)

var (
	// ErrInvalidName reports a plugin name rejected before any I/O happens.
	ErrInvalidName = naming.ErrInvalidName
	// ErrTemplateNotFound reports a missing template directory, checked before any write.
	ErrTemplateNotFound = errors.New("template not found")
)

// IOError describes a filesystem failure while materializing a template.
// Instantiation stops at the first IOError; files already processed are left as they are.
type IOError struct {
	// Op is the failed operation (read, write, rename, copy, walk).
	Op string
	// Path is the file the operation was applied to.
	Path string
	// Err is the underlying filesystem error.
	Err error
}

func (e *IOError) Error() string {
	if e == nil {
		return "template io failure"
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap exposes the underlying filesystem error.
func (e *IOError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsIOError reports whether err is, or wraps, an *IOError.
func IsIOError(err error) bool {
	var target *IOError
	return errors.As(err, &target)
}
