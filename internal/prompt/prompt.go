// Package prompt asks the user questions, on a terminal or from a script.
package prompt

import (
	"errors"

	"github.com/playkit-contrib/kcontrib/internal/naming"
)

// ErrCanceled is returned when the user aborts a prompt.
var ErrCanceled = errors.New("canceled")

// Prompter asks questions. Implementations return ErrCanceled when the user aborts.
type Prompter interface {
	// Text asks for free text. validate may be nil; a non-empty message rejects the answer.
	Text(message, initial string, validate naming.Validator) (string, error)
	// Confirm asks a yes/no question.
	Confirm(message string, initial bool) (bool, error)
	// Select picks one of options; initial preselects a value when it is present.
	Select(message string, options []string, initial string) (string, error)
	// MultiSelect picks at least min of options.
	MultiSelect(message string, options []string, min int) ([]string, error)
}

func indexOf(options []string, value string) int {
	for i, o := range options {
		if o == value {
			return i
		}
	}
	return -1
}
