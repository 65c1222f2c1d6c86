package prompt

import (
	"fmt"
	"slices"

	"github.com/playkit-contrib/kcontrib/internal/naming"
)

// Default answers a question with its initial value.
var Default = defaultAnswer{}

type defaultAnswer struct{}

// Scripted replays a fixed list of answers in order. It backs tests and non-interactive runs.
// Each answer must match the question type: string for Text and Select, bool for Confirm,
// []string for MultiSelect, or Default for any of them. ErrCanceled as an answer aborts.
type Scripted struct {
	answers []any
	// Asked records every question message in order.
	Asked []string
}

// NewScripted returns a prompter that replays answers.
func NewScripted(answers ...any) *Scripted {
	return &Scripted{answers: answers}
}

// Remaining reports how many answers were not consumed.
func (s *Scripted) Remaining() int {
	return len(s.answers)
}

func (s *Scripted) next(message string) (any, error) {
	s.Asked = append(s.Asked, message)
	if len(s.answers) == 0 {
		return nil, fmt.Errorf("no scripted answer for %q", message)
	}
	a := s.answers[0]
	s.answers = s.answers[1:]
	if err, ok := a.(error); ok {
		return nil, err
	}
	return a, nil
}

// Text implements Prompter. Answers failing validate are returned as errors.
func (s *Scripted) Text(message, initial string, validate naming.Validator) (string, error) {
	a, err := s.next(message)
	if err != nil {
		return "", err
	}
	answer := initial
	switch v := a.(type) {
	case defaultAnswer:
	case string:
		answer = v
	default:
		return "", fmt.Errorf("%q: want a string answer, got %T", message, a)
	}
	if validate != nil {
		if msg := validate(answer); msg != "" {
			return "", fmt.Errorf("%q: %s", message, msg)
		}
	}
	return answer, nil
}

// Confirm implements Prompter.
func (s *Scripted) Confirm(message string, initial bool) (bool, error) {
	a, err := s.next(message)
	if err != nil {
		return false, err
	}
	switch v := a.(type) {
	case defaultAnswer:
		return initial, nil
	case bool:
		return v, nil
	default:
		return false, fmt.Errorf("%q: want a bool answer, got %T", message, a)
	}
}

// Select implements Prompter.
func (s *Scripted) Select(message string, options []string, initial string) (string, error) {
	a, err := s.next(message)
	if err != nil {
		return "", err
	}
	switch v := a.(type) {
	case defaultAnswer:
		if indexOf(options, initial) >= 0 {
			return initial, nil
		}
		if len(options) == 0 {
			return "", fmt.Errorf("%q: nothing to choose from", message)
		}
		return options[0], nil
	case string:
		if indexOf(options, v) < 0 {
			return "", fmt.Errorf("%q: %q is not one of %v", message, v, options)
		}
		return v, nil
	default:
		return "", fmt.Errorf("%q: want a string answer, got %T", message, a)
	}
}

// MultiSelect implements Prompter.
func (s *Scripted) MultiSelect(message string, options []string, min int) ([]string, error) {
	a, err := s.next(message)
	if err != nil {
		return nil, err
	}
	v, ok := a.([]string)
	if !ok {
		return nil, fmt.Errorf("%q: want a []string answer, got %T", message, a)
	}
	for _, choice := range v {
		if !slices.Contains(options, choice) {
			return nil, fmt.Errorf("%q: %q is not one of %v", message, choice, options)
		}
	}
	if len(v) < min {
		return nil, fmt.Errorf("%q: select at least %d option(s)", message, min)
	}
	return v, nil
}
