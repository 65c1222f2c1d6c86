package prompt

import (
	"fmt"

	"github.com/pterm/pterm"

	"github.com/playkit-contrib/kcontrib/internal/naming"
)

// Terminal prompts interactively with pterm.
type Terminal struct{}

// NewTerminal returns a terminal prompter.
func NewTerminal() *Terminal {
	return &Terminal{}
}

// Text implements Prompter. Invalid answers are reported and asked again.
func (t *Terminal) Text(message, initial string, validate naming.Validator) (string, error) {
	for {
		canceled := false
		answer, err := pterm.DefaultInteractiveTextInput.
			WithDefaultText(message).
			WithDefaultValue(initial).
			WithOnInterruptFunc(func() { canceled = true }).
			Show()
		if canceled {
			return "", ErrCanceled
		}
		if err != nil {
			return "", fmt.Errorf("read answer: %w", err)
		}
		if validate == nil {
			return answer, nil
		}
		msg := validate(answer)
		if msg == "" {
			return answer, nil
		}
		pterm.Error.Println(msg)
		initial = answer
	}
}

// Confirm implements Prompter.
func (t *Terminal) Confirm(message string, initial bool) (bool, error) {
	canceled := false
	answer, err := pterm.DefaultInteractiveConfirm.
		WithDefaultText(message).
		WithDefaultValue(initial).
		WithOnInterruptFunc(func() { canceled = true }).
		Show()
	if canceled {
		return false, ErrCanceled
	}
	if err != nil {
		return false, fmt.Errorf("read answer: %w", err)
	}
	return answer, nil
}

// Select implements Prompter.
func (t *Terminal) Select(message string, options []string, initial string) (string, error) {
	if len(options) == 0 {
		return "", fmt.Errorf("%s: nothing to choose from", message)
	}
	printer := pterm.DefaultInteractiveSelect.
		WithDefaultText(message).
		WithOptions(options).
		WithMaxHeight(10)
	if indexOf(options, initial) >= 0 {
		printer = printer.WithDefaultOption(initial)
	}
	canceled := false
	answer, err := printer.WithOnInterruptFunc(func() { canceled = true }).Show()
	if canceled {
		return "", ErrCanceled
	}
	if err != nil {
		return "", fmt.Errorf("read answer: %w", err)
	}
	return answer, nil
}

// MultiSelect implements Prompter. Selections smaller than min are asked again.
func (t *Terminal) MultiSelect(message string, options []string, min int) ([]string, error) {
	if len(options) < min {
		return nil, fmt.Errorf("%s: only %d option(s) available, %d required", message, len(options), min)
	}
	for {
		canceled := false
		answer, err := pterm.DefaultInteractiveMultiselect.
			WithDefaultText(message).
			WithOptions(options).
			WithOnInterruptFunc(func() { canceled = true }).
			Show()
		if canceled {
			return nil, ErrCanceled
		}
		if err != nil {
			return nil, fmt.Errorf("read answer: %w", err)
		}
		if len(answer) >= min {
			return answer, nil
		}
		pterm.Warning.Printfln("Select at least %d option(s).", min)
	}
}
