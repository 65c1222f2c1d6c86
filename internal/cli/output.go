package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/pterm/pterm"
)

var (
	successStyle = pterm.NewStyle(pterm.FgGreen)
	warningStyle = pterm.NewStyle(pterm.FgYellow)
	errorStyle   = pterm.NewStyle(pterm.FgRed)
	commandStyle = pterm.NewStyle(pterm.FgCyan)
	mutedStyle   = pterm.NewStyle(pterm.FgGray)
)

// printer writes user-facing output. Diagnostics go to the logger instead.
type printer struct {
	w io.Writer
}

func newPrinter(w io.Writer) printer {
	return printer{w: w}
}

func (p printer) line(format string, args ...any) {
	_, _ = fmt.Fprintln(p.w, fmt.Sprintf(format, args...))
}

func (p printer) blank() {
	_, _ = fmt.Fprintln(p.w)
}

func (p printer) success(format string, args ...any) {
	p.line("%s", successStyle.Sprint(fmt.Sprintf(format, args...)))
}

func (p printer) warning(format string, args ...any) {
	p.line("%s", warningStyle.Sprint(fmt.Sprintf(format, args...)))
}

func (p printer) failure(format string, args ...any) {
	p.line("%s", errorStyle.Sprint(fmt.Sprintf(format, args...)))
}

// step announces a stage of a multi-step command.
func (p printer) step(name string) {
	p.line("%s %s", mutedStyle.Sprint("›"), name)
}

// command prints a shell command the user may run, with an optional note underneath.
func (p printer) command(cmd, note string) {
	p.line("  %s", commandStyle.Sprint(cmd))
	if note != "" {
		p.line("    %s", mutedStyle.Sprint(note))
	}
}

func (p printer) list(items []string) {
	for _, item := range items {
		p.line("  - %s", item)
	}
}

func (p printer) muted(text string) {
	for _, l := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		p.line("%s", mutedStyle.Sprint(l))
	}
}
