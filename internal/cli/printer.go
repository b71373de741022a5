// Copyright (c) 2026 Mlenv and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// printer renders command output, optionally colored.
type printer struct {
	out io.Writer
	err io.Writer

	errStyle    lipgloss.Style
	keyStyle    lipgloss.Style
	activeStyle lipgloss.Style
	dimStyle    lipgloss.Style
}

func newPrinter(out, err io.Writer, color bool) *printer {
	p := &printer{
		out: out,
		err: err,
	}
	if !color {
		return p
	}

	p.errStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("1"))
	p.keyStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("6"))
	p.activeStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("2")).
		Bold(true)
	p.dimStyle = lipgloss.NewStyle().
		Faint(true)
	return p
}

// Printf writes plain output.
func (p *printer) Printf(format string, args ...any) {
	fmt.Fprintf(p.out, format+"\n", args...)
}

// Errorf writes an error line to the error stream.
func (p *printer) Errorf(format string, args ...any) {
	fmt.Fprintln(p.err, p.errStyle.Render(fmt.Sprintf(format, args...)))
}

// KeyValue writes a "key = value" line.
func (p *printer) KeyValue(key, value string) {
	fmt.Fprintf(p.out, "%s = %s\n", p.keyStyle.Render(key), value)
}

// Item writes a list entry, highlighted when active.
func (p *printer) Item(text string, active bool) {
	if active {
		fmt.Fprintln(p.out, p.activeStyle.Render("* "+text))
		return
	}
	fmt.Fprintln(p.out, "  "+text)
}

// Dim writes a de-emphasized line.
func (p *printer) Dim(text string) {
	fmt.Fprintln(p.out, p.dimStyle.Render(text))
}
