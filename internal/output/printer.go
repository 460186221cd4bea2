// Package output owns every byte the tool writes to the terminal: the
// styled printer, the confirmation prompts the engine receives as an
// injected capability, and the single-line progress reporter used by the
// dump and restore pipelines.
package output

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Printer writes styled messages and reads interactive answers. A nil
// input reader makes every confirmation fail closed.
type Printer struct {
	out io.Writer
	in  *bufio.Reader
}

// NewPrinter creates a printer over the given streams.
func NewPrinter(out io.Writer, in io.Reader) *Printer {
	p := &Printer{out: out}
	if in != nil {
		p.in = bufio.NewReader(in)
	}
	return p
}

// Default returns the stdout/stdin printer commands use.
func Default() *Printer {
	return NewPrinter(os.Stdout, os.Stdin)
}

// Line prints an unstyled line.
func (p *Printer) Line(msg string) {
	_, _ = fmt.Fprintln(p.out, msg)
}

// Linef prints an unstyled formatted line.
func (p *Printer) Linef(format string, args ...any) {
	_, _ = fmt.Fprintf(p.out, format+"\n", args...)
}

// Info prints a cyan informational line.
func (p *Printer) Info(msg string) {
	_, _ = fmt.Fprintln(p.out, InfoText.Render(msg))
}

// Success prints a green line.
func (p *Printer) Success(msg string) {
	_, _ = fmt.Fprintln(p.out, SafeText.Render(msg))
}

// Warn prints a yellow line.
func (p *Printer) Warn(msg string) {
	_, _ = fmt.Fprintln(p.out, WarningText.Render(msg))
}

// Error prints a red line.
func (p *Printer) Error(msg string) {
	_, _ = fmt.Fprintln(p.out, DangerText.Render(msg))
}

// Muted prints a dim line.
func (p *Printer) Muted(msg string) {
	_, _ = fmt.Fprintln(p.out, MutedText.Render(msg))
}

// Confirm asks a yes/no question; only "y" and "yes" count as yes.
func (p *Printer) Confirm(prompt string) bool {
	answer := strings.ToLower(p.Ask(prompt + " [y/n]: "))
	return answer == "y" || answer == "yes"
}

// Ask prints the prompt and reads one trimmed line.
func (p *Printer) Ask(prompt string) string {
	_, _ = fmt.Fprint(p.out, prompt)
	if p.in == nil {
		_, _ = fmt.Fprintln(p.out)
		return ""
	}
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		return ""
	}
	return strings.TrimSpace(line)
}

// Writer exposes the underlying output stream for the progress reporter.
func (p *Printer) Writer() io.Writer {
	return p.out
}
