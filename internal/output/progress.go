package output

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// Progress updates a single status line in place using a carriage
// return. When the sink is not a terminal it degrades to one line per
// update, so piped output and log files stay readable.
type Progress struct {
	out     io.Writer
	tty     bool
	started bool
	lastLen int
}

// NewProgress creates a progress reporter over the writer, detecting
// whether it is a terminal.
func NewProgress(out io.Writer) *Progress {
	tty := false
	if f, ok := out.(*os.File); ok {
		tty = term.IsTerminal(int(f.Fd()))
	}
	return &Progress{out: out, tty: tty}
}

// Update replaces (or, on a non-TTY sink, appends) the status line.
func (p *Progress) Update(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)

	if !p.tty {
		_, _ = fmt.Fprintln(p.out, msg)
		return
	}

	pad := ""
	if n := p.lastLen - len(msg); n > 0 {
		pad = fmt.Sprintf("%*s", n, "")
	}
	_, _ = fmt.Fprintf(p.out, "\r%s%s", msg, pad)
	p.lastLen = len(msg)
	p.started = true
}

// Done terminates the in-place line so subsequent output starts fresh.
func (p *Progress) Done() {
	if p.tty && p.started {
		_, _ = fmt.Fprintln(p.out)
	}
	p.started = false
	p.lastLen = 0
}
