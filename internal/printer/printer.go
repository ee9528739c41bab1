// Package printer writes styled status lines for CLI commands.
package printer

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/colonyops/policyview/internal/core/styles"
)

type ctxKey struct{}

// Printer writes human-readable command output.
type Printer struct {
	out io.Writer
	err io.Writer
}

// New creates a printer writing normal output to out and failures to errOut.
func New(out, errOut io.Writer) *Printer {
	return &Printer{out: out, err: errOut}
}

// NewContext returns a copy of ctx carrying p.
func NewContext(ctx context.Context, p *Printer) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// Ctx returns the printer stored in ctx, or one writing to stdout and
// stderr.
func Ctx(ctx context.Context) *Printer {
	if p, ok := ctx.Value(ctxKey{}).(*Printer); ok {
		return p
	}
	return New(os.Stdout, os.Stderr)
}

func (p *Printer) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(p.out, format+"\n", args...)
}

func (p *Printer) Infof(format string, args ...any) {
	p.line(p.out, styles.TextMutedStyle.Render("•"), format, args...)
}

func (p *Printer) Successf(format string, args ...any) {
	p.line(p.out, styles.SuccessStyle.Render("✔"), format, args...)
}

func (p *Printer) Warnf(format string, args ...any) {
	p.line(p.err, styles.WarningStyle.Render("!"), format, args...)
}

func (p *Printer) Errorf(format string, args ...any) {
	p.line(p.err, styles.ErrorStyle.Render("✘"), format, args...)
}

// Section prints a header for a group of lines.
func (p *Printer) Section(title string) {
	_, _ = fmt.Fprintln(p.out, styles.HeaderStyle.Render(title))
}

// Writer returns the normal output writer.
func (p *Printer) Writer() io.Writer { return p.out }

func (p *Printer) line(w io.Writer, icon, format string, args ...any) {
	_, _ = fmt.Fprintf(w, "%s %s\n", icon, fmt.Sprintf(format, args...))
}
