package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/shopcrawl/internal/model"
)

// TextWriter outputs a compact, human-readable run summary for the terminal.
type TextWriter struct {
	baseWriter

	// showProducts lists every product URL under its domain.
	showProducts bool
}

// TextWriterOption configures a TextWriter.
type TextWriterOption func(*TextWriter)

// WithProducts makes the summary list each product URL.
func WithProducts(show bool) TextWriterOption {
	return func(w *TextWriter) {
		w.showProducts = show
	}
}

// NewTextWriter creates a TextWriter that outputs to the given writer.
func NewTextWriter(output io.Writer, opts ...TextWriterOption) *TextWriter {
	w := &TextWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the run summary.
func (w *TextWriter) Write(run *model.Run) (int, error) {
	var sb strings.Builder

	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Run:      %s\n", run.ID))
	sb.WriteString(fmt.Sprintf("Started:  %s\n", run.StartedAt.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Status:   %s\n", run.Status()))
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")

	if len(run.Domains) == 0 {
		sb.WriteString("  No domains crawled\n")
	}
	for _, d := range run.Domains {
		sb.WriteString(fmt.Sprintf("  %-30s %-10s pages=%-5d products=%d\n",
			d.Domain, d.Status, d.PagesFetched, len(d.Products)))
		if d.Error != "" {
			sb.WriteString(fmt.Sprintf("    error: %s\n", d.Error))
		}
		if w.showProducts {
			for _, p := range d.Products {
				sb.WriteString(fmt.Sprintf("    [+] %s\n", p))
			}
		}
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Total: %d product(s) from %d page(s)\n", run.TotalProducts(), run.TotalPages()))
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")

	return w.output.Write([]byte(sb.String()))
}
