package report

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/nao1215/shopcrawl/internal/model"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// maxListedProducts caps the product URLs listed per domain so that large
// shops do not produce unreadable documents. The JSON output is complete.
const maxListedProducts = 50

// MarkdownWriter outputs a run summary in Markdown format.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the run in Markdown format.
func (w *MarkdownWriter) Write(run *model.Run) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, run)
	w.writeDomains(md, run)
	w.writeProducts(md, run)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, run *model.Run) {
	md.H1("Shopcrawl Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Run ID", "`" + run.ID + "`"},
			{"Started", run.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond).String()},
			{"Domains Crawled", strconv.Itoa(len(run.Domains))},
			{"Pages Fetched", strconv.Itoa(run.TotalPages())},
			{"Products Found", strconv.Itoa(run.TotalProducts())},
			{"Status", statusLabel(run.Status())},
		},
	})
	md.PlainText("")

	w.writeAlert(md, run)
}

func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, run *model.Run) {
	failed := 0
	for _, d := range run.Domains {
		if d.Status == model.StatusFailed {
			failed++
		}
	}

	switch {
	case failed > 0:
		md.Cautionf("%d domain(s) failed to crawl. Their product lists are empty.", failed)
	case run.Cancelled:
		md.Warningf("The run was interrupted. Results cover %d domain(s) and may be partial.", len(run.Domains))
	case run.TotalProducts() == 0:
		md.Note("No product pages were discovered.")
	default:
		md.Tip("All domains were crawled to completion.")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeDomains(md *markdown.Markdown, run *model.Run) {
	md.H2("Domains")
	md.PlainText("")

	if len(run.Domains) == 0 {
		md.PlainText("No domains were crawled.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(run.Domains))
	for i, d := range run.Domains {
		rows[i] = []string{
			"`" + d.Domain + "`",
			statusLabel(string(d.Status)),
			strconv.Itoa(d.PagesFetched),
			strconv.Itoa(d.FetchFailures),
			strconv.Itoa(len(d.Products)),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Domain", "Status", "Pages", "Failures", "Products"},
		Rows:   rows,
	})
	md.PlainText("")

	if run.TotalProducts() > 0 {
		w.writePieChart(md, run)
	}
}

// writePieChart writes a mermaid pie chart of products per domain.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, run *model.Run) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Products per Domain"),
		piechart.WithShowData(true),
	)
	for _, d := range run.Domains {
		if len(d.Products) > 0 {
			chart.LabelAndIntValue(d.Domain, uint64(len(d.Products)))
		}
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeProducts(md *markdown.Markdown, run *model.Run) {
	for _, d := range run.Domains {
		md.H2(d.Domain)
		md.PlainText("")

		if d.Error != "" {
			md.PlainTextf("Error: %s", d.Error)
			md.PlainText("")
		}
		if len(d.Products) == 0 {
			md.PlainText("No products found.")
			md.PlainText("")
			continue
		}

		listed := d.Products
		if len(listed) > maxListedProducts {
			listed = listed[:maxListedProducts]
		}
		md.BulletList(listed...)
		md.PlainText("")
		if rest := len(d.Products) - len(listed); rest > 0 {
			md.Details("More products", strconv.Itoa(rest)+" more product URL(s) are in the JSON output.")
			md.PlainText("")
		}
	}
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [shopcrawl](https://github.com/nao1215/shopcrawl)*")
}

// statusLabel turns "page_limit" into "Page Limit".
func statusLabel(status string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(status, "_", " "))
}
