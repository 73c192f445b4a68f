package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/nao1215/shopcrawl/internal/model"
)

// JSONWriter outputs runs in JSON format.
//
// By default only the persisted shape is written: an object mapping each
// crawled domain to its product URLs. encoding/json emits map keys in
// sorted order and the URL lists are already sorted, so the output is
// stable across runs.
type JSONWriter struct {
	baseWriter

	indent       bool
	indentPrefix string
	indentString string

	// full writes the whole run (statuses, counters, timings) instead of
	// the domain -> products mapping.
	full bool
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables two-space indentation.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// WithFullRun makes the writer emit the complete run instead of the
// product mapping.
func WithFullRun() JSONWriterOption {
	return func(w *JSONWriter) {
		w.full = true
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the run in JSON format.
func (w *JSONWriter) Write(run *model.Run) (int, error) {
	if w.full {
		return w.writeJSON(run)
	}
	return w.writeJSON(run.Result())
}

// WriteResult outputs a bare domain -> product URLs mapping.
func (w *JSONWriter) WriteResult(result model.CrawlResult) (int, error) {
	if result == nil {
		result = model.CrawlResult{}
	}
	return w.writeJSON(result)
}

func (w *JSONWriter) writeJSON(v interface{}) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}

	data = append(data, '\n')
	return w.output.Write(data)
}

// ReadResult decodes a persisted domain -> product URLs mapping.
func ReadResult(r io.Reader) (model.CrawlResult, error) {
	var result model.CrawlResult
	if err := json.NewDecoder(r).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode crawl result: %w", err)
	}
	if result == nil {
		result = model.CrawlResult{}
	}
	return result, nil
}
