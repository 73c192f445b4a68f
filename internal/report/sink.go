package report

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nao1215/shopcrawl/internal/model"
)

const (
	outputDirPerm  = 0o750
	outputFilePerm = 0o600
)

// FileSink persists the crawl result as indented JSON at a fixed path.
//
// Each Save replaces the previous file. The data is written to a temporary
// file in the same directory and renamed over the target, so readers see
// either the old or the new content and never a partial write.
type FileSink struct {
	path string
}

// NewFileSink creates a sink writing to path.
func NewFileSink(path string) *FileSink {
	return &FileSink{path: path}
}

// Path returns the output file path.
func (s *FileSink) Path() string {
	return s.path
}

// Save writes result to the sink's path.
func (s *FileSink) Save(result model.CrawlResult) error {
	var buf bytes.Buffer
	if _, err := NewJSONWriter(&buf, WithPrettyPrint()).WriteResult(result); err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	return WriteFileAtomic(s.path, buf.Bytes())
}

// Load reads the result currently stored at the sink's path.
func (s *FileSink) Load() (model.CrawlResult, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadResult(f)
}

// WriteFileAtomic writes data to path through a temporary file and rename.
// Missing parent directories are created.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, outputDirPerm); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		_ = os.Remove(tmpName) //nolint:errcheck
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := tmp.Chmod(outputFilePerm); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("failed to set output permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("failed to close output: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("failed to replace output file: %w", err)
	}
	return nil
}
