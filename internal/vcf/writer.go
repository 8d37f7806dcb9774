package vcf

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/pgzip"
)

// Writer writes VCF lines, optionally gzip compressed.
type Writer struct {
	w          *bufio.Writer
	gzipWriter *pgzip.Writer
	file       *os.File
}

// NewWriter creates a writer over an uncompressed stream.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// AsWriter returns w itself when it is already a *Writer, otherwise a new
// buffered Writer over it. Callers must Flush the result.
func AsWriter(w io.Writer) *Writer {
	if vw, ok := w.(*Writer); ok {
		return vw
	}
	return NewWriter(w)
}

// Create creates (or truncates) the file at path and returns a writer for it.
// When compress is set the output is gzip compressed.
func Create(path string, compress bool) (*Writer, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create output file: %w", err)
	}

	vw := &Writer{file: f}
	if compress {
		vw.gzipWriter = pgzip.NewWriter(f)
		vw.w = bufio.NewWriter(vw.gzipWriter)
	} else {
		vw.w = bufio.NewWriter(f)
	}
	return vw, nil
}

// WriteLine writes line followed by a newline.
func (vw *Writer) WriteLine(line string) error {
	if _, err := vw.w.WriteString(line); err != nil {
		return err
	}
	return vw.w.WriteByte('\n')
}

// Write implements io.Writer so a Writer can be passed where a plain stream is expected.
func (vw *Writer) Write(p []byte) (int, error) {
	return vw.w.Write(p)
}

// Flush flushes buffered output without closing the file.
func (vw *Writer) Flush() error {
	return vw.w.Flush()
}

// Close flushes buffered output and closes the compressor and file.
func (vw *Writer) Close() error {
	if err := vw.w.Flush(); err != nil {
		if vw.file != nil {
			vw.file.Close()
		}
		return fmt.Errorf("flush output: %w", err)
	}
	if vw.gzipWriter != nil {
		if err := vw.gzipWriter.Close(); err != nil {
			vw.file.Close()
			return fmt.Errorf("close gzip writer: %w", err)
		}
	}
	if vw.file != nil {
		return vw.file.Close()
	}
	return nil
}
