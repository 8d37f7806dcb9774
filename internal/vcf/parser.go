// Package vcf provides line-oriented VCF reading and writing.
package vcf

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/pgzip"
)

// minDataColumns is the number of leading columns (CHROM through ALT) a data
// line must carry when no #CHROM header has been seen.
const minDataColumns = 5

// LineKind classifies a line of a VCF stream.
type LineKind int

const (
	// Meta is a "##" metadata line, or any other '#' line that is not the column header.
	Meta LineKind = iota
	// Header is the "#CHROM" column header line.
	Header
	// Data is a variant record line.
	Data
)

// Line is a single line read from a VCF stream.
type Line struct {
	Kind   LineKind
	Raw    string  // line text without the trailing newline
	Record *Record // set only for Data lines
}

// Columns holds the positions of the named VCF columns.
type Columns struct {
	Chrom  int
	Pos    int
	Ref    int
	Alt    int
	Format int // -1 when the stream has no FORMAT column
	Width  int // number of header columns; 0 when no header was seen
}

// DefaultColumns are the fixed VCF column positions used until a #CHROM
// header line names them.
var DefaultColumns = Columns{Chrom: 0, Pos: 1, Ref: 3, Alt: 4, Format: 8}

// Reader reads lines from a VCF stream.
type Reader struct {
	reader     *bufio.Reader
	closer     io.Closer
	lineNumber int
	columns    Columns
	headerSeen bool
}

// Open opens a VCF file for reading.
// Supports both plain VCF and gzipped VCF (.vcf.gz) files; "-" reads stdin.
func Open(path string) (*Reader, error) {
	rc, err := OpenFile(path)
	if err != nil {
		return nil, err
	}
	r := NewReader(rc)
	r.closer = rc
	return r, nil
}

// NewReader creates a reader over an uncompressed VCF stream.
func NewReader(r io.Reader) *Reader {
	return &Reader{
		reader:  bufio.NewReader(r),
		columns: DefaultColumns,
	}
}

// fileReader decompresses a gzipped file transparently.
type fileReader struct {
	io.Reader
	file *os.File
	gz   *pgzip.Reader
}

func (f *fileReader) Close() error {
	if f.gz != nil {
		f.gz.Close()
	}
	return f.file.Close()
}

// OpenFile opens path for reading, decompressing it when it starts with the
// gzip magic bytes. "-" returns stdin.
func OpenFile(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vcf file: %w", err)
	}

	// Check for gzip magic bytes
	buf := make([]byte, 2)
	n, err := io.ReadFull(file, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		file.Close()
		return nil, fmt.Errorf("read vcf header: %w", err)
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		file.Close()
		return nil, fmt.Errorf("seek vcf file: %w", err)
	}

	if n == 2 && buf[0] == 0x1f && buf[1] == 0x8b {
		gz, err := pgzip.NewReader(file)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		return &fileReader{Reader: gz, file: file, gz: gz}, nil
	}

	return &fileReader{Reader: file, file: file}, nil
}

// Next reads the next line.
// Returns nil, nil when there are no more lines. Empty lines are skipped.
func (r *Reader) Next() (*Line, error) {
	for {
		text, err := r.reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("read vcf line: %w", err)
		}
		if err == io.EOF && text == "" {
			return nil, nil
		}
		r.lineNumber++

		text = strings.TrimRight(text, "\r\n")
		if text == "" {
			if err == io.EOF {
				return nil, nil
			}
			continue
		}

		return r.classify(text)
	}
}

func (r *Reader) classify(text string) (*Line, error) {
	if strings.HasPrefix(text, "#CHROM") {
		cols, err := parseColumns(text)
		if err != nil {
			return nil, &ParseError{Line: r.lineNumber, Message: err.Error()}
		}
		r.columns = cols
		r.headerSeen = true
		return &Line{Kind: Header, Raw: text}, nil
	}

	if strings.HasPrefix(text, "#") {
		return &Line{Kind: Meta, Raw: text}, nil
	}

	rec, err := r.parseRecord(text)
	if err != nil {
		return nil, err
	}
	return &Line{Kind: Data, Raw: text, Record: rec}, nil
}

// parseRecord splits a data line into a Record using the current columns.
func (r *Reader) parseRecord(text string) (*Record, error) {
	fields := strings.Split(text, "\t")

	if r.headerSeen {
		if len(fields) != r.columns.Width {
			return nil, &ParseError{
				Line:    r.lineNumber,
				Message: fmt.Sprintf("expected %d columns, found %d", r.columns.Width, len(fields)),
			}
		}
	} else if len(fields) < minDataColumns {
		return nil, &ParseError{
			Line:    r.lineNumber,
			Message: fmt.Sprintf("expected at least %d columns, found %d", minDataColumns, len(fields)),
		}
	}

	cols := r.columns
	if !r.headerSeen && len(fields) <= cols.Format {
		cols.Format = -1
	}

	return &Record{
		Chrom:  fields[cols.Chrom],
		Pos:    fields[cols.Pos],
		Ref:    fields[cols.Ref],
		Alt:    fields[cols.Alt],
		fields: fields,
		cols:   cols,
	}, nil
}

// parseColumns resolves column positions from a #CHROM header line.
func parseColumns(line string) (Columns, error) {
	names := strings.Split(line, "\t")
	cols := Columns{Chrom: -1, Pos: -1, Ref: -1, Alt: -1, Format: -1, Width: len(names)}

	for i, name := range names {
		switch name {
		case "#CHROM":
			cols.Chrom = i
		case "POS":
			cols.Pos = i
		case "REF":
			cols.Ref = i
		case "ALT":
			cols.Alt = i
		case "FORMAT":
			cols.Format = i
		}
	}

	for _, req := range []struct {
		name string
		idx  int
	}{
		{"POS", cols.Pos},
		{"REF", cols.Ref},
		{"ALT", cols.Alt},
	} {
		if req.idx < 0 {
			return Columns{}, fmt.Errorf("header missing %s column", req.name)
		}
	}

	return cols, nil
}

// Columns returns the column layout currently in effect.
func (r *Reader) Columns() Columns {
	return r.columns
}

// LineNumber returns the current line number being processed.
func (r *Reader) LineNumber() int {
	return r.lineNumber
}

// Close closes the underlying file, if the reader owns one.
func (r *Reader) Close() error {
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}

// ParseError represents an error during VCF parsing with line context.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("vcf parse error at line %d: %s", e.Line, e.Message)
}
