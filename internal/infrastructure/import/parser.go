// Package csvimport reads spreadsheet exports for bulk catalog loads. Rows
// are validated against declarative field rules and every problem is
// reported with its line number so a file can be fixed in one pass.
package csvimport

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

var (
	// ErrEmptyFile is returned when the CSV file is empty
	ErrEmptyFile = errors.New("CSV file is empty")

	// ErrInvalidEncoding is returned for content that is not UTF-8
	ErrInvalidEncoding = errors.New("CSV file must be UTF-8 encoded")

	// ErrMissingHeader is returned when the CSV file has no header row
	ErrMissingHeader = errors.New("CSV file missing header row")

	// ErrDuplicateHeader is returned when two columns share a name
	ErrDuplicateHeader = errors.New("CSV file has duplicate columns")
)

// Parser reads a header row followed by data rows. Header names are matched
// case-insensitively and cell values are trimmed.
type Parser struct {
	reader    *csv.Reader
	headers   []string
	headerIdx map[string]int
	line      int
}

// ParserOption is a functional option for Parser configuration
type ParserOption func(*csv.Reader)

// WithDelimiter sets the field delimiter (default is comma)
func WithDelimiter(d rune) ParserOption {
	return func(r *csv.Reader) {
		r.Comma = d
	}
}

// NewParser strips a UTF-8 byte order mark, checks the encoding of the
// first block and reads the header row. Later rows are checked cell by cell
// in Next.
func NewParser(r io.Reader, opts ...ParserOption) (*Parser, error) {
	buf := bufio.NewReaderSize(r, peekSize)

	head, err := buf.Peek(peekSize)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(head) == 0 {
		return nil, ErrEmptyFile
	}
	truncated := len(head) == peekSize
	if len(head) >= 3 && head[0] == 0xEF && head[1] == 0xBB && head[2] == 0xBF {
		_, _ = buf.Discard(3)
		head = head[3:]
	}
	if !validUTF8Prefix(head, truncated) {
		return nil, ErrInvalidEncoding
	}

	reader := csv.NewReader(buf)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	for _, opt := range opts {
		opt(reader)
	}

	p := &Parser{reader: reader, headerIdx: map[string]int{}}
	if err := p.readHeader(); err != nil {
		return nil, err
	}
	return p, nil
}

const peekSize = 4096

// validUTF8Prefix allows a multi-byte rune cut off by the peek boundary when
// the block is only a prefix of the file.
func validUTF8Prefix(b []byte, truncated bool) bool {
	if utf8.Valid(b) {
		return true
	}
	if !truncated {
		return false
	}
	for cut := 1; cut < utf8.UTFMax && cut < len(b); cut++ {
		if utf8.Valid(b[:len(b)-cut]) {
			return true
		}
	}
	return false
}

func (p *Parser) readHeader() error {
	record, err := p.reader.Read()
	if errors.Is(err, io.EOF) {
		return ErrMissingHeader
	}
	if err != nil {
		return fmt.Errorf("failed to read header: %w", err)
	}
	p.line = 1

	for i, h := range record {
		name := normalizeHeader(h)
		if name == "" {
			continue
		}
		if _, dup := p.headerIdx[name]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateHeader, name)
		}
		p.headerIdx[name] = i
		p.headers = append(p.headers, name)
	}
	if len(p.headers) == 0 {
		return ErrMissingHeader
	}
	return nil
}

func normalizeHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(h))
}

// Headers returns the normalized header names in file order.
func (p *Parser) Headers() []string {
	return p.headers
}

// MissingHeaders lists the required columns absent from the header row.
func (p *Parser) MissingHeaders(required ...string) []string {
	var missing []string
	for _, h := range required {
		if _, ok := p.headerIdx[normalizeHeader(h)]; !ok {
			missing = append(missing, h)
		}
	}
	return missing
}

// Row is one data row keyed by normalized header. Cells that are not valid
// UTF-8 are listed in InvalidEncoding and their bad bytes replaced with U+FFFD.
type Row struct {
	Line            int
	Values          map[string]string
	InvalidEncoding []string
}

// Get returns the trimmed cell for a column, or "" when absent.
func (r *Row) Get(column string) string {
	return r.Values[normalizeHeader(column)]
}

// IsEmpty reports whether every cell is blank.
func (r *Row) IsEmpty() bool {
	for _, v := range r.Values {
		if v != "" {
			return false
		}
	}
	return true
}

// Next returns the next data row or io.EOF. Line numbers count the header
// as line 1.
func (p *Parser) Next() (*Row, error) {
	record, err := p.reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, io.EOF
	}
	p.line++
	if err != nil {
		return nil, fmt.Errorf("error reading line %d: %w", p.line, err)
	}

	row := &Row{Line: p.line, Values: make(map[string]string, len(p.headers))}
	for _, name := range p.headers {
		value := ""
		if idx := p.headerIdx[name]; idx < len(record) {
			value = strings.TrimSpace(record[idx])
		}
		if !utf8.ValidString(value) {
			row.InvalidEncoding = append(row.InvalidEncoding, name)
			value = strings.ToValidUTF8(value, "\uFFFD")
		}
		row.Values[name] = value
	}
	return row, nil
}

// ReadAll returns the remaining non-empty rows. It fails once more than
// limit rows are read when limit is positive.
func (p *Parser) ReadAll(limit int) ([]*Row, error) {
	var rows []*Row
	for {
		row, err := p.Next()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return rows, err
		}
		if row.IsEmpty() {
			continue
		}
		rows = append(rows, row)
		if limit > 0 && len(rows) > limit {
			return rows, fmt.Errorf("file exceeds %d data rows", limit)
		}
	}
}
