// Package wsv reads whitespace separated values.
//
// The first row names the columns. Blank lines and lines starting with '#'
// are skipped. Values containing whitespace, or empty values, are enclosed
// in double quotes; a double quote inside a quoted value is written twice.
// Rows with fewer values than columns leave the remaining columns unset,
// rows with more values get extra columns named extra0, extra1, ...
package wsv

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"
)

var (
	ErrDuplicateColumn = errors.New("duplicate column name")
	ErrBadQuote        = errors.New("bad quoting")
	ErrNoHeader        = errors.New("no header row")
)

type Row map[string]string

type Reader struct {
	scanner *bufio.Scanner
	columns []string
	line    int
}

func NewReader(r io.Reader) *Reader {
	return &Reader{scanner: bufio.NewScanner(r)}
}

// Columns returns the column names known so far.
func (r *Reader) Columns() ([]string, error) {
	if r.columns == nil {
		if err := r.readHeader(); err != nil {
			return nil, err
		}
	}
	return r.columns, nil
}

// Read returns the next row, or io.EOF.
func (r *Reader) Read() (Row, error) {
	if _, err := r.Columns(); err != nil {
		return nil, err
	}
	line, err := r.next()
	if err != nil {
		return nil, err
	}
	values, err := Split(line)
	if err != nil {
		return nil, fmt.Errorf("line %d: %w", r.line, err)
	}

	for i := 0; len(values) > len(r.columns); i++ {
		name := fmt.Sprintf("extra%d", i)
		if !r.hasColumn(name) {
			r.columns = append(r.columns, name)
		}
	}

	row := Row{}
	for i, value := range values {
		row[r.columns[i]] = value
	}
	return row, nil
}

// ReadAll reads every remaining row.
func (r *Reader) ReadAll() ([]Row, error) {
	var rows []Row
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return rows, err
		}
		rows = append(rows, row)
	}
}

func (r *Reader) readHeader() error {
	line, err := r.next()
	if errors.Is(err, io.EOF) {
		return ErrNoHeader
	}
	if err != nil {
		return err
	}
	columns, err := Split(line)
	if err != nil {
		return fmt.Errorf("header: %w", err)
	}
	seen := map[string]bool{}
	for _, c := range columns {
		if seen[c] {
			return fmt.Errorf("%w: %q", ErrDuplicateColumn, c)
		}
		seen[c] = true
	}
	r.columns = columns
	return nil
}

func (r *Reader) hasColumn(name string) bool {
	for _, c := range r.columns {
		if c == name {
			return true
		}
	}
	return false
}

func (r *Reader) next() (string, error) {
	for r.scanner.Scan() {
		r.line++
		line := strings.TrimSpace(r.scanner.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		return line, nil
	}
	if err := r.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

// Split breaks one line into its values.
func Split(line string) ([]string, error) {
	var values []string
	runes := []rune(line)
	for i := 0; i < len(runes); {
		if unicode.IsSpace(runes[i]) {
			i++
			continue
		}
		if runes[i] != '"' {
			start := i
			for i < len(runes) && !unicode.IsSpace(runes[i]) {
				i++
			}
			values = append(values, string(runes[start:i]))
			continue
		}

		var b strings.Builder
		closed := false
		for i++; i < len(runes); i++ {
			if runes[i] != '"' {
				b.WriteRune(runes[i])
				continue
			}
			if i+1 < len(runes) && runes[i+1] == '"' {
				b.WriteRune('"')
				i++
				continue
			}
			closed = true
			i++
			break
		}
		if !closed || (i < len(runes) && !unicode.IsSpace(runes[i])) {
			return nil, fmt.Errorf("%w: %s", ErrBadQuote, line)
		}
		values = append(values, b.String())
	}
	return values, nil
}
