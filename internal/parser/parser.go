// Package parser reads raw sales exports into text tables and writes the
// canonical table back out as CSV.
package parser

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/KaramelBytes/salesboard/internal/table"
)

// Options controls how a raw file is read.
type Options struct {
	// Delimiter for delimited text. If 0, sniffed from the header line.
	Delimiter rune
	// Sheet selects the XLSX worksheet. Empty means the first sheet.
	Sheet string
}

// Result is a decoded file.
type Result struct {
	Table     *table.Table
	Encoding  string
	Delimiter rune
	Sheet     string
}

// Reader decodes one family of file formats.
type Reader interface {
	CanRead(path string) bool
	Read(path string, opt Options) (*Result, error)
}

var registry []Reader

// Register adds a reader implementation to the registry.
func Register(r Reader) {
	registry = append(registry, r)
}

// ErrNotFound is returned when the input file does not exist.
var ErrNotFound = errors.New("file not found")

// ReadFile selects a reader based on filename and decodes the file into a
// table with numeric columns inferred. Files that match no reader are read
// as delimited text.
func ReadFile(path string, opt Options) (*Result, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	for _, r := range registry {
		if r.CanRead(path) {
			return r.Read(path, opt)
		}
	}
	return csvReader{}.Read(path, opt)
}

func init() {
	Register(xlsxReader{})
	Register(csvReader{})
}

// buildTable turns a header plus records into a text table and infers
// numeric columns. Repeated header names get a ".N" suffix so every column
// keeps a unique name; short records are padded with missing cells.
func buildTable(header []string, records [][]string) (*table.Table, error) {
	if len(header) == 0 {
		return nil, errors.New("no header row")
	}
	names := dedupeHeader(header)
	cols := make([][]string, len(names))
	for i := range cols {
		cols[i] = make([]string, len(records))
	}
	for r, rec := range records {
		if len(rec) > len(names) {
			return nil, fmt.Errorf("line %d: expected %d fields, saw %d", r+2, len(names), len(rec))
		}
		for c := range names {
			if c < len(rec) {
				cols[c][r] = rec[c]
			}
		}
	}
	tc := make([]*table.Column, len(names))
	for i, n := range names {
		tc[i] = table.NewTextColumn(n, cols[i], nil)
	}
	t, err := table.New(tc...)
	if err != nil {
		return nil, err
	}
	return table.InferNumbers(t), nil
}

func dedupeHeader(header []string) []string {
	out := make([]string, len(header))
	seen := make(map[string]int, len(header))
	taken := make(map[string]bool, len(header))
	for _, h := range header {
		taken[h] = true
	}
	for i, h := range header {
		n, dup := seen[h]
		seen[h] = n + 1
		if !dup {
			out[i] = h
			continue
		}
		name := h + "." + strconv.Itoa(n)
		for taken[name] {
			n++
			name = h + "." + strconv.Itoa(n)
		}
		seen[h] = n + 1
		taken[name] = true
		out[i] = name
	}
	return out
}
