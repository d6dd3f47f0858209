package parser

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/KaramelBytes/salesboard/internal/table"
)

type csvReader struct{}

func (csvReader) CanRead(path string) bool {
	name := strings.ToLower(path)
	return strings.HasSuffix(name, ".csv") || strings.HasSuffix(name, ".tsv") || strings.HasSuffix(name, ".txt")
}

// Encodings lists the text encodings tried, in order, for delimited input.
// Latin-1 decodes every byte sequence, so in practice windows-1252 never wins:
// bytes 0x80-0x9F come out as C1 control characters, not cp1252 punctuation.
var Encodings = []string{"utf-8", "latin-1", "windows-1252"}

func decode(enc string, b []byte) ([]byte, error) {
	switch enc {
	case "utf-8":
		b = bytes.TrimPrefix(b, []byte("\xef\xbb\xbf"))
		if !utf8.Valid(b) {
			return nil, errors.New("invalid utf-8 byte sequence")
		}
		return b, nil
	case "latin-1":
		return charmap.ISO8859_1.NewDecoder().Bytes(b)
	case "windows-1252":
		return charmap.Windows1252.NewDecoder().Bytes(b)
	}
	return nil, fmt.Errorf("unknown encoding %q", enc)
}

// Read tries every entry of Encodings and keeps the first that both decodes
// and parses.
func (csvReader) Read(path string, opt Options) (*Result, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	encErr := &EncodingError{Path: path}
	for _, enc := range Encodings {
		text, err := decode(enc, raw)
		if err != nil {
			encErr.Attempts = append(encErr.Attempts, Attempt{Encoding: enc, Err: err})
			continue
		}
		delim := opt.Delimiter
		if delim == 0 {
			delim = sniffDelimiter(path, text)
		}
		t, err := parseDelimited(bytes.NewReader(text), delim)
		if err != nil {
			encErr.Attempts = append(encErr.Attempts, Attempt{Encoding: enc, Err: err})
			continue
		}
		return &Result{Table: t, Encoding: enc, Delimiter: delim}, nil
	}
	return nil, encErr
}

func parseDelimited(r io.Reader, delim rune) (*table.Table, error) {
	cr := csv.NewReader(r)
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("no columns to parse from file")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	var records [][]string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record: %w", err)
		}
		records = append(records, rec)
	}
	return buildTable(header, records)
}

var delimiterCandidates = []rune{',', ';', '\t', '|'}

// sniffDelimiter picks the candidate that occurs most often, outside quotes,
// in the header line. Ties go to the earlier candidate; no hit means comma,
// or tab for .tsv files.
func sniffDelimiter(path string, text []byte) rune {
	fallback := ','
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		fallback = '\t'
	}
	sc := bufio.NewScanner(bytes.NewReader(text))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	if !sc.Scan() {
		return fallback
	}
	line := sc.Text()
	counts := make(map[rune]int, len(delimiterCandidates))
	inQuotes := false
	for _, r := range line {
		if r == '"' {
			inQuotes = !inQuotes
			continue
		}
		if !inQuotes {
			counts[r]++
		}
	}
	best, bestN := fallback, 0
	for _, c := range delimiterCandidates {
		if counts[c] > bestN {
			best, bestN = c, counts[c]
		}
	}
	return best
}
