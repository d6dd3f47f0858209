// Package pipeline turns a raw sales export into the canonical table:
// normalize names, coerce dates, derive fields, drop incomplete rows.
package pipeline

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/KaramelBytes/salesboard/internal/parser"
	"github.com/KaramelBytes/salesboard/internal/table"
)

// Options controls how input files are read.
type Options struct {
	// Delimiter for delimited text. If 0, sniffed from the header line.
	Delimiter rune
	// Sheet selects the XLSX worksheet.
	Sheet string
}

func (o Options) parser() parser.Options {
	return parser.Options{Delimiter: o.Delimiter, Sheet: o.Sheet}
}

// DiagKind classifies a degraded, non-fatal event.
type DiagKind string

const (
	DiagParse   DiagKind = "parse"
	DiagPersist DiagKind = "persist"
)

// Diagnostic describes a degraded outcome that did not stop the pipeline.
type Diagnostic struct {
	Column  string   `json:"column,omitempty"`
	Kind    DiagKind `json:"kind"`
	Message string   `json:"message"`
}

// Outcome is the explicit result of an optional side effect.
type Outcome struct {
	Skipped bool   `json:"skipped"`
	OK      bool   `json:"ok"`
	Path    string `json:"path,omitempty"`
	Err     error  `json:"-"`
}

func (o Outcome) String() string {
	switch {
	case o.Skipped:
		return "skipped"
	case o.OK:
		return "ok"
	case o.Err != nil:
		return "failed: " + o.Err.Error()
	default:
		return "failed"
	}
}

// Result is one pipeline run.
type Result struct {
	RunID       string        `json:"run_id"`
	Table       *table.Table  `json:"-"`
	Source      string        `json:"source,omitempty"`
	Encoding    string        `json:"encoding,omitempty"`
	Drop        DropStats     `json:"drop"`
	Diagnostics []Diagnostic  `json:"diagnostics,omitempty"`
	Persist     Outcome       `json:"persist"`
	Duration    time.Duration `json:"duration"`
	// Canonical is true when the table was reloaded from a processed file
	// rather than derived from raw input.
	Canonical bool `json:"canonical"`
}

// Prepare runs the four stages in their fixed order on an in-memory raw table.
func Prepare(raw *table.Table) (*Result, error) {
	start := time.Now()
	res := &Result{RunID: uuid.NewString(), Persist: Outcome{Skipped: true}}

	t, err := NormalizeColumns(raw)
	if err != nil {
		return nil, fmt.Errorf("normalize columns: %w", err)
	}
	t, diags := CoerceDates(t)
	res.Diagnostics = append(res.Diagnostics, diags...)
	t, err = DeriveFields(t)
	if err != nil {
		return nil, err
	}
	t, res.Drop = DropIncomplete(t)
	res.Table = t
	res.Duration = time.Since(start)
	return res, nil
}

// PrepareFromPaths reads rawPath tolerantly, prepares it, and persists the
// canonical table to processedPath when one is given. Persistence failures
// are recorded on the result and never fail the run.
func PrepareFromPaths(rawPath, processedPath string, opts Options) (*Result, error) {
	start := time.Now()
	in, err := readSource(rawPath, opts)
	if err != nil {
		return nil, err
	}
	res, err := Prepare(in.Table)
	if err != nil {
		return nil, err
	}
	res.Source = rawPath
	res.Encoding = in.Encoding

	if processedPath != "" {
		res.Persist = Outcome{Path: processedPath}
		if err := parser.WriteCSVFile(processedPath, res.Table); err != nil {
			res.Persist.Err = err
			res.Diagnostics = append(res.Diagnostics, Diagnostic{Kind: DiagPersist, Message: err.Error()})
			zap.L().Warn("could not persist processed table", zap.String("path", processedPath), zap.Error(err))
		} else {
			res.Persist.OK = true
		}
	}
	res.Duration = time.Since(start)
	zap.L().Info("pipeline finished",
		zap.String("run_id", res.RunID),
		zap.String("source", rawPath),
		zap.String("encoding", res.Encoding),
		zap.Int("rows", res.Table.Rows()),
		zap.Int("columns", res.Table.NumColumns()),
		zap.Duration("took", res.Duration))
	return res, nil
}

// LoadCanonical reads an already processed file. Only numeric inference is
// applied; no derivation is re-run.
func LoadCanonical(processedPath string, opts Options) (*Result, error) {
	start := time.Now()
	in, err := readSource(processedPath, opts)
	if err != nil {
		return nil, err
	}
	return &Result{
		RunID:     uuid.NewString(),
		Table:     in.Table,
		Source:    processedPath,
		Encoding:  in.Encoding,
		Drop:      DropStats{Before: in.Table.Rows()},
		Persist:   Outcome{Skipped: true},
		Duration:  time.Since(start),
		Canonical: true,
	}, nil
}

func readSource(path string, opts Options) (*parser.Result, error) {
	in, err := parser.ReadFile(path, opts.parser())
	if err == nil {
		return in, nil
	}
	if errors.Is(err, parser.ErrNotFound) {
		return nil, &SourceError{Path: path, Err: ErrSourceNotFound}
	}
	return nil, &SourceError{Path: path, Err: err}
}
