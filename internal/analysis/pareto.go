package analysis

import (
	"fmt"
	"sort"

	"github.com/KaramelBytes/salesboard/internal/table"
)

// Tier is an ABC class.
type Tier string

const (
	TierA Tier = "A"
	TierB Tier = "B"
	TierC Tier = "C"
)

const (
	tierALimit = 0.80
	tierBLimit = 0.95
)

// ClassifyTier assigns A up to and including 80% cumulative share, B up to
// and including 95%, and C above.
func ClassifyTier(cumShare float64) Tier {
	switch {
	case cumShare <= tierALimit:
		return TierA
	case cumShare <= tierBLimit:
		return TierB
	default:
		return TierC
	}
}

// ParetoRow is one ranked entity.
type ParetoRow struct {
	Key      string  `json:"key"`
	Value    float64 `json:"value"`
	Share    float64 `json:"share"`
	CumShare float64 `json:"cum_share"`
	Tier     Tier    `json:"tier"`
}

// ParetoTable ranks entities by descending aggregated value.
type ParetoTable struct {
	KeyColumn   string      `json:"key_column"`
	ValueColumn string      `json:"value_column"`
	Total       float64     `json:"total"`
	Rows        []ParetoRow `json:"rows"`
}

// BuildPareto sums valueCol per distinct keyCol value, ranks descending and
// computes share, cumulative share and tier. Equal values are ordered by key
// ascending. Rows with a missing key or value are ignored. A zero total
// yields zero shares for every row.
func BuildPareto(t *table.Table, valueCol, keyCol string) (*ParetoTable, error) {
	vc, ok := t.Column(valueCol)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrColumnMissing, valueCol)
	}
	if vc.Kind() != table.Number {
		return nil, fmt.Errorf("value column %q is %s, want number", valueCol, vc.Kind())
	}
	kc, ok := t.Column(keyCol)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrColumnMissing, keyCol)
	}

	sums := make(map[string]float64)
	for i := 0; i < t.Rows(); i++ {
		v, ok := vc.Float(i)
		if !ok || !kc.Valid(i) {
			continue
		}
		sums[kc.String(i)] += v
	}
	rows := make([]ParetoRow, 0, len(sums))
	for k, v := range sums {
		rows = append(rows, ParetoRow{Key: k, Value: v})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Value == rows[j].Value {
			return rows[i].Key < rows[j].Key
		}
		return rows[i].Value > rows[j].Value
	})

	total := 0.0
	for _, r := range rows {
		total += r.Value
	}
	cum := 0.0
	for i := range rows {
		if total != 0 {
			cum += rows[i].Value
			rows[i].Share = rows[i].Value / total
			rows[i].CumShare = cum / total
		}
		rows[i].Tier = ClassifyTier(rows[i].CumShare)
	}
	return &ParetoTable{KeyColumn: keyCol, ValueColumn: valueCol, Total: total, Rows: rows}, nil
}

// Top returns at most n leading rows; n <= 0 returns every row.
func (p *ParetoTable) Top(n int) []ParetoRow {
	if n <= 0 || n >= len(p.Rows) {
		return p.Rows
	}
	return p.Rows[:n]
}

// OnlyTiers keeps the rows in the given tiers. No tiers keeps every row.
func (p *ParetoTable) OnlyTiers(tiers ...Tier) []ParetoRow {
	if len(tiers) == 0 {
		return p.Rows
	}
	keep := make(map[Tier]bool, len(tiers))
	for _, t := range tiers {
		keep[t] = true
	}
	out := make([]ParetoRow, 0, len(p.Rows))
	for _, r := range p.Rows {
		if keep[r.Tier] {
			out = append(out, r)
		}
	}
	return out
}

// TierCounts counts rows per tier.
func (p *ParetoTable) TierCounts() map[Tier]int {
	out := map[Tier]int{TierA: 0, TierB: 0, TierC: 0}
	for _, r := range p.Rows {
		out[r.Tier]++
	}
	return out
}

// ParseTiers parses a list such as ["A", "c"] into tiers, ignoring unknown
// entries.
func ParseTiers(in []string) []Tier {
	var out []Tier
	for _, s := range in {
		switch s {
		case "A", "a":
			out = append(out, TierA)
		case "B", "b":
			out = append(out, TierB)
		case "C", "c":
			out = append(out, TierC)
		}
	}
	return out
}
