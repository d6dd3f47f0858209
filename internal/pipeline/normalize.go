package pipeline

import (
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/KaramelBytes/salesboard/internal/table"
)

var (
	reNotWord     = regexp.MustCompile(`[^\p{L}\p{N}\p{M}_\s\p{Z}-]`)
	reWhitespace  = regexp.MustCompile(`[\s\p{Z}]+`)
	reUnderscores = regexp.MustCompile(`_+`)
)

// NormalizeName converts a raw header into a lowercase, underscore-separated
// canonical name. It is idempotent.
func NormalizeName(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = reNotWord.ReplaceAllString(s, "")
	s = strings.NewReplacer("-", " ", ".", " ").Replace(s)
	s = reWhitespace.ReplaceAllString(s, "_")
	s = reUnderscores.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}

// NormalizeNames maps NormalizeName over names.
func NormalizeNames(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = NormalizeName(n)
	}
	return out
}

// NormalizeColumns renames every column of t to its canonical name. When two
// columns collide, the later column's data takes the earlier column's
// position and the later position is dropped.
func NormalizeColumns(t *table.Table) (*table.Table, error) {
	names := NormalizeNames(t.Columns())
	cols := make([]*table.Column, 0, len(names))
	pos := make(map[string]int, len(names))
	for i, name := range names {
		c := t.ColumnAt(i).Renamed(name)
		if p, ok := pos[name]; ok {
			zap.L().Warn("column name collision after normalization",
				zap.String("column", name),
				zap.String("raw", t.ColumnAt(i).Name()))
			cols[p] = c
			continue
		}
		pos[name] = len(cols)
		cols = append(cols, c)
	}
	return table.New(cols...)
}
