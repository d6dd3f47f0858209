package pipeline

import (
	"go.uber.org/zap"

	"github.com/KaramelBytes/salesboard/internal/table"
)

// DropStats reports what the completeness filter removed.
type DropStats struct {
	Before  int `json:"before"`
	Removed int `json:"removed"`
}

// DropIncomplete removes every row that has a missing cell in any column.
func DropIncomplete(t *table.Table) (*table.Table, DropStats) {
	out := t.Filter(t.RowComplete)
	st := DropStats{Before: t.Rows(), Removed: t.Rows() - out.Rows()}
	if st.Removed > 0 {
		zap.L().Info("rows removed for missing values",
			zap.Int("removed", st.Removed),
			zap.Int("before", st.Before))
	}
	return out, st
}
