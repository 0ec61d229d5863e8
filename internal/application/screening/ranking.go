package screening

import (
	"github.com/turtacn/compoundrank/internal/domain/compound"
	"github.com/turtacn/compoundrank/internal/domain/rule"
	"github.com/turtacn/compoundrank/internal/domain/table"
	"github.com/turtacn/compoundrank/pkg/errors"
)

// BuildRanking projects a scored table onto cid, normalized_name and the
// score and approval columns of r, drops duplicate rows keeping the first,
// and orders the rest by score, highest first.  Rows with equal scores keep
// their relative order.
func BuildRanking(scored *table.Table, r rule.Rule) (*table.Table, error) {
	cols := []string{compound.ColumnCID, compound.ColumnNormalizedName, r.ScoreColumn(), r.ApprovedColumn()}
	for _, c := range cols {
		if !scored.HasColumn(c) {
			return nil, errors.New(errors.ErrCodeTableColumnMissing, "ranking column not in scored table").WithDetail(c)
		}
	}

	projected, err := scored.Select(cols...)
	if err != nil {
		return nil, err
	}
	return projected.DropDuplicates().SortByDesc(r.ScoreColumn())
}

// approvedCount counts true cells in the approval column of r.
func approvedCount(scored *table.Table, r rule.Rule) int {
	col, err := scored.Column(r.ApprovedColumn())
	if err != nil {
		return 0
	}
	n := 0
	for _, v := range col {
		if b, ok := v.(bool); ok && b {
			n++
		}
	}
	return n
}
