package screening

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/compoundrank/internal/domain/rule"
	"github.com/turtacn/compoundrank/internal/domain/table"
	"github.com/turtacn/compoundrank/pkg/errors"
)

func scoredTable(t *testing.T, rows ...[]any) *table.Table {
	t.Helper()
	tbl, err := table.New("cid", "original_name", "normalized_name", "xlogp", "lipinski_rule_score", "lipinski_rule_approved")
	require.NoError(t, err)
	for _, r := range rows {
		require.NoError(t, tbl.AppendRow(r...))
	}
	return tbl
}

func TestBuildRanking_SortsDescendingAndStable(t *testing.T) {
	scored := scoredTable(t,
		[]any{1, "a", "A", 1.0, 2, false},
		[]any{2, "b", "B", 2.0, 4, true},
		[]any{3, "c", "C", 3.0, 2, false},
		[]any{4, "d", "D", 4.0, 3, true},
	)

	ranking, err := BuildRanking(scored, rule.Lipinski())
	require.NoError(t, err)
	assert.Equal(t, []string{"cid", "normalized_name", "lipinski_rule_score", "lipinski_rule_approved"}, ranking.Columns())

	cids, err := ranking.Column("cid")
	require.NoError(t, err)
	assert.Equal(t, []any{int64(2), int64(4), int64(1), int64(3)}, cids)

	scores, err := ranking.Column("lipinski_rule_score")
	require.NoError(t, err)
	for i := 1; i < len(scores); i++ {
		assert.GreaterOrEqual(t, scores[i-1].(int64), scores[i].(int64))
	}
}

func TestBuildRanking_DropsDuplicates(t *testing.T) {
	// Same compound under two query names projects onto identical rows.
	scored := scoredTable(t,
		[]any{7, "adenosine", "Adenosine", 1.0, 3, true},
		[]any{7, "adenocard", "Adenosine", 1.0, 3, true},
		[]any{8, "x", "X", 1.0, 1, false},
	)

	ranking, err := BuildRanking(scored, rule.Lipinski())
	require.NoError(t, err)
	assert.Equal(t, 2, ranking.Len())
}

func TestBuildRanking_MissingColumn(t *testing.T) {
	tbl, err := table.New("cid", "normalized_name")
	require.NoError(t, err)

	_, err = BuildRanking(tbl, rule.Lipinski())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeTableColumnMissing))
}

func TestApprovedCount(t *testing.T) {
	scored := scoredTable(t,
		[]any{1, "a", "A", nil, 4, true},
		[]any{2, "b", "B", nil, 0, false},
		[]any{3, "c", "C", nil, 3, true},
	)
	assert.Equal(t, 2, approvedCount(scored, rule.Lipinski()))
	assert.Equal(t, 0, approvedCount(scored, rule.Rule{Name: "other"}))
}
