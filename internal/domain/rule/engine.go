package rule

import (
	"sort"

	"github.com/turtacn/compoundrank/internal/domain/table"
	"github.com/turtacn/compoundrank/pkg/errors"
)

// Evaluate scores every row of t against r and returns a new table with
// r.ScoreColumn (int) and r.ApprovedColumn (bool) set.  Existing columns of
// the same names are replaced; all other columns are untouched and t itself
// is never modified.
//
// A nil cell never satisfies its criterion.  A criterion column that is
// missing, or that holds a non-numeric value, fails the whole evaluation.
func Evaluate(r Rule, t *table.Table) (*table.Table, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	columns := make([][]any, len(r.Criteria))
	for k, c := range r.Criteria {
		col, err := t.Column(c.Column)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeCriterionColumnMissing, "criterion column not in table").
				WithDetail(r.Name + "." + c.Column)
		}
		columns[k] = col
	}

	scores := make([]any, t.Len())
	approved := make([]any, t.Len())
	for i := 0; i < t.Len(); i++ {
		score := int64(0)
		for k, c := range r.Criteria {
			cell := columns[k][i]
			if cell == nil {
				continue
			}
			v, ok := table.AsFloat(cell)
			if !ok {
				return nil, errors.Newf(errors.ErrCodeCriterionNotNumeric,
					"row %d holds %v (%T), not a number", i, cell, cell).WithDetail(r.Name + "." + c.Column)
			}
			if c.Range.Contains(v) {
				score++
			}
		}
		scores[i] = score
		approved[i] = score >= int64(r.Threshold)
	}

	out, err := t.WithColumn(r.ScoreColumn(), scores)
	if err != nil {
		return nil, err
	}
	return out.WithColumn(r.ApprovedColumn(), approved)
}

// EvaluateCriteria builds a rule from a column → range map and evaluates it.
// Criteria are applied in column-name order.
func EvaluateCriteria(name string, threshold int, t *table.Table, criteria map[string]Range) (*table.Table, error) {
	cols := make([]string, 0, len(criteria))
	for c := range criteria {
		cols = append(cols, c)
	}
	sort.Strings(cols)

	r := Rule{Name: name, Threshold: threshold}
	for _, c := range cols {
		r.Criteria = append(r.Criteria, Criterion{Column: c, Range: criteria[c]})
	}
	return Evaluate(r, t)
}
