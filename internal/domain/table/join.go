package table

import (
	"fmt"
	"sort"

	"github.com/turtacn/compoundrank/pkg/errors"
)

// JoinByKey merges left and right row-by-row on the shared column key.
//
// Both tables must carry key, key values must be unique and non-nil within
// each table, and the two key sets must be equal.  Rows follow left's order;
// the result has left's columns followed by right's columns other than key.
func JoinByKey(left, right *Table, key string) (*Table, error) {
	lk, err := keyIndex(left, key, "left")
	if err != nil {
		return nil, err
	}
	rk, err := keyIndex(right, key, "right")
	if err != nil {
		return nil, err
	}
	if len(lk) != len(rk) {
		return nil, errors.Newf(errors.ErrCodeCompoundKeyMismatch,
			"key sets differ: left has %d %s values, right has %d", len(lk), key, len(rk))
	}
	for k := range lk {
		if _, ok := rk[k]; !ok {
			return nil, errors.Newf(errors.ErrCodeCompoundKeyMismatch,
				"key %s=%v has no match on the right", key, k)
		}
	}

	cols := left.Columns()
	var rightCols []int
	for j, c := range right.columns {
		if c == key {
			continue
		}
		if left.HasColumn(c) {
			return nil, errors.New(errors.ErrCodeTableShapeInvalid, "column present on both sides of join").WithDetail(c)
		}
		cols = append(cols, c)
		rightCols = append(rightCols, j)
	}

	out, err := New(cols...)
	if err != nil {
		return nil, err
	}
	kj := left.index[key]
	out.rows = make([][]any, 0, len(left.rows))
	for _, lrow := range left.rows {
		rrow := right.rows[rk[lrow[kj]]]
		row := make([]any, 0, len(cols))
		row = append(row, lrow...)
		for _, j := range rightCols {
			row = append(row, rrow[j])
		}
		out.rows = append(out.rows, row)
	}
	return out, nil
}

func keyIndex(t *Table, key, side string) (map[any]int, error) {
	j, ok := t.index[key]
	if !ok {
		return nil, errors.New(errors.ErrCodeTableColumnMissing, "join key missing on "+side).WithDetail(key)
	}
	m := make(map[any]int, len(t.rows))
	for i, row := range t.rows {
		k := row[j]
		if k == nil {
			return nil, errors.Newf(errors.ErrCodeCompoundKeyMismatch, "row %d on %s has no %s", i, side, key)
		}
		if _, dup := m[k]; dup {
			return nil, errors.Newf(errors.ErrCodeCompoundKeyMismatch, "duplicate %s=%v on %s", key, k, side)
		}
		m[k] = i
	}
	return m, nil
}

// SortByDesc returns a copy of t ordered by column col, largest first.  The
// sort is stable, so rows with equal values keep their relative order.  Nil
// cells sort last.
func (t *Table) SortByDesc(col string) (*Table, error) {
	j, ok := t.index[col]
	if !ok {
		return nil, errors.New(errors.ErrCodeTableColumnMissing, "sort column not found").WithDetail(col)
	}
	out := t.Clone()
	sort.SliceStable(out.rows, func(a, b int) bool {
		return less(out.rows[b][j], out.rows[a][j])
	})
	return out, nil
}

// less orders cells: nil < bool < numbers < text, numbers by value.
func less(a, b any) bool {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return ra < rb
	}
	switch ra {
	case 1:
		return !a.(bool) && b.(bool)
	case 2:
		fa, _ := AsFloat(a)
		fb, _ := AsFloat(b)
		return fa < fb
	case 3:
		return fmt.Sprint(a) < fmt.Sprint(b)
	}
	return false
}

func rank(v any) int {
	switch v.(type) {
	case nil:
		return 0
	case bool:
		return 1
	case int64, float64:
		return 2
	default:
		return 3
	}
}

// AsFloat converts a numeric cell to float64.  ok is false for nil and for
// non-numeric cells.
func AsFloat(v any) (f float64, ok bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case float64:
		return x, true
	default:
		return 0, false
	}
}
