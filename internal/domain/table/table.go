// Package table provides the column-named, row-oriented cell table that flows
// through compoundrank: provider properties, scored results and the ranking
// report are all Tables.
//
// Cells hold int64, float64, string, bool or nil (absent).  Every mutating
// operation returns a new Table; the receiver is never changed after it has
// been handed to another component.
package table

import (
	"fmt"

	"github.com/turtacn/compoundrank/pkg/errors"
)

// Table is an ordered set of named columns over rows of cells.
type Table struct {
	columns []string
	index   map[string]int
	rows    [][]any
}

// New creates an empty Table with the given columns.  Column names must be
// non-empty and unique.
func New(columns ...string) (*Table, error) {
	t := &Table{
		columns: make([]string, 0, len(columns)),
		index:   make(map[string]int, len(columns)),
	}
	for _, c := range columns {
		if c == "" {
			return nil, errors.New(errors.ErrCodeTableShapeInvalid, "column name must not be empty")
		}
		if _, dup := t.index[c]; dup {
			return nil, errors.New(errors.ErrCodeTableShapeInvalid, "duplicate column").WithDetail(c)
		}
		t.index[c] = len(t.columns)
		t.columns = append(t.columns, c)
	}
	return t, nil
}

// Columns returns the column names in order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Width returns the number of columns.
func (t *Table) Width() int { return len(t.columns) }

// HasColumn reports whether name is a column of t.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// AppendRow adds one row.  The number of values must equal Width and each
// value must be a supported cell type.
func (t *Table) AppendRow(values ...any) error {
	if len(values) != len(t.columns) {
		return errors.Newf(errors.ErrCodeTableShapeInvalid,
			"row has %d values, table has %d columns", len(values), len(t.columns))
	}
	row := make([]any, len(values))
	for i, v := range values {
		cell, err := normalizeCell(v)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeTableShapeInvalid, "unsupported cell").WithDetail(t.columns[i])
		}
		row[i] = cell
	}
	t.rows = append(t.rows, row)
	return nil
}

// Row returns a copy of row i.
func (t *Table) Row(i int) []any {
	out := make([]any, len(t.rows[i]))
	copy(out, t.rows[i])
	return out
}

// Value returns the cell at row i in column col.  ok is false when the
// column does not exist or i is out of range.
func (t *Table) Value(i int, col string) (v any, ok bool) {
	j, found := t.index[col]
	if !found || i < 0 || i >= len(t.rows) {
		return nil, false
	}
	return t.rows[i][j], true
}

// Column returns a copy of the cells of column name.
func (t *Table) Column(name string) ([]any, error) {
	j, ok := t.index[name]
	if !ok {
		return nil, errors.New(errors.ErrCodeTableColumnMissing, "column not found").WithDetail(name)
	}
	out := make([]any, len(t.rows))
	for i, row := range t.rows {
		out[i] = row[j]
	}
	return out, nil
}

// Clone returns a deep copy of t.
func (t *Table) Clone() *Table {
	c := &Table{
		columns: make([]string, len(t.columns)),
		index:   make(map[string]int, len(t.index)),
		rows:    make([][]any, len(t.rows)),
	}
	copy(c.columns, t.columns)
	for k, v := range t.index {
		c.index[k] = v
	}
	for i, row := range t.rows {
		c.rows[i] = make([]any, len(row))
		copy(c.rows[i], row)
	}
	return c
}

// WithColumn returns a copy of t with column name set to values.  An existing
// column of that name is replaced in place; otherwise the column is appended.
func (t *Table) WithColumn(name string, values []any) (*Table, error) {
	if name == "" {
		return nil, errors.New(errors.ErrCodeTableShapeInvalid, "column name must not be empty")
	}
	if len(values) != len(t.rows) {
		return nil, errors.Newf(errors.ErrCodeTableShapeInvalid,
			"column %q has %d values, table has %d rows", name, len(values), len(t.rows))
	}
	cells := make([]any, len(values))
	for i, v := range values {
		cell, err := normalizeCell(v)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeTableShapeInvalid, "unsupported cell").WithDetail(name)
		}
		cells[i] = cell
	}

	c := t.Clone()
	j, exists := c.index[name]
	if !exists {
		j = len(c.columns)
		c.index[name] = j
		c.columns = append(c.columns, name)
		for i := range c.rows {
			c.rows[i] = append(c.rows[i], nil)
		}
	}
	for i := range c.rows {
		c.rows[i][j] = cells[i]
	}
	return c, nil
}

// Select returns a new Table holding only cols, in the given order.
func (t *Table) Select(cols ...string) (*Table, error) {
	idx := make([]int, len(cols))
	for k, c := range cols {
		j, ok := t.index[c]
		if !ok {
			return nil, errors.New(errors.ErrCodeTableColumnMissing, "column not found").WithDetail(c)
		}
		idx[k] = j
	}
	out, err := New(cols...)
	if err != nil {
		return nil, err
	}
	out.rows = make([][]any, len(t.rows))
	for i, row := range t.rows {
		r := make([]any, len(idx))
		for k, j := range idx {
			r[k] = row[j]
		}
		out.rows[i] = r
	}
	return out, nil
}

// DropDuplicates returns a copy of t without rows that repeat an earlier row
// cell for cell.  The first occurrence is kept.
func (t *Table) DropDuplicates() *Table {
	out := &Table{columns: t.Columns(), index: make(map[string]int, len(t.index))}
	for k, v := range t.index {
		out.index[k] = v
	}
	seen := make(map[string]struct{}, len(t.rows))
	for _, row := range t.rows {
		key := rowKey(row)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		r := make([]any, len(row))
		copy(r, row)
		out.rows = append(out.rows, r)
	}
	return out
}

func rowKey(row []any) string {
	// %T keeps int64(1) and "1" apart.
	key := ""
	for _, v := range row {
		key += fmt.Sprintf("%T:%v\x1f", v, v)
	}
	return key
}

// normalizeCell maps Go values onto the cell model.
func normalizeCell(v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case int64, float64, string, bool:
		return x, nil
	case int:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case int16:
		return int64(x), nil
	case int8:
		return int64(x), nil
	case uint32:
		return int64(x), nil
	case uint16:
		return int64(x), nil
	case uint8:
		return int64(x), nil
	case float32:
		return float64(x), nil
	default:
		return nil, fmt.Errorf("type %T is not a table cell", v)
	}
}
