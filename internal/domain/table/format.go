package table

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind is the inferred type of a column.
type Kind int

const (
	KindEmpty Kind = iota
	KindInt
	KindFloat
	KindBool
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindText:
		return "text"
	default:
		return "empty"
	}
}

// ColumnKind infers the kind of column name from its non-nil cells.  Ints
// mixed with floats are float; any string, or bools mixed with numbers, make
// the column text.  Unknown columns report KindEmpty.
func (t *Table) ColumnKind(name string) Kind {
	j, ok := t.index[name]
	if !ok {
		return KindEmpty
	}
	var ints, floats, bools, texts int
	for _, row := range t.rows {
		switch row[j].(type) {
		case int64:
			ints++
		case float64:
			floats++
		case bool:
			bools++
		case string:
			texts++
		}
	}
	switch {
	case texts > 0:
		return KindText
	case bools > 0 && ints+floats > 0:
		return KindText
	case bools > 0:
		return KindBool
	case floats > 0:
		return KindFloat
	case ints > 0:
		return KindInt
	default:
		return KindEmpty
	}
}

// FormatCell renders a single cell for display.  Nil renders as "".
func FormatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		if x {
			return "True"
		}
		return "False"
	default:
		return fmt.Sprint(x)
	}
}

// String renders t as an aligned plain-text table, used for diagnostics.
func (t *Table) String() string {
	if len(t.columns) == 0 {
		return ""
	}

	cells := make([][]string, len(t.rows))
	widths := make([]int, len(t.columns))
	for j, c := range t.columns {
		widths[j] = len(c)
	}
	for i, row := range t.rows {
		cells[i] = make([]string, len(row))
		for j, v := range row {
			s := FormatCell(v)
			if len(s) > maxCellWidth {
				s = s[:maxCellWidth-3] + "..."
			}
			cells[i][j] = s
			if len(s) > widths[j] {
				widths[j] = len(s)
			}
		}
	}

	var sb strings.Builder
	writeLine := func(vals []string) {
		for j, v := range vals {
			if j > 0 {
				sb.WriteString("  ")
			}
			sb.WriteString(padRight(v, widths[j]))
		}
		sb.WriteString("\n")
	}

	writeLine(t.columns)
	sep := make([]string, len(widths))
	for j, w := range widths {
		sep[j] = strings.Repeat("-", w)
	}
	writeLine(sep)
	for _, row := range cells {
		writeLine(row)
	}
	fmt.Fprintf(&sb, "[%d rows x %d columns]\n", len(t.rows), len(t.columns))
	return sb.String()
}

const maxCellWidth = 40

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
