package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/compoundrank/pkg/errors"
)

func newTable(t *testing.T, cols []string, rows ...[]any) *Table {
	t.Helper()
	tb, err := New(cols...)
	require.NoError(t, err)
	for _, r := range rows {
		require.NoError(t, tb.AppendRow(r...))
	}
	return tb
}

func TestNew_RejectsBadColumns(t *testing.T) {
	_, err := New("cid", "cid")
	assert.True(t, errors.IsCode(err, errors.ErrCodeTableShapeInvalid))

	_, err = New("cid", "")
	assert.True(t, errors.IsCode(err, errors.ErrCodeTableShapeInvalid))
}

func TestAppendRow_NormalizesCells(t *testing.T) {
	tb := newTable(t, []string{"a", "b", "c"}, []any{7, float32(1.5), nil})

	v, ok := tb.Value(0, "a")
	require.True(t, ok)
	assert.Equal(t, int64(7), v)
	v, _ = tb.Value(0, "b")
	assert.Equal(t, 1.5, v)
	v, ok = tb.Value(0, "c")
	assert.True(t, ok)
	assert.Nil(t, v)

	_, ok = tb.Value(0, "missing")
	assert.False(t, ok)
	_, ok = tb.Value(3, "a")
	assert.False(t, ok)
}

func TestAppendRow_Errors(t *testing.T) {
	tb := newTable(t, []string{"a", "b"})
	err := tb.AppendRow(1)
	assert.True(t, errors.IsCode(err, errors.ErrCodeTableShapeInvalid))

	err = tb.AppendRow(1, []int{1})
	assert.True(t, errors.IsCode(err, errors.ErrCodeTableShapeInvalid))
	assert.Equal(t, 0, tb.Len())
}

func TestWithColumn_DoesNotMutateReceiver(t *testing.T) {
	tb := newTable(t, []string{"cid"}, []any{1}, []any{2})

	out, err := tb.WithColumn("score", []any{3, 0})
	require.NoError(t, err)
	assert.Equal(t, []string{"cid", "score"}, out.Columns())
	assert.Equal(t, []string{"cid"}, tb.Columns())

	replaced, err := out.WithColumn("score", []any{1, 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"cid", "score"}, replaced.Columns())
	v, _ := replaced.Value(0, "score")
	assert.Equal(t, int64(1), v)
	v, _ = out.Value(0, "score")
	assert.Equal(t, int64(3), v)

	_, err = tb.WithColumn("x", []any{1})
	assert.True(t, errors.IsCode(err, errors.ErrCodeTableShapeInvalid))
}

func TestSelect(t *testing.T) {
	tb := newTable(t, []string{"a", "b", "c"}, []any{1, "x", true})

	out, err := tb.Select("c", "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a"}, out.Columns())
	assert.Equal(t, []any{true, int64(1)}, out.Row(0))

	_, err = tb.Select("z")
	assert.True(t, errors.IsCode(err, errors.ErrCodeTableColumnMissing))
}

func TestDropDuplicates_KeepsFirst(t *testing.T) {
	tb := newTable(t, []string{"cid", "name"},
		[]any{1, "Adenosine"},
		[]any{2, "Ibrutinib"},
		[]any{1, "Adenosine"},
		[]any{1, "Adenocard"},
		[]any{"1", "Adenosine"},
	)
	out := tb.DropDuplicates()
	require.Equal(t, 4, out.Len())
	assert.Equal(t, []any{int64(1), "Adenosine"}, out.Row(0))
	assert.Equal(t, []any{int64(1), "Adenocard"}, out.Row(2))
	assert.Equal(t, 5, tb.Len())
}

func TestSortByDesc_StableWithNilsLast(t *testing.T) {
	tb := newTable(t, []string{"name", "score"},
		[]any{"a", 2},
		[]any{"b", nil},
		[]any{"c", 4},
		[]any{"d", 2},
		[]any{"e", 2.5},
		[]any{"f", 4},
	)
	out, err := tb.SortByDesc("score")
	require.NoError(t, err)

	names, err := out.Column("name")
	require.NoError(t, err)
	assert.Equal(t, []any{"c", "f", "e", "a", "d", "b"}, names)

	_, err = tb.SortByDesc("nope")
	assert.Error(t, err)
}

func TestJoinByKey(t *testing.T) {
	names := newTable(t, []string{"cid", "original_name"},
		[]any{60961, "Adenosine"},
		[]any{24775005, "ibrutinib"},
	)
	props := newTable(t, []string{"molecular_weight", "cid"},
		[]any{440.5, 24775005},
		[]any{267.24, 60961},
	)

	out, err := JoinByKey(names, props, "cid")
	require.NoError(t, err)
	assert.Equal(t, []string{"cid", "original_name", "molecular_weight"}, out.Columns())
	assert.Equal(t, []any{int64(60961), "Adenosine", 267.24}, out.Row(0))
	assert.Equal(t, []any{int64(24775005), "ibrutinib", 440.5}, out.Row(1))
}

func TestJoinByKey_KeySetMismatch(t *testing.T) {
	left := newTable(t, []string{"cid"}, []any{1}, []any{2})

	cases := map[string]*Table{
		"fewer":     newTable(t, []string{"cid", "x"}, []any{1, 0}),
		"different": newTable(t, []string{"cid", "x"}, []any{1, 0}, []any{3, 0}),
		"duplicate": newTable(t, []string{"cid", "x"}, []any{1, 0}, []any{1, 0}),
		"nil key":   newTable(t, []string{"cid", "x"}, []any{1, 0}, []any{nil, 0}),
	}
	for name, right := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := JoinByKey(left, right, "cid")
			assert.True(t, errors.IsCode(err, errors.ErrCodeCompoundKeyMismatch), err)
		})
	}

	_, err := JoinByKey(left, newTable(t, []string{"id"}), "cid")
	assert.True(t, errors.IsCode(err, errors.ErrCodeTableColumnMissing))
}

func TestColumnKind(t *testing.T) {
	tb := newTable(t, []string{"i", "f", "b", "s", "n", "mixed"},
		[]any{1, 1.5, true, "x", nil, 1},
		[]any{2, 2, false, nil, nil, "y"},
	)
	assert.Equal(t, KindInt, tb.ColumnKind("i"))
	assert.Equal(t, KindFloat, tb.ColumnKind("f"))
	assert.Equal(t, KindBool, tb.ColumnKind("b"))
	assert.Equal(t, KindText, tb.ColumnKind("s"))
	assert.Equal(t, KindEmpty, tb.ColumnKind("n"))
	assert.Equal(t, KindText, tb.ColumnKind("mixed"))
	assert.Equal(t, KindEmpty, tb.ColumnKind("absent"))
}

func TestString(t *testing.T) {
	tb := newTable(t, []string{"cid", "approved"}, []any{2244, true}, []any{3672, nil})
	out := tb.String()
	assert.Contains(t, out, "cid   approved")
	assert.Contains(t, out, "2244  True")
	assert.Contains(t, out, "[2 rows x 2 columns]")
}
