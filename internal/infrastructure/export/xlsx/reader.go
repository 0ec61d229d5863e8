package xlsx

import (
	"context"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/turtacn/compoundrank/internal/domain/table"
	"github.com/turtacn/compoundrank/pkg/errors"
)

// ReadTable loads sheet from the workbook at path.  The first row is the
// header.  Numeric cells become int64 or float64, boolean cells become bool,
// string cells stay text even when they look numeric, and empty cells are
// nil.
func (w *Workbook) ReadTable(ctx context.Context, path, sheet string) (*table.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeImportFailed, "report not found").WithDetail(path)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeImportFailed, "cannot open workbook").WithDetail(path)
	}
	defer f.Close()

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeImportFailed, "cannot read sheet").WithDetail(path + "#" + sheet)
	}
	if len(rows) == 0 {
		return nil, errors.New(errors.ErrCodeImportFailed, "sheet has no header row").WithDetail(path + "#" + sheet)
	}

	t, err := table.New(rows[0]...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeImportFailed, "invalid header").WithDetail(path + "#" + sheet)
	}

	width := t.Width()
	for i, raw := range rows[1:] {
		if len(raw) > width {
			return nil, errors.Newf(errors.ErrCodeImportFailed, "row %d has %d cells, header has %d", i+2, len(raw), width).
				WithDetail(path + "#" + sheet)
		}
		cells := make([]any, width)
		for j, s := range raw {
			if s == "" {
				continue
			}
			cells[j] = parseCell(s, cellType(f, sheet, j+1, i+2))
		}
		if err := t.AppendRow(cells...); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeImportFailed, "invalid row").WithDetail(path + "#" + sheet)
		}
	}

	w.logger.Debug("report read", logOpts(path, sheet, t)...)
	return t, nil
}

// parseCell types a raw cell value by the cell's stored type.  Only cells
// without a string type are parsed as numbers, so text such as "007" or
// "nan" survives unchanged.
func parseCell(s string, typ excelize.CellType) any {
	switch typ {
	case excelize.CellTypeBool:
		return s == "1" || strings.EqualFold(s, "TRUE")
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeFormula:
		return s
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(v) && !math.IsInf(v, 0) {
		return v
	}
	return s
}

func cellType(f *excelize.File, sheet string, col, row int) excelize.CellType {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return excelize.CellTypeUnset
	}
	typ, err := f.GetCellType(sheet, cell)
	if err != nil {
		return excelize.CellTypeUnset
	}
	return typ
}
