// Package xlsx writes and reads compound tables as single-sheet Excel
// workbooks using excelize.
package xlsx

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"github.com/xuri/excelize/v2"

	"github.com/turtacn/compoundrank/internal/domain/table"
	"github.com/turtacn/compoundrank/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/compoundrank/pkg/errors"
)

// Built-in Excel number formats.
const (
	numFmtInteger = 1 // "0"
	numFmtDecimal = 2 // "0.00"
)

const (
	tableStyle    = "TableStyleMedium9"
	minColWidth   = 8.0
	maxColWidth   = 80.0
	colWidthSlack = 2.0
)

// Workbook exports tables to .xlsx files and reads them back.
type Workbook struct {
	logger logging.Logger
}

// NewWorkbook creates a Workbook.  A nil logger discards output.
func NewWorkbook(logger logging.Logger) *Workbook {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Workbook{logger: logger}
}

// Export writes t to path as one sheet: a header row, then one row per table
// row.  Integer columns use format "0", float columns "0.00", text columns
// are centered, and the populated range is registered as an Excel table with
// the first column emphasised.  Column widths fit their content.
//
// The workbook is written to a temporary file in the target directory and
// renamed into place, so path is either complete or untouched.
func (w *Workbook) Export(ctx context.Context, t *table.Table, path, sheet string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if t.Width() == 0 {
		return errors.New(errors.ErrCodeExportFailed, "table has no columns").WithDetail(path)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return errors.Wrap(err, errors.ErrCodeExportFailed, "cannot name sheet").WithDetail(sheet)
	}
	if err := w.fill(f, t, sheet); err != nil {
		return errors.Wrap(err, errors.ErrCodeExportFailed, "cannot build workbook").WithDetail(path)
	}
	if err := writeAtomic(f, path); err != nil {
		return errors.Wrap(err, errors.ErrCodeExportFailed, "cannot write workbook").WithDetail(path)
	}

	w.logger.Info("report exported", logOpts(path, sheet, t)...)
	return nil
}

func (w *Workbook) fill(f *excelize.File, t *table.Table, sheet string) error {
	cols := t.Columns()
	kinds := make([]table.Kind, len(cols))
	widths := make([]float64, len(cols))

	for j, name := range cols {
		cell, err := excelize.CoordinatesToCellName(j+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, name); err != nil {
			return err
		}
		kinds[j] = t.ColumnKind(name)
		widths[j] = float64(len(name))
	}

	for i := 0; i < t.Len(); i++ {
		row := t.Row(i)
		for j, v := range row {
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(j+1, i+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
			if n := float64(len(displayValue(v, kinds[j]))); n > widths[j] {
				widths[j] = n
			}
		}
	}

	if err := w.styleColumns(f, t, kinds, sheet); err != nil {
		return err
	}

	for j, width := range widths {
		colName, err := excelize.ColumnNumberToName(j + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, colName, colName, clampWidth(width+colWidthSlack)); err != nil {
			return err
		}
	}

	lastCell, err := excelize.CoordinatesToCellName(len(cols), t.Len()+1)
	if err != nil {
		return err
	}
	showHeader, stripes := true, true
	return f.AddTable(sheet, &excelize.Table{
		Range:           "A1:" + lastCell,
		Name:            tableName(sheet),
		StyleName:       tableStyle,
		ShowFirstColumn: true,
		ShowHeaderRow:   &showHeader,
		ShowRowStripes:  &stripes,
	})
}

func (w *Workbook) styleColumns(f *excelize.File, t *table.Table, kinds []table.Kind, sheet string) error {
	if t.Len() == 0 {
		return nil
	}
	intStyle, err := f.NewStyle(&excelize.Style{NumFmt: numFmtInteger})
	if err != nil {
		return err
	}
	floatStyle, err := f.NewStyle(&excelize.Style{NumFmt: numFmtDecimal})
	if err != nil {
		return err
	}
	textStyle, err := f.NewStyle(&excelize.Style{Alignment: &excelize.Alignment{Horizontal: "center"}})
	if err != nil {
		return err
	}

	for j, kind := range kinds {
		var style int
		switch kind {
		case table.KindInt:
			style = intStyle
		case table.KindFloat:
			style = floatStyle
		case table.KindText:
			style = textStyle
		default:
			continue
		}
		top, err := excelize.CoordinatesToCellName(j+1, 2)
		if err != nil {
			return err
		}
		bottom, err := excelize.CoordinatesToCellName(j+1, t.Len()+1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, top, bottom, style); err != nil {
			return err
		}
	}
	return nil
}

// displayValue approximates how Excel renders v under the column's format.
func displayValue(v any, kind table.Kind) string {
	if kind == table.KindFloat {
		if f, ok := table.AsFloat(v); ok {
			return strconv.FormatFloat(f, 'f', 2, 64)
		}
	}
	return table.FormatCell(v)
}

func clampWidth(w float64) float64 {
	if w < minColWidth {
		return minColWidth
	}
	if w > maxColWidth {
		return maxColWidth
	}
	return w
}

// tableName derives a valid Excel table name from the sheet name.
func tableName(sheet string) string {
	var sb strings.Builder
	sb.WriteString("tbl_")
	for _, r := range sheet {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			sb.WriteRune(r)
		} else {
			sb.WriteRune('_')
		}
	}
	return sb.String()
}

func writeAtomic(f *excelize.File, path string) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if err = f.Write(tmp); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

func logOpts(path, sheet string, t *table.Table) []logging.Field {
	return []logging.Field{
		logging.String("path", path),
		logging.String("sheet", sheet),
		logging.Int("rows", t.Len()),
		logging.Int("columns", t.Width()),
	}
}
