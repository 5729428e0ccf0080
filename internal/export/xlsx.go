package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"bilardo/internal/core"
)

const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// WriteXLSX writes one worksheet per sheet. Amounts are numeric cells with a
// two-decimal format so totals can be recomputed in the spreadsheet.
func WriteXLSX(w io.Writer, doc Document) error {
	f := excelize.NewFile()
	defer f.Close()

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return fmt.Errorf("money style: %w", err)
	}
	moneyBold, err := f.NewStyle(&excelize.Style{NumFmt: 4, Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("money style: %w", err)
	}

	for i, s := range doc.Sheets {
		name := s.Name
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("add sheet %s: %w", name, err)
		}

		row := 1
		if err := f.SetCellValue(name, cell(1, row), s.Title); err != nil {
			return err
		}
		_ = f.SetCellStyle(name, cell(1, row), cell(1, row), header)
		row++
		if s.Subtitle != "" {
			if err := f.SetCellValue(name, cell(1, row), s.Subtitle); err != nil {
				return err
			}
			row++
		}
		row++

		for c, h := range s.Headers {
			if err := f.SetCellValue(name, cell(c+1, row), h); err != nil {
				return err
			}
		}
		_ = f.SetCellStyle(name, cell(1, row), cell(len(s.Headers), row), header)
		row++

		for _, r := range s.Rows {
			if err := writeRow(f, name, row, r, money); err != nil {
				return err
			}
			row++
		}
		if s.Footer != nil {
			if err := writeRow(f, name, row, s.Footer, moneyBold); err != nil {
				return err
			}
			_ = f.SetCellStyle(name, cell(1, row), cell(1, row), header)
		}

		for c, width := range s.Widths {
			col, _ := excelize.ColumnNumberToName(c + 1)
			_ = f.SetColWidth(name, col, col, width/4+4)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any, moneyStyle int) error {
	for c, v := range values {
		ref := cell(c+1, row)
		switch x := v.(type) {
		case core.Money:
			if err := f.SetCellFloat(sheet, ref, x.Float(), -1, 64); err != nil {
				return err
			}
			if err := f.SetCellStyle(sheet, ref, ref, moneyStyle); err != nil {
				return err
			}
		case int:
			if err := f.SetCellInt(sheet, ref, int(x)); err != nil {
				return err
			}
		case string:
			if x == "" {
				continue
			}
			if err := f.SetCellStr(sheet, ref, x); err != nil {
				return err
			}
		default:
			if err := f.SetCellValue(sheet, ref, x); err != nil {
				return err
			}
		}
	}
	return nil
}

func cell(col, row int) string {
	ref, _ := excelize.CoordinatesToCellName(col, row)
	return ref
}
