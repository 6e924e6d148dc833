package render

import (
	"fmt"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

const (
	minColumnWidth = 8
	maxColumnWidth = 60
)

// SpreadsheetRenderer writes an xlsx workbook with one sheet per block of
// the report layout.
type SpreadsheetRenderer struct{}

// NewSpreadsheetRenderer returns the workbook renderer.
func NewSpreadsheetRenderer() *SpreadsheetRenderer {
	return &SpreadsheetRenderer{}
}

func (*SpreadsheetRenderer) Format() Format { return FormatSpreadsheet }

func (*SpreadsheetRenderer) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

type sheetStyles struct {
	title  int
	header int
	cell   int
}

func (r *SpreadsheetRenderer) Render(in Input) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	styles, err := newSheetStyles(f)
	if err != nil {
		return nil, err
	}

	layout := LayoutFor(in.Payload.Kind)
	loc := in.location()
	head := titleBlock(in)

	var sheets []sheetContent
	if layout.DiagnosisDetail {
		sheets = append(sheets, sheetContent{name: TitleDiagnostics, tables: []table{diagnosisTable(in.Details.Diagnoses, loc)}})
	}
	if layout.TaskDetail {
		sheets = append(sheets, sheetContent{name: TitleTasks, tables: []table{taskTable(in.Details.RecommendationTasks, loc)}})
	}
	sheets = append(sheets, sheetContent{name: TitleAnalytics, tables: analyticsTables(in.Payload, layout.Analytics), titled: true})

	for i, sheet := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet.name); err != nil {
				return nil, fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sheet.name); err != nil {
			return nil, fmt.Errorf("create sheet %s: %w", sheet.name, err)
		}
		if err := writeSheet(f, sheet, head, styles); err != nil {
			return nil, fmt.Errorf("write sheet %s: %w", sheet.name, err)
		}
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

type sheetContent struct {
	name   string
	tables []table
	// titled sheets print each table title above its header row.
	titled bool
}

func newSheetStyles(f *excelize.File) (sheetStyles, error) {
	var s sheetStyles
	var err error
	border := []excelize.Border{
		{Type: "left", Color: "BFBFBF", Style: 1},
		{Type: "right", Color: "BFBFBF", Style: 1},
		{Type: "top", Color: "BFBFBF", Style: 1},
		{Type: "bottom", Color: "BFBFBF", Style: 1},
	}
	if s.title, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 14},
	}); err != nil {
		return s, fmt.Errorf("title style: %w", err)
	}
	if s.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"2E7D32"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
		Border:    border,
	}); err != nil {
		return s, fmt.Errorf("header style: %w", err)
	}
	if s.cell, err = f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Vertical: "top", WrapText: true},
		Border:    border,
	}); err != nil {
		return s, fmt.Errorf("cell style: %w", err)
	}
	return s, nil
}

func writeSheet(f *excelize.File, sheet sheetContent, head []string, styles sheetStyles) error {
	widths := make(map[int]int)
	row := 1

	for i, line := range head {
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet.name, cell, line); err != nil {
			return err
		}
		if i == 0 {
			if err := f.SetCellStyle(sheet.name, cell, cell, styles.title); err != nil {
				return err
			}
		}
		row++
	}
	row++

	for _, t := range sheet.tables {
		if sheet.titled {
			cell, err := excelize.CoordinatesToCellName(1, row)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet.name, cell, t.Title); err != nil {
				return err
			}
			if err := f.SetCellStyle(sheet.name, cell, cell, styles.title); err != nil {
				return err
			}
			row++
		}

		if err := writeRow(f, sheet.name, row, toAny(t.Header), widths); err != nil {
			return err
		}
		if err := styleRow(f, sheet.name, row, len(t.Header), styles.header); err != nil {
			return err
		}
		row++

		for _, values := range t.Rows {
			if err := writeRow(f, sheet.name, row, values, widths); err != nil {
				return err
			}
			if err := styleRow(f, sheet.name, row, len(values), styles.cell); err != nil {
				return err
			}
			row++
		}
		row++
	}

	for col, w := range widths {
		name, err := excelize.ColumnNumberToName(col)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet.name, name, name, columnWidth(w)); err != nil {
			return err
		}
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any, widths map[int]int) error {
	for i, v := range values {
		col := i + 1
		cell, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
		if n := utf8.RuneCountInString(cellText(v)); n > widths[col] {
			widths[col] = n
		}
	}
	return nil
}

func styleRow(f *excelize.File, sheet string, row, columns, style int) error {
	if columns == 0 {
		return nil
	}
	first, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(columns, row)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, first, last, style)
}

func columnWidth(runes int) float64 {
	w := runes + 2
	if w < minColumnWidth {
		w = minColumnWidth
	}
	if w > maxColumnWidth {
		w = maxColumnWidth
	}
	return float64(w)
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
