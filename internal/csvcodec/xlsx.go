package csvcodec

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"timebuddy/internal/model"
)

const (
	XLSXFileName = "TimeBuddy_Export.xlsx"
	sheetName    = "Activities"
)

// EncodeXLSX renders the same rows as Encode into a single-sheet workbook.
func EncodeXLSX(data model.UserActivityData) ([]byte, error) {
	rows := Rows(data)
	if len(rows) == 0 {
		return nil, ErrEmptyExport
	}

	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("xlsx: new sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("xlsx: delete default sheet: %w", err)
	}

	f.SetColWidth(sheetName, "A", "A", 26)
	f.SetColWidth(sheetName, "B", "B", 16)
	f.SetColWidth(sheetName, "C", "C", 60)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	textStyle, _ := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
	})

	for i, title := range []string{"Date", "Time", "Activity"} {
		f.SetCellValue(sheetName, cell(i, 1), title)
	}
	f.SetCellStyle(sheetName, "A1", "C1", headerStyle)

	for i, r := range rows {
		row := i + 2
		f.SetCellValue(sheetName, cell(0, row), FormatDisplayDate(r.Date))
		f.SetCellValue(sheetName, cell(1, row), r.Time)
		f.SetCellValue(sheetName, cell(2, row), r.Text)
	}
	f.SetCellStyle(sheetName, "C2", cell(2, len(rows)+1), textStyle)

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("xlsx: write: %w", err)
	}
	return buf.Bytes(), nil
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col+1, row)
	return name
}
