package gradereport

import (
	"io"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Grades"

// WriteXLSX writes rep as a single-sheet workbook: a styled header row then one row per grade.
func WriteXLSX(w io.Writer, rep Report) error {
	wb := excelize.NewFile()
	defer func() { _ = wb.Close() }()

	if err := wb.SetSheetName(wb.GetSheetName(0), sheetName); err != nil {
		return errors.Wrap(err, "naming sheet")
	}

	header := make([]interface{}, 0, len(Columns))
	for _, c := range Columns {
		header = append(header, c)
	}
	if err := wb.SetSheetRow(sheetName, "A1", &header); err != nil {
		return errors.Wrap(err, "writing header")
	}
	headerStyle, err := wb.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"3498DB"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return errors.Wrap(err, "creating header style")
	}
	lastCol, err := excelize.ColumnNumberToName(len(Columns))
	if err != nil {
		return err
	}
	if err := wb.SetCellStyle(sheetName, "A1", lastCol+"1", headerStyle); err != nil {
		return errors.Wrap(err, "styling header")
	}

	for i, r := range rep.Rows {
		values := []interface{}{r.StudentID, r.StudentName, r.Grade, "", r.Semester, r.AcademicYear}
		if r.Percentage.Valid {
			values[3] = r.Percentage.Float64
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := wb.SetSheetRow(sheetName, cell, &values); err != nil {
			return errors.Wrapf(err, "writing row %d", i+2)
		}
	}

	if err := wb.SetColWidth(sheetName, "A", lastCol, 18); err != nil {
		return errors.Wrap(err, "sizing columns")
	}
	return errors.Wrap(wb.Write(w), "writing workbook")
}
