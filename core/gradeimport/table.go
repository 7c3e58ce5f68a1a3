// Package gradeimport turns a grade spreadsheet into reporting Grade upserts, one row at a time.
package gradeimport

import (
	"bytes"
	"encoding/csv"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Table is a header row followed by data rows. Rows may be shorter than Header.
type Table struct {
	Header []string
	Rows   [][]string
}

// Cell returns the trimmed value of column col in row, or "" when the row is too short.
func (t Table) Cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// ReadTable reads an .xlsx/.xlsm workbook (first sheet) or a .csv file, picked by filename's extension.
func ReadTable(r io.Reader, filename string) (Table, error) {
	if r == nil {
		return Table{}, newImportError(NoInput, "no file was uploaded")
	}
	content, err := io.ReadAll(r)
	if err != nil {
		return Table{}, newImportError(UnreadableTable, "reading %s: %v", filename, err)
	}
	if len(content) == 0 {
		return Table{}, newImportError(NoInput, "the uploaded file is empty")
	}

	var rows [][]string
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".xlsx", ".xlsm":
		rows, err = readWorkbook(content)
	case ".csv":
		rows, err = readCSV(content)
	default:
		return Table{}, newImportError(UnreadableTable, "unsupported file type %q, upload an .xlsx or .csv file", ext)
	}
	if err != nil {
		return Table{}, newImportError(UnreadableTable, "reading %s: %v", filename, err)
	}
	if len(rows) == 0 {
		return Table{}, newImportError(UnreadableTable, "%s contains no table", filename)
	}
	return Table{Header: rows[0], Rows: rows[1:]}, nil
}

func readWorkbook(content []byte) ([][]string, error) {
	wb, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}
	defer func() { _ = wb.Close() }()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	return wb.GetRows(sheets[0])
}

func readCSV(content []byte) ([][]string, error) {
	content = bytes.TrimPrefix(content, []byte("\xef\xbb\xbf")) // BOM
	cr := csv.NewReader(bytes.NewReader(content))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	return cr.ReadAll()
}
