package gradeimport_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/mygithubaccountn/EduPacee/core/gradeimport"
)

func workbook(t *testing.T, rows ...[]interface{}) *bytes.Buffer {
	wb := excelize.NewFile()
	defer func() { _ = wb.Close() }()

	sheet := wb.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, wb.SetSheetRow(sheet, cell, &row))
	}
	buf, err := wb.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestReadTable(t *testing.T) {
	want := gradeimport.Table{
		Header: []string{"Student ID", "Grade", "Percentage"},
		Rows: [][]string{
			{"S001", "A", "91"},
			{"S002", "B+"},
		},
	}

	t.Run("csv", func(t *testing.T) {
		content := "\xef\xbb\xbfStudent ID,Grade,Percentage\nS001,A,91\nS002,B+\n"
		got, err := gradeimport.ReadTable(strings.NewReader(content), "grades.CSV")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("xlsx", func(t *testing.T) {
		buf := workbook(t,
			[]interface{}{"Student ID", "Grade", "Percentage"},
			[]interface{}{"S001", "A", 91},
			[]interface{}{"S002", "B+"},
		)
		got, err := gradeimport.ReadTable(buf, "grades.xlsx")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})
}

func TestReadTable_errors(t *testing.T) {
	tests := []struct {
		name     string
		content  []byte
		filename string
		wantKind gradeimport.ErrorKind
	}{
		{name: "empty file", content: []byte{}, filename: "grades.csv", wantKind: gradeimport.NoInput},
		{name: "unknown extension", content: []byte("Student ID,Grade"), filename: "grades.txt", wantKind: gradeimport.UnreadableTable},
		{name: "corrupt workbook", content: []byte("not a zip archive"), filename: "grades.xlsx", wantKind: gradeimport.UnreadableTable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := gradeimport.ReadTable(bytes.NewReader(tt.content), tt.filename)
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, gradeimport.KindOf(err))
		})
	}

	_, err := gradeimport.ReadTable(nil, "")
	assert.Equal(t, gradeimport.NoInput, gradeimport.KindOf(err))
}
