package gradeimport

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorKind tells why a whole import was rejected.
type ErrorKind int

const (
	NoInput ErrorKind = iota + 1
	UnreadableTable
	MissingColumns
)

func (k ErrorKind) String() string {
	switch k {
	case NoInput:
		return "no input"
	case UnreadableTable:
		return "unreadable table"
	case MissingColumns:
		return "missing columns"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// ImportError is a structural failure: no row of the table was processed.
type ImportError struct {
	Kind ErrorKind
	Err  error
}

func (e *ImportError) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return e.Err.Error()
}

func newImportError(kind ErrorKind, format string, args ...interface{}) *ImportError {
	return &ImportError{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the kind of a structural import error, or 0 when err is not one.
func KindOf(err error) ErrorKind {
	if ie, ok := errors.Cause(err).(*ImportError); ok {
		return ie.Kind
	}
	return 0
}

// RowErrorKind tells why a single row was skipped.
type RowErrorKind int

const (
	UnknownStudent RowErrorKind = iota + 1
	InvalidGrade
	RowFailure
)

func (k RowErrorKind) String() string {
	switch k {
	case UnknownStudent:
		return "unknown student"
	case InvalidGrade:
		return "invalid grade"
	case RowFailure:
		return "row failure"
	}
	return fmt.Sprintf("RowErrorKind(%d)", int(k))
}

// RowError is a skipped row. Row is the 1-based line of the table, header included.
type RowError struct {
	Row       int          `json:"row"`
	Kind      RowErrorKind `json:"-"`
	StudentID string       `json:"student_id,omitempty"`
	Message   string       `json:"message"`
}

func (e RowError) Error() string { return e.Message }

func unknownStudent(row int, studentID string) RowError {
	return RowError{
		Row:       row,
		Kind:      UnknownStudent,
		StudentID: studentID,
		Message:   fmt.Sprintf("Student with ID %s not found (row %d)", studentID, row),
	}
}

func invalidGrade(row int, studentID, grade string) RowError {
	return RowError{
		Row:       row,
		Kind:      InvalidGrade,
		StudentID: studentID,
		Message:   fmt.Sprintf("Invalid grade '%s' for student %s (row %d)", grade, studentID, row),
	}
}

func rowFailure(row int, studentID string, reason string) RowError {
	return RowError{
		Row:       row,
		Kind:      RowFailure,
		StudentID: studentID,
		Message:   fmt.Sprintf("Error processing row %d: %s", row, reason),
	}
}
