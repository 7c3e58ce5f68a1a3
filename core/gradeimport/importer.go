package gradeimport

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/mygithubaccountn/EduPacee/core"
	"github.com/mygithubaccountn/EduPacee/core/academic"
	"github.com/mygithubaccountn/EduPacee/core/user"
)

const importedAssessmentType = academic.AssessmentFinal

// Store is the part of the academic repository the importer writes through.
type Store interface {
	QueryStudents(ctx context.Context, filter academic.StudentFilter) ([]academic.Student, error)
	UpsertGrade(ctx context.Context, g academic.Grade) (academic.Grade, bool, error)
}

type (
	Request struct {
		Course       academic.Course `json:"-"`
		Semester     string          `json:"semester" form:"semester" validate:"required,max=20"`
		AcademicYear string          `json:"academic_year" form:"academic_year" validate:"required,academicyear"`
		Actor        user.User       `json:"-"`
	}

	Result struct {
		Accepted  bool       `json:"accepted"`
		Summary   string     `json:"summary"`
		Created   int        `json:"created"`
		Updated   int        `json:"updated"`
		RowErrors []RowError `json:"row_errors"`
	}
)

func (req *Request) Validate(validate *validator.Validate) error {
	req.Semester = core.CleanString(req.Semester)
	req.AcademicYear = core.CleanString(req.AcademicYear)
	return validate.Struct(req)
}

type Importer struct {
	store           Store
	mailSvc         core.EmailService
	logger          core.Logger
	maxMailedErrors int
}

func NewImporter(conf *core.Config, store Store, mailSvc core.EmailService, logger core.Logger) *Importer {
	return &Importer{
		store:           store,
		mailSvc:         mailSvc,
		logger:          logger,
		maxMailedErrors: conf.Import.MaxMailedErrors,
	}
}

// columns holds the index of each resolved column, -1 when absent.
type columns struct {
	studentID  int
	grade      int
	percentage int
}

func resolveColumns(header []string) (columns, error) {
	cols := columns{studentID: -1, grade: -1, percentage: -1}
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(name))
		switch {
		case strings.Contains(name, "student") && strings.Contains(name, "id"):
			cols.studentID = i
		case strings.Contains(name, "grade"):
			cols.grade = i
		case strings.Contains(name, "percentage"), strings.Contains(name, "percent"):
			cols.percentage = i
		}
	}

	var missing []string
	if cols.studentID < 0 {
		missing = append(missing, `"Student ID"`)
	}
	if cols.grade < 0 {
		missing = append(missing, `"Grade"`)
	}
	if len(missing) > 0 {
		return cols, newImportError(MissingColumns, "required column(s) %s not found in the header row", strings.Join(missing, " and "))
	}
	return cols, nil
}

// Import upserts one final Grade per data row of table for req.Course. Rows that cannot be
// imported are reported in Result.RowErrors and do not stop the batch; each upsert commits on
// its own. A structural problem rejects the whole table before any write and is returned as
// an *ImportError along with a non-accepted Result.
func (imp *Importer) Import(ctx context.Context, table Table, req Request) (Result, error) {
	res := Result{RowErrors: []RowError{}}
	cols, err := resolveColumns(table.Header)
	if err != nil {
		res.Summary = err.Error()
		return res, err
	}
	res.Accepted = true

	students, err := imp.studentsByExternalID(ctx, table, cols)
	if err != nil {
		return Result{RowErrors: []RowError{}}, errors.Wrap(err, "finding students")
	}

	for i, row := range table.Rows {
		if err := ctx.Err(); err != nil {
			return res, errors.Wrap(err, "importing grades")
		}
		if blank(row) {
			continue
		}
		if rowErr, created, ok := imp.importRow(ctx, table, row, i+2, cols, students, req); !ok {
			res.RowErrors = append(res.RowErrors, rowErr)
		} else if created {
			res.Created++
		} else {
			res.Updated++
		}
	}

	res.Summary = summarize(res)
	imp.logger.Info(fmt.Sprintf("grade import for course %s (%s %s) by %s: %s",
		req.Course.Code, req.Semester, req.AcademicYear, req.Actor.Username, res.Summary))
	imp.notify(req, res)
	return res, nil
}

func (imp *Importer) studentsByExternalID(ctx context.Context, table Table, cols columns) (map[string]academic.Student, error) {
	ids := make([]string, 0, len(table.Rows))
	for _, row := range table.Rows {
		if id := table.Cell(row, cols.studentID); id != "" {
			ids = append(ids, id)
		}
	}
	students := make(map[string]academic.Student, len(ids))
	if len(ids) == 0 {
		return students, nil
	}
	found, err := imp.store.QueryStudents(ctx, academic.StudentFilter{StudentIDs: ids})
	if err != nil {
		return nil, err
	}
	for _, s := range found {
		students[s.StudentID] = s
	}
	return students, nil
}

// importRow upserts the grade of a single row. ok is false when the row was skipped.
func (imp *Importer) importRow(
	ctx context.Context,
	table Table,
	row []string,
	n int,
	cols columns,
	students map[string]academic.Student,
	req Request,
) (rowErr RowError, created, ok bool) {
	studentID := table.Cell(row, cols.studentID)
	student, found := students[studentID]
	if !found {
		return unknownStudent(n, studentID), false, false
	}

	grade := strings.ToUpper(table.Cell(row, cols.grade))
	if !academic.IsLetterGrade(grade) {
		return invalidGrade(n, studentID, grade), false, false
	}

	var percentage null.Float64
	if raw := table.Cell(row, cols.percentage); raw != "" {
		p, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(raw, "%")), 64)
		if err != nil {
			return rowFailure(n, studentID, fmt.Sprintf("invalid percentage '%s'", raw)), false, false
		}
		if !(p >= 0 && p <= 100) { // NaN included
			return rowFailure(n, studentID, fmt.Sprintf("percentage %v is not between 0 and 100", p)), false, false
		}
		percentage = null.Float64From(p)
	}

	now := time.Now().UTC()
	_, created, err := imp.store.UpsertGrade(ctx, academic.Grade{
		StudentID:      student.ID,
		CourseID:       req.Course.ID,
		AssessmentType: importedAssessmentType,
		Semester:       req.Semester,
		AcademicYear:   req.AcademicYear,
		Grade:          grade,
		Percentage:     percentage,
		CreatedBy:      null.NewString(req.Actor.ID, req.Actor.ID != ""),
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		return rowFailure(n, studentID, err.Error()), false, false
	}
	return RowError{}, created, true
}

func summarize(res Result) string {
	summary := fmt.Sprintf("Successfully created/updated %d grade(s) (%d created, %d updated).",
		res.Created+res.Updated, res.Created, res.Updated)
	if n := len(res.RowErrors); n > 0 {
		summary += fmt.Sprintf(" %d error(s) occurred.", n)
	}
	return summary
}

// notify mails the outcome of an accepted import to its author. When there are more row errors
// than fit in the mail, the full list is attached as CSV.
func (imp *Importer) notify(req Request, res Result) {
	if imp.mailSvc == nil || req.Actor.Email == "" {
		return
	}

	rowErrors := res.RowErrors
	truncated := imp.maxMailedErrors > 0 && len(rowErrors) > imp.maxMailedErrors
	if truncated {
		rowErrors = rowErrors[:imp.maxMailedErrors]
	}
	msg := &core.EmailMessage{
		To:           []mail.Address{{Name: req.Actor.Name, Address: req.Actor.Email}},
		Subject:      "Grade import: " + req.Course.Code,
		TemplateName: "grade_import",
		TemplateData: map[string]interface{}{
			"CourseCode":   req.Course.Code,
			"Semester":     req.Semester,
			"AcademicYear": req.AcademicYear,
			"Summary":      res.Summary,
			"RowErrors":    rowErrors,
			"Truncated":    truncated,
		},
	}
	if len(res.RowErrors) > 0 {
		if err := attachRowErrors(msg, res.RowErrors); err != nil {
			imp.logger.Warn(fmt.Sprintf("attaching import errors: %v", err), err)
		}
	}
	imp.mailSvc.SendMessages(msg)
}

func attachRowErrors(msg *core.EmailMessage, rowErrors []RowError) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"row", "student_id", "error"}); err != nil {
		return err
	}
	for _, re := range rowErrors {
		if err := w.Write([]string{strconv.Itoa(re.Row), re.StudentID, re.Message}); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return msg.Attach(&buf, "import-errors.csv", "text/csv")
}
