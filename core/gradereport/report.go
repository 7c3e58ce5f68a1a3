// Package gradereport exports the reporting grades of a course as a spreadsheet or a PDF.
package gradereport

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/mygithubaccountn/EduPacee/core/academic"
	"github.com/mygithubaccountn/EduPacee/core/user"
)

var ErrNoGrades = errors.New("no grades found for this course")

// Columns of every report, in order.
var Columns = []string{"Student ID", "Student Name", "Grade", "Percentage", "Semester", "Academic Year"}

type (
	Row struct {
		StudentID    string
		StudentName  string
		Grade        string
		Percentage   null.Float64
		Semester     string
		AcademicYear string
	}

	Report struct {
		Course      academic.Course
		GeneratedAt time.Time
		Rows        []Row
	}
)

func (r Row) values() []string {
	pct := ""
	if r.Percentage.Valid {
		pct = strconv.FormatFloat(r.Percentage.Float64, 'f', -1, 64)
	}
	return []string{r.StudentID, r.StudentName, r.Grade, pct, r.Semester, r.AcademicYear}
}

// Filename is the download name of the report in the given format ("pdf" or "xlsx").
func (rep Report) Filename(format string) string {
	return rep.Course.Code + "_grades." + format
}

type (
	Store interface {
		QueryGrades(ctx context.Context, filter academic.GradeFilter) ([]academic.Grade, error)
		QueryStudents(ctx context.Context, filter academic.StudentFilter) ([]academic.Student, error)
	}

	UserFinder interface {
		GetByID(ctx context.Context, id string) (user.User, error)
	}
)

type Service struct {
	store Store
	users UserFinder
}

func NewService(store Store, users UserFinder) *Service {
	return &Service{store: store, users: users}
}

// Build collects the grades of course, one row per grade, sorted by student ID, academic year then semester.
// It returns ErrNoGrades when the course has none.
func (svc *Service) Build(ctx context.Context, course academic.Course) (Report, error) {
	rep := Report{Course: course, GeneratedAt: time.Now().UTC()}

	grades, err := svc.store.QueryGrades(ctx, academic.GradeFilter{CourseID: course.ID})
	if err != nil {
		return rep, errors.Wrap(err, "querying grades")
	}
	if len(grades) == 0 {
		return rep, ErrNoGrades
	}

	studentIDs := make([]int64, 0, len(grades))
	for _, g := range grades {
		studentIDs = append(studentIDs, g.StudentID)
	}
	students, err := svc.store.QueryStudents(ctx, academic.StudentFilter{IDs: studentIDs})
	if err != nil {
		return rep, errors.Wrap(err, "querying students")
	}
	byID := make(map[int64]academic.Student, len(students))
	names := make(map[int64]string, len(students))
	for _, s := range students {
		byID[s.ID] = s
		usr, err := svc.users.GetByID(ctx, s.UserID)
		if err != nil {
			return rep, errors.Wrapf(err, "finding user of student %s", s.StudentID)
		}
		names[s.ID] = usr.Name
		if names[s.ID] == "" {
			names[s.ID] = usr.Username
		}
	}

	rep.Rows = make([]Row, 0, len(grades))
	for _, g := range grades {
		rep.Rows = append(rep.Rows, Row{
			StudentID:    byID[g.StudentID].StudentID,
			StudentName:  names[g.StudentID],
			Grade:        g.Grade,
			Percentage:   g.Percentage,
			Semester:     g.Semester,
			AcademicYear: g.AcademicYear,
		})
	}
	sort.SliceStable(rep.Rows, func(i, j int) bool {
		ri, rj := rep.Rows[i], rep.Rows[j]
		if ri.StudentID != rj.StudentID {
			return ri.StudentID < rj.StudentID
		}
		if ri.AcademicYear != rj.AcademicYear {
			return ri.AcademicYear < rj.AcademicYear
		}
		return ri.Semester < rj.Semester
	})
	return rep, nil
}
