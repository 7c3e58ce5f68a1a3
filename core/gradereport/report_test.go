package gradereport_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"
	"github.com/xuri/excelize/v2"

	"github.com/mygithubaccountn/EduPacee/core/academic"
	"github.com/mygithubaccountn/EduPacee/core/gradereport"
	"github.com/mygithubaccountn/EduPacee/core/user"
	inmemdb "github.com/mygithubaccountn/EduPacee/storage/database/inmem"
)

type userMap map[string]user.User

func (m userMap) GetByID(_ context.Context, id string) (user.User, error) {
	usr, ok := m[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}

func setup(t *testing.T) (*gradereport.Service, academic.Repository, academic.Course) {
	ctx := context.Background()
	repo := inmemdb.NewAcademicRepository(inmemdb.Open())
	course, err := repo.CreateCourse(ctx, academic.Course{Code: "CS101", Name: "Programming", Credits: 3})
	require.NoError(t, err)

	users := userMap{
		"u1": {ID: "u1", Name: "Zoé Martin", Username: "zoe"},
		"u2": {ID: "u2", Username: "bob"},
	}
	s2, err := repo.CreateStudent(ctx, academic.Student{UserID: "u2", StudentID: "S002"})
	require.NoError(t, err)
	s1, err := repo.CreateStudent(ctx, academic.Student{UserID: "u1", StudentID: "S001"})
	require.NoError(t, err)

	grades := []academic.Grade{
		{StudentID: s2.ID, Grade: "B", Semester: "Fall", AcademicYear: "2024-2025"},
		{StudentID: s1.ID, Grade: "A-", Percentage: null.Float64From(88.5), Semester: "Spring", AcademicYear: "2024-2025"},
		{StudentID: s1.ID, Grade: "C+", Percentage: null.Float64From(71), Semester: "Fall", AcademicYear: "2023-2024"},
	}
	for _, g := range grades {
		g.CourseID = course.ID
		g.AssessmentType = academic.AssessmentFinal
		_, _, err := repo.UpsertGrade(ctx, g)
		require.NoError(t, err)
	}
	return gradereport.NewService(repo, users), repo, course
}

var wantRows = []gradereport.Row{
	{StudentID: "S001", StudentName: "Zoé Martin", Grade: "C+", Percentage: null.Float64From(71), Semester: "Fall", AcademicYear: "2023-2024"},
	{StudentID: "S001", StudentName: "Zoé Martin", Grade: "A-", Percentage: null.Float64From(88.5), Semester: "Spring", AcademicYear: "2024-2025"},
	{StudentID: "S002", StudentName: "bob", Grade: "B", Semester: "Fall", AcademicYear: "2024-2025"},
}

func TestService_Build(t *testing.T) {
	svc, _, course := setup(t)

	rep, err := svc.Build(context.Background(), course)
	require.NoError(t, err)
	assert.Equal(t, course, rep.Course)
	assert.False(t, rep.GeneratedAt.IsZero())
	if diff := cmp.Diff(wantRows, rep.Rows); diff != "" {
		t.Errorf("Build() rows mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "CS101_grades.pdf", rep.Filename("pdf"))
	assert.Equal(t, "CS101_grades.xlsx", rep.Filename("xlsx"))
}

func TestService_Build_noGrades(t *testing.T) {
	svc, repo, _ := setup(t)
	empty, err := repo.CreateCourse(context.Background(), academic.Course{Code: "CS102", Name: "Empty", Credits: 3})
	require.NoError(t, err)

	_, err = svc.Build(context.Background(), empty)
	assert.Equal(t, gradereport.ErrNoGrades, err)
}

func TestWriteXLSX(t *testing.T) {
	svc, _, course := setup(t)
	rep, err := svc.Build(context.Background(), course)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, gradereport.WriteXLSX(&buf, rep))

	wb, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = wb.Close() }()

	assert.Equal(t, []string{"Grades"}, wb.GetSheetList())
	rows, err := wb.GetRows("Grades")
	require.NoError(t, err)
	want := [][]string{
		gradereport.Columns,
		{"S001", "Zoé Martin", "C+", "71", "Fall", "2023-2024"},
		{"S001", "Zoé Martin", "A-", "88.5", "Spring", "2024-2025"},
		{"S002", "bob", "B", "", "Fall", "2024-2025"},
	}
	assert.Equal(t, want, rows)
}

func TestWritePDF(t *testing.T) {
	svc, _, course := setup(t)
	rep, err := svc.Build(context.Background(), course)
	require.NoError(t, err)

	var short bytes.Buffer
	require.NoError(t, gradereport.WritePDF(&short, rep))
	assert.True(t, bytes.HasPrefix(short.Bytes(), []byte("%PDF-")))

	long := rep
	long.Rows = nil
	for i := 0; i < 200; i++ {
		long.Rows = append(long.Rows, wantRows[i%len(wantRows)])
	}
	var buf bytes.Buffer
	require.NoError(t, gradereport.WritePDF(&buf, long))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	assert.Greater(t, buf.Len(), short.Len())
}
