package sqlxrepos_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/mygithubaccountn/EduPacee/core"
	"github.com/mygithubaccountn/EduPacee/core/academic"
	"github.com/mygithubaccountn/EduPacee/core/user"
	sqlxrepos "github.com/mygithubaccountn/EduPacee/storage/database/sqlx"
	testutil "github.com/mygithubaccountn/EduPacee/tests"
)

func createUser(t *testing.T, repo user.Repository, uname string) user.User {
	return testutil.CreateUser(t, repo, uname, uname, uname+"@test.edu", "", true)
}

func TestUserRepository(t *testing.T) {
	db := testutil.PrepareDB(t)
	ctx := context.Background()
	repo := sqlxrepos.NewUserRepository(db)

	usr := createUser(t, repo, "alice")
	assert.Equal(t, user.ErrUsernameExists, repo.CheckUsernameUniqueness(ctx, "alice", "x@test.edu"))
	assert.Equal(t, user.ErrEmailExists, repo.CheckUsernameUniqueness(ctx, "x", "alice@test.edu"))
	assert.NoError(t, repo.CheckUsernameUniqueness(ctx, "alice", "alice@test.edu", usr))

	got, err := repo.GetUser(ctx, user.GetFilter{UsernameOrEmail: "alice@test.edu"})
	require.NoError(t, err)
	assert.Equal(t, usr.ID, got.ID)

	_, err = repo.GetUser(ctx, user.GetFilter{ID: "not-a-uuid"})
	assert.Equal(t, user.ErrNotFound, err)

	hash := usr.PasswordHash
	usr.Name = "Alice"
	usr.PasswordHash = nil
	updated, err := repo.UpdateUser(ctx, usr)
	require.NoError(t, err)
	assert.Equal(t, "Alice", updated.Name)
	assert.Equal(t, hash, updated.PasswordHash)
}

func TestAcademicRepository(t *testing.T) {
	db := testutil.PrepareDB(t)
	ctx := context.Background()
	users := sqlxrepos.NewUserRepository(db)
	repo := sqlxrepos.NewAcademicRepository(db)
	now := time.Now().UTC()

	s, err := repo.CreateStudent(ctx, academic.Student{UserID: createUser(t, users, "stud").ID, StudentID: "S001", EnrollmentDate: now})
	require.NoError(t, err)
	_, err = repo.CreateStudent(ctx, academic.Student{UserID: createUser(t, users, "stud2").ID, StudentID: "S001", EnrollmentDate: now})
	assert.Equal(t, academic.ErrAlreadyExists, err)

	c, err := repo.CreateCourse(ctx, academic.Course{Code: "CS101", Name: "Programming", Credits: 3, IsLocked: true, CreatedAt: now, UpdatedAt: now})
	require.NoError(t, err)
	require.NoError(t, repo.AddCourseStudent(ctx, c.ID, s.ID))
	require.NoError(t, repo.AddCourseStudent(ctx, c.ID, s.ID))
	enrolled, err := repo.CourseHasStudent(ctx, c.ID, s.ID)
	require.NoError(t, err)
	assert.True(t, enrolled)

	t.Run("filters", func(t *testing.T) {
		students, err := repo.QueryStudents(ctx, academic.StudentFilter{StudentIDs: []string{"S001"}, CourseID: c.ID})
		require.NoError(t, err)
		assert.Len(t, students, 1)

		students, err = repo.QueryStudents(ctx, academic.StudentFilter{IDs: []int64{}})
		require.NoError(t, err)
		assert.Empty(t, students)

		courses, err := repo.QueryCourses(ctx, academic.CourseFilter{Search: "prog"}, []core.DBOrdering{{Field: "code; DROP TABLE course", Ascending: true}})
		require.NoError(t, err)
		assert.Len(t, courses, 1)
	})

	t.Run("upserts", func(t *testing.T) {
		a, err := repo.CreateAssessment(ctx, academic.Assessment{CourseID: c.ID, Name: "Midterm", WeightInCourse: 0.4, CreatedAt: now, UpdatedAt: now})
		require.NoError(t, err)

		g, created, err := repo.UpsertAssessmentGrade(ctx, academic.AssessmentGrade{AssessmentID: a.ID, StudentID: s.ID, Grade: 70, CreatedAt: now, UpdatedAt: now})
		require.NoError(t, err)
		assert.True(t, created)
		g2, created, err := repo.UpsertAssessmentGrade(ctx, academic.AssessmentGrade{AssessmentID: a.ID, StudentID: s.ID, Grade: 90, CreatedAt: now, UpdatedAt: now})
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, g.ID, g2.ID)
		assert.Equal(t, 90.0, g2.Grade)

		grade := academic.Grade{
			StudentID: s.ID, CourseID: c.ID, AssessmentType: academic.AssessmentFinal,
			Semester: "Fall", AcademicYear: "2024-2025", Grade: "B", Percentage: null.Float64From(81),
			CreatedAt: now, UpdatedAt: now,
		}
		_, created, err = repo.UpsertGrade(ctx, grade)
		require.NoError(t, err)
		assert.True(t, created)
		regrader := createUser(t, users, "regrader")
		grade.Grade = "A"
		grade.Percentage = null.Float64{}
		grade.CreatedBy = null.StringFrom(regrader.ID)
		saved, created, err := repo.UpsertGrade(ctx, grade)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, "A", saved.Grade)
		assert.False(t, saved.Percentage.Valid)
		assert.Equal(t, regrader.ID, saved.CreatedBy.String)

		grade.StudentID = s.ID + 1000
		_, _, err = repo.UpsertGrade(ctx, grade)
		assert.ErrorIs(t, err, academic.ErrNotFound)
	})

	t.Run("unlock", func(t *testing.T) {
		n, err := repo.UnlockCourses(ctx, true)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		n, err = repo.UnlockCourses(ctx, false)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		got, err := repo.GetCourse(ctx, c.ID)
		require.NoError(t, err)
		assert.False(t, got.IsLocked)
	})

	t.Run("cascade", func(t *testing.T) {
		require.NoError(t, repo.DeleteCourse(ctx, c.ID))
		assert.Equal(t, academic.ErrNotFound, repo.DeleteCourse(ctx, c.ID))
		grades, err := repo.QueryGrades(ctx, academic.GradeFilter{CourseID: c.ID})
		require.NoError(t, err)
		assert.Empty(t, grades)
	})
}
