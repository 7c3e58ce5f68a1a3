// Package testutil holds the fixtures shared by the test suites.
package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/mygithubaccountn/EduPacee/core/academic"
	"github.com/mygithubaccountn/EduPacee/core/user"
	"github.com/mygithubaccountn/EduPacee/storage/database"
)

// PrepareDB connects to TEST_DATABASE_URL, migrates it and empties every table.
// The test is skipped when the variable is not set.
func PrepareDB(t *testing.T) *sqlx.DB {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	db, err := database.OpenURL(url)
	if err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err = database.Migrate(db, "up"); err != nil {
		t.Fatalf("PrepareDB() failed to migrate: %v", err)
	}
	if _, err = db.Exec(`TRUNCATE "user", course RESTART IDENTITY CASCADE`); err != nil {
		t.Fatalf("PrepareDB() failed to truncate: %v", err)
	}
	return db
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Username:  uname,
		Email:     email,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	} else {
		usr.PasswordHash = []byte("!")
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateStudent(t *testing.T, repo academic.Repository, usr user.User, studentID string) academic.Student {
	s, err := repo.CreateStudent(context.Background(), academic.Student{
		UserID:         usr.ID,
		StudentID:      studentID,
		EnrollmentDate: time.Now().UTC().Truncate(24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return s
}

func CreateTeacher(t *testing.T, repo academic.Repository, usr user.User, employeeID string) academic.Teacher {
	tc, err := repo.CreateTeacher(context.Background(), academic.Teacher{UserID: usr.ID, EmployeeID: employeeID})
	if err != nil {
		t.Fatalf("CreateTeacher() failed: %v", err)
	}
	return tc
}

func CreateBoardMember(t *testing.T, repo academic.Repository, usr user.User, employeeID string) academic.BoardMember {
	m, err := repo.CreateBoardMember(context.Background(), academic.BoardMember{UserID: usr.ID, EmployeeID: employeeID})
	if err != nil {
		t.Fatalf("CreateBoardMember() failed: %v", err)
	}
	return m
}

func CreateCourse(t *testing.T, repo academic.Repository, code string, locked bool) academic.Course {
	now := time.Now().UTC()
	c, err := repo.CreateCourse(context.Background(), academic.Course{
		Code:      code,
		Name:      code + " course",
		Credits:   3,
		IsLocked:  locked,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateCourse() failed: %v", err)
	}
	return c
}
