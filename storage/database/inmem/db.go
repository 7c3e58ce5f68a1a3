// Package inmemdb keeps the repositories in memory. It backs the tests and the "inmem" database engine.
package inmemdb

import (
	"sync"

	"github.com/mygithubaccountn/EduPacee/core/academic"
	"github.com/mygithubaccountn/EduPacee/core/user"
)

type (
	DB struct {
		user     *userTable
		academic *academicTables
	}

	userTable struct {
		table map[string]*user.User
		mutex sync.RWMutex
	}

	// academicTables share one lock so deletes can cascade across tables.
	academicTables struct {
		mutex sync.RWMutex
		pk    int64

		students        map[int64]*academic.Student
		teachers        map[int64]*academic.Teacher
		boardMembers    map[int64]*academic.BoardMember
		courses         map[int64]*academic.Course
		courseStudents  map[int64]map[int64]struct{} // course -> students
		courseTeachers  map[int64]map[int64]struct{} // course -> teachers
		assessments     map[int64]*academic.Assessment
		assessmentGrade map[int64]*academic.AssessmentGrade
		los             map[int64]*academic.LearningOutcome
		pos             map[int64]*academic.ProgramOutcome
		assessmentLinks map[int64]*academic.AssessmentToLO
		outcomeLinks    map[int64]*academic.LOToPO
		grades          map[int64]*academic.Grade
	}
)

func Open() *DB {
	db := &DB{user: &userTable{}, academic: &academicTables{}}
	db.Reset()
	return db
}

// Reset empties every table.
func (db *DB) Reset() {
	db.user.mutex.Lock()
	db.user.table = make(map[string]*user.User)
	db.user.mutex.Unlock()

	t := db.academic
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.pk = 0
	t.students = make(map[int64]*academic.Student)
	t.teachers = make(map[int64]*academic.Teacher)
	t.boardMembers = make(map[int64]*academic.BoardMember)
	t.courses = make(map[int64]*academic.Course)
	t.courseStudents = make(map[int64]map[int64]struct{})
	t.courseTeachers = make(map[int64]map[int64]struct{})
	t.assessments = make(map[int64]*academic.Assessment)
	t.assessmentGrade = make(map[int64]*academic.AssessmentGrade)
	t.los = make(map[int64]*academic.LearningOutcome)
	t.pos = make(map[int64]*academic.ProgramOutcome)
	t.assessmentLinks = make(map[int64]*academic.AssessmentToLO)
	t.outcomeLinks = make(map[int64]*academic.LOToPO)
	t.grades = make(map[int64]*academic.Grade)
}

func (t *academicTables) nextPK() int64 {
	t.pk++
	return t.pk
}
