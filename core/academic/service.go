package academic

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/mygithubaccountn/EduPacee/core"
)

var (
	// errors
	ErrNotFound         = errors.New("not found")
	ErrAlreadyExists    = errors.New("already exists")
	ErrPermissionDenied = errors.New("permission denied")
	ErrNotEnrolled      = errors.New("not enrolled in this course")
	ErrCourseLocked     = core.NewConflictError(errors.New("this course is locked"))
	ErrCrossCourseLink  = errors.New("assessment and learning outcome must belong to the same course")
)

type Repository interface {
	CreateStudent(ctx context.Context, s Student) (Student, error)
	CreateTeacher(ctx context.Context, t Teacher) (Teacher, error)
	CreateBoardMember(ctx context.Context, m BoardMember) (BoardMember, error)
	GetStudentByUserID(ctx context.Context, userID string) (Student, error)
	GetTeacherByUserID(ctx context.Context, userID string) (Teacher, error)
	GetBoardMemberByUserID(ctx context.Context, userID string) (BoardMember, error)
	QueryStudents(ctx context.Context, filter StudentFilter) ([]Student, error)
	QueryTeachers(ctx context.Context, filter TeacherFilter) ([]Teacher, error)

	CreateCourse(ctx context.Context, c Course) (Course, error)
	GetCourse(ctx context.Context, id int64) (Course, error)
	QueryCourses(ctx context.Context, filter CourseFilter, ordering []core.DBOrdering) ([]Course, error)
	UpdateCourse(ctx context.Context, c Course) (Course, error)
	DeleteCourse(ctx context.Context, id int64) error
	// UnlockCourses unlocks every locked course; with dryRun it only counts them.
	UnlockCourses(ctx context.Context, dryRun bool) (int, error)
	AddCourseTeacher(ctx context.Context, courseID, teacherID int64) error
	AddCourseStudent(ctx context.Context, courseID, studentID int64) error
	CourseHasTeacher(ctx context.Context, courseID, teacherID int64) (bool, error)
	CourseHasStudent(ctx context.Context, courseID, studentID int64) (bool, error)

	CreateAssessment(ctx context.Context, a Assessment) (Assessment, error)
	GetAssessment(ctx context.Context, id int64) (Assessment, error)
	QueryAssessments(ctx context.Context, filter AssessmentFilter) ([]Assessment, error)
	UpdateAssessment(ctx context.Context, a Assessment) (Assessment, error)
	DeleteAssessment(ctx context.Context, id int64) error
	// UpsertAssessmentGrade creates or updates the grade of (assessment, student); created reports which one happened.
	UpsertAssessmentGrade(ctx context.Context, g AssessmentGrade) (grade AssessmentGrade, created bool, err error)
	QueryAssessmentGrades(ctx context.Context, filter AssessmentGradeFilter) ([]AssessmentGrade, error)

	CreateLearningOutcome(ctx context.Context, lo LearningOutcome) (LearningOutcome, error)
	GetLearningOutcome(ctx context.Context, id int64) (LearningOutcome, error)
	QueryLearningOutcomes(ctx context.Context, filter LearningOutcomeFilter) ([]LearningOutcome, error)
	UpdateLearningOutcome(ctx context.Context, lo LearningOutcome) (LearningOutcome, error)
	DeleteLearningOutcome(ctx context.Context, id int64) error

	CreateProgramOutcome(ctx context.Context, po ProgramOutcome) (ProgramOutcome, error)
	GetProgramOutcome(ctx context.Context, id int64) (ProgramOutcome, error)
	QueryProgramOutcomes(ctx context.Context, filter ProgramOutcomeFilter) ([]ProgramOutcome, error)
	UpdateProgramOutcome(ctx context.Context, po ProgramOutcome) (ProgramOutcome, error)
	DeleteProgramOutcome(ctx context.Context, id int64) error

	// UpsertAssessmentLink creates the edge or updates the weight of the existing (assessment, learning outcome) one.
	UpsertAssessmentLink(ctx context.Context, e AssessmentToLO) (AssessmentToLO, error)
	GetAssessmentLink(ctx context.Context, id int64) (AssessmentToLO, error)
	QueryAssessmentLinks(ctx context.Context, filter EdgeFilter) ([]AssessmentToLO, error)
	DeleteAssessmentLink(ctx context.Context, id int64) error

	// UpsertOutcomeLink creates the edge or updates the weight of the existing (learning outcome, program outcome) one.
	UpsertOutcomeLink(ctx context.Context, e LOToPO) (LOToPO, error)
	GetOutcomeLink(ctx context.Context, id int64) (LOToPO, error)
	QueryOutcomeLinks(ctx context.Context, filter EdgeFilter) ([]LOToPO, error)
	DeleteOutcomeLink(ctx context.Context, id int64) error

	// UpsertGrade creates or updates the Grade matching g.Key(); each call is atomic on its own.
	UpsertGrade(ctx context.Context, g Grade) (grade Grade, created bool, err error)
	QueryGrades(ctx context.Context, filter GradeFilter) ([]Grade, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func uniqueErr(err error, field, msg string) error {
	if errors.Cause(err) == ErrAlreadyExists {
		return core.NewValidationError(err, core.FieldError{Field: field, Error: msg})
	}
	return err
}

// Roles & profiles

// ResolveRole finds the profile of the user: student first, then teacher, then academic board.
func (svc *Service) ResolveRole(ctx context.Context, userID string) (Role, error) {
	if s, err := svc.repo.GetStudentByUserID(ctx, userID); err == nil {
		return StudentRole(s.ID), nil
	} else if errors.Cause(err) != ErrNotFound {
		return NoRole(), errors.Wrap(err, "finding student profile")
	}
	if t, err := svc.repo.GetTeacherByUserID(ctx, userID); err == nil {
		return TeacherRole(t.ID), nil
	} else if errors.Cause(err) != ErrNotFound {
		return NoRole(), errors.Wrap(err, "finding teacher profile")
	}
	if m, err := svc.repo.GetBoardMemberByUserID(ctx, userID); err == nil {
		return BoardRole(m.ID), nil
	} else if errors.Cause(err) != ErrNotFound {
		return NoRole(), errors.Wrap(err, "finding academic board profile")
	}
	return NoRole(), nil
}

// Profile returns the profile behind role (Student, Teacher or BoardMember), or nil for no role.
func (svc *Service) Profile(ctx context.Context, userID string, role Role) (interface{}, error) {
	switch role.Kind {
	case RoleStudent:
		return svc.repo.GetStudentByUserID(ctx, userID)
	case RoleTeacher:
		return svc.repo.GetTeacherByUserID(ctx, userID)
	case RoleBoard:
		return svc.repo.GetBoardMemberByUserID(ctx, userID)
	}
	return nil, nil
}

// CreateProfile gives userID the role described by data. A user holds at most one profile.
func (svc *Service) CreateProfile(ctx context.Context, userID string, data ProfileData) (Role, error) {
	current, err := svc.ResolveRole(ctx, userID)
	if err != nil {
		return NoRole(), err
	}
	if !current.IsNone() {
		if current.Kind == data.Kind {
			return current, nil
		}
		return NoRole(), core.NewValidationError(ErrAlreadyExists, core.FieldError{
			Field: "kind", Error: "user already has the " + string(current.Kind) + " role",
		})
	}

	switch data.Kind {
	case RoleStudent:
		s, err := svc.repo.CreateStudent(ctx, Student{
			UserID:         userID,
			StudentID:      data.ExternalID,
			EnrollmentDate: time.Now().UTC().Truncate(24 * time.Hour),
			Program:        data.Detail,
		})
		if err != nil {
			return NoRole(), uniqueErr(err, "external_id", "a student with this ID already exists")
		}
		return StudentRole(s.ID), nil
	case RoleTeacher:
		t, err := svc.repo.CreateTeacher(ctx, Teacher{UserID: userID, EmployeeID: data.ExternalID, Department: data.Detail})
		if err != nil {
			return NoRole(), uniqueErr(err, "external_id", "a teacher with this employee ID already exists")
		}
		return TeacherRole(t.ID), nil
	case RoleBoard:
		m, err := svc.repo.CreateBoardMember(ctx, BoardMember{UserID: userID, EmployeeID: data.ExternalID, Designation: data.Detail})
		if err != nil {
			return NoRole(), uniqueErr(err, "external_id", "a board member with this employee ID already exists")
		}
		return BoardRole(m.ID), nil
	}
	return NoRole(), core.NewValidationError(nil, core.FieldError{Field: "kind", Error: "unknown role"})
}

// Access checks

// ViewCourse returns the course if role may read it: the board reads every course,
// teachers the ones they teach and students the ones they are enrolled in.
func (svc *Service) ViewCourse(ctx context.Context, role Role, courseID int64) (Course, error) {
	course, err := svc.repo.GetCourse(ctx, courseID)
	if err != nil {
		return Course{}, err
	}

	var member bool
	switch role.Kind {
	case RoleBoard:
		return course, nil
	case RoleTeacher:
		member, err = svc.repo.CourseHasTeacher(ctx, courseID, role.ProfileID)
	case RoleStudent:
		member, err = svc.repo.CourseHasStudent(ctx, courseID, role.ProfileID)
		if err == nil && !member {
			return Course{}, ErrNotEnrolled
		}
	default:
		return Course{}, ErrPermissionDenied
	}
	if err != nil {
		return Course{}, errors.Wrap(err, "checking course membership")
	}
	if !member {
		return Course{}, ErrPermissionDenied
	}
	return course, nil
}

// EditCourseContent returns the course if role is one of its teachers and it is not locked.
func (svc *Service) EditCourseContent(ctx context.Context, role Role, courseID int64) (Course, error) {
	if !role.IsTeacher() {
		return Course{}, ErrPermissionDenied
	}
	course, err := svc.ViewCourse(ctx, role, courseID)
	if err != nil {
		return Course{}, err
	}
	if course.IsLocked {
		return Course{}, ErrCourseLocked
	}
	return course, nil
}

// manageCourse returns the course if role is on the academic board and, unless ignoreLock, the course is unlocked.
func (svc *Service) manageCourse(ctx context.Context, role Role, courseID int64, ignoreLock bool) (Course, error) {
	if !role.IsBoard() {
		return Course{}, ErrPermissionDenied
	}
	course, err := svc.repo.GetCourse(ctx, courseID)
	if err != nil {
		return Course{}, err
	}
	if course.IsLocked && !ignoreLock {
		return Course{}, ErrCourseLocked
	}
	return course, nil
}

// Courses

// QueryCourses lists the courses visible to role.
func (svc *Service) QueryCourses(ctx context.Context, role Role, filter CourseFilter, ordering []core.DBOrdering) ([]Course, error) {
	switch role.Kind {
	case RoleStudent:
		filter.StudentID = role.ProfileID
	case RoleTeacher:
		filter.TeacherID = role.ProfileID
	case RoleBoard:
	default:
		return nil, ErrPermissionDenied
	}
	filter.Search = core.CleanString(filter.Search)
	ordering = core.FilterOrderings(ordering, "code", "name", "credits", "is_locked", "created_at")
	return svc.repo.QueryCourses(ctx, filter, ordering)
}

func (svc *Service) CreateCourse(ctx context.Context, role Role, nc NewCourse) (Course, error) {
	if !role.IsBoard() {
		return Course{}, ErrPermissionDenied
	}
	now := time.Now().UTC()
	course, err := svc.repo.CreateCourse(ctx, Course{
		Code:        nc.Code,
		Name:        nc.Name,
		Description: nc.Description,
		Credits:     nc.Credits,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return Course{}, uniqueErr(err, "code", "a course with this code already exists")
	}
	return course, nil
}

// GetCourseForUpdate returns the course to be updated by role (board only, unlocked).
func (svc *Service) GetCourseForUpdate(ctx context.Context, role Role, courseID int64) (Course, error) {
	return svc.manageCourse(ctx, role, courseID, false)
}

func (svc *Service) UpdateCourse(ctx context.Context, role Role, courseID int64, uc UpdateCourse) (Course, error) {
	course, err := svc.manageCourse(ctx, role, courseID, false)
	if err != nil {
		return Course{}, err
	}
	course.Code = uc.Code
	course.Name = uc.Name
	if uc.Description != nil {
		course.Description = *uc.Description
	}
	course.Credits = uc.Credits
	course.UpdatedAt = time.Now().UTC()
	course, err = svc.repo.UpdateCourse(ctx, course)
	if err != nil {
		return Course{}, uniqueErr(err, "code", "a course with this code already exists")
	}
	return course, nil
}

func (svc *Service) DeleteCourse(ctx context.Context, role Role, courseID int64) error {
	if _, err := svc.manageCourse(ctx, role, courseID, false); err != nil {
		return err
	}
	return svc.repo.DeleteCourse(ctx, courseID)
}

// SetCourseLock locks or unlocks a course. Only the academic board may do it, whatever the current state.
func (svc *Service) SetCourseLock(ctx context.Context, role Role, courseID int64, locked bool) (Course, error) {
	course, err := svc.manageCourse(ctx, role, courseID, true)
	if err != nil {
		return Course{}, err
	}
	if course.IsLocked == locked {
		return course, nil
	}
	course.IsLocked = locked
	course.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateCourse(ctx, course)
}

func (svc *Service) UnlockAllCourses(ctx context.Context, dryRun bool) (int, error) {
	return svc.repo.UnlockCourses(ctx, dryRun)
}

func (svc *Service) AssignTeacher(ctx context.Context, role Role, courseID, teacherID int64) error {
	if _, err := svc.manageCourse(ctx, role, courseID, false); err != nil {
		return err
	}
	teachers, err := svc.repo.QueryTeachers(ctx, TeacherFilter{IDs: []int64{teacherID}})
	if err != nil {
		return errors.Wrap(err, "finding teacher")
	}
	if len(teachers) == 0 {
		return core.NewValidationError(ErrNotFound, core.FieldError{Field: "teacher_id", Error: "teacher not found"})
	}
	return svc.repo.AddCourseTeacher(ctx, courseID, teacherID)
}

func (svc *Service) EnrollStudent(ctx context.Context, role Role, courseID, studentID int64) error {
	if _, err := svc.manageCourse(ctx, role, courseID, false); err != nil {
		return err
	}
	students, err := svc.repo.QueryStudents(ctx, StudentFilter{IDs: []int64{studentID}})
	if err != nil {
		return errors.Wrap(err, "finding student")
	}
	if len(students) == 0 {
		return core.NewValidationError(ErrNotFound, core.FieldError{Field: "student_id", Error: "student not found"})
	}
	return svc.repo.AddCourseStudent(ctx, courseID, studentID)
}

// CourseStudents lists the students enrolled in a course visible to role.
func (svc *Service) CourseStudents(ctx context.Context, role Role, courseID int64) ([]Student, error) {
	if _, err := svc.ViewCourse(ctx, role, courseID); err != nil {
		return nil, err
	}
	if role.IsStudent() {
		return nil, ErrPermissionDenied
	}
	return svc.repo.QueryStudents(ctx, StudentFilter{CourseID: courseID})
}

// CourseStudent returns the student if enrolled in the course.
func (svc *Service) CourseStudent(ctx context.Context, courseID, studentID int64) (Student, error) {
	students, err := svc.repo.QueryStudents(ctx, StudentFilter{IDs: []int64{studentID}, CourseID: courseID})
	if err != nil {
		return Student{}, errors.Wrap(err, "finding student")
	}
	if len(students) == 0 {
		return Student{}, ErrNotEnrolled
	}
	return students[0], nil
}

// Learning outcomes

func (svc *Service) QueryLearningOutcomes(ctx context.Context, role Role, courseID int64) ([]LearningOutcome, error) {
	if _, err := svc.ViewCourse(ctx, role, courseID); err != nil {
		return nil, err
	}
	return svc.repo.QueryLearningOutcomes(ctx, LearningOutcomeFilter{CourseID: courseID})
}

func (svc *Service) CreateLearningOutcome(ctx context.Context, role Role, actorID string, courseID int64, od OutcomeData) (LearningOutcome, error) {
	if _, err := svc.EditCourseContent(ctx, role, courseID); err != nil {
		return LearningOutcome{}, err
	}
	now := time.Now().UTC()
	lo, err := svc.repo.CreateLearningOutcome(ctx, LearningOutcome{
		CourseID:    courseID,
		Code:        od.Code,
		Description: od.Description,
		CreatedBy:   null.NewString(actorID, actorID != ""),
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return LearningOutcome{}, uniqueErr(err, "code", "a learning outcome with this code already exists in this course")
	}
	return lo, nil
}

// editableLearningOutcome returns the learning outcome if role may modify its course.
func (svc *Service) editableLearningOutcome(ctx context.Context, role Role, loID int64) (LearningOutcome, error) {
	lo, err := svc.repo.GetLearningOutcome(ctx, loID)
	if err != nil {
		return LearningOutcome{}, err
	}
	if _, err := svc.EditCourseContent(ctx, role, lo.CourseID); err != nil {
		return LearningOutcome{}, err
	}
	return lo, nil
}

func (svc *Service) UpdateLearningOutcome(ctx context.Context, role Role, loID int64, od OutcomeData) (LearningOutcome, error) {
	lo, err := svc.editableLearningOutcome(ctx, role, loID)
	if err != nil {
		return LearningOutcome{}, err
	}
	lo.Code = od.Code
	lo.Description = od.Description
	lo.UpdatedAt = time.Now().UTC()
	lo, err = svc.repo.UpdateLearningOutcome(ctx, lo)
	if err != nil {
		return LearningOutcome{}, uniqueErr(err, "code", "a learning outcome with this code already exists in this course")
	}
	return lo, nil
}

func (svc *Service) DeleteLearningOutcome(ctx context.Context, role Role, loID int64) error {
	if _, err := svc.editableLearningOutcome(ctx, role, loID); err != nil {
		return err
	}
	return svc.repo.DeleteLearningOutcome(ctx, loID)
}

// Assessments

func (svc *Service) QueryAssessments(ctx context.Context, role Role, courseID int64) ([]Assessment, error) {
	if _, err := svc.ViewCourse(ctx, role, courseID); err != nil {
		return nil, err
	}
	return svc.repo.QueryAssessments(ctx, AssessmentFilter{CourseID: courseID})
}

func (svc *Service) CreateAssessment(ctx context.Context, role Role, courseID int64, ad AssessmentData) (Assessment, error) {
	if _, err := svc.EditCourseContent(ctx, role, courseID); err != nil {
		return Assessment{}, err
	}
	now := time.Now().UTC()
	a, err := svc.repo.CreateAssessment(ctx, Assessment{
		CourseID:       courseID,
		Name:           ad.Name,
		WeightInCourse: *ad.WeightInCourse,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		return Assessment{}, uniqueErr(err, "name", "an assessment with this name already exists in this course")
	}
	return a, nil
}

func (svc *Service) editableAssessment(ctx context.Context, role Role, assessmentID int64) (Assessment, error) {
	a, err := svc.repo.GetAssessment(ctx, assessmentID)
	if err != nil {
		return Assessment{}, err
	}
	if _, err := svc.EditCourseContent(ctx, role, a.CourseID); err != nil {
		return Assessment{}, err
	}
	return a, nil
}

func (svc *Service) UpdateAssessment(ctx context.Context, role Role, assessmentID int64, ad AssessmentData) (Assessment, error) {
	a, err := svc.editableAssessment(ctx, role, assessmentID)
	if err != nil {
		return Assessment{}, err
	}
	a.Name = ad.Name
	a.WeightInCourse = *ad.WeightInCourse
	a.UpdatedAt = time.Now().UTC()
	a, err = svc.repo.UpdateAssessment(ctx, a)
	if err != nil {
		return Assessment{}, uniqueErr(err, "name", "an assessment with this name already exists in this course")
	}
	return a, nil
}

func (svc *Service) DeleteAssessment(ctx context.Context, role Role, assessmentID int64) error {
	if _, err := svc.editableAssessment(ctx, role, assessmentID); err != nil {
		return err
	}
	return svc.repo.DeleteAssessment(ctx, assessmentID)
}

// UpsertAssessmentGrade records the grade of an enrolled student on an assessment of the course.
func (svc *Service) UpsertAssessmentGrade(ctx context.Context, role Role, courseID int64, gd AssessmentGradeData) (AssessmentGrade, bool, error) {
	if _, err := svc.EditCourseContent(ctx, role, courseID); err != nil {
		return AssessmentGrade{}, false, err
	}
	a, err := svc.repo.GetAssessment(ctx, gd.AssessmentID)
	if err != nil || a.CourseID != courseID {
		if err == nil || errors.Cause(err) == ErrNotFound {
			return AssessmentGrade{}, false, core.NewValidationError(ErrNotFound, core.FieldError{
				Field: "assessment_id", Error: "assessment not found in this course",
			})
		}
		return AssessmentGrade{}, false, errors.Wrap(err, "finding assessment")
	}
	if _, err := svc.CourseStudent(ctx, courseID, gd.StudentID); err != nil {
		if err == ErrNotEnrolled {
			return AssessmentGrade{}, false, core.NewValidationError(err, core.FieldError{Field: "student_id", Error: err.Error()})
		}
		return AssessmentGrade{}, false, err
	}
	now := time.Now().UTC()
	return svc.repo.UpsertAssessmentGrade(ctx, AssessmentGrade{
		AssessmentID: gd.AssessmentID,
		StudentID:    gd.StudentID,
		Grade:        *gd.Grade,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

// Program outcomes

func (svc *Service) QueryProgramOutcomes(ctx context.Context, role Role) ([]ProgramOutcome, error) {
	if role.IsNone() {
		return nil, ErrPermissionDenied
	}
	filter := ProgramOutcomeFilter{}
	if role.IsBoard() {
		filter.BoardMemberID = role.ProfileID
	}
	return svc.repo.QueryProgramOutcomes(ctx, filter)
}

func (svc *Service) CreateProgramOutcome(ctx context.Context, role Role, actorID string, od OutcomeData) (ProgramOutcome, error) {
	if !role.IsBoard() {
		return ProgramOutcome{}, ErrPermissionDenied
	}
	now := time.Now().UTC()
	po, err := svc.repo.CreateProgramOutcome(ctx, ProgramOutcome{
		BoardMemberID: role.ProfileID,
		Code:          od.Code,
		Description:   od.Description,
		CreatedBy:     null.NewString(actorID, actorID != ""),
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		return ProgramOutcome{}, uniqueErr(err, "code", "you already have a program outcome with this code")
	}
	return po, nil
}

// ownProgramOutcome returns the program outcome if it was defined by the board member behind role.
func (svc *Service) ownProgramOutcome(ctx context.Context, role Role, poID int64) (ProgramOutcome, error) {
	if !role.IsBoard() {
		return ProgramOutcome{}, ErrPermissionDenied
	}
	po, err := svc.repo.GetProgramOutcome(ctx, poID)
	if err != nil {
		return ProgramOutcome{}, err
	}
	if po.BoardMemberID != role.ProfileID {
		return ProgramOutcome{}, ErrPermissionDenied
	}
	return po, nil
}

func (svc *Service) UpdateProgramOutcome(ctx context.Context, role Role, poID int64, od OutcomeData) (ProgramOutcome, error) {
	po, err := svc.ownProgramOutcome(ctx, role, poID)
	if err != nil {
		return ProgramOutcome{}, err
	}
	po.Code = od.Code
	po.Description = od.Description
	po.UpdatedAt = time.Now().UTC()
	po, err = svc.repo.UpdateProgramOutcome(ctx, po)
	if err != nil {
		return ProgramOutcome{}, uniqueErr(err, "code", "you already have a program outcome with this code")
	}
	return po, nil
}

func (svc *Service) DeleteProgramOutcome(ctx context.Context, role Role, poID int64) error {
	if _, err := svc.ownProgramOutcome(ctx, role, poID); err != nil {
		return err
	}
	return svc.repo.DeleteProgramOutcome(ctx, poID)
}

// Edges

// UpsertAssessmentLink connects an assessment to a learning outcome of the same course, or reweights the connection.
func (svc *Service) UpsertAssessmentLink(ctx context.Context, role Role, courseID int64, ld AssessmentLinkData) (AssessmentToLO, error) {
	if _, err := svc.EditCourseContent(ctx, role, courseID); err != nil {
		return AssessmentToLO{}, err
	}
	a, err := svc.repo.GetAssessment(ctx, ld.AssessmentID)
	if err != nil {
		return AssessmentToLO{}, fieldNotFound(err, "assessment_id", "assessment not found")
	}
	lo, err := svc.repo.GetLearningOutcome(ctx, ld.LearningOutcomeID)
	if err != nil {
		return AssessmentToLO{}, fieldNotFound(err, "learning_outcome_id", "learning outcome not found")
	}
	if a.CourseID != courseID || lo.CourseID != courseID {
		return AssessmentToLO{}, core.NewValidationError(ErrCrossCourseLink)
	}
	return svc.repo.UpsertAssessmentLink(ctx, AssessmentToLO{
		AssessmentID:      a.ID,
		LearningOutcomeID: lo.ID,
		Weight:            *ld.Weight,
	})
}

func (svc *Service) QueryAssessmentLinks(ctx context.Context, role Role, courseID int64) ([]AssessmentToLO, error) {
	if _, err := svc.ViewCourse(ctx, role, courseID); err != nil {
		return nil, err
	}
	return svc.repo.QueryAssessmentLinks(ctx, EdgeFilter{CourseID: courseID})
}

func (svc *Service) DeleteAssessmentLink(ctx context.Context, role Role, linkID int64) error {
	link, err := svc.repo.GetAssessmentLink(ctx, linkID)
	if err != nil {
		return err
	}
	a, err := svc.repo.GetAssessment(ctx, link.AssessmentID)
	if err != nil {
		return errors.Wrap(err, "finding assessment")
	}
	if _, err := svc.EditCourseContent(ctx, role, a.CourseID); err != nil {
		return err
	}
	return svc.repo.DeleteAssessmentLink(ctx, linkID)
}

// UpsertOutcomeLink connects a learning outcome of the course to one of the board member's program outcomes.
func (svc *Service) UpsertOutcomeLink(ctx context.Context, role Role, courseID int64, ld OutcomeLinkData) (LOToPO, error) {
	if !role.IsBoard() {
		return LOToPO{}, ErrPermissionDenied
	}
	if _, err := svc.repo.GetCourse(ctx, courseID); err != nil {
		return LOToPO{}, err
	}
	lo, err := svc.repo.GetLearningOutcome(ctx, ld.LearningOutcomeID)
	if err != nil || lo.CourseID != courseID {
		if err == nil {
			err = ErrNotFound
		}
		return LOToPO{}, fieldNotFound(err, "learning_outcome_id", "learning outcome not found in this course")
	}
	po, err := svc.repo.GetProgramOutcome(ctx, ld.ProgramOutcomeID)
	if err != nil || po.BoardMemberID != role.ProfileID {
		if err == nil {
			err = ErrNotFound
		}
		return LOToPO{}, fieldNotFound(err, "program_outcome_id", "program outcome not found")
	}
	return svc.repo.UpsertOutcomeLink(ctx, LOToPO{
		LearningOutcomeID: lo.ID,
		ProgramOutcomeID:  po.ID,
		Weight:            *ld.Weight,
	})
}

func (svc *Service) QueryOutcomeLinks(ctx context.Context, role Role, courseID int64) ([]LOToPO, error) {
	if _, err := svc.ViewCourse(ctx, role, courseID); err != nil {
		return nil, err
	}
	return svc.repo.QueryOutcomeLinks(ctx, EdgeFilter{CourseID: courseID})
}

func (svc *Service) DeleteOutcomeLink(ctx context.Context, role Role, linkID int64) error {
	link, err := svc.repo.GetOutcomeLink(ctx, linkID)
	if err != nil {
		return err
	}
	if _, err := svc.ownProgramOutcome(ctx, role, link.ProgramOutcomeID); err != nil {
		return err
	}
	return svc.repo.DeleteOutcomeLink(ctx, linkID)
}

// Grades

// QueryGrades lists the reporting grades of a course: all of them for its teachers and the board,
// the student's own for a student.
func (svc *Service) QueryGrades(ctx context.Context, role Role, courseID int64) ([]Grade, error) {
	if _, err := svc.ViewCourse(ctx, role, courseID); err != nil {
		return nil, err
	}
	filter := GradeFilter{CourseID: courseID}
	if role.IsStudent() {
		filter.StudentID = role.ProfileID
	}
	return svc.repo.QueryGrades(ctx, filter)
}

func (svc *Service) UpsertGrade(ctx context.Context, role Role, actorID string, courseID int64, gd GradeData) (Grade, bool, error) {
	if _, err := svc.EditCourseContent(ctx, role, courseID); err != nil {
		return Grade{}, false, err
	}
	if _, err := svc.CourseStudent(ctx, courseID, gd.StudentID); err != nil {
		if err == ErrNotEnrolled {
			return Grade{}, false, core.NewValidationError(err, core.FieldError{Field: "student_id", Error: err.Error()})
		}
		return Grade{}, false, err
	}
	now := time.Now().UTC()
	return svc.repo.UpsertGrade(ctx, Grade{
		StudentID:      gd.StudentID,
		CourseID:       courseID,
		AssessmentType: gd.AssessmentType,
		Semester:       gd.Semester,
		AcademicYear:   gd.AcademicYear,
		Grade:          gd.Grade,
		Percentage:     null.Float64FromPtr(gd.Percentage),
		CreatedBy:      null.NewString(actorID, actorID != ""),
		CreatedAt:      now,
		UpdatedAt:      now,
	})
}

func fieldNotFound(err error, field, msg string) error {
	if errors.Cause(err) == ErrNotFound {
		return core.NewValidationError(err, core.FieldError{Field: field, Error: msg})
	}
	return errors.Wrap(err, "finding "+field)
}
