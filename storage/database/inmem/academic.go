package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/mygithubaccountn/EduPacee/core"
	"github.com/mygithubaccountn/EduPacee/core/academic"
)

type academicRepository struct {
	db *academicTables
}

var _ academic.Repository = (*academicRepository)(nil)

func NewAcademicRepository(db *DB) academic.Repository {
	return &academicRepository{db: db.academic}
}

// matches reports whether id passes an id filter: nil lets everything through, empty lets nothing.
func matches(ids []int64, id int64) bool {
	if ids == nil {
		return true
	}
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// Profiles

func (repo *academicRepository) CreateStudent(_ context.Context, s academic.Student) (academic.Student, error) {
	t := repo.db
	t.mutex.Lock()
	defer t.mutex.Unlock()

	for _, other := range t.students {
		if other.StudentID == s.StudentID || other.UserID == s.UserID {
			return academic.Student{}, academic.ErrAlreadyExists
		}
	}
	s.ID = t.nextPK()
	t.students[s.ID] = &s
	return s, nil
}

func (repo *academicRepository) CreateTeacher(_ context.Context, tc academic.Teacher) (academic.Teacher, error) {
	t := repo.db
	t.mutex.Lock()
	defer t.mutex.Unlock()

	for _, other := range t.teachers {
		if other.EmployeeID == tc.EmployeeID || other.UserID == tc.UserID {
			return academic.Teacher{}, academic.ErrAlreadyExists
		}
	}
	tc.ID = t.nextPK()
	t.teachers[tc.ID] = &tc
	return tc, nil
}

func (repo *academicRepository) CreateBoardMember(_ context.Context, m academic.BoardMember) (academic.BoardMember, error) {
	t := repo.db
	t.mutex.Lock()
	defer t.mutex.Unlock()

	for _, other := range t.boardMembers {
		if other.EmployeeID == m.EmployeeID || other.UserID == m.UserID {
			return academic.BoardMember{}, academic.ErrAlreadyExists
		}
	}
	m.ID = t.nextPK()
	t.boardMembers[m.ID] = &m
	return m, nil
}

func (repo *academicRepository) GetStudentByUserID(_ context.Context, userID string) (academic.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	for _, s := range repo.db.students {
		if s.UserID == userID {
			return *s, nil
		}
	}
	return academic.Student{}, academic.ErrNotFound
}

func (repo *academicRepository) GetTeacherByUserID(_ context.Context, userID string) (academic.Teacher, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	for _, tc := range repo.db.teachers {
		if tc.UserID == userID {
			return *tc, nil
		}
	}
	return academic.Teacher{}, academic.ErrNotFound
}

func (repo *academicRepository) GetBoardMemberByUserID(_ context.Context, userID string) (academic.BoardMember, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	for _, m := range repo.db.boardMembers {
		if m.UserID == userID {
			return *m, nil
		}
	}
	return academic.BoardMember{}, academic.ErrNotFound
}

func (repo *academicRepository) QueryStudents(_ context.Context, filter academic.StudentFilter) ([]academic.Student, error) {
	t := repo.db
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	var externalIDs map[string]struct{}
	if filter.StudentIDs != nil {
		externalIDs = make(map[string]struct{}, len(filter.StudentIDs))
		for _, id := range filter.StudentIDs {
			externalIDs[id] = struct{}{}
		}
	}

	students := make([]academic.Student, 0)
	for _, s := range t.students {
		if !matches(filter.IDs, s.ID) {
			continue
		}
		if externalIDs != nil {
			if _, ok := externalIDs[s.StudentID]; !ok {
				continue
			}
		}
		if filter.CourseID != 0 {
			if _, ok := t.courseStudents[filter.CourseID][s.ID]; !ok {
				continue
			}
		}
		students = append(students, *s)
	}
	sort.Slice(students, func(i, j int) bool { return students[i].ID < students[j].ID })
	return students, nil
}

func (repo *academicRepository) QueryTeachers(_ context.Context, filter academic.TeacherFilter) ([]academic.Teacher, error) {
	t := repo.db
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	teachers := make([]academic.Teacher, 0)
	for _, tc := range t.teachers {
		if !matches(filter.IDs, tc.ID) {
			continue
		}
		if filter.CourseID != 0 {
			if _, ok := t.courseTeachers[filter.CourseID][tc.ID]; !ok {
				continue
			}
		}
		teachers = append(teachers, *tc)
	}
	sort.Slice(teachers, func(i, j int) bool { return teachers[i].ID < teachers[j].ID })
	return teachers, nil
}

// Courses

func (t *academicTables) courseCodeTaken(code string, exclID int64) bool {
	for _, c := range t.courses {
		if c.ID != exclID && c.Code == code {
			return true
		}
	}
	return false
}

func (repo *academicRepository) CreateCourse(_ context.Context, c academic.Course) (academic.Course, error) {
	t := repo.db
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.courseCodeTaken(c.Code, 0) {
		return academic.Course{}, academic.ErrAlreadyExists
	}
	c.ID = t.nextPK()
	t.courses[c.ID] = &c
	return c, nil
}

func (repo *academicRepository) GetCourse(_ context.Context, id int64) (academic.Course, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	if c, ok := repo.db.courses[id]; ok {
		return *c, nil
	}
	return academic.Course{}, academic.ErrNotFound
}

func (repo *academicRepository) QueryCourses(_ context.Context, filter academic.CourseFilter, ordering []core.DBOrdering) ([]academic.Course, error) {
	t := repo.db
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	search := strings.ToLower(filter.Search)
	courses := make([]academic.Course, 0)
	for _, c := range t.courses {
		if !matches(filter.IDs, c.ID) {
			continue
		}
		if filter.StudentID != 0 {
			if _, ok := t.courseStudents[c.ID][filter.StudentID]; !ok {
				continue
			}
		}
		if filter.TeacherID != 0 {
			if _, ok := t.courseTeachers[c.ID][filter.TeacherID]; !ok {
				continue
			}
		}
		if filter.IsLocked != nil && c.IsLocked != *filter.IsLocked {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(c.Code), search) && !strings.Contains(strings.ToLower(c.Name), search) {
			continue
		}
		courses = append(courses, *c)
	}

	sort.Slice(courses, func(i, j int) bool {
		ci, cj := courses[i], courses[j]
		for _, ord := range ordering {
			var cmp int
			switch ord.Field {
			case "code":
				cmp = strings.Compare(ci.Code, cj.Code)
			case "name":
				cmp = strings.Compare(ci.Name, cj.Name)
			case "credits":
				cmp = ci.Credits - cj.Credits
			case "is_locked":
				if ci.IsLocked != cj.IsLocked {
					if cj.IsLocked {
						cmp = -1
					} else {
						cmp = 1
					}
				}
			case "created_at":
				switch {
				case ci.CreatedAt.Before(cj.CreatedAt):
					cmp = -1
				case ci.CreatedAt.After(cj.CreatedAt):
					cmp = 1
				}
			}
			if cmp != 0 {
				if ord.Ascending {
					return cmp < 0
				}
				return cmp > 0
			}
		}
		return ci.ID < cj.ID
	})
	return courses, nil
}

func (repo *academicRepository) UpdateCourse(_ context.Context, c academic.Course) (academic.Course, error) {
	t := repo.db
	t.mutex.Lock()
	defer t.mutex.Unlock()

	orig, ok := t.courses[c.ID]
	if !ok {
		return academic.Course{}, academic.ErrNotFound
	}
	if t.courseCodeTaken(c.Code, c.ID) {
		return academic.Course{}, academic.ErrAlreadyExists
	}
	c.CreatedAt = orig.CreatedAt
	t.courses[c.ID] = &c
	return c, nil
}

func (repo *academicRepository) DeleteCourse(_ context.Context, id int64) error {
	t := repo.db
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if _, ok := t.courses[id]; !ok {
		return academic.ErrNotFound
	}
	for _, a := range t.assessments {
		if a.CourseID == id {
			t.deleteAssessment(a.ID)
		}
	}
	for _, lo := range t.los {
		if lo.CourseID == id {
			t.deleteLearningOutcome(lo.ID)
		}
	}
	for gID, g := range t.grades {
		if g.CourseID == id {
			delete(t.grades, gID)
		}
	}
	delete(t.courseStudents, id)
	delete(t.courseTeachers, id)
	delete(t.courses, id)
	return nil
}

func (repo *academicRepository) UnlockCourses(_ context.Context, dryRun bool) (int, error) {
	t := repo.db
	t.mutex.Lock()
	defer t.mutex.Unlock()

	var n int
	for _, c := range t.courses {
		if c.IsLocked {
			n++
			if !dryRun {
				c.IsLocked = false
			}
		}
	}
	return n, nil
}

func (repo *academicRepository) AddCourseTeacher(_ context.Context, courseID, teacherID int64) error {
	t := repo.db
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if _, ok := t.courses[courseID]; !ok {
		return academic.ErrNotFound
	}
	if _, ok := t.teachers[teacherID]; !ok {
		return academic.ErrNotFound
	}
	if t.courseTeachers[courseID] == nil {
		t.courseTeachers[courseID] = make(map[int64]struct{})
	}
	t.courseTeachers[courseID][teacherID] = struct{}{}
	return nil
}

func (repo *academicRepository) AddCourseStudent(_ context.Context, courseID, studentID int64) error {
	t := repo.db
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if _, ok := t.courses[courseID]; !ok {
		return academic.ErrNotFound
	}
	if _, ok := t.students[studentID]; !ok {
		return academic.ErrNotFound
	}
	if t.courseStudents[courseID] == nil {
		t.courseStudents[courseID] = make(map[int64]struct{})
	}
	t.courseStudents[courseID][studentID] = struct{}{}
	return nil
}

func (repo *academicRepository) CourseHasTeacher(_ context.Context, courseID, teacherID int64) (bool, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	_, ok := repo.db.courseTeachers[courseID][teacherID]
	return ok, nil
}

func (repo *academicRepository) CourseHasStudent(_ context.Context, courseID, studentID int64) (bool, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	_, ok := repo.db.courseStudents[courseID][studentID]
	return ok, nil
}

// Assessments

func (t *academicTables) assessmentNameTaken(a academic.Assessment) bool {
	for _, other := range t.assessments {
		if other.ID != a.ID && other.CourseID == a.CourseID && other.Name == a.Name {
			return true
		}
	}
	return false
}

func (repo *academicRepository) CreateAssessment(_ context.Context, a academic.Assessment) (academic.Assessment, error) {
	t := repo.db
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if _, ok := t.courses[a.CourseID]; !ok {
		return academic.Assessment{}, academic.ErrNotFound
	}
	if t.assessmentNameTaken(a) {
		return academic.Assessment{}, academic.ErrAlreadyExists
	}
	a.ID = t.nextPK()
	t.assessments[a.ID] = &a
	return a, nil
}

func (repo *academicRepository) GetAssessment(_ context.Context, id int64) (academic.Assessment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	if a, ok := repo.db.assessments[id]; ok {
		return *a, nil
	}
	return academic.Assessment{}, academic.ErrNotFound
}

func (repo *academicRepository) QueryAssessments(_ context.Context, filter academic.AssessmentFilter) ([]academic.Assessment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	assessments := make([]academic.Assessment, 0)
	for _, a := range repo.db.assessments {
		if matches(filter.IDs, a.ID) && (filter.CourseID == 0 || a.CourseID == filter.CourseID) {
			assessments = append(assessments, *a)
		}
	}
	sort.Slice(assessments, func(i, j int) bool { return assessments[i].ID < assessments[j].ID })
	return assessments, nil
}

func (repo *academicRepository) UpdateAssessment(_ context.Context, a academic.Assessment) (academic.Assessment, error) {
	t := repo.db
	t.mutex.Lock()
	defer t.mutex.Unlock()

	orig, ok := t.assessments[a.ID]
	if !ok {
		return academic.Assessment{}, academic.ErrNotFound
	}
	a.CourseID = orig.CourseID
	a.CreatedAt = orig.CreatedAt
	if t.assessmentNameTaken(a) {
		return academic.Assessment{}, academic.ErrAlreadyExists
	}
	t.assessments[a.ID] = &a
	return a, nil
}

func (repo *academicRepository) DeleteAssessment(_ context.Context, id int64) error {
	t := repo.db
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if _, ok := t.assessments[id]; !ok {
		return academic.ErrNotFound
	}
	t.deleteAssessment(id)
	return nil
}

func (t *academicTables) deleteAssessment(id int64) {
	for gID, g := range t.assessmentGrade {
		if g.AssessmentID == id {
			delete(t.assessmentGrade, gID)
		}
	}
	for lID, l := range t.assessmentLinks {
		if l.AssessmentID == id {
			delete(t.assessmentLinks, lID)
		}
	}
	delete(t.assessments, id)
}

func (repo *academicRepository) UpsertAssessmentGrade(_ context.Context, g academic.AssessmentGrade) (academic.AssessmentGrade, bool, error) {
	t := repo.db
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if _, ok := t.assessments[g.AssessmentID]; !ok {
		return academic.AssessmentGrade{}, false, academic.ErrNotFound
	}
	if _, ok := t.students[g.StudentID]; !ok {
		return academic.AssessmentGrade{}, false, academic.ErrNotFound
	}
	for _, orig := range t.assessmentGrade {
		if orig.AssessmentID == g.AssessmentID && orig.StudentID == g.StudentID {
			orig.Grade = g.Grade
			orig.UpdatedAt = g.UpdatedAt
			return *orig, false, nil
		}
	}
	g.ID = t.nextPK()
	t.assessmentGrade[g.ID] = &g
	return g, true, nil
}

func (repo *academicRepository) QueryAssessmentGrades(_ context.Context, filter academic.AssessmentGradeFilter) ([]academic.AssessmentGrade, error) {
	t := repo.db
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	grades := make([]academic.AssessmentGrade, 0)
	for _, g := range t.assessmentGrade {
		if !matches(filter.StudentIDs, g.StudentID) || !matches(filter.AssessmentIDs, g.AssessmentID) {
			continue
		}
		if filter.CourseID != 0 {
			if a, ok := t.assessments[g.AssessmentID]; !ok || a.CourseID != filter.CourseID {
				continue
			}
		}
		grades = append(grades, *g)
	}
	sort.Slice(grades, func(i, j int) bool { return grades[i].ID < grades[j].ID })
	return grades, nil
}

// Learning outcomes

func (t *academicTables) learningOutcomeCodeTaken(lo academic.LearningOutcome) bool {
	for _, other := range t.los {
		if other.ID != lo.ID && other.CourseID == lo.CourseID && other.Code == lo.Code {
			return true
		}
	}
	return false
}

func (repo *academicRepository) CreateLearningOutcome(_ context.Context, lo academic.LearningOutcome) (academic.LearningOutcome, error) {
	t := repo.db
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if _, ok := t.courses[lo.CourseID]; !ok {
		return academic.LearningOutcome{}, academic.ErrNotFound
	}
	if t.learningOutcomeCodeTaken(lo) {
		return academic.LearningOutcome{}, academic.ErrAlreadyExists
	}
	lo.ID = t.nextPK()
	t.los[lo.ID] = &lo
	return lo, nil
}

func (repo *academicRepository) GetLearningOutcome(_ context.Context, id int64) (academic.LearningOutcome, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	if lo, ok := repo.db.los[id]; ok {
		return *lo, nil
	}
	return academic.LearningOutcome{}, academic.ErrNotFound
}

func (repo *academicRepository) QueryLearningOutcomes(_ context.Context, filter academic.LearningOutcomeFilter) ([]academic.LearningOutcome, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	los := make([]academic.LearningOutcome, 0)
	for _, lo := range repo.db.los {
		if matches(filter.IDs, lo.ID) && (filter.CourseID == 0 || lo.CourseID == filter.CourseID) {
			los = append(los, *lo)
		}
	}
	sort.Slice(los, func(i, j int) bool { return los[i].ID < los[j].ID })
	return los, nil
}

func (repo *academicRepository) UpdateLearningOutcome(_ context.Context, lo academic.LearningOutcome) (academic.LearningOutcome, error) {
	t := repo.db
	t.mutex.Lock()
	defer t.mutex.Unlock()

	orig, ok := t.los[lo.ID]
	if !ok {
		return academic.LearningOutcome{}, academic.ErrNotFound
	}
	lo.CourseID = orig.CourseID
	lo.CreatedBy = orig.CreatedBy
	lo.CreatedAt = orig.CreatedAt
	if t.learningOutcomeCodeTaken(lo) {
		return academic.LearningOutcome{}, academic.ErrAlreadyExists
	}
	t.los[lo.ID] = &lo
	return lo, nil
}

func (repo *academicRepository) DeleteLearningOutcome(_ context.Context, id int64) error {
	t := repo.db
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if _, ok := t.los[id]; !ok {
		return academic.ErrNotFound
	}
	t.deleteLearningOutcome(id)
	return nil
}

func (t *academicTables) deleteLearningOutcome(id int64) {
	for lID, l := range t.assessmentLinks {
		if l.LearningOutcomeID == id {
			delete(t.assessmentLinks, lID)
		}
	}
	for lID, l := range t.outcomeLinks {
		if l.LearningOutcomeID == id {
			delete(t.outcomeLinks, lID)
		}
	}
	delete(t.los, id)
}

// Program outcomes

func (t *academicTables) programOutcomeCodeTaken(po academic.ProgramOutcome) bool {
	for _, other := range t.pos {
		if other.ID != po.ID && other.BoardMemberID == po.BoardMemberID && other.Code == po.Code {
			return true
		}
	}
	return false
}

func (repo *academicRepository) CreateProgramOutcome(_ context.Context, po academic.ProgramOutcome) (academic.ProgramOutcome, error) {
	t := repo.db
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if _, ok := t.boardMembers[po.BoardMemberID]; !ok {
		return academic.ProgramOutcome{}, academic.ErrNotFound
	}
	if t.programOutcomeCodeTaken(po) {
		return academic.ProgramOutcome{}, academic.ErrAlreadyExists
	}
	po.ID = t.nextPK()
	t.pos[po.ID] = &po
	return po, nil
}

func (repo *academicRepository) GetProgramOutcome(_ context.Context, id int64) (academic.ProgramOutcome, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	if po, ok := repo.db.pos[id]; ok {
		return *po, nil
	}
	return academic.ProgramOutcome{}, academic.ErrNotFound
}

func (repo *academicRepository) QueryProgramOutcomes(_ context.Context, filter academic.ProgramOutcomeFilter) ([]academic.ProgramOutcome, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	pos := make([]academic.ProgramOutcome, 0)
	for _, po := range repo.db.pos {
		if matches(filter.IDs, po.ID) && (filter.BoardMemberID == 0 || po.BoardMemberID == filter.BoardMemberID) {
			pos = append(pos, *po)
		}
	}
	sort.Slice(pos, func(i, j int) bool { return pos[i].ID < pos[j].ID })
	return pos, nil
}

func (repo *academicRepository) UpdateProgramOutcome(_ context.Context, po academic.ProgramOutcome) (academic.ProgramOutcome, error) {
	t := repo.db
	t.mutex.Lock()
	defer t.mutex.Unlock()

	orig, ok := t.pos[po.ID]
	if !ok {
		return academic.ProgramOutcome{}, academic.ErrNotFound
	}
	po.BoardMemberID = orig.BoardMemberID
	po.CreatedBy = orig.CreatedBy
	po.CreatedAt = orig.CreatedAt
	if t.programOutcomeCodeTaken(po) {
		return academic.ProgramOutcome{}, academic.ErrAlreadyExists
	}
	t.pos[po.ID] = &po
	return po, nil
}

func (repo *academicRepository) DeleteProgramOutcome(_ context.Context, id int64) error {
	t := repo.db
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if _, ok := t.pos[id]; !ok {
		return academic.ErrNotFound
	}
	for lID, l := range t.outcomeLinks {
		if l.ProgramOutcomeID == id {
			delete(t.outcomeLinks, lID)
		}
	}
	delete(t.pos, id)
	return nil
}

// Edges

func (repo *academicRepository) UpsertAssessmentLink(_ context.Context, e academic.AssessmentToLO) (academic.AssessmentToLO, error) {
	t := repo.db
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if _, ok := t.assessments[e.AssessmentID]; !ok {
		return academic.AssessmentToLO{}, academic.ErrNotFound
	}
	if _, ok := t.los[e.LearningOutcomeID]; !ok {
		return academic.AssessmentToLO{}, academic.ErrNotFound
	}
	for _, orig := range t.assessmentLinks {
		if orig.AssessmentID == e.AssessmentID && orig.LearningOutcomeID == e.LearningOutcomeID {
			orig.Weight = e.Weight
			return *orig, nil
		}
	}
	e.ID = t.nextPK()
	t.assessmentLinks[e.ID] = &e
	return e, nil
}

func (repo *academicRepository) GetAssessmentLink(_ context.Context, id int64) (academic.AssessmentToLO, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	if l, ok := repo.db.assessmentLinks[id]; ok {
		return *l, nil
	}
	return academic.AssessmentToLO{}, academic.ErrNotFound
}

func (repo *academicRepository) QueryAssessmentLinks(_ context.Context, filter academic.EdgeFilter) ([]academic.AssessmentToLO, error) {
	t := repo.db
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	links := make([]academic.AssessmentToLO, 0)
	for _, l := range t.assessmentLinks {
		if !matches(filter.IDs, l.ID) || !matches(filter.SourceIDs, l.AssessmentID) || !matches(filter.TargetIDs, l.LearningOutcomeID) {
			continue
		}
		if filter.CourseID != 0 {
			if a, ok := t.assessments[l.AssessmentID]; !ok || a.CourseID != filter.CourseID {
				continue
			}
		}
		links = append(links, *l)
	}
	sort.Slice(links, func(i, j int) bool { return links[i].ID < links[j].ID })
	return links, nil
}

func (repo *academicRepository) DeleteAssessmentLink(_ context.Context, id int64) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	if _, ok := repo.db.assessmentLinks[id]; !ok {
		return academic.ErrNotFound
	}
	delete(repo.db.assessmentLinks, id)
	return nil
}

func (repo *academicRepository) UpsertOutcomeLink(_ context.Context, e academic.LOToPO) (academic.LOToPO, error) {
	t := repo.db
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if _, ok := t.los[e.LearningOutcomeID]; !ok {
		return academic.LOToPO{}, academic.ErrNotFound
	}
	if _, ok := t.pos[e.ProgramOutcomeID]; !ok {
		return academic.LOToPO{}, academic.ErrNotFound
	}
	for _, orig := range t.outcomeLinks {
		if orig.LearningOutcomeID == e.LearningOutcomeID && orig.ProgramOutcomeID == e.ProgramOutcomeID {
			orig.Weight = e.Weight
			return *orig, nil
		}
	}
	e.ID = t.nextPK()
	t.outcomeLinks[e.ID] = &e
	return e, nil
}

func (repo *academicRepository) GetOutcomeLink(_ context.Context, id int64) (academic.LOToPO, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	if l, ok := repo.db.outcomeLinks[id]; ok {
		return *l, nil
	}
	return academic.LOToPO{}, academic.ErrNotFound
}

func (repo *academicRepository) QueryOutcomeLinks(_ context.Context, filter academic.EdgeFilter) ([]academic.LOToPO, error) {
	t := repo.db
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	links := make([]academic.LOToPO, 0)
	for _, l := range t.outcomeLinks {
		if !matches(filter.IDs, l.ID) || !matches(filter.SourceIDs, l.LearningOutcomeID) || !matches(filter.TargetIDs, l.ProgramOutcomeID) {
			continue
		}
		if filter.CourseID != 0 {
			if lo, ok := t.los[l.LearningOutcomeID]; !ok || lo.CourseID != filter.CourseID {
				continue
			}
		}
		links = append(links, *l)
	}
	sort.Slice(links, func(i, j int) bool { return links[i].ID < links[j].ID })
	return links, nil
}

func (repo *academicRepository) DeleteOutcomeLink(_ context.Context, id int64) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	if _, ok := repo.db.outcomeLinks[id]; !ok {
		return academic.ErrNotFound
	}
	delete(repo.db.outcomeLinks, id)
	return nil
}

// Grades

func (repo *academicRepository) UpsertGrade(_ context.Context, g academic.Grade) (academic.Grade, bool, error) {
	t := repo.db
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if _, ok := t.courses[g.CourseID]; !ok {
		return academic.Grade{}, false, academic.ErrNotFound
	}
	if _, ok := t.students[g.StudentID]; !ok {
		return academic.Grade{}, false, academic.ErrNotFound
	}
	key := g.Key()
	for _, orig := range t.grades {
		if orig.Key() == key {
			orig.Grade = g.Grade
			orig.Percentage = g.Percentage
			orig.CreatedBy = g.CreatedBy
			orig.UpdatedAt = g.UpdatedAt
			return *orig, false, nil
		}
	}
	g.ID = t.nextPK()
	t.grades[g.ID] = &g
	return g, true, nil
}

func (repo *academicRepository) QueryGrades(_ context.Context, filter academic.GradeFilter) ([]academic.Grade, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	grades := make([]academic.Grade, 0)
	for _, g := range repo.db.grades {
		if (filter.CourseID == 0 || g.CourseID == filter.CourseID) && (filter.StudentID == 0 || g.StudentID == filter.StudentID) {
			grades = append(grades, *g)
		}
	}
	sort.Slice(grades, func(i, j int) bool { return grades[i].ID < grades[j].ID })
	return grades, nil
}
