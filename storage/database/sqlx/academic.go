package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/mygithubaccountn/EduPacee/core"
	"github.com/mygithubaccountn/EduPacee/core/academic"
)

const (
	studentCols         = "id, user_id, student_id, enrollment_date, program"
	teacherCols         = "id, user_id, employee_id, department"
	boardMemberCols     = "id, user_id, employee_id, designation"
	courseCols          = "id, code, name, description, credits, is_locked, created_at, updated_at"
	assessmentCols      = "id, course_id, name, weight_in_course, created_at, updated_at"
	assessmentGradeCols = "id, assessment_id, student_id, grade, created_at, updated_at"
	learningOutcomeCols = "id, course_id, code, description, created_by, created_at, updated_at"
	programOutcomeCols  = "id, board_member_id, code, description, created_by, created_at, updated_at"
	assessmentLinkCols  = "id, assessment_id, learning_outcome_id, weight"
	outcomeLinkCols     = "id, learning_outcome_id, program_outcome_id, weight"
	gradeCols           = "id, student_id, course_id, assessment_type, semester, academic_year, grade, percentage, created_by, created_at, updated_at"
)

// insertedByUpsert is true when the row of an INSERT ... ON CONFLICT DO UPDATE was inserted rather than updated.
const insertedByUpsert = "(xmax = 0) AS created"

type academicRepository struct {
	db *sqlx.DB
}

var _ academic.Repository = (*academicRepository)(nil)

func NewAcademicRepository(db *sqlx.DB) academic.Repository {
	return &academicRepository{db: db}
}

func (repo *academicRepository) get(ctx context.Context, dest interface{}, msg, q string, args ...interface{}) error {
	return academicErr(repo.db.GetContext(ctx, dest, q, args...), msg)
}

func (repo *academicRepository) sel(ctx context.Context, dest interface{}, msg, q string, args ...interface{}) error {
	return academicErr(repo.db.SelectContext(ctx, dest, q, args...), msg)
}

func (repo *academicRepository) del(ctx context.Context, table string, id int64) error {
	err := checkAffected(repo.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = $1", id))
	if err == academic.ErrNotFound {
		return err
	}
	return academicErr(err, "deleting from "+table)
}

// Profiles

func (repo *academicRepository) CreateStudent(ctx context.Context, s academic.Student) (academic.Student, error) {
	q := `INSERT INTO student (user_id, student_id, enrollment_date, program) VALUES ($1, $2, $3, $4) RETURNING ` + studentCols
	var created academic.Student
	err := repo.get(ctx, &created, "creating student", q, s.UserID, s.StudentID, s.EnrollmentDate, s.Program)
	return created, err
}

func (repo *academicRepository) CreateTeacher(ctx context.Context, t academic.Teacher) (academic.Teacher, error) {
	q := `INSERT INTO teacher (user_id, employee_id, department) VALUES ($1, $2, $3) RETURNING ` + teacherCols
	var created academic.Teacher
	err := repo.get(ctx, &created, "creating teacher", q, t.UserID, t.EmployeeID, t.Department)
	return created, err
}

func (repo *academicRepository) CreateBoardMember(ctx context.Context, m academic.BoardMember) (academic.BoardMember, error) {
	q := `INSERT INTO board_member (user_id, employee_id, designation) VALUES ($1, $2, $3) RETURNING ` + boardMemberCols
	var created academic.BoardMember
	err := repo.get(ctx, &created, "creating board member", q, m.UserID, m.EmployeeID, m.Designation)
	return created, err
}

func (repo *academicRepository) GetStudentByUserID(ctx context.Context, userID string) (academic.Student, error) {
	var s academic.Student
	err := repo.get(ctx, &s, "getting student", `SELECT `+studentCols+` FROM student WHERE user_id::text = $1`, userID)
	return s, err
}

func (repo *academicRepository) GetTeacherByUserID(ctx context.Context, userID string) (academic.Teacher, error) {
	var t academic.Teacher
	err := repo.get(ctx, &t, "getting teacher", `SELECT `+teacherCols+` FROM teacher WHERE user_id::text = $1`, userID)
	return t, err
}

func (repo *academicRepository) GetBoardMemberByUserID(ctx context.Context, userID string) (academic.BoardMember, error) {
	var m academic.BoardMember
	err := repo.get(ctx, &m, "getting board member", `SELECT `+boardMemberCols+` FROM board_member WHERE user_id::text = $1`, userID)
	return m, err
}

func (repo *academicRepository) QueryStudents(ctx context.Context, filter academic.StudentFilter) ([]academic.Student, error) {
	var w where
	w.ids("id", filter.IDs)
	if filter.StudentIDs != nil {
		w.add("student_id = ANY(?)", pq.Array(filter.StudentIDs))
	}
	if filter.CourseID != 0 {
		w.add("id IN (SELECT student_id FROM course_student WHERE course_id = ?)", filter.CourseID)
	}
	students := make([]academic.Student, 0)
	err := repo.sel(ctx, &students, "querying students", `SELECT `+studentCols+` FROM student`+w.String()+` ORDER BY id`, w.args...)
	return students, err
}

func (repo *academicRepository) QueryTeachers(ctx context.Context, filter academic.TeacherFilter) ([]academic.Teacher, error) {
	var w where
	w.ids("id", filter.IDs)
	if filter.CourseID != 0 {
		w.add("id IN (SELECT teacher_id FROM course_teacher WHERE course_id = ?)", filter.CourseID)
	}
	teachers := make([]academic.Teacher, 0)
	err := repo.sel(ctx, &teachers, "querying teachers", `SELECT `+teacherCols+` FROM teacher`+w.String()+` ORDER BY id`, w.args...)
	return teachers, err
}

// Courses

func (repo *academicRepository) CreateCourse(ctx context.Context, c academic.Course) (academic.Course, error) {
	q := `INSERT INTO course (code, name, description, credits, is_locked, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING ` + courseCols
	var created academic.Course
	err := repo.get(ctx, &created, "creating course", q, c.Code, c.Name, c.Description, c.Credits, c.IsLocked, c.CreatedAt, c.UpdatedAt)
	return created, err
}

func (repo *academicRepository) GetCourse(ctx context.Context, id int64) (academic.Course, error) {
	var c academic.Course
	err := repo.get(ctx, &c, "getting course", `SELECT `+courseCols+` FROM course WHERE id = $1`, id)
	return c, err
}

func (repo *academicRepository) QueryCourses(ctx context.Context, filter academic.CourseFilter, ordering []core.DBOrdering) ([]academic.Course, error) {
	var w where
	w.ids("id", filter.IDs)
	if filter.StudentID != 0 {
		w.add("id IN (SELECT course_id FROM course_student WHERE student_id = ?)", filter.StudentID)
	}
	if filter.TeacherID != 0 {
		w.add("id IN (SELECT course_id FROM course_teacher WHERE teacher_id = ?)", filter.TeacherID)
	}
	if filter.IsLocked != nil {
		w.add("is_locked = ?", *filter.IsLocked)
	}
	if filter.Search != "" {
		w.add("(code ILIKE ? OR name ILIKE ?)", "%"+filter.Search+"%")
	}
	q := `SELECT ` + courseCols + ` FROM course` + w.String() +
		orderBy(ordering, "code", "name", "credits", "is_locked", "created_at")

	courses := make([]academic.Course, 0)
	err := repo.sel(ctx, &courses, "querying courses", q, w.args...)
	return courses, err
}

func (repo *academicRepository) UpdateCourse(ctx context.Context, c academic.Course) (academic.Course, error) {
	q := `UPDATE course SET code = $2, name = $3, description = $4, credits = $5, is_locked = $6, updated_at = $7
		WHERE id = $1 RETURNING ` + courseCols
	var updated academic.Course
	err := repo.get(ctx, &updated, "updating course", q, c.ID, c.Code, c.Name, c.Description, c.Credits, c.IsLocked, c.UpdatedAt)
	return updated, err
}

func (repo *academicRepository) DeleteCourse(ctx context.Context, id int64) error {
	return repo.del(ctx, "course", id)
}

func (repo *academicRepository) UnlockCourses(ctx context.Context, dryRun bool) (int, error) {
	if dryRun {
		var n int
		err := repo.get(ctx, &n, "counting locked courses", `SELECT COUNT(*) FROM course WHERE is_locked`)
		return n, err
	}
	res, err := repo.db.ExecContext(ctx, `UPDATE course SET is_locked = FALSE, updated_at = now() WHERE is_locked`)
	if err != nil {
		return 0, errors.Wrap(err, "unlocking courses")
	}
	n, err := res.RowsAffected()
	return int(n), errors.Wrap(err, "unlocking courses")
}

func (repo *academicRepository) AddCourseTeacher(ctx context.Context, courseID, teacherID int64) error {
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO course_teacher (course_id, teacher_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, courseID, teacherID)
	return academicErr(err, "assigning teacher")
}

func (repo *academicRepository) AddCourseStudent(ctx context.Context, courseID, studentID int64) error {
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO course_student (course_id, student_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, courseID, studentID)
	return academicErr(err, "enrolling student")
}

func (repo *academicRepository) CourseHasTeacher(ctx context.Context, courseID, teacherID int64) (bool, error) {
	var ok bool
	err := repo.get(ctx, &ok, "checking course teacher",
		`SELECT EXISTS (SELECT 1 FROM course_teacher WHERE course_id = $1 AND teacher_id = $2)`, courseID, teacherID)
	return ok, err
}

func (repo *academicRepository) CourseHasStudent(ctx context.Context, courseID, studentID int64) (bool, error) {
	var ok bool
	err := repo.get(ctx, &ok, "checking course student",
		`SELECT EXISTS (SELECT 1 FROM course_student WHERE course_id = $1 AND student_id = $2)`, courseID, studentID)
	return ok, err
}

// Assessments

func (repo *academicRepository) CreateAssessment(ctx context.Context, a academic.Assessment) (academic.Assessment, error) {
	q := `INSERT INTO assessment (course_id, name, weight_in_course, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5) RETURNING ` + assessmentCols
	var created academic.Assessment
	err := repo.get(ctx, &created, "creating assessment", q, a.CourseID, a.Name, a.WeightInCourse, a.CreatedAt, a.UpdatedAt)
	return created, err
}

func (repo *academicRepository) GetAssessment(ctx context.Context, id int64) (academic.Assessment, error) {
	var a academic.Assessment
	err := repo.get(ctx, &a, "getting assessment", `SELECT `+assessmentCols+` FROM assessment WHERE id = $1`, id)
	return a, err
}

func (repo *academicRepository) QueryAssessments(ctx context.Context, filter academic.AssessmentFilter) ([]academic.Assessment, error) {
	var w where
	w.ids("id", filter.IDs)
	if filter.CourseID != 0 {
		w.add("course_id = ?", filter.CourseID)
	}
	assessments := make([]academic.Assessment, 0)
	err := repo.sel(ctx, &assessments, "querying assessments", `SELECT `+assessmentCols+` FROM assessment`+w.String()+` ORDER BY id`, w.args...)
	return assessments, err
}

func (repo *academicRepository) UpdateAssessment(ctx context.Context, a academic.Assessment) (academic.Assessment, error) {
	q := `UPDATE assessment SET name = $2, weight_in_course = $3, updated_at = $4 WHERE id = $1 RETURNING ` + assessmentCols
	var updated academic.Assessment
	err := repo.get(ctx, &updated, "updating assessment", q, a.ID, a.Name, a.WeightInCourse, a.UpdatedAt)
	return updated, err
}

func (repo *academicRepository) DeleteAssessment(ctx context.Context, id int64) error {
	return repo.del(ctx, "assessment", id)
}

func (repo *academicRepository) UpsertAssessmentGrade(ctx context.Context, g academic.AssessmentGrade) (academic.AssessmentGrade, bool, error) {
	q := `INSERT INTO assessment_grade (assessment_id, student_id, grade, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (assessment_id, student_id) DO UPDATE SET grade = EXCLUDED.grade, updated_at = EXCLUDED.updated_at
		RETURNING ` + assessmentGradeCols + `, ` + insertedByUpsert
	var row struct {
		academic.AssessmentGrade
		Created bool `db:"created"`
	}
	err := repo.get(ctx, &row, "saving assessment grade", q, g.AssessmentID, g.StudentID, g.Grade, g.CreatedAt, g.UpdatedAt)
	return row.AssessmentGrade, row.Created, err
}

func (repo *academicRepository) QueryAssessmentGrades(ctx context.Context, filter academic.AssessmentGradeFilter) ([]academic.AssessmentGrade, error) {
	var w where
	w.ids("student_id", filter.StudentIDs)
	w.ids("assessment_id", filter.AssessmentIDs)
	if filter.CourseID != 0 {
		w.add("assessment_id IN (SELECT id FROM assessment WHERE course_id = ?)", filter.CourseID)
	}
	grades := make([]academic.AssessmentGrade, 0)
	err := repo.sel(ctx, &grades, "querying assessment grades",
		`SELECT `+assessmentGradeCols+` FROM assessment_grade`+w.String()+` ORDER BY id`, w.args...)
	return grades, err
}

// Learning outcomes

func (repo *academicRepository) CreateLearningOutcome(ctx context.Context, lo academic.LearningOutcome) (academic.LearningOutcome, error) {
	q := `INSERT INTO learning_outcome (course_id, code, description, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING ` + learningOutcomeCols
	var created academic.LearningOutcome
	err := repo.get(ctx, &created, "creating learning outcome", q, lo.CourseID, lo.Code, lo.Description, lo.CreatedBy, lo.CreatedAt, lo.UpdatedAt)
	return created, err
}

func (repo *academicRepository) GetLearningOutcome(ctx context.Context, id int64) (academic.LearningOutcome, error) {
	var lo academic.LearningOutcome
	err := repo.get(ctx, &lo, "getting learning outcome", `SELECT `+learningOutcomeCols+` FROM learning_outcome WHERE id = $1`, id)
	return lo, err
}

func (repo *academicRepository) QueryLearningOutcomes(ctx context.Context, filter academic.LearningOutcomeFilter) ([]academic.LearningOutcome, error) {
	var w where
	w.ids("id", filter.IDs)
	if filter.CourseID != 0 {
		w.add("course_id = ?", filter.CourseID)
	}
	los := make([]academic.LearningOutcome, 0)
	err := repo.sel(ctx, &los, "querying learning outcomes",
		`SELECT `+learningOutcomeCols+` FROM learning_outcome`+w.String()+` ORDER BY id`, w.args...)
	return los, err
}

func (repo *academicRepository) UpdateLearningOutcome(ctx context.Context, lo academic.LearningOutcome) (academic.LearningOutcome, error) {
	q := `UPDATE learning_outcome SET code = $2, description = $3, updated_at = $4 WHERE id = $1 RETURNING ` + learningOutcomeCols
	var updated academic.LearningOutcome
	err := repo.get(ctx, &updated, "updating learning outcome", q, lo.ID, lo.Code, lo.Description, lo.UpdatedAt)
	return updated, err
}

func (repo *academicRepository) DeleteLearningOutcome(ctx context.Context, id int64) error {
	return repo.del(ctx, "learning_outcome", id)
}

// Program outcomes

func (repo *academicRepository) CreateProgramOutcome(ctx context.Context, po academic.ProgramOutcome) (academic.ProgramOutcome, error) {
	q := `INSERT INTO program_outcome (board_member_id, code, description, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING ` + programOutcomeCols
	var created academic.ProgramOutcome
	err := repo.get(ctx, &created, "creating program outcome", q, po.BoardMemberID, po.Code, po.Description, po.CreatedBy, po.CreatedAt, po.UpdatedAt)
	return created, err
}

func (repo *academicRepository) GetProgramOutcome(ctx context.Context, id int64) (academic.ProgramOutcome, error) {
	var po academic.ProgramOutcome
	err := repo.get(ctx, &po, "getting program outcome", `SELECT `+programOutcomeCols+` FROM program_outcome WHERE id = $1`, id)
	return po, err
}

func (repo *academicRepository) QueryProgramOutcomes(ctx context.Context, filter academic.ProgramOutcomeFilter) ([]academic.ProgramOutcome, error) {
	var w where
	w.ids("id", filter.IDs)
	if filter.BoardMemberID != 0 {
		w.add("board_member_id = ?", filter.BoardMemberID)
	}
	pos := make([]academic.ProgramOutcome, 0)
	err := repo.sel(ctx, &pos, "querying program outcomes",
		`SELECT `+programOutcomeCols+` FROM program_outcome`+w.String()+` ORDER BY id`, w.args...)
	return pos, err
}

func (repo *academicRepository) UpdateProgramOutcome(ctx context.Context, po academic.ProgramOutcome) (academic.ProgramOutcome, error) {
	q := `UPDATE program_outcome SET code = $2, description = $3, updated_at = $4 WHERE id = $1 RETURNING ` + programOutcomeCols
	var updated academic.ProgramOutcome
	err := repo.get(ctx, &updated, "updating program outcome", q, po.ID, po.Code, po.Description, po.UpdatedAt)
	return updated, err
}

func (repo *academicRepository) DeleteProgramOutcome(ctx context.Context, id int64) error {
	return repo.del(ctx, "program_outcome", id)
}

// Edges

func edgeWhere(filter academic.EdgeFilter, source, target, sourceTable string) *where {
	w := &where{}
	w.ids("id", filter.IDs)
	w.ids(source, filter.SourceIDs)
	w.ids(target, filter.TargetIDs)
	if filter.CourseID != 0 {
		w.add(source+" IN (SELECT id FROM "+sourceTable+" WHERE course_id = ?)", filter.CourseID)
	}
	return w
}

func (repo *academicRepository) UpsertAssessmentLink(ctx context.Context, e academic.AssessmentToLO) (academic.AssessmentToLO, error) {
	q := `INSERT INTO assessment_to_lo (assessment_id, learning_outcome_id, weight) VALUES ($1, $2, $3)
		ON CONFLICT (assessment_id, learning_outcome_id) DO UPDATE SET weight = EXCLUDED.weight
		RETURNING ` + assessmentLinkCols
	var link academic.AssessmentToLO
	err := repo.get(ctx, &link, "saving assessment link", q, e.AssessmentID, e.LearningOutcomeID, e.Weight)
	return link, err
}

func (repo *academicRepository) GetAssessmentLink(ctx context.Context, id int64) (academic.AssessmentToLO, error) {
	var link academic.AssessmentToLO
	err := repo.get(ctx, &link, "getting assessment link", `SELECT `+assessmentLinkCols+` FROM assessment_to_lo WHERE id = $1`, id)
	return link, err
}

func (repo *academicRepository) QueryAssessmentLinks(ctx context.Context, filter academic.EdgeFilter) ([]academic.AssessmentToLO, error) {
	w := edgeWhere(filter, "assessment_id", "learning_outcome_id", "assessment")
	links := make([]academic.AssessmentToLO, 0)
	err := repo.sel(ctx, &links, "querying assessment links",
		`SELECT `+assessmentLinkCols+` FROM assessment_to_lo`+w.String()+` ORDER BY id`, w.args...)
	return links, err
}

func (repo *academicRepository) DeleteAssessmentLink(ctx context.Context, id int64) error {
	return repo.del(ctx, "assessment_to_lo", id)
}

func (repo *academicRepository) UpsertOutcomeLink(ctx context.Context, e academic.LOToPO) (academic.LOToPO, error) {
	q := `INSERT INTO lo_to_po (learning_outcome_id, program_outcome_id, weight) VALUES ($1, $2, $3)
		ON CONFLICT (learning_outcome_id, program_outcome_id) DO UPDATE SET weight = EXCLUDED.weight
		RETURNING ` + outcomeLinkCols
	var link academic.LOToPO
	err := repo.get(ctx, &link, "saving outcome link", q, e.LearningOutcomeID, e.ProgramOutcomeID, e.Weight)
	return link, err
}

func (repo *academicRepository) GetOutcomeLink(ctx context.Context, id int64) (academic.LOToPO, error) {
	var link academic.LOToPO
	err := repo.get(ctx, &link, "getting outcome link", `SELECT `+outcomeLinkCols+` FROM lo_to_po WHERE id = $1`, id)
	return link, err
}

func (repo *academicRepository) QueryOutcomeLinks(ctx context.Context, filter academic.EdgeFilter) ([]academic.LOToPO, error) {
	w := edgeWhere(filter, "learning_outcome_id", "program_outcome_id", "learning_outcome")
	links := make([]academic.LOToPO, 0)
	err := repo.sel(ctx, &links, "querying outcome links",
		`SELECT `+outcomeLinkCols+` FROM lo_to_po`+w.String()+` ORDER BY id`, w.args...)
	return links, err
}

func (repo *academicRepository) DeleteOutcomeLink(ctx context.Context, id int64) error {
	return repo.del(ctx, "lo_to_po", id)
}

// Grades

func (repo *academicRepository) UpsertGrade(ctx context.Context, g academic.Grade) (academic.Grade, bool, error) {
	q := `INSERT INTO grade (student_id, course_id, assessment_type, semester, academic_year, grade, percentage, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (student_id, course_id, assessment_type, semester, academic_year)
		DO UPDATE SET grade = EXCLUDED.grade, percentage = EXCLUDED.percentage, created_by = EXCLUDED.created_by,
			updated_at = EXCLUDED.updated_at
		RETURNING ` + gradeCols + `, ` + insertedByUpsert
	var row struct {
		academic.Grade
		Created bool `db:"created"`
	}
	err := repo.get(ctx, &row, "saving grade", q,
		g.StudentID, g.CourseID, g.AssessmentType, g.Semester, g.AcademicYear, g.Grade, g.Percentage, g.CreatedBy, g.CreatedAt, g.UpdatedAt)
	return row.Grade, row.Created, err
}

func (repo *academicRepository) QueryGrades(ctx context.Context, filter academic.GradeFilter) ([]academic.Grade, error) {
	var w where
	if filter.CourseID != 0 {
		w.add("course_id = ?", filter.CourseID)
	}
	if filter.StudentID != 0 {
		w.add("student_id = ?", filter.StudentID)
	}
	grades := make([]academic.Grade, 0)
	err := repo.sel(ctx, &grades, "querying grades", `SELECT `+gradeCols+` FROM grade`+w.String()+` ORDER BY id`, w.args...)
	return grades, err
}
