package academic

import (
	"time"

	"github.com/volatiletech/null/v8"
)

// Assessment types of a reporting Grade.
const (
	AssessmentMidterm    = "midterm"
	AssessmentAssignment = "assignment"
	AssessmentProject    = "project"
	AssessmentFinal      = "final"
)

var (
	AssessmentTypes = []string{AssessmentMidterm, AssessmentAssignment, AssessmentProject, AssessmentFinal}
	LetterGrades    = []string{"A+", "A", "A-", "B+", "B", "B-", "C+", "C", "C-", "D", "F"}
)

// IsLetterGrade reports whether g is one of LetterGrades (case sensitive).
func IsLetterGrade(g string) bool {
	for _, lg := range LetterGrades {
		if g == lg {
			return true
		}
	}
	return false
}

type Course struct {
	ID          int64     `json:"id" db:"id"`
	Code        string    `json:"code" db:"code"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Credits     int       `json:"credits" db:"credits"`
	IsLocked    bool      `json:"is_locked" db:"is_locked"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

type Student struct {
	ID             int64     `json:"id" db:"id"`
	UserID         string    `json:"user_id" db:"user_id"`
	StudentID      string    `json:"student_id" db:"student_id"`
	EnrollmentDate time.Time `json:"enrollment_date" db:"enrollment_date"`
	Program        string    `json:"program" db:"program"`
}

type Teacher struct {
	ID         int64  `json:"id" db:"id"`
	UserID     string `json:"user_id" db:"user_id"`
	EmployeeID string `json:"employee_id" db:"employee_id"`
	Department string `json:"department" db:"department"`
}

type BoardMember struct {
	ID          int64  `json:"id" db:"id"`
	UserID      string `json:"user_id" db:"user_id"`
	EmployeeID  string `json:"employee_id" db:"employee_id"`
	Designation string `json:"designation" db:"designation"`
}

type Assessment struct {
	ID             int64     `json:"id" db:"id"`
	CourseID       int64     `json:"course_id" db:"course_id"`
	Name           string    `json:"name" db:"name"`
	WeightInCourse float64   `json:"weight_in_course" db:"weight_in_course"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

type AssessmentGrade struct {
	ID           int64     `json:"id" db:"id"`
	AssessmentID int64     `json:"assessment_id" db:"assessment_id"`
	StudentID    int64     `json:"student_id" db:"student_id"`
	Grade        float64   `json:"grade" db:"grade"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

type LearningOutcome struct {
	ID          int64       `json:"id" db:"id"`
	CourseID    int64       `json:"course_id" db:"course_id"`
	Code        string      `json:"code" db:"code"`
	Description string      `json:"description" db:"description"`
	CreatedBy   null.String `json:"created_by" db:"created_by"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at" db:"updated_at"`
}

type ProgramOutcome struct {
	ID            int64       `json:"id" db:"id"`
	BoardMemberID int64       `json:"board_member_id" db:"board_member_id"`
	Code          string      `json:"code" db:"code"`
	Description   string      `json:"description" db:"description"`
	CreatedBy     null.String `json:"created_by" db:"created_by"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at" db:"updated_at"`
}

// AssessmentToLO is a weighted edge from an Assessment to a LearningOutcome of the same course.
type AssessmentToLO struct {
	ID                int64   `json:"id" db:"id"`
	AssessmentID      int64   `json:"assessment_id" db:"assessment_id"`
	LearningOutcomeID int64   `json:"learning_outcome_id" db:"learning_outcome_id"`
	Weight            float64 `json:"weight" db:"weight"`
}

// LOToPO is a weighted edge from a LearningOutcome to a ProgramOutcome.
type LOToPO struct {
	ID                int64   `json:"id" db:"id"`
	LearningOutcomeID int64   `json:"learning_outcome_id" db:"learning_outcome_id"`
	ProgramOutcomeID  int64   `json:"program_outcome_id" db:"program_outcome_id"`
	Weight            float64 `json:"weight" db:"weight"`
}

// Grade is the reported letter grade of a student for a course term; it does not feed the outcome graph.
type Grade struct {
	ID             int64        `json:"id" db:"id"`
	StudentID      int64        `json:"student_id" db:"student_id"`
	CourseID       int64        `json:"course_id" db:"course_id"`
	AssessmentType string       `json:"assessment_type" db:"assessment_type"`
	Semester       string       `json:"semester" db:"semester"`
	AcademicYear   string       `json:"academic_year" db:"academic_year"`
	Grade          string       `json:"grade" db:"grade"`
	Percentage     null.Float64 `json:"percentage" db:"percentage"`
	CreatedBy      null.String  `json:"created_by" db:"created_by"`
	CreatedAt      time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at" db:"updated_at"`
}

// GradeKey is the natural key Grade upserts are matched on.
type GradeKey struct {
	StudentID      int64
	CourseID       int64
	AssessmentType string
	Semester       string
	AcademicYear   string
}

func (g Grade) Key() GradeKey {
	return GradeKey{
		StudentID:      g.StudentID,
		CourseID:       g.CourseID,
		AssessmentType: g.AssessmentType,
		Semester:       g.Semester,
		AcademicYear:   g.AcademicYear,
	}
}

// Filters. A nil id slice does not filter; a non-nil empty one matches nothing.
type (
	CourseFilter struct {
		IDs       []int64
		StudentID int64 // enrolled
		TeacherID int64 // taught
		IsLocked  *bool
		Search    string // case-insensitive match on code or name
	}

	StudentFilter struct {
		IDs        []int64
		StudentIDs []string // external ids
		CourseID   int64    // enrolled in
	}

	TeacherFilter struct {
		IDs      []int64
		CourseID int64 // teaching
	}

	AssessmentFilter struct {
		IDs      []int64
		CourseID int64
	}

	LearningOutcomeFilter struct {
		IDs      []int64
		CourseID int64
	}

	ProgramOutcomeFilter struct {
		IDs           []int64
		BoardMemberID int64
	}

	// EdgeFilter selects AssessmentToLO or LOToPO edges.
	// CourseID is the course of the source node (assessment or learning outcome).
	EdgeFilter struct {
		IDs       []int64
		SourceIDs []int64
		TargetIDs []int64
		CourseID  int64
	}

	AssessmentGradeFilter struct {
		StudentIDs    []int64
		AssessmentIDs []int64
		CourseID      int64
	}

	GradeFilter struct {
		CourseID  int64
		StudentID int64
	}
)
