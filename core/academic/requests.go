package academic

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mygithubaccountn/EduPacee/core"
)

const defaultCredits = 3

// NewCourse contains information needed to create a new Course.
type NewCourse struct {
	Code        string `json:"code" validate:"required,max=20,code"`
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description"`
	Credits     int    `json:"credits" validate:"min=1,max=10"`
}

func (nc *NewCourse) Validate(validate *validator.Validate) error {
	nc.Code = core.CleanString(nc.Code)
	nc.Name = core.CleanString(nc.Name)
	nc.Description = core.CleanString(nc.Description)
	if nc.Credits == 0 {
		nc.Credits = defaultCredits
	}
	return validate.Struct(nc)
}

// UpdateCourse defines what information may be provided to modify an existing Course.
// Empty fields keep their current value.
type UpdateCourse struct {
	Code        string  `json:"code" validate:"omitempty,max=20,code"`
	Name        string  `json:"name" validate:"omitempty,max=200"`
	Description *string `json:"description"`
	Credits     int     `json:"credits" validate:"omitempty,min=1,max=10"`
}

func (uc *UpdateCourse) Validate(orig Course, validate *validator.Validate) error {
	if code := core.CleanString(uc.Code); code != "" {
		uc.Code = code
	} else {
		uc.Code = orig.Code
	}
	if name := core.CleanString(uc.Name); name != "" {
		uc.Name = name
	} else {
		uc.Name = orig.Name
	}
	if uc.Description != nil {
		desc := core.CleanString(*uc.Description)
		uc.Description = &desc
	} else {
		uc.Description = &orig.Description
	}
	if uc.Credits == 0 {
		uc.Credits = orig.Credits
	}
	return validate.Struct(uc)
}

// OutcomeData creates or updates a LearningOutcome or a ProgramOutcome.
type OutcomeData struct {
	Code        string `json:"code" validate:"required,max=20,code"`
	Description string `json:"description" validate:"required"`
}

func (od *OutcomeData) Validate(validate *validator.Validate) error {
	od.Code = core.CleanString(od.Code)
	od.Description = core.CleanString(od.Description)
	return validate.Struct(od)
}

// AssessmentData creates or updates an Assessment.
type AssessmentData struct {
	Name           string   `json:"name" validate:"required,max=200"`
	WeightInCourse *float64 `json:"weight_in_course" validate:"required,min=0,max=1"`
}

func (ad *AssessmentData) Validate(validate *validator.Validate) error {
	ad.Name = core.CleanString(ad.Name)
	return validate.Struct(ad)
}

type AssessmentGradeData struct {
	AssessmentID int64    `json:"assessment_id" validate:"required"`
	StudentID    int64    `json:"student_id" validate:"required"`
	Grade        *float64 `json:"grade" validate:"required,min=0,max=100"`
}

func (gd *AssessmentGradeData) Validate(validate *validator.Validate) error {
	return validate.Struct(gd)
}

type AssessmentLinkData struct {
	AssessmentID      int64    `json:"assessment_id" validate:"required"`
	LearningOutcomeID int64    `json:"learning_outcome_id" validate:"required"`
	Weight            *float64 `json:"weight" validate:"required,min=0"`
}

func (ld *AssessmentLinkData) Validate(validate *validator.Validate) error {
	return validate.Struct(ld)
}

type OutcomeLinkData struct {
	LearningOutcomeID int64    `json:"learning_outcome_id" validate:"required"`
	ProgramOutcomeID  int64    `json:"program_outcome_id" validate:"required"`
	Weight            *float64 `json:"weight" validate:"required,min=0"`
}

func (ld *OutcomeLinkData) Validate(validate *validator.Validate) error {
	return validate.Struct(ld)
}

// GradeData creates or updates the reporting Grade identified by its natural key.
type GradeData struct {
	StudentID      int64    `json:"student_id" validate:"required"`
	AssessmentType string   `json:"assessment_type" validate:"assessmenttype"`
	Semester       string   `json:"semester" validate:"required,max=20"`
	AcademicYear   string   `json:"academic_year" validate:"required,academicyear"`
	Grade          string   `json:"grade" validate:"required,lettergrade"`
	Percentage     *float64 `json:"percentage" validate:"omitempty,min=0,max=100"`
}

func (gd *GradeData) Validate(validate *validator.Validate) error {
	gd.AssessmentType = core.CleanString(gd.AssessmentType, true /* lower */)
	if gd.AssessmentType == "" {
		gd.AssessmentType = AssessmentFinal
	}
	gd.Semester = core.CleanString(gd.Semester)
	gd.AcademicYear = core.CleanString(gd.AcademicYear)
	gd.Grade = strings.ToUpper(core.CleanString(gd.Grade))
	return validate.Struct(gd)
}

// ProfileData creates the profile that gives a user their Role.
// ExternalID is the student id for students and the employee id otherwise;
// Detail is the program, department or designation.
type ProfileData struct {
	Kind       RoleKind `json:"kind" validate:"required,oneof=student teacher academic_board"`
	ExternalID string   `json:"external_id" validate:"required,max=20,code"`
	Detail     string   `json:"detail" validate:"max=100"`
}

func (pd *ProfileData) Validate(validate *validator.Validate) error {
	pd.ExternalID = core.CleanString(pd.ExternalID)
	pd.Detail = core.CleanString(pd.Detail)
	return validate.Struct(pd)
}
