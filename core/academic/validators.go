package academic

import (
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/mygithubaccountn/EduPacee/core"
)

var (
	letterGradeTag  = "lettergrade"
	letterGradeText = "grade must be one of " + strings.Join(LetterGrades, ", ")

	assessmentTypeTag  = "assessmenttype"
	assessmentTypeText = "assessment type must be one of " + strings.Join(AssessmentTypes, ", ")
)

// InitValidators registers the academic validation tags on validate.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(letterGradeTag, letterGradeValidation)
	core.RegisterCustomTranslation(validate, translator, letterGradeTag, letterGradeText)

	_ = validate.RegisterValidation(assessmentTypeTag, assessmentTypeValidation)
	core.RegisterCustomTranslation(validate, translator, assessmentTypeTag, assessmentTypeText)
}

func letterGradeValidation(fl validator.FieldLevel) bool {
	return IsLetterGrade(fl.Field().String())
}

func assessmentTypeValidation(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	for _, at := range AssessmentTypes {
		if val == at {
			return true
		}
	}
	return false
}
