package lecture

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/coursehub/core"
)

var (
	levelTag  = "lecturelevel"
	levelText = "level must be one of: member_basic, member_intermediate, master_common, master"

	cohortRequiredTag  = "mastercohort"
	cohortRequiredText = "master lectures must have a cohort number"
)

func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(levelTag, levelValidation)
	core.RegisterCustomTranslation(validate, translator, levelTag, levelText)

	validate.RegisterStructValidation(lectureStructValidation, NewLecture{}, UpdateLecture{})
	core.RegisterCustomTranslation(validate, translator, cohortRequiredTag, cohortRequiredText)
}

func levelValidation(fl validator.FieldLevel) bool {
	return Level(fl.Field().String()).IsValid()
}

// lectureStructValidation does struct level validation on NewLecture and UpdateLecture structs.
func lectureStructValidation(sl validator.StructLevel) {
	switch lec := sl.Current().Interface().(type) {
	case NewLecture:
		validateCohort(lec.Level, lec.CohortNumber, sl)
	case UpdateLecture:
		validateCohort(lec.Level, lec.CohortNumber, sl)
	}
}

// validateCohort checks that a master lecture carries a cohort number.
func validateCohort(lvl Level, cohort *int, sl validator.StructLevel) {
	if lvl == LevelMaster && cohort == nil {
		sl.ReportError(cohort, "cohort_number", "CohortNumber", cohortRequiredTag, "")
	}
}
