package program

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/coursehub/core"
)

var (
	programTypeTag  = "programtype"
	programTypeText = "type must be one of: member, master"
)

func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(programTypeTag, programTypeValidation)
	core.RegisterCustomTranslation(validate, translator, programTypeTag, programTypeText)
}

func programTypeValidation(fl validator.FieldLevel) bool {
	return Type(fl.Field().String()).IsValid()
}
