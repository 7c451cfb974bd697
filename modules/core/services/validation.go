package services

import "github.com/go-playground/validator/v10"

func validationFields(err error) (map[string]string, bool) {
	fields := map[string]string{}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fields, false
	}
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}
	return fields, true
}
