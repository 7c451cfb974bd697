package dtos

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/iota-uz/tenantguard/pkg/constants"
)

// BootstrapRegisterDTO is the whole registration payload. Any role field a client sends is dropped on decode.
type BootstrapRegisterDTO struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Name     string `json:"name" validate:"required,max=255"`
}

func (d *BootstrapRegisterDTO) Ok() (map[string]string, bool) {
	return validationErrors(d)
}

type LoginDTO struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (d *LoginDTO) Ok() (map[string]string, bool) {
	return validationErrors(d)
}

type TenantStatusDTO struct {
	Status string `json:"status" validate:"required,oneof=active suspended inactive"`
}

func (d *TenantStatusDTO) Ok() (map[string]string, bool) {
	return validationErrors(d)
}

func validationErrors(v interface{}) (map[string]string, bool) {
	errorMessages := map[string]string{}
	errs := constants.Validate.Struct(v)
	if errs == nil {
		return errorMessages, true
	}
	verrs, ok := errs.(validator.ValidationErrors)
	if !ok {
		errorMessages["_"] = errs.Error()
		return errorMessages, false
	}
	for _, err := range verrs {
		errorMessages[err.Field()] = fmt.Sprintf("%s failed on %s", err.Field(), err.Tag())
	}
	return errorMessages, len(errorMessages) == 0
}
