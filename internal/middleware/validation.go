package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"simulacred/simulation-portal/simulation-portal-backend/pkg/formatters"
)

// RegisterValidators adds the custom binding tags used by request structs:
// cpf, phone_br and cep.
func RegisterValidators() error {
	engine, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
	}

	tags := map[string]validator.Func{
		"cpf": func(fl validator.FieldLevel) bool {
			return formatters.ValidateCPF(fl.Field().String())
		},
		"phone_br": func(fl validator.FieldLevel) bool {
			return formatters.ValidatePhone(fl.Field().String())
		},
		"cep": func(fl validator.FieldLevel) bool {
			return fl.Field().String() == "" || formatters.ValidateCEP(fl.Field().String())
		},
	}
	for tag, fn := range tags {
		if err := engine.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("failed to register %s validator: %w", tag, err)
		}
	}
	return nil
}
