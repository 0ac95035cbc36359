package service

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/flownco2789-ui/codeai/pkg/phone"
)

// NewValidator returns a validator with the marketplace's custom tags:
//
//	phone       10 or 11 digits once separators are stripped
//	subjects=N  1..N entries, none blank
func NewValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("phone", validatePhone)
	_ = v.RegisterValidation("subjects", validateSubjects)
	return v
}

func validatePhone(fl validator.FieldLevel) bool {
	return phone.Valid(fl.Field().String())
}

func validateSubjects(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() != reflect.Slice {
		return false
	}
	max, err := strconv.Atoi(fl.Param())
	if err != nil || max <= 0 {
		return false
	}
	n := field.Len()
	if n == 0 || n > max {
		return false
	}
	for i := 0; i < n; i++ {
		if strings.TrimSpace(field.Index(i).String()) == "" {
			return false
		}
	}
	return true
}
