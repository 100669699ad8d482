package validator

import (
	"github.com/go-playground/validator/v10"

	"github.com/quakemap/internal/domain"
)

var validate *validator.Validate

// SortFields lists the event list orderings.
var SortFields = map[string]bool{
	"time":      true,
	"magnitude": true,
	"distance":  true,
}

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("feedkey", validateFeedKey)
	_ = validate.RegisterValidation("sortfield", validateSortField)
}

// Validate validates a struct by its tags.
func Validate(s interface{}) error {
	return validate.Struct(s)
}

// GetValidator exposes the shared instance for custom rules.
func GetValidator() *validator.Validate {
	return validate
}

func validateFeedKey(fl validator.FieldLevel) bool {
	v := fl.Field().String()
	if v == "" {
		return true
	}
	_, err := domain.ParseFeedKey(v)
	return err == nil
}

func validateSortField(fl validator.FieldLevel) bool {
	v := fl.Field().String()
	return v == "" || SortFields[v]
}
