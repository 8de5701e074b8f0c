package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/co-intel-labs/labs-1.0/internal/models"
	"github.com/go-playground/validator/v10"
)

// ValidationError represents a single field validation failure
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
	Rule    string      `json:"rule,omitempty"`
}

type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}
	if len(ve) == 1 {
		return fmt.Sprintf("validation failed: %s %s", ve[0].Field, ve[0].Message)
	}
	return fmt.Sprintf("validation failed: %d field errors", len(ve))
}

// Validator wraps go-playground validation with the domain enum tags registered
type Validator struct {
	validate *validator.Validate
	business *BusinessValidator
}

func New() *Validator {
	validate := validator.New()
	registerDomainTags(validate)

	return &Validator{
		validate: validate,
		business: NewBusinessValidator(),
	}
}

func (v *Validator) GetBusinessValidator() *BusinessValidator {
	return v.business
}

// Validate validates struct tags and returns nil when s is valid
func (v *Validator) Validate(s interface{}) ValidationErrors {
	return ToValidationErrors(v.validate.Struct(s))
}

// ToValidationErrors converts go-playground errors into ValidationErrors
func ToValidationErrors(err error) ValidationErrors {
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return ValidationErrors{{Field: "request", Message: err.Error(), Rule: "invalid"}}
	}

	out := make(ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, ValidationError{
			Field:   toSnakeCase(fe.Field()),
			Message: errorMessage(fe),
			Value:   fe.Value(),
			Rule:    fe.Tag(),
		})
	}
	return out
}

func registerDomainTags(validate *validator.Validate) {
	oneOf := func(allowed ...string) validator.Func {
		return func(fl validator.FieldLevel) bool {
			value := fl.Field().String()
			for _, a := range allowed {
				if value == a {
					return true
				}
			}
			return false
		}
	}

	validate.RegisterValidation("lab_category", oneOf(
		string(models.CategoryAIML),
		string(models.CategoryDataScience),
		string(models.CategoryPython),
		string(models.CategoryWebDevelopment),
		string(models.CategoryDevOps),
	))
	validate.RegisterValidation("lab_level", oneOf(
		string(models.LevelBeginner),
		string(models.LevelIntermediate),
		string(models.LevelAdvanced),
	))
	validate.RegisterValidation("lab_type", oneOf(
		string(models.LabTypeCourse),
		string(models.LabTypeCertification),
		string(models.LabTypeProject),
	))
	validate.RegisterValidation("user_role", func(fl validator.FieldLevel) bool {
		return models.UserRole(fl.Field().String()).IsValid()
	})
	validate.RegisterValidation("user_status", oneOf(
		string(models.UserStatusNew),
		string(models.UserStatusVerified),
		string(models.UserStatusActive),
		string(models.UserStatusDisabled),
	))
	validate.RegisterValidation("allocation_status", oneOf(
		string(models.AllocationAssigned),
		string(models.AllocationInProgress),
		string(models.AllocationCompleted),
		string(models.AllocationOverdue),
	))

	// 1-168 hours
	validate.RegisterValidation("expiration_hours", func(fl validator.FieldLevel) bool {
		hours := fl.Field().Int()
		return hours >= 1 && hours <= models.MaxExpirationHours
	})
}

func errorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", err.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", err.Param())
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "lab_category":
		return "must be one of AI/ML, Data Science, Python, Web Development, DevOps"
	case "lab_level":
		return "must be Beginner, Intermediate, or Advanced"
	case "lab_type":
		return "must be course, certification, or project"
	case "user_role":
		return "must be a valid user role"
	case "user_status":
		return "must be a valid user status"
	case "allocation_status":
		return "must be a valid allocation status"
	case "expiration_hours":
		return fmt.Sprintf("must be between 1 and %d hours", models.MaxExpirationHours)
	default:
		return fmt.Sprintf("validation failed for rule '%s'", err.Tag())
	}
}

func toSnakeCase(s string) string {
	runes := []rune(s)
	isUpper := func(r rune) bool { return r >= 'A' && r <= 'Z' }

	var b strings.Builder
	for i, r := range runes {
		if isUpper(r) {
			// Acronyms stay together: UserID -> user_id
			if i > 0 && (!isUpper(runes[i-1]) || (i+1 < len(runes) && !isUpper(runes[i+1]))) {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
