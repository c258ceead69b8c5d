package validator

import (
	"reflect"
	"strings"

	"github.com/SAP-F-2025/adaptive-assessment-service/internal/adaptive"
	"github.com/go-playground/validator/v10"
)

const maxEventTypeLength = 50

// Validator is the main validator instance that combines all validation types
type Validator struct {
	structValidator *validator.Validate
}

// New creates a new centralized validator instance
func New() *Validator {
	structValidator := validator.New()

	// Register all custom validators once
	registerCustomValidators(structValidator)

	return &Validator{
		structValidator: structValidator,
	}
}

// ValidateStruct validates struct tags only
func (v *Validator) ValidateStruct(s interface{}) error {
	return v.structValidator.Struct(s)
}

// Validate validates struct tags and converts failures into ValidationErrors
func (v *Validator) Validate(s interface{}) error {
	if err := v.ValidateStruct(s); err != nil {
		if errs := ToValidationErrors(err); len(errs) > 0 {
			return errs
		}
		return err
	}
	return nil
}

// registerCustomValidators registers all custom validation functions
func registerCustomValidators(validate *validator.Validate) {
	// Skill and difficulty share the same closed scale
	validate.RegisterValidation("difficulty_range", validateDifficultyRange)

	validate.RegisterValidation("event_type", validateEventType)

	validate.RegisterValidation("option_list", validateOptionList)

	// Custom tag name function for better error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// Custom validation functions
func validateDifficultyRange(fl validator.FieldLevel) bool {
	var d float64
	switch fl.Field().Kind() {
	case reflect.Float32, reflect.Float64:
		d = fl.Field().Float()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		d = float64(fl.Field().Int())
	default:
		return false
	}
	return d >= adaptive.MinSkill && d <= adaptive.MaxSkill
}

// Unknown event types are accepted and stored; analytics ignores them.
func validateEventType(fl validator.FieldLevel) bool {
	value := strings.TrimSpace(fl.Field().String())
	return value != "" && len(value) <= maxEventTypeLength
}

func validateOptionList(fl validator.FieldLevel) bool {
	if fl.Field().Kind() != reflect.Slice {
		return false
	}
	seen := make(map[string]struct{}, fl.Field().Len())
	for i := 0; i < fl.Field().Len(); i++ {
		option := strings.TrimSpace(fl.Field().Index(i).String())
		if option == "" {
			return false
		}
		if _, dup := seen[option]; dup {
			return false
		}
		seen[option] = struct{}{}
	}
	return true
}
