package validation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/benvon/portfolio-api/internal/models"
	"github.com/go-playground/validator/v10"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	// Report JSON field names in errors so issue paths match the request body
	Validate.RegisterTagNameFunc(jsonFieldName)

	if err := Validate.RegisterValidation("submission_status", validateSubmissionStatus); err != nil {
		panic(fmt.Sprintf("failed to register submission_status validator: %v", err))
	}
}

// validateSubmissionStatus validates that a string is a valid SubmissionStatus enum value
func validateSubmissionStatus(fl validator.FieldLevel) bool {
	return models.SubmissionStatus(fl.Field().String()).Valid()
}

// SanitizeText removes control characters other than newline, carriage return
// and tab. Surrounding whitespace is kept: lengths are counted on the text as
// submitted.
func SanitizeText(text string) string {
	var sanitized strings.Builder
	sanitized.Grow(len(text))
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\r' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}

// ValidateSubmissionStatus validates a SubmissionStatus string value
func ValidateSubmissionStatus(value string) error {
	if err := Validate.Var(value, "required,submission_status"); err == nil {
		return nil
	}
	return fmt.Errorf("invalid status: %s (must be 'unread', 'read', or 'archived')", value)
}
