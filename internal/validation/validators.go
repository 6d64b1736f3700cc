package validation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/voiceboard/voiceboard/internal/models"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	// Register custom validators for enums
	if err := Validate.RegisterValidation("widget_type", validateWidgetType); err != nil {
		panic(fmt.Sprintf("failed to register widget_type validator: %v", err))
	}
	if err := Validate.RegisterValidation("merge_policy", validateMergePolicy); err != nil {
		panic(fmt.Sprintf("failed to register merge_policy validator: %v", err))
	}
}

// validateWidgetType validates that a string is a valid WidgetType enum value
func validateWidgetType(fl validator.FieldLevel) bool {
	return models.WidgetType(fl.Field().String()).Valid()
}

// validateMergePolicy validates that a string is a recognized data merge policy
func validateMergePolicy(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "", "replace", "merge":
		return true
	default:
		return false
	}
}

// SanitizeText sanitizes text input by trimming whitespace and removing control characters
func SanitizeText(text string) string {
	// Trim whitespace
	text = strings.TrimSpace(text)

	// Remove control characters except newline and tab
	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}

// ValidateWidgetType validates a WidgetType string value
func ValidateWidgetType(value string) error {
	if models.WidgetType(value).Valid() {
		return nil
	}
	names := make([]string, len(models.WidgetTypes))
	for i, t := range models.WidgetTypes {
		names[i] = string(t)
	}
	return fmt.Errorf("invalid widget type: %s (must be one of %s)", value, strings.Join(names, ", "))
}
