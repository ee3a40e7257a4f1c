package main

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// validateRequest validates a decoded request body. The returned error lists
// every failing field in a stable order.
func validateRequest(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	details := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		details = append(details, fmt.Sprintf("%s %s", e.Field(), formatValidationError(e)))
	}
	sort.Strings(details)
	return fmt.Errorf("invalid request: %s", strings.Join(details, "; "))
}

func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "required_without":
		return "is required when " + e.Param() + " is empty"
	case "len":
		return "must be " + e.Param() + " characters"
	case "max":
		return "must be at most " + e.Param() + " long"
	case "hexadecimal":
		return "must be hexadecimal"
	default:
		return "is invalid"
	}
}
