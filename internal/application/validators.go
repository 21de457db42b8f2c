package application

import (
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

// checkNamePattern matches identifiers usable as test, check and hook names.
var checkNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.\-]{0,99}$`)

// registerCustomValidators registers domain-specific validation functions
// with the validator instance.
func registerCustomValidators(v *validator.Validate) error {
	if err := v.RegisterValidation("semver", validateSemver); err != nil {
		return fmt.Errorf("failed to register semver validator: %w", err)
	}
	if err := v.RegisterValidation("checkname", validateCheckName); err != nil {
		return fmt.Errorf("failed to register checkname validator: %w", err)
	}
	return nil
}

// validateSemver validates that a string follows semantic versioning
// format (X.Y.Z where X, Y, Z are non-negative integers).
func validateSemver(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	var major, minor, patch int
	n, err := fmt.Sscanf(value, "%d.%d.%d", &major, &minor, &patch)
	return err == nil && n == 3 && major >= 0 && minor >= 0 && patch >= 0
}

// validateCheckName validates identifiers for tests, checks and hooks.
func validateCheckName(fl validator.FieldLevel) bool {
	return checkNamePattern.MatchString(fl.Field().String())
}
