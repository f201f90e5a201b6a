package validator

import (
	"strings"

	"github.com/amirk1998/recipe-box/pkg/errors"
)

const (
	maxUsernameLength     = 64
	maxTitleLength        = 255
	minInstructionsLength = 50
	maxInstructionsLength = 1048576 // 1MB
)

type Validator struct{}

func New() *Validator {
	return &Validator{}
}

// ValidateUsername checks that a username is present and within bounds
func (v *Validator) ValidateUsername(username string) error {
	if username == "" {
		return errors.NewValidationError("Username is required")
	}

	if len(username) > maxUsernameLength {
		return errors.NewValidationError("Username too long (max 64 characters)")
	}

	return nil
}

// ValidatePassword checks that a password is present
func (v *Validator) ValidatePassword(password string) error {
	if password == "" {
		return errors.NewValidationError("Password is required")
	}

	return nil
}

// ValidateRecipeTitle validates recipe title
func (v *Validator) ValidateRecipeTitle(title string) error {
	if title == "" {
		return errors.NewValidationError("Title must be present")
	}

	if len(title) > maxTitleLength {
		return errors.NewValidationError("Title too long (max 255 characters)")
	}

	return nil
}

// ValidateRecipeInstructions validates recipe instructions length.
// The 50-character floor counts bytes before any at-rest encryption.
func (v *Validator) ValidateRecipeInstructions(instructions string) error {
	if len(instructions) < minInstructionsLength {
		return errors.NewValidationError("Instructions must be at least 50 characters long")
	}

	if len(instructions) > maxInstructionsLength {
		return errors.NewValidationError("Instructions too long (max 1MB)")
	}

	return nil
}

// SanitizeString removes dangerous characters and null bytes
func (v *Validator) SanitizeString(input string) string {
	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	// Trim whitespace
	input = strings.TrimSpace(input)

	return input
}
