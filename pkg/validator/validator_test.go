package validator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateUsername(t *testing.T) {
	v := New()

	assert.NoError(t, v.ValidateUsername("alice"))
	assert.Error(t, v.ValidateUsername(""))
	assert.Error(t, v.ValidateUsername(strings.Repeat("a", 65)))
}

func TestValidatePassword(t *testing.T) {
	v := New()

	assert.NoError(t, v.ValidatePassword("secret123"))
	assert.Error(t, v.ValidatePassword(""))
}

func TestValidateRecipeTitle(t *testing.T) {
	v := New()

	assert.NoError(t, v.ValidateRecipeTitle("Shakshuka"))
	assert.Error(t, v.ValidateRecipeTitle(""))
	assert.Error(t, v.ValidateRecipeTitle(strings.Repeat("x", 256)))
}

func TestValidateRecipeInstructionsBoundary(t *testing.T) {
	v := New()

	// 49 characters is rejected, 50 is accepted
	assert.Error(t, v.ValidateRecipeInstructions(strings.Repeat("a", 49)))
	assert.NoError(t, v.ValidateRecipeInstructions(strings.Repeat("a", 50)))
}

func TestSanitizeString(t *testing.T) {
	v := New()

	assert.Equal(t, "alice", v.SanitizeString("  alice  "))
	assert.Equal(t, "bob", v.SanitizeString("bob\x00"))
}
