package security

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirk1998/recipe-box/pkg/errors"
)

func TestDigestSetAndMatch(t *testing.T) {
	ph := NewPasswordHasher()

	var d Digest
	require.NoError(t, d.SetFrom(ph, "secret123"))
	require.False(t, d.IsZero())

	assert.True(t, d.Matches(ph, "secret123"))
	assert.False(t, d.Matches(ph, "secret124"))
	assert.False(t, d.Matches(ph, ""))
}

func TestDigestOverwrite(t *testing.T) {
	ph := NewPasswordHasher()

	var d Digest
	require.NoError(t, d.SetFrom(ph, "first"))
	require.NoError(t, d.SetFrom(ph, "second"))

	assert.False(t, d.Matches(ph, "first"))
	assert.True(t, d.Matches(ph, "second"))
}

func TestDigestEmptyPasswordRejected(t *testing.T) {
	ph := NewPasswordHasher()

	var d Digest
	err := d.SetFrom(ph, "")
	require.Error(t, err)

	_, ok := errors.AsValidation(err)
	assert.True(t, ok, "empty password should be a validation error")
	assert.True(t, d.IsZero(), "failed set must not store anything")
}

func TestDigestMalformedStoredValue(t *testing.T) {
	ph := NewPasswordHasher()

	// A stored value that is not an argon2id encoding must read as a miss,
	// not an error, and must never match the same literal.
	d := DigestFromEncoded("secret")
	assert.False(t, d.Matches(ph, "secret"))
	assert.False(t, d.Matches(ph, "anything"))
}

func TestDigestZeroNeverMatches(t *testing.T) {
	ph := NewPasswordHasher()

	var d Digest
	assert.False(t, d.Matches(ph, ""))
	assert.False(t, d.Matches(ph, "secret123"))
}

func TestDigestNeverSerializes(t *testing.T) {
	ph := NewPasswordHasher()

	var d Digest
	require.NoError(t, d.SetFrom(ph, "secret123"))

	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))

	assert.Equal(t, "Digest(redacted)", d.String())
}

func TestDigestScanRoundTrip(t *testing.T) {
	ph := NewPasswordHasher()

	var d Digest
	require.NoError(t, d.SetFrom(ph, "secret123"))

	v, err := d.Value()
	require.NoError(t, err)

	var restored Digest
	require.NoError(t, restored.Scan(v))
	assert.True(t, restored.Matches(ph, "secret123"))
}
