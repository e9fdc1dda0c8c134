package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("Abcdef1!")
	require.NoError(t, err)
	assert.NotEqual(t, "Abcdef1!", hash)

	ok, err := VerifyPassword("Abcdef1!", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("Abcdef1?", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashPasswordIsSalted(t *testing.T) {
	first, err := HashPassword("Abcdef1!")
	require.NoError(t, err)
	second, err := HashPassword("Abcdef1!")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestVerifyPasswordRejectsGarbageHash(t *testing.T) {
	_, err := VerifyPassword("Abcdef1!", "plaintext")
	assert.Error(t, err)
}
