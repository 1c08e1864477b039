package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestAuthenticatorPlaintext(t *testing.T) {
	a := NewAuthenticator("admin", "secret", "")

	assert.True(t, a.Check("admin", "secret"))
	assert.False(t, a.Check("admin", "wrong"))
	assert.False(t, a.Check("root", "secret"))
	assert.False(t, a.Check("", ""))
}

func TestAuthenticatorHash(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	a := NewAuthenticator("admin", "ignored", string(hash))
	assert.True(t, a.Check("admin", "s3cret"))
	assert.False(t, a.Check("admin", "ignored"))
}

func TestAuthenticatorWithoutPassword(t *testing.T) {
	a := NewAuthenticator("admin", "", "")
	assert.False(t, a.Check("admin", ""))
}
