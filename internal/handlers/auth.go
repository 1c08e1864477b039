package handlers

import (
	"crypto/subtle"

	"golang.org/x/crypto/bcrypt"
)

// Authenticator checks the single configured login. When passwordHash is set
// it takes precedence over the plaintext password.
type Authenticator struct {
	username     string
	password     string
	passwordHash string
}

func NewAuthenticator(username, password, passwordHash string) *Authenticator {
	return &Authenticator{username: username, password: password, passwordHash: passwordHash}
}

func (a *Authenticator) Check(username, password string) bool {
	if a.username == "" || username == "" {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) == 1

	var passOK bool
	switch {
	case a.passwordHash != "":
		passOK = bcrypt.CompareHashAndPassword([]byte(a.passwordHash), []byte(password)) == nil
	case a.password != "":
		passOK = subtle.ConstantTimeCompare([]byte(password), []byte(a.password)) == 1
	}

	return userOK && passOK
}
