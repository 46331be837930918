package auth

import (
	"crypto/subtle"

	"golang.org/x/crypto/bcrypt"
)

// Credentials checks a login attempt against the configured admin.
type Credentials struct {
	Admin Admin
	hash  []byte
}

// NewCredentials binds the admin identity to its bcrypt hash.
func NewCredentials(id int64, username, passwordHash string) *Credentials {
	return &Credentials{
		Admin: Admin{ID: id, Username: username},
		hash:  []byte(passwordHash),
	}
}

// Check reports whether username and password match.  The bcrypt compare
// runs even for an unknown username so timing does not reveal it.
func (c *Credentials) Check(username, password string) (Admin, bool) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(c.Admin.Username)) == 1
	passOK := bcrypt.CompareHashAndPassword(c.hash, []byte(password)) == nil
	if !userOK || !passOK {
		return Admin{}, false
	}
	return c.Admin, true
}
