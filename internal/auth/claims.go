package auth

import "time"

// Claims is the identity carried inside an access token.
type Claims struct {
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	IssuedAt  time.Time `json:"iat"`
	ExpiresAt time.Time `json:"exp"`
}

// Identity is the {email, name} pair attached to authenticated requests.
type Identity struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Identity returns the identity part of the claims.
func (c *Claims) Identity() Identity {
	return Identity{Email: c.Email, Name: c.Name}
}

// Anonymous is the identity attached to requests when authentication is disabled.
var Anonymous = Identity{Email: "anonymous@localhost", Name: "anonymous"}
