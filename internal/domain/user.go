package domain

import "strings"

// User is the single account allowed to sign in. It is never exposed by the
// API directly; PasswordHash must stay server side.
type User struct {
	ID           string `json:"id" bson:"_id"`
	Email        string `json:"email" bson:"email"`
	Name         string `json:"name" bson:"name"`
	PasswordHash string `json:"password_hash,omitempty" bson:"password_hash"`
	Timestamps   `bson:",inline"`
}

// NormalizeEmail lower-cases and trims an address for lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
