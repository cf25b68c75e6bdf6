// Package security implements one-way credential hashing for account
// passwords using bcrypt. The produced hash embeds its own salt and cost
// parameters, so verification needs no extra state.
package security

import "golang.org/x/crypto/bcrypt"

// HashPassword hashes rawPassword with bcrypt at the default cost.
// Two calls with the same input produce different hashes (random salt).
func HashPassword(rawPassword string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(rawPassword), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword reports whether rawPassword matches hash. A malformed
// hash yields false, never an error; the comparison itself is constant-time
// inside bcrypt.
func VerifyPassword(rawPassword, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(rawPassword)) == nil
}
