// Package auth issues and verifies signed, time-limited session tokens
// bound to an account identity. Tokens are stateless HS256 JWTs: the
// subject carries the account email and a custom claim carries the id.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dmpavlov/userkeeper/internal/common"
)

// Claims bundles the registered claims with the account identity.
type Claims struct {
	jwt.RegisteredClaims
	AccountID string `json:"account_id"`
}

// GenerateToken mints a token for the given account, expiring after
// validityDuration. The jti claim carries a random nonce so two tokens
// issued for the same account are never byte-identical.
func GenerateToken(accountID, email string, secretKey []byte, validityDuration time.Duration) (string, error) {
	nonce, err := common.MakeRandHexString(16)
	if err != nil {
		return "", err
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			ID:        nonce,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		AccountID: accountID,
	})

	return token.SignedString(secretKey)
}

// ValidateToken reports whether tokenString carries a valid signature and
// has not expired. It is total: any parse, signature, or format failure
// yields false, never an error.
func ValidateToken(tokenString string, secretKey []byte) bool {
	_, err := parseClaims(tokenString, secretKey)
	return err == nil
}

// SubjectFromToken extracts the email embedded in the token. Callers are
// expected to have already validated the token; a malformed or
// unverifiable one fails with common.ErrInvalidToken.
func SubjectFromToken(tokenString string, secretKey []byte) (string, error) {
	claims, err := parseClaims(tokenString, secretKey)
	if err != nil {
		return "", common.ErrInvalidToken
	}
	return claims.Subject, nil
}

// AccountIDFromToken extracts the account identity embedded in the token.
func AccountIDFromToken(tokenString string, secretKey []byte) (string, error) {
	claims, err := parseClaims(tokenString, secretKey)
	if err != nil {
		return "", common.ErrInvalidToken
	}
	return claims.AccountID, nil
}

func parseClaims(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
