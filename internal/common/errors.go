// Package common defines shared constants and sentinel errors used across
// userkeeper components. Callers should use errors.Is to match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEmail = errors.New("duplicate email")

	// Service-level errors (generic/internal flow control).
	ErrInternal = errors.New("internal error")

	// Business-rule errors.
	ErrInvalidEmail       = errors.New("invalid email")
	ErrInvalidPassword    = errors.New("invalid password")
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
)

// BusinessError decorates one of the business-rule sentinels above with a
// machine-readable code and, where applicable, the offending value. The
// transport boundary translates the code into a wire status and message;
// services never branch on the error text.
//
// errors.Is still matches the underlying sentinel through Unwrap.
type BusinessError struct {
	Err   error
	Code  string
	Value string
}

func (e *BusinessError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%s (%s)", e.Err.Error(), e.Code)
	}
	return fmt.Sprintf("%s (%s): %s", e.Err.Error(), e.Code, e.Value)
}

func (e *BusinessError) Unwrap() error { return e.Err }

// InvalidEmail reports that email does not match the configured shape.
func InvalidEmail(email string) error {
	return &BusinessError{Err: ErrInvalidEmail, Code: "user.email.invalid", Value: email}
}

// InvalidPassword reports a password failing the configured strength pattern.
// The raw password is never attached to the error.
func InvalidPassword() error {
	return &BusinessError{Err: ErrInvalidPassword, Code: "user.password.invalid"}
}

// EmailAlreadyExists reports a uniqueness conflict on email.
func EmailAlreadyExists(email string) error {
	return &BusinessError{Err: ErrEmailAlreadyExists, Code: "user.email.exists", Value: email}
}

// InvalidCredentials is returned for both an unknown email and a wrong
// password, so callers cannot tell which one occurred.
func InvalidCredentials() error {
	return &BusinessError{Err: ErrInvalidCredentials, Code: "user.login.invalidCredentials"}
}

// NotFound reports that no account exists for the given identity.
func NotFound(id string) error {
	return &BusinessError{Err: ErrNotFound, Code: "user.notFound", Value: id}
}
