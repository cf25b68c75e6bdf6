// Package common contains shared constants and sentinel errors used across
// userkeeper components.
package common

// AuthorizationHeaderName is the HTTP header carrying the session token on
// requests to protected endpoints, in "Bearer <token>" form.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix precedes the session token in the authorization header.
const BearerPrefix = "Bearer "
