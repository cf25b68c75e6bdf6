package models

import "time"

// Account is a registered user and its credentials/metadata.
//
// PasswordHash always holds the output of the credential hasher; raw
// passwords are never persisted. Token carries the most recently issued
// session token, refreshed on every successful login.
type Account struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Active       bool
	Token        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	LastLogin    time.Time
	Phones       []Phone
}

// Phone is a contact number owned by exactly one Account. Phones have no
// lifecycle of their own: they are created, replaced, and destroyed with
// their account. ID is assigned by the store and is irrelevant to callers.
type Phone struct {
	ID          int64
	Number      string
	CityCode    string
	CountryCode string
}
