// Package errors defines the error kinds surfaced by the catalog.
// Callers branch on them with errors.Is; messages carry the offending value.
package errors

import "errors"

var (
	// ErrDuplicateName is returned when another product already has the name.
	ErrDuplicateName = errors.New("product name already exists")
	// ErrDuplicateSKU is returned when another product already has the SKU.
	ErrDuplicateSKU = errors.New("product SKU already exists")
	// ErrProductNotFound is returned when a mutation targets an unknown ID.
	ErrProductNotFound = errors.New("product not found")
	// ErrInvalidQuantity is returned when a quantity update is negative.
	ErrInvalidQuantity = errors.New("quantity cannot be negative")
)

var (
	// ErrUsernameTaken is returned when registering an existing username.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrEmailTaken is returned when registering an existing email.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials is returned when login fails.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken is returned for a malformed, expired or badly signed token.
	ErrInvalidToken = errors.New("invalid token")
)
