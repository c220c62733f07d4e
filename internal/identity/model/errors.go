package model

import "errors"

var (
	// ErrUserNotFound indicates that the requested user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidCredentials indicates that the supplied username/password pair is wrong.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrUserInactive indicates that the account exists but may not authenticate.
	ErrUserInactive = errors.New("user is inactive")
	// ErrSessionNotFound indicates that no session exists for the given token.
	ErrSessionNotFound = errors.New("session not found")
	// ErrInvalidLogin indicates that an external identity entry has an empty login identifier.
	ErrInvalidLogin = errors.New("login identifier must not be empty")
)
