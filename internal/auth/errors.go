package auth

import "errors"

var (
	// ErrEmailAlreadyExists indicates the email is already registered.
	ErrEmailAlreadyExists = errors.New("email already exists")
	// ErrInvalidCredentials is returned when authentication fails.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserNotFound signals that no account is registered for the email.
	ErrUserNotFound = errors.New("user not registered")
	// ErrUnauthorized represents a missing or invalid bearer token or session.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidRefreshToken is returned when a refresh token is unknown, revoked or expired.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
)
