package services

import "errors"

// Domain errors surfaced to the request boundary. Controllers map each
// of these to a 400 response with the error's message; anything else is
// treated as an internal failure.
var (
	// ErrDuplicateEmail covers both the pre-check and the storage
	// layer's unique-constraint violation when two activations race.
	ErrDuplicateEmail = errors.New("email already exists")

	// ErrInvalidCredentials merges "no such user" and "wrong password"
	// so responses cannot be used to enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrInvalidCode means the submitted activation code does not match
	// the one embedded in the activation token.
	ErrInvalidCode = errors.New("invalid activation code")

	// ErrSessionNotFound means no live session entry exists for the
	// user; it covers logout-then-refresh and natural TTL expiry alike.
	ErrSessionNotFound = errors.New("session not found, please login again")

	// ErrDelivery means the activation mail could not be sent. The
	// token was already issued but is never persisted, so the candidate
	// simply restarts registration.
	ErrDelivery = errors.New("could not send activation email")

	// ErrUserNotFound is returned by UserStore lookups. It never
	// reaches clients directly on the login path.
	ErrUserNotFound = errors.New("user not found")
)
