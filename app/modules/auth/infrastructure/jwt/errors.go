package authjwt

import "errors"

var (
	// ErrInvalidToken is returned when the token is malformed or invalid.
	ErrInvalidToken = errors.New("invalid token")

	// ErrExpiredToken is returned when the token has expired.
	ErrExpiredToken = errors.New("token has expired")

	// ErrInvalidSignature is returned when the token signature is invalid.
	ErrInvalidSignature = errors.New("invalid token signature")

	// ErrInvalidAudience is returned when the token was minted for another client.
	ErrInvalidAudience = errors.New("invalid token audience")

	// ErrInvalidIssuer is returned when the token issuer does not match.
	ErrInvalidIssuer = errors.New("invalid token issuer")

	// ErrMissingSubject is returned when the token carries no subject.
	ErrMissingSubject = errors.New("token has no subject")
)
