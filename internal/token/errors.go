package token

import "errors"

var (
	// ErrInvalidToken indicates a malformed token, a bad signature, or a
	// wrong issuer.
	ErrInvalidToken = errors.New("token: invalid token")
	// ErrExpiredToken indicates the token was well-formed but past expiry.
	ErrExpiredToken = errors.New("token: expired token")
	// ErrWrongTokenType indicates an access token where a refresh token was
	// required, or vice versa.
	ErrWrongTokenType = errors.New("token: wrong token type")
)
