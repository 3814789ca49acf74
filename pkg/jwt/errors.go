package jwt

import "errors"

var (
	// ErrInvalidToken is returned when the token is malformed or invalid.
	ErrInvalidToken = errors.New("invalid token")

	// ErrExpiredToken is returned when the token has expired.
	ErrExpiredToken = errors.New("token has expired")

	// ErrInvalidSignature is returned when the token signature is invalid.
	ErrInvalidSignature = errors.New("invalid token signature")

	// ErrUnknownRole is returned for a token whose role is neither player nor audience.
	ErrUnknownRole = errors.New("unknown room role")

	// ErrRoomMismatch is returned when a token is presented for another room.
	ErrRoomMismatch = errors.New("token issued for another room")
)
