// Package common defines shared constants and sentinel errors used across
// client and server layers of Paperstand. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Service-level errors.
	ErrInternal   = errors.New("internal error")
	ErrUpstream   = errors.New("upstream error")
	ErrValidation = errors.New("validation error")

	// Authorization errors.
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// Uniqueness violations (duplicate email or username).
	ErrConflict = errors.New("already exists")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrRefreshTokenExpired = errors.New("refresh token expired")
	ErrTokenExpired        = errors.New("token expired")

	// Relay errors. ErrConnectionGone marks a delivery attempt against a
	// websocket session that has already closed; the caller is expected to
	// prune the stale connection row.
	ErrConnectionGone = errors.New("connection gone")
)
