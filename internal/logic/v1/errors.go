// Package v1 provides account and session business logic for API version 1.
//
// Error Handling:
// This package defines sentinel errors that represent common authentication failures.
// Store failures are wrapped so that both the logic sentinel and the
// underlying domain error stay reachable through errors.Is.
//
// Example Usage:
//
//	if errors.Is(err, domain.ErrNotFound) {
//	    return nil, fmt.Errorf("authenticate user %q: %w", email, ErrUserNotFound)
//	}
//
// Error Checking (in handlers):
//
//	switch {
//	case errors.Is(err, logicv1.ErrUserExists):
//	    c.JSON(http.StatusConflict, gin.H{"error": "Account already exists"})
//	case errors.Is(err, logicv1.ErrStoreUnavailable):
//	    c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Try again later"})
//	}
package v1

import (
	"errors"
	"fmt"

	"github.com/duynhne/account-service/internal/core/domain"
)

// Sentinel errors for account and session operations.
var (
	// ErrInvalidCredentials indicates the provided credentials are incorrect.
	// HTTP Status: 401 Unauthorized
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUserNotFound indicates the user does not exist in the system.
	// HTTP Status: 401 Unauthorized on login (don't reveal user existence), 404 otherwise
	ErrUserNotFound = errors.New("user not found")

	// ErrUserExists indicates the email is already registered.
	// HTTP Status: 409 Conflict
	ErrUserExists = errors.New("user already exists")

	// ErrSessionNotFound indicates the token does not match the user's current session.
	// HTTP Status: 401 Unauthorized
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionExpired indicates the session token has expired.
	// HTTP Status: 401 Unauthorized
	ErrSessionExpired = errors.New("session expired")

	// ErrInvalidToken indicates the token is malformed or its signature is wrong.
	// HTTP Status: 401 Unauthorized
	ErrInvalidToken = errors.New("invalid token")

	// ErrStoreUnavailable indicates a transient store failure; the request may be retried.
	// HTTP Status: 503 Service Unavailable
	ErrStoreUnavailable = errors.New("store unavailable")
)

// storeFailure wraps an unexpected store error, tagging transient ones
// with ErrStoreUnavailable.
func storeFailure(op string, err error) error {
	if errors.Is(err, domain.ErrWriteFailed) || errors.Is(err, domain.ErrReadFailed) {
		return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
