package domain

import (
	"context"
	"time"
)

// Session is the single tracked session of a user.
type Session struct {
	UserID   string    `bson:"user_id" json:"user_id"`
	JWT      string    `bson:"jwt" json:"jwt"`
	IssuedAt time.Time `bson:"issued_at,omitempty" json:"issued_at,omitempty"`
}

// SessionRepository defines the data-access contract for session operations.
// Implementations live in internal/core/repository (Core layer).
type SessionRepository interface {
	// CreateUserSession stores jwt as the session of userID, replacing any
	// previous token in one atomic upsert.
	// Returns ErrDuplicateToken when another user already holds jwt.
	CreateUserSession(ctx context.Context, userID, jwt string) error

	// GetUserSession returns the session of userID.
	// Returns ErrNotFound when the user has no session.
	GetUserSession(ctx context.Context, userID string) (*Session, error)

	// DeleteUserSessions removes every session of userID.
	// Returns (false, nil) when the user had none.
	DeleteUserSessions(ctx context.Context, userID string) (bool, error)
}

// AccountStore is the combined users + sessions contract consumed by the
// Logic layer.
type AccountStore interface {
	UserRepository
	SessionRepository

	// DeleteAccount removes the sessions of email and then the account itself.
	DeleteAccount(ctx context.Context, email string) (bool, error)
}
