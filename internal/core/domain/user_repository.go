package domain

import "context"

// User is an account record stored in the users collection.
// Email is the unique key and never changes after creation.
// Password holds an already-hashed credential.
type User struct {
	Email       string         `bson:"email" json:"email"`
	Name        string         `bson:"name" json:"name"`
	Password    string         `bson:"password" json:"-"`
	Preferences map[string]any `bson:"preferences,omitempty" json:"preferences,omitempty"`
}

// PreferencesPolicy decides what UpdateUserPreferences does when no
// account matches the given email.
type PreferencesPolicy int

const (
	// PreferencesRequireUser fails with ErrNotFound. Accounts are only
	// ever created by AddUser.
	PreferencesRequireUser PreferencesPolicy = iota

	// PreferencesUpsert inserts a sparse {email, preferences} document.
	// A mistyped email then silently creates a stub record.
	PreferencesUpsert
)

// String returns the configuration name of the policy.
func (p PreferencesPolicy) String() string {
	switch p {
	case PreferencesUpsert:
		return "upsert"
	default:
		return "require_user"
	}
}

// UserRepository defines the data-access contract for account records.
// Implementations live in internal/core/repository (Core layer).
// The Logic layer depends on this interface, never on the driver directly.
type UserRepository interface {
	// AddUser inserts a new account with majority write acknowledgment.
	// Returns ErrDuplicateKey when the email is already registered.
	AddUser(ctx context.Context, user *User) error

	// GetUser returns the account matching the given email.
	// Returns ErrNotFound when no account exists.
	GetUser(ctx context.Context, email string) (*User, error)

	// DeleteUser removes the account matching the given email.
	// Returns (false, nil) when there was nothing to delete.
	DeleteUser(ctx context.Context, email string) (bool, error)

	// UpdateUserPreferences replaces the preferences of the account as a whole.
	UpdateUserPreferences(ctx context.Context, email string, preferences map[string]any) error
}
