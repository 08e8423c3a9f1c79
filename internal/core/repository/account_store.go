package repository

import (
	"context"

	"github.com/duynhne/account-service/internal/core/domain"
)

var _ domain.AccountStore = (*AccountStore)(nil)

// AccountStore composes the user and session repositories over one set of
// collection handles.
type AccountStore struct {
	*MongoUserRepository
	*MongoSessionRepository
}

// NewAccountStore creates an AccountStore. The handles are injected so the
// store can run against any Collection implementation.
func NewAccountStore(c Collections, policy domain.PreferencesPolicy) *AccountStore {
	return &AccountStore{
		MongoUserRepository:    NewUserRepository(c, policy),
		MongoSessionRepository: NewSessionRepository(c),
	}
}

// DeleteAccount removes the sessions of email, then the account. A failed
// session delete aborts before the account is touched, so the call can be
// retried. The bool reports whether an account was removed.
func (s *AccountStore) DeleteAccount(ctx context.Context, email string) (bool, error) {
	if _, err := s.DeleteUserSessions(ctx, email); err != nil {
		return false, err
	}
	return s.DeleteUser(ctx, email)
}
