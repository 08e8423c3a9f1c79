package repository

import (
	"testing"

	"github.com/duynhne/account-service/internal/core/domain"
	"github.com/duynhne/account-service/internal/core/storetest"
)

// fixture wires repositories onto in-memory collections.
type fixture struct {
	users    *storetest.Backend
	sessions *storetest.Backend

	usersDefault  *storetest.Collection
	usersMajority *storetest.Collection
	sessionsColl  *storetest.Collection
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	users := storetest.NewBackend(UsersCollection, map[string]string{"email": IndexUserEmail})
	sessions := storetest.NewBackend(SessionsCollection, map[string]string{
		"user_id": IndexSessionUserID,
		"jwt":     IndexSessionToken,
	})
	return &fixture{
		users:         users,
		sessions:      sessions,
		usersDefault:  users.Handle("default"),
		usersMajority: users.Handle("majority"),
		sessionsColl:  sessions.Handle("default"),
	}
}

func (fx *fixture) collections() Collections {
	return Collections{
		Users:        fx.usersDefault,
		DurableUsers: fx.usersMajority,
		Sessions:     fx.sessionsColl,
	}
}

func (fx *fixture) store(policy domain.PreferencesPolicy) *AccountStore {
	return NewAccountStore(fx.collections(), policy)
}

func newTestStore(t *testing.T) (*AccountStore, *fixture) {
	t.Helper()
	fx := newFixture(t)
	return fx.store(domain.PreferencesRequireUser), fx
}
