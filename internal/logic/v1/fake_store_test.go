package v1

import (
	"context"
	"sync"

	"github.com/duynhne/account-service/internal/core/domain"
)

// fakeStore is a map-backed domain.AccountStore with injectable failures.
type fakeStore struct {
	mu       sync.Mutex
	users    map[string]domain.User
	sessions map[string]string

	err         error // returned by every operation when set
	tokenClash  int   // CreateUserSession reports a duplicate token this many times
	sessionCall int
	prefsCtx    context.Context // context of the last UpdateUserPreferences call
}

var _ domain.AccountStore = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:    map[string]domain.User{},
		sessions: map[string]string{},
	}
}

func (f *fakeStore) AddUser(_ context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if _, ok := f.users[user.Email]; ok {
		return &domain.StoreError{Op: "users.insert", Kind: domain.KindDuplicateKey}
	}
	f.users[user.Email] = *user
	return nil
}

func (f *fakeStore) GetUser(_ context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[email]
	if !ok {
		return nil, &domain.StoreError{Op: "users.find", Kind: domain.KindNotFound}
	}
	return &u, nil
}

func (f *fakeStore) DeleteUser(_ context.Context, email string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	_, ok := f.users[email]
	delete(f.users, email)
	return ok, nil
}

func (f *fakeStore) UpdateUserPreferences(ctx context.Context, email string, preferences map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prefsCtx = ctx
	if f.err != nil {
		return f.err
	}
	u, ok := f.users[email]
	if !ok {
		return &domain.StoreError{Op: "users.update_preferences", Kind: domain.KindNotFound}
	}
	u.Preferences = preferences
	f.users[email] = u
	return nil
}

func (f *fakeStore) CreateUserSession(_ context.Context, userID, jwt string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessionCall++
	if f.err != nil {
		return f.err
	}
	if f.tokenClash > 0 {
		f.tokenClash--
		return &domain.StoreError{Op: "sessions.upsert", Kind: domain.KindDuplicateToken}
	}
	f.sessions[userID] = jwt
	return nil
}

func (f *fakeStore) GetUserSession(_ context.Context, userID string) (*domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	jwt, ok := f.sessions[userID]
	if !ok {
		return nil, &domain.StoreError{Op: "sessions.find", Kind: domain.KindNotFound}
	}
	return &domain.Session{UserID: userID, JWT: jwt}, nil
}

func (f *fakeStore) DeleteUserSessions(_ context.Context, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	_, ok := f.sessions[userID]
	delete(f.sessions, userID)
	return ok, nil
}

func (f *fakeStore) DeleteAccount(ctx context.Context, email string) (bool, error) {
	if _, err := f.DeleteUserSessions(ctx, email); err != nil {
		return false, err
	}
	return f.DeleteUser(ctx, email)
}

func (f *fakeStore) fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}
