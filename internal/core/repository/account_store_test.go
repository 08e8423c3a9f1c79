package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duynhne/account-service/internal/core/domain"
)

func TestDeleteAccount_RemovesSessions(t *testing.T) {
	store, fx := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.AddUser(ctx, testUser("ned@winterfell.north")))
	require.NoError(t, store.CreateUserSession(ctx, "ned@winterfell.north", "token-1"))

	deleted, err := store.DeleteAccount(ctx, "ned@winterfell.north")
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = store.GetUser(ctx, "ned@winterfell.north")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Zero(t, fx.sessions.Count())
}

func TestDeleteAccount_Missing(t *testing.T) {
	store, _ := newTestStore(t)

	deleted, err := store.DeleteAccount(context.Background(), "nobody@nowhere")

	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestDeleteAccount_SessionFaultKeepsUser(t *testing.T) {
	store, fx := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.AddUser(ctx, testUser("ned@winterfell.north")))
	fx.sessions.FailWrites(errors.New("connection reset"))

	deleted, err := store.DeleteAccount(ctx, "ned@winterfell.north")

	assert.False(t, deleted)
	assert.ErrorIs(t, err, domain.ErrWriteFailed)
	assert.Equal(t, 1, fx.users.Count())
}

func TestOperationsAreCounted(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	ok := storeOperationsTotal.WithLabelValues("users.insert", "ok")
	dup := storeOperationsTotal.WithLabelValues("users.insert", "duplicate_key")
	okBefore, dupBefore := testutil.ToFloat64(ok), testutil.ToFloat64(dup)

	require.NoError(t, store.AddUser(ctx, testUser("ned@winterfell.north")))
	require.Error(t, store.AddUser(ctx, testUser("ned@winterfell.north")))

	assert.Equal(t, okBefore+1, testutil.ToFloat64(ok))
	assert.Equal(t, dupBefore+1, testutil.ToFloat64(dup))
}
