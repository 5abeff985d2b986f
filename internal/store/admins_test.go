package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"newsroom/internal/model"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAdminStore(t *testing.T) *BadgerAdminStore {
	t.Helper()

	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	db, err := badger.Open(opts)
	require.NoError(t, err)

	st := &BadgerAdminStore{db: db}
	t.Cleanup(st.Close)
	return st
}

func TestBadgerAdminStore_CreateStoresHashOnly(t *testing.T) {
	st := newTestAdminStore(t)
	ctx := context.Background()

	admin, err := model.NewAdmin("Ada", "ada@example.com", "secret")
	require.NoError(t, err)
	require.NoError(t, st.Create(ctx, admin))

	// Inspect the raw record
	err = st.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(adminKey(admin.ID))
		if err != nil {
			return err
		}
		val, _ := item.ValueCopy(nil)

		var rec adminRecord
		require.NoError(t, json.Unmarshal(val, &rec))
		assert.Equal(t, "Ada", rec.Name)
		assert.Equal(t, "ada@example.com", rec.Email)
		assert.NotEqual(t, "secret", rec.Password)
		assert.NotEmpty(t, rec.Password)
		return nil
	})
	require.NoError(t, err)

	got, err := st.Get(ctx, admin.ID)
	require.NoError(t, err)
	assert.True(t, got.CheckPassword("secret"))
	assert.False(t, got.CheckPassword("wrong"))
}

func TestBadgerAdminStore_AssignsID(t *testing.T) {
	st := newTestAdminStore(t)

	admin := &model.Admin{Name: "Bob", PasswordHash: "x"}
	require.NoError(t, st.Create(context.Background(), admin))
	assert.NotEqual(t, uuid.Nil, admin.ID)
}

func TestBadgerAdminStore_GetMissing(t *testing.T) {
	st := newTestAdminStore(t)

	_, err := st.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUnavailableAdminStore(t *testing.T) {
	st := UnavailableAdminStore{Err: errors.New("lock held")}

	err := st.Create(context.Background(), &model.Admin{})
	assert.ErrorIs(t, err, ErrUnavailable)
}
