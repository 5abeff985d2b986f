package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"newsroom/internal/model"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

const gcInterval = 5 * time.Minute

// adminRecord is the on-disk shape; unlike model.Admin it carries the hash.
type adminRecord struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Password string    `json:"password"`
}

func adminKey(id uuid.UUID) []byte {
	return []byte("admin:" + id.String())
}

// BadgerAdminStore persists administrators in their own Badger database.
type BadgerAdminStore struct {
	db *badger.DB
}

func NewBadgerAdminStore(path string) (*BadgerAdminStore, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // Silence default logger
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}
	return &BadgerAdminStore{db: db}, nil
}

func (s *BadgerAdminStore) Close() {
	if s.db != nil {
		s.db.Close()
	}
}

func (s *BadgerAdminStore) Create(ctx context.Context, admin *model.Admin) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if admin.ID == uuid.Nil {
		admin.ID = uuid.New()
	}

	data, err := json.Marshal(adminRecord{
		ID:       admin.ID,
		Name:     admin.Name,
		Email:    admin.Email,
		Password: admin.PasswordHash,
	})
	if err != nil {
		return err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(adminKey(admin.ID), data)
	})
	if err != nil {
		return fmt.Errorf("create admin: %w: %w", ErrUnavailable, err)
	}
	return nil
}

// Get loads one administrator, hash included.
func (s *BadgerAdminStore) Get(ctx context.Context, id uuid.UUID) (*model.Admin, error) {
	var rec adminRecord
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(adminKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if err == badger.ErrKeyNotFound {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("get admin: %w: %w", ErrUnavailable, err)
	}

	return &model.Admin{
		ID:           rec.ID,
		Name:         rec.Name,
		Email:        rec.Email,
		PasswordHash: rec.Password,
	}, nil
}

// RunGC reclaims value log space every few minutes until ctx is done.
func (s *BadgerAdminStore) RunGC(ctx context.Context) {
	ticker := time.NewTicker(gcInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// ErrNoRewrite just means there was nothing worth collecting.
			for s.db.RunValueLogGC(0.7) == nil {
			}
		}
	}
}

// UnavailableAdminStore stands in when the admin database could not be opened.
type UnavailableAdminStore struct {
	Err error
}

func (s UnavailableAdminStore) Create(context.Context, *model.Admin) error {
	return fmt.Errorf("create admin: %w: %w", ErrUnavailable, s.Err)
}
