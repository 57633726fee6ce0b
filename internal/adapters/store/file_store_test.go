package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/inbox-digest/internal/core"
)

func seedStore(t *testing.T, users []*core.User) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "users.json")
	data, err := json.MarshalIndent(users, "", "  ")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0600))
	return path
}

func TestFileStoreGetUser(t *testing.T) {
	path := seedStore(t, []*core.User{
		{
			ID: "u1",
			Accounts: []core.Account{
				{ID: "a1", Email: "work@gmail.example.com", Provider: core.ProviderGmail,
					Credentials: json.RawMessage(`{"access_token":"tok"}`)},
			},
		},
	})

	s, err := NewFileStore(path, zap.NewNop())
	require.NoError(t, err)
	defer s.Close()

	user, err := s.GetUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	require.Len(t, user.Accounts, 1)
	assert.Equal(t, core.ProviderGmail, user.Accounts[0].Provider)

	// Returned record is a copy, mutations do not leak back
	user.Accounts[0].Email = "changed@example.com"
	again, err := s.GetUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "work@gmail.example.com", again.Accounts[0].Email)
}

func TestFileStoreUnknownUser(t *testing.T) {
	s, err := NewFileStore(filepath.Join(t.TempDir(), "users.json"), zap.NewNop())
	require.NoError(t, err)
	defer s.Close()

	_, err = s.GetUser(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestFileStoreSetLastOpenAtPersists(t *testing.T) {
	path := seedStore(t, []*core.User{{ID: "u1"}})

	s, err := NewFileStore(path, zap.NewNop())
	require.NoError(t, err)

	opened := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, s.SetLastOpenAt(context.Background(), "u1", opened))
	require.NoError(t, s.Close())

	// A fresh store sees the persisted timestamp
	reopened, err := NewFileStore(path, zap.NewNop())
	require.NoError(t, err)
	defer reopened.Close()

	user, err := reopened.GetUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, user.LastOpenAt.Equal(opened))
}

func TestFileStoreSetLastOpenAtUnknownUser(t *testing.T) {
	s, err := NewFileStore(filepath.Join(t.TempDir(), "users.json"), zap.NewNop())
	require.NoError(t, err)
	defer s.Close()

	err = s.SetLastOpenAt(context.Background(), "missing", time.Now())
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0600))

	_, err := NewFileStore(path, zap.NewNop())
	require.Error(t, err)
}
