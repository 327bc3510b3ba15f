package db

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/puoklam/connectly-backend/directory"
	"github.com/puoklam/connectly-backend/env"
)

func newSQLiteStore(t *testing.T) *Store {
	t.Helper()
	conn, err := Open(env.DatabaseConfig{
		Driver:       "sqlite",
		DSN:          "file:" + uuid.NewString() + "?mode=memory&cache=shared",
		MaxOpenConns: 1,
	}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { Close(conn) })
	return NewStore(conn)
}

func seed(t *testing.T, s directory.Store, users ...*directory.User) {
	t.Helper()
	for _, u := range users {
		require.NoError(t, s.Create(context.Background(), u))
	}
}

func ids(users []directory.User) []string {
	var out []string
	for _, u := range users {
		out = append(out, u.ID)
	}
	return out
}

// storeSuite runs against any directory.Store backed by a database.
func storeSuite(t *testing.T, newStore func(t *testing.T) *Store) {
	t.Run("create", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		u := &directory.User{Name: "alice", Email: "alice@example.com", PasswordHash: "hash", Hobbies: []string{"go", " chess", "go"}}
		require.NoError(t, s.Create(ctx, u))
		assert.NotEmpty(t, u.ID)

		got, err := s.FindByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)
		assert.Equal(t, "hash", got.PasswordHash)
		assert.Equal(t, []string{"chess", "go"}, got.Hobbies)
		assert.Empty(t, got.Friends)

		err = s.Create(ctx, &directory.User{Name: "other", Email: "alice@example.com"})
		assert.ErrorIs(t, err, directory.ErrDuplicateEmail)
		err = s.Create(ctx, &directory.User{Name: "alice", Email: "other@example.com"})
		assert.ErrorIs(t, err, directory.ErrDuplicateName)

		seed(t, s, &directory.User{Name: "bob", Email: "bob@example.com"})
		err = s.Create(ctx, &directory.User{Name: "alice", Email: "bob@example.com"})
		assert.ErrorIs(t, err, directory.ErrDuplicateEmail)

		err = s.Create(ctx, &directory.User{Name: " ", Email: "blank@example.com"})
		assert.ErrorIs(t, err, directory.ErrMissingIdentity)

		_, err = s.FindByID(ctx, "missing")
		assert.ErrorIs(t, err, directory.ErrNotFound)
		_, err = s.FindByEmail(ctx, "missing@example.com")
		assert.ErrorIs(t, err, directory.ErrNotFound)
	})

	t.Run("update and hydrate", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		seed(t, s,
			&directory.User{ID: "a", Name: "alice", Email: "a@x.io"},
			&directory.User{ID: "b", Name: "bob", Email: "b@x.io"},
			&directory.User{ID: "c", Name: "carol", Email: "c@x.io"},
		)

		require.NoError(t, s.Update(ctx, []string{"a", "b"}, func(users map[string]*directory.User) error {
			users["a"].AddFriend("b")
			users["b"].AddFriend("a")
			users["a"].AddRequest("c")
			users["b"].SetHobbies([]string{"golf", "chess"})
			return nil
		}))

		a, err := s.FindByID(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, []string{"b"}, a.Friends)
		assert.Equal(t, []string{"c"}, a.FriendRequests)

		b, err := s.FindByID(ctx, "b")
		require.NoError(t, err)
		assert.Equal(t, []string{"a"}, b.Friends)
		assert.Equal(t, []string{"chess", "golf"}, b.Hobbies)

		require.NoError(t, s.Update(ctx, []string{"a", "b"}, func(users map[string]*directory.User) error {
			users["a"].RemoveFriend("b")
			users["b"].RemoveFriend("a")
			users["a"].RemoveRequest("c")
			users["b"].SetHobbies([]string{"chess"})
			return nil
		}))
		a, _ = s.FindByID(ctx, "a")
		b, _ = s.FindByID(ctx, "b")
		assert.Empty(t, a.Friends)
		assert.Empty(t, a.FriendRequests)
		assert.Empty(t, b.Friends)
		assert.Equal(t, []string{"chess"}, b.Hobbies)
	})

	t.Run("update rolls back", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		seed(t, s,
			&directory.User{ID: "a", Name: "alice", Email: "a@x.io"},
			&directory.User{ID: "b", Name: "bob", Email: "b@x.io"},
		)

		boom := errors.New("boom")
		err := s.Update(ctx, []string{"a", "b"}, func(users map[string]*directory.User) error {
			users["a"].AddFriend("b")
			return boom
		})
		assert.ErrorIs(t, err, boom)

		called := false
		err = s.Update(ctx, []string{"a", "ghost"}, func(map[string]*directory.User) error {
			called = true
			return nil
		})
		assert.ErrorIs(t, err, directory.ErrNotFound)
		assert.False(t, called)

		a, _ := s.FindByID(ctx, "a")
		assert.Empty(t, a.Friends)
	})

	t.Run("queries", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		seed(t, s,
			&directory.User{ID: "a", Name: "Alice", Email: "alice@example.com", Hobbies: []string{"chess"}},
			&directory.User{ID: "b", Name: "Bob", Email: "bob@alice.org", Hobbies: []string{"golf"}},
			&directory.User{ID: "c", Name: "Carol_100%", Email: "carol@example.com"},
		)

		users, err := s.FindManyByID(ctx, []string{"c", "ghost", "a"})
		require.NoError(t, err)
		assert.Equal(t, []string{"c", "a"}, ids(users))

		users, err = s.FindManyByID(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, users)

		users, err = s.Search(ctx, "ALICE", "")
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, ids(users))

		users, err = s.Search(ctx, "alice", "a")
		require.NoError(t, err)
		assert.Equal(t, []string{"b"}, ids(users))

		users, err = s.Search(ctx, "_100%", "")
		require.NoError(t, err)
		assert.Equal(t, []string{"c"}, ids(users))

		users, err = s.Search(ctx, "%", "")
		require.NoError(t, err)
		assert.Equal(t, []string{"c"}, ids(users))

		users, err = s.FindWhere(ctx, directory.Query{})
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c"}, ids(users))

		users, err = s.FindWhere(ctx, directory.Query{Exclude: []string{"a"}})
		require.NoError(t, err)
		assert.Equal(t, []string{"b", "c"}, ids(users))

		users, err = s.FindWhere(ctx, directory.Query{Exclude: []string{"b"}, Hobbies: []string{"chess", "golf"}})
		require.NoError(t, err)
		assert.Equal(t, []string{"a"}, ids(users))
		assert.Equal(t, []string{"chess"}, users[0].Hobbies)
	})
}

func TestSQLiteStore(t *testing.T) {
	storeSuite(t, newSQLiteStore)
}
