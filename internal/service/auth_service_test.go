package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolleave/internal/auth"
	"schoolleave/internal/directory"
	"schoolleave/internal/model"
	"schoolleave/internal/repository"
	"schoolleave/internal/session"
	"schoolleave/internal/testutil"
)

type mockVerifier struct {
	verifyFn func(ctx context.Context, identifier, secret string) (model.Identity, error)
}

func (m *mockVerifier) Verify(ctx context.Context, identifier, secret string) (model.Identity, error) {
	return m.verifyFn(ctx, identifier, secret)
}

func TestAuthService(t *testing.T) {
	ctx := context.Background()

	t.Run("Should open a session and point at the role home", func(t *testing.T) {
		db := testutil.NewDB(t)
		testutil.CreateUser(t, db, model.User{FullName: "Alice", StudentID: "S100", Role: model.RoleStudent, Department: "IT"}, "abc")
		manager := session.NewManager([]byte("k"), time.Hour, 10)
		svc := NewAuthService(auth.NewVerifier(directory.NewLocal(db), nil, nil), manager, repository.NewUserRepository(db))

		res, err := svc.Login(ctx, LoginRequest{StudentID: "S100", Password: "abc"})
		require.NoError(t, err)
		assert.Equal(t, "/student", res.Redirect)
		assert.Equal(t, model.RoleStudent, res.User.Role)

		store := manager.Resume(ctx, res.Token)
		got, ok := store.Current()
		require.True(t, ok)
		assert.Equal(t, "S100", got.Username)

		svc.Logout(ctx, res.Token)
		assert.Equal(t, session.StateUnauthenticated, manager.Resume(ctx, res.Token).Snapshot().State)
	})

	t.Run("Should pass verifier errors through unchanged", func(t *testing.T) {
		manager := session.NewManager([]byte("k"), time.Hour, 10)
		for _, want := range []error{auth.ErrIdentifierNotFound, auth.ErrSecretMismatch, auth.ErrDirectoryUnreachable, auth.ErrRoleNotRecognized} {
			svc := NewAuthService(&mockVerifier{verifyFn: func(context.Context, string, string) (model.Identity, error) {
				return model.Identity{}, want
			}}, manager, nil)
			_, err := svc.Login(ctx, LoginRequest{StudentID: "S100", Password: "abc"})
			assert.ErrorIs(t, err, want)
		}
		assert.Zero(t, manager.Len())
	})

	t.Run("Should describe the caller", func(t *testing.T) {
		db := testutil.NewDB(t)
		u := testutil.CreateUser(t, db, model.User{FullName: "Alice", StudentID: "S100", Role: model.RoleStudent, PhoneNumber: "0812345678"}, "abc")
		svc := NewAuthService(nil, nil, repository.NewUserRepository(db))

		me, err := svc.Me(ctx, u.Identity())
		require.NoError(t, err)
		assert.Equal(t, "Alice", me.FullName)
		assert.Equal(t, "0812345678", me.PhoneNumber)

		remote, err := svc.Me(ctx, model.Identity{ID: 500, Username: "R1", Role: model.RoleTeacher, Department: "IT"})
		require.NoError(t, err)
		assert.Equal(t, "R1", remote.StudentID)
		assert.Equal(t, "IT", remote.Department)
	})
}
