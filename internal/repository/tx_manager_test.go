package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolleave/internal/model"
	"schoolleave/internal/testutil"
)

func TestTransactionManager(t *testing.T) {
	ctx := context.Background()
	errBoom := errors.New("boom")

	t.Run("Should commit when the callback succeeds", func(t *testing.T) {
		db := testutil.NewDB(t)
		repo := NewUserRepository(db)
		tx := NewTransactionManager(db)

		err := tx.RunInTx(ctx, func(txCtx context.Context) error {
			return repo.Create(txCtx, &model.User{FullName: "A", StudentID: "S1", Password: "x", Role: model.RoleStudent})
		})
		require.NoError(t, err)

		_, err = repo.GetByStudentID(ctx, "S1")
		assert.NoError(t, err)
	})

	t.Run("Should roll back every write when the callback fails", func(t *testing.T) {
		db := testutil.NewDB(t)
		repo := NewUserRepository(db)
		tx := NewTransactionManager(db)

		err := tx.RunInTx(ctx, func(txCtx context.Context) error {
			if err := repo.Create(txCtx, &model.User{FullName: "A", StudentID: "S1", Password: "x", Role: model.RoleStudent}); err != nil {
				return err
			}
			return errBoom
		})
		require.ErrorIs(t, err, errBoom)

		n, err := repo.CountByRole(ctx, model.RoleStudent)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("Should undo only the inner work of a nested failure", func(t *testing.T) {
		db := testutil.NewDB(t)
		repo := NewUserRepository(db)
		tx := NewTransactionManager(db)

		err := tx.RunInTx(ctx, func(txCtx context.Context) error {
			if err := repo.Create(txCtx, &model.User{FullName: "Outer", StudentID: "S1", Password: "x", Role: model.RoleStudent}); err != nil {
				return err
			}
			inner := tx.RunInTx(txCtx, func(innerCtx context.Context) error {
				if err := repo.Create(innerCtx, &model.User{FullName: "Inner", StudentID: "S2", Password: "x", Role: model.RoleStudent}); err != nil {
					return err
				}
				return errBoom
			})
			assert.ErrorIs(t, inner, errBoom)
			return nil
		})
		require.NoError(t, err)

		_, err = repo.GetByStudentID(ctx, "S1")
		assert.NoError(t, err)
		_, err = repo.GetByStudentID(ctx, "S2")
		assert.Error(t, err)
	})
}
