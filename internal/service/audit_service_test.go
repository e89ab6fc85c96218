package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolleave/internal/model"
	"schoolleave/internal/repository"
	"schoolleave/internal/testutil"
)

func TestAuditService(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	u := testutil.CreateUser(t, db, model.User{FullName: "Root", StudentID: "A1", Role: model.RoleAdmin}, "x")
	repo := repository.NewAuditRepository(db)
	actor := u.Identity()

	require.NoError(t, writeAudit(ctx, repo, &actor, model.ActionApproveLeave, "1", "Alice", map[string]any{"student_id": "S100"}))
	require.NoError(t, writeAudit(ctx, repo, nil, model.ActionDeleteLeave, "2", "Bob", nil))

	svc := NewAuditService(repo)

	t.Run("Should list newest first with actor names", func(t *testing.T) {
		logs, total, err := svc.GetAuditLogs(ctx, repository.AuditFilter{}, 1, 20)
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		require.Len(t, logs, 2)
		assert.Equal(t, "System", logs[0].Username)
		assert.Equal(t, "A1", logs[1].Username)
		assert.JSONEq(t, `{"student_id":"S100"}`, logs[1].Details)
	})

	t.Run("Should filter by action", func(t *testing.T) {
		logs, total, err := svc.GetAuditLogs(ctx, repository.AuditFilter{Action: model.ActionApproveLeave}, 1, 20)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, "1", logs[0].EntityID)
	})
}
