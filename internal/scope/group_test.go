package scope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolleave/internal/model"
)

func TestGroupByMonth(t *testing.T) {
	records := []model.LeaveForm{
		{ID: 1, LeaveDate: "15/02/2025", Status: model.LeavePending},
		{ID: 2, LeaveDate: "03/01/2025", Status: model.LeaveApproved},
		{ID: 3, LeaveDate: "28/02/2025", Status: model.LeavePending},
		{ID: 4, LeaveDate: "bad", Status: model.LeaveRejected},
		{ID: 5, LeaveDate: "01/02/2024", Status: model.LeavePending},
	}

	t.Run("Should group in order of first appearance", func(t *testing.T) {
		groups := GroupByMonth(records)
		require.Len(t, groups, 4)

		assert.Equal(t, "February 2025", groups[0].Label)
		assert.Equal(t, "02/2025", groups[0].Month)
		assert.Equal(t, []uint{1, 3}, ids(groups[0].Records))

		assert.Equal(t, "January 2025", groups[1].Label)
		assert.Equal(t, UndatedLabel, groups[2].Label)
		assert.Equal(t, "February 2024", groups[3].Label)
	})

	t.Run("Should return nothing for no records", func(t *testing.T) {
		assert.Empty(t, GroupByMonth(nil))
	})

	t.Run("Should count pending records", func(t *testing.T) {
		assert.Equal(t, 3, PendingCount(records))
		assert.Equal(t, 0, PendingCount(nil))
	})
}
