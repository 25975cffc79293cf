package collateral

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_CreateValidation(t *testing.T) {
	tests := []struct {
		name               string
		liq, bal           int64
		burnFee, rewardFee int64
		wantErr            error
	}{
		{"burn fee at base", 15000, 20000, 10000, 0, ErrInvalidFeeConfig},
		{"reward fee at base", 15000, 20000, 0, 10000, ErrInvalidFeeConfig},
		{"fee sum at base", 15000, 20000, 5000, 5000, ErrInvalidFeeConfig},
		{"negative fee", 15000, 20000, -1, 0, ErrInvalidFeeConfig},
		{"liquidation at base", 10000, 20000, 0, 0, ErrInvalidLiquidationRatio},
		{"liquidation below base", 9000, 20000, 0, 0, ErrInvalidLiquidationRatio},
		{"balance equals liquidation", 15000, 15000, 0, 0, ErrInvalidBalanceRatio},
		{"balance below liquidation", 15000, 14000, 0, 0, ErrInvalidBalanceRatio},
		{"fee fills band", 15000, 20000, 3000, 2000, ErrFeeExceedsBand},
		{"fee exceeds band", 15000, 16000, 900, 200, ErrFeeExceedsBand},
		{"valid", 15000, 20000, 0, 0, nil},
		{"valid with fees", 15000, 20000, 500, 500, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore()
			id, err := s.Create("alice", "debt-1", "AUX", 100, tt.liq, tt.bal, tt.burnFee, tt.rewardFee)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Zero(t, id)
				assert.Zero(t, s.Count())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, int64(1), id)
		})
	}
}

func TestStore_IDsAreSequential(t *testing.T) {
	s := NewStore()

	id1, err := s.Create("alice", "debt-1", "AUX", 100, 15000, 20000, 0, 0)
	require.NoError(t, err)
	id2, err := s.Create("bob", "debt-2", "AUX", 100, 15000, 20000, 0, 0)
	require.NoError(t, err)

	assert.Equal(t, int64(1), id1)
	assert.Equal(t, int64(2), id2)
}

func TestStore_DebtIndexUnique(t *testing.T) {
	s := NewStore()

	id, err := s.Create("alice", "debt-1", "AUX", 100, 15000, 20000, 0, 0)
	require.NoError(t, err)

	_, err = s.Create("bob", "debt-1", "AUX", 50, 15000, 20000, 0, 0)
	assert.ErrorIs(t, err, ErrDebtCollateralized)

	// 删除后索引清空，可以重新建仓
	s.Delete(id)
	assert.Zero(t, s.EntryIDByDebt("debt-1"))

	id2, err := s.Create("bob", "debt-1", "AUX", 50, 15000, 20000, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, id2, s.EntryIDByDebt("debt-1"))
}

func TestStore_GetUnknownIsZeroed(t *testing.T) {
	s := NewStore()

	e := s.Get(42)
	assert.True(t, e.IsZero())
	assert.Zero(t, e.Amount)

	id, err := s.Create("alice", "debt-1", "AUX", 100, 15000, 20000, 0, 0)
	require.NoError(t, err)
	s.Delete(id)
	assert.True(t, s.Get(id).IsZero())
}

func TestStore_OwnershipAndApproval(t *testing.T) {
	s := NewStore()
	id, err := s.Create("alice", "debt-1", "AUX", 100, 15000, 20000, 0, 0)
	require.NoError(t, err)

	assert.Equal(t, "alice", s.Owner(id))
	assert.True(t, s.IsAuthorized(id, "alice"))
	assert.False(t, s.IsAuthorized(id, "carol"))

	// 委托授权
	s.SetApproval("alice", "carol", true)
	assert.True(t, s.IsAuthorized(id, "carol"))
	s.SetApproval("alice", "carol", false)
	assert.False(t, s.IsAuthorized(id, "carol"))

	// 所有权转移: 只有当前所有者能转
	assert.ErrorIs(t, s.TransferOwnership(id, "carol", "bob"), ErrNotAuthorized)
	require.NoError(t, s.TransferOwnership(id, "alice", "bob"))
	assert.Equal(t, "bob", s.Owner(id))
	assert.False(t, s.IsAuthorized(id, "alice"))
	assert.True(t, s.IsAuthorized(id, "bob"))
}

func TestStore_Snapshot(t *testing.T) {
	s := NewStore()
	_, err := s.Create("alice", "debt-1", "AUX", 100, 15000, 20000, 0, 0)
	require.NoError(t, err)
	id2, err := s.Create("bob", "debt-2", "ETH", 50, 12000, 13000, 0, 0)
	require.NoError(t, err)

	snap := s.Snapshot()
	assert.Len(t, snap, 2)

	s.Delete(id2)
	assert.Len(t, s.Snapshot(), 1)
	assert.Equal(t, 1, s.Count())
}
