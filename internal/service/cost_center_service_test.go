package service

import (
	"context"
	"testing"

	"github.com/AgungSukaAFK/ga-web-sub000/internal/model"
	"github.com/AgungSukaAFK/ga-web-sub000/internal/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestCostCenterCreate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cc, err := env.ccSvc.Create(ctx, admin, &CreateCostCenterRequest{
		Code:          " cc-it-001 ",
		Name:          "Operasional IT",
		CompanyCode:   "SUB000",
		InitialBudget: 50000000,
	})
	require.NoError(t, err)
	assert.Equal(t, "cc-it-001", cc.Code)
	assert.Equal(t, int64(50000000), cc.CurrentBudget)

	_, err = env.ccSvc.Create(ctx, admin, &CreateCostCenterRequest{
		Code: "CC-NEG", Name: "Minus", InitialBudget: -1,
	})
	var verr *workflow.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestBudgetAdjustmentIsAdminOnlyWithReason(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	cc := env.seedCostCenter(t, 10000000)

	_, err := env.ccSvc.ApplyAdjustment(ctx, purchaser, cc.ID, 500000, "top up")
	var aerr *workflow.AuthorizationError
	require.ErrorAs(t, err, &aerr)

	_, err = env.ccSvc.ApplyAdjustment(ctx, admin, cc.ID, 500000, "  ")
	var verr *workflow.ValidationError
	require.ErrorAs(t, err, &verr)

	_, err = env.ccSvc.ApplyAdjustment(ctx, admin, cc.ID, 0, "noop")
	require.ErrorAs(t, err, &verr)

	row, err := env.ccSvc.ApplyAdjustment(ctx, admin, cc.ID, -2500000, "correction after stock opname")
	require.NoError(t, err)
	assert.Equal(t, model.LedgerKindAdjustment, row.Kind)
	assert.Equal(t, int64(7500000), row.NewBudget)
	assert.Nil(t, row.MRID)

	after, err := env.ccSvc.Get(cc.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(7500000), after.CurrentBudget)
}

// A budget may legitimately go negative; the ledger records it and the
// balance stays consistent with the row history.
func TestBudgetMayGoNegative(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	cc := env.seedCostCenter(t, 1000000)

	row, err := env.ccSvc.ApplyAdjustment(ctx, admin, cc.ID, -1500000, "emergency purchase")
	require.NoError(t, err)
	assert.Equal(t, int64(-500000), row.NewBudget)

	after, err := env.ccSvc.Get(cc.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(-500000), after.CurrentBudget)
}

func TestLedgerHistoryNewestFirst(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	cc := env.seedCostCenter(t, 10000000)

	_, err := env.ccSvc.ApplyAdjustment(ctx, admin, cc.ID, 1000000, "first")
	require.NoError(t, err)
	_, err = env.ccSvc.ApplyAdjustment(ctx, admin, cc.ID, 2000000, "second")
	require.NoError(t, err)

	rows, err := env.ccSvc.History(cc.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "second", rows[0].Description)
	assert.Equal(t, "first", rows[1].Description)

	// running balance is reconstructable from the rows alone
	assert.Equal(t, int64(13000000), rows[0].NewBudget)
	assert.Equal(t, int64(11000000), rows[1].NewBudget)
}

// Debits for different MRs against one cost center must all land on the
// balance. The write is relative, so the second debit cannot overwrite the
// first even when neither saw the other's snapshot, and the cached balance
// always equals the initial budget plus the ledger sum.
func TestDebitsForDifferentMRsAccumulate(t *testing.T) {
	env := newTestEnv(t)
	cc := env.seedCostCenter(t, 50000000)

	mr1 := &workflow.MaterialRequest{
		ID: "mr-debit-1", KodeMR: "IT-HO-0001", CostCenterID: cc.ID,
		CostEstimation: 10000000, CreatedBy: requester.ID,
	}
	mr2 := &workflow.MaterialRequest{
		ID: "mr-debit-2", KodeMR: "IT-HO-0002", CostCenterID: cc.ID,
		CostEstimation: 5000000, CreatedBy: requester.ID,
	}

	// both debits ride one transaction, so neither can re-read a committed
	// balance; only relative writes keep them from losing each other
	err := env.db.Transaction(func(tx *gorm.DB) error {
		if err := env.ccSvc.DebitForMR(tx, mr1); err != nil {
			return err
		}
		return env.ccSvc.DebitForMR(tx, mr2)
	})
	require.NoError(t, err)

	after, err := env.ccSvc.Get(cc.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(35000000), after.CurrentBudget)

	rows, err := env.ccSvc.History(cc.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	var sum int64
	snapshots := make([]int64, 0, len(rows))
	for _, r := range rows {
		sum += r.ChangeAmount
		snapshots = append(snapshots, r.NewBudget)
	}
	assert.Equal(t, after.CurrentBudget, after.InitialBudget+sum)
	assert.ElementsMatch(t, []int64{40000000, 35000000}, snapshots)
}

// Multiple adjustment rows never collide on the ledger index; only the
// (mr_id, mr_debit) pair is unique.
func TestAdjustmentsDoNotCollideOnLedgerIndex(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	cc := env.seedCostCenter(t, 10000000)

	for i := 0; i < 3; i++ {
		_, err := env.ccSvc.ApplyAdjustment(ctx, admin, cc.ID, 100000, "monthly top up")
		require.NoError(t, err)
	}

	rows, err := env.ccSvc.History(cc.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}
