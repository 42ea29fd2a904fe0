package service

import (
	"context"
	"testing"
	"time"

	"github.com/AgungSukaAFK/ga-web-sub000/internal/model"
	"github.com/AgungSukaAFK/ga-web-sub000/internal/repository"
	"github.com/AgungSukaAFK/ga-web-sub000/internal/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestMaterialRequestLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	cc := env.seedCostCenter(t, 100000000)

	view := env.createMR(t)
	assert.Equal(t, workflow.MRStatusPendingValidation, view.Status)
	assert.Equal(t, "IT-HO-0001", view.KodeMR)
	assert.Equal(t, int64(2*15000000+5*150000), view.CostEstimation)
	assert.Equal(t, 1, view.Version)
	for _, it := range view.Orders {
		assert.Equal(t, workflow.ItemStatusPending, it.Status)
	}

	view = env.validateMR(t, view.ID, cc.ID)
	assert.Equal(t, workflow.MRStatusPendingApproval, view.Status)
	assert.Equal(t, cc.ID, view.CostCenterID)
	require.Len(t, view.Approvals, 2)

	mid, err := env.mrSvc.Approve(ctx, approverA, view.ID, &ApproveMRRequest{Note: "checked"})
	require.NoError(t, err)
	assert.Equal(t, workflow.MRStatusPendingApproval, mid.Status)
	assert.Equal(t, workflow.ApprovalStatusApproved, mid.Approvals[0].Status)

	final, err := env.mrSvc.Approve(ctx, approverB, view.ID, &ApproveMRRequest{})
	require.NoError(t, err)
	assert.Equal(t, workflow.MRStatusWaitingPO, final.Status)

	// the last approval debits the cost center exactly once
	ccAfter, err := env.ccSvc.Get(cc.ID)
	require.NoError(t, err)
	assert.Equal(t, cc.CurrentBudget-final.CostEstimation, ccAfter.CurrentBudget)

	ledger, err := env.ccSvc.History(cc.ID)
	require.NoError(t, err)
	require.Len(t, ledger, 1)
	assert.Equal(t, model.LedgerKindMRDebit, ledger[0].Kind)
	assert.Equal(t, -final.CostEstimation, ledger[0].ChangeAmount)
	require.NotNil(t, ledger[0].MRID)
	assert.Equal(t, final.ID, *ledger[0].MRID)

	history, err := env.mrSvc.StateHistory(view.ID)
	require.NoError(t, err)
	// created state is implicit: validation and final approval each record one
	require.Len(t, history, 2)
}

func TestApproveOutOfOrderIsDenied(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	cc := env.seedCostCenter(t, 100000000)

	view := env.createMR(t)
	env.validateMR(t, view.ID, cc.ID)

	_, err := env.mrSvc.Approve(ctx, approverB, view.ID, &ApproveMRRequest{})
	var aerr *workflow.AuthorizationError
	require.ErrorAs(t, err, &aerr)

	// no slot was consumed by the failed attempt
	reread, err := env.mrSvc.Get(view.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.ApprovalStatusPending, reread.Approvals[1].Status)
}

func TestFirstRejectionIsTerminal(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	cc := env.seedCostCenter(t, 100000000)

	view := env.createMR(t)
	env.validateMR(t, view.ID, cc.ID)

	rejected, err := env.mrSvc.Reject(ctx, approverA, view.ID, "budget tidak tersedia")
	require.NoError(t, err)
	assert.Equal(t, workflow.MRStatusRejected, rejected.Status)
	assert.Equal(t, workflow.ApprovalStatusRejected, rejected.Approvals[0].Status)
	assert.Equal(t, workflow.ApprovalStatusPending, rejected.Approvals[1].Status)

	// nothing may act on a terminal document
	_, err = env.mrSvc.Approve(ctx, approverB, view.ID, &ApproveMRRequest{})
	var cerr *workflow.ConflictError
	require.ErrorAs(t, err, &cerr)

	// no debit fired on the rejected path
	ledger, err := env.ccSvc.History(cc.ID)
	require.NoError(t, err)
	assert.Empty(t, ledger)
}

func TestRejectRequiresNote(t *testing.T) {
	env := newTestEnv(t)
	cc := env.seedCostCenter(t, 100000000)
	view := env.createMR(t)
	env.validateMR(t, view.ID, cc.ID)

	_, err := env.mrSvc.Reject(context.Background(), approverA, view.ID, "  ")
	var verr *workflow.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestEditTravelsWithApproval(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	cc := env.seedCostCenter(t, 100000000)

	view := env.createMR(t)
	env.validateMR(t, view.ID, cc.ID)

	orders := []workflow.OrderItem{
		{Name: "Laptop", Qty: 1, UOM: "unit", EstimasiHarga: 15000000},
	}
	edited, err := env.mrSvc.Approve(ctx, approverA, view.ID, &ApproveMRRequest{
		Note: "reduced to one unit",
		Edit: &UpdateMRRequest{Orders: &orders},
	})
	require.NoError(t, err)

	// the edit and the decision landed in the same save
	assert.Equal(t, int64(15000000), edited.CostEstimation)
	assert.Equal(t, workflow.ApprovalStatusApproved, edited.Approvals[0].Status)

	final, err := env.mrSvc.Approve(ctx, approverB, view.ID, &ApproveMRRequest{})
	require.NoError(t, err)

	// the debit uses the edited estimation
	ccAfter, err := env.ccSvc.Get(cc.ID)
	require.NoError(t, err)
	assert.Equal(t, cc.CurrentBudget-final.CostEstimation, ccAfter.CurrentBudget)
	assert.Equal(t, int64(15000000), final.CostEstimation)
}

func TestBudgetDebitFiresExactlyOnce(t *testing.T) {
	env := newTestEnv(t)
	cc := env.seedCostCenter(t, 100000000)

	view := env.createMR(t)
	env.validateMR(t, view.ID, cc.ID)
	final := env.approveMRFully(t, view.ID)

	// a retried trigger for the same MR hits the unique ledger index
	err := env.db.Transaction(func(tx *gorm.DB) error {
		return env.ccSvc.DebitForMR(tx, final.MaterialRequest)
	})
	var cerr *workflow.ConflictError
	require.ErrorAs(t, err, &cerr)

	ccAfter, err := env.ccSvc.Get(cc.ID)
	require.NoError(t, err)
	assert.Equal(t, cc.CurrentBudget-final.CostEstimation, ccAfter.CurrentBudget)

	ledger, err := env.ccSvc.History(cc.ID)
	require.NoError(t, err)
	assert.Len(t, ledger, 1)
}

func TestCompareAndSwapRejectsStaleVersion(t *testing.T) {
	env := newTestEnv(t)
	view := env.createMR(t)

	remarks := "first writer wins"
	_, err := env.mrSvc.Update(context.Background(), requester, view.ID, &UpdateMRRequest{Remarks: &remarks})
	require.NoError(t, err)

	// a writer still holding version 1 must not overwrite version 2
	stale, err := encodeMR(view.MaterialRequest, 1)
	require.NoError(t, err)
	err = env.mrRepo.CompareAndSwap(nil, stale, 1)
	var cerr *workflow.ConflictError
	require.ErrorAs(t, err, &cerr)

	reread, err := env.mrSvc.Get(view.ID)
	require.NoError(t, err)
	assert.Equal(t, remarks, reread.Remarks)
}

func TestValidateRequiresChainAndCostCenter(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	cc := env.seedCostCenter(t, 100000000)
	view := env.createMR(t)

	_, err := env.mrSvc.Validate(ctx, purchaser, view.ID, &ValidateMRRequest{CostCenterID: cc.ID})
	var verr *workflow.ValidationError
	require.ErrorAs(t, err, &verr)

	_, err = env.mrSvc.Validate(ctx, purchaser, view.ID, &ValidateMRRequest{
		CostCenterID: "missing-cc",
		Entries:      twoStepEntries(),
	})
	require.ErrorAs(t, err, &verr)

	// the requester role may not validate at all
	_, err = env.mrSvc.Validate(ctx, requester, view.ID, &ValidateMRRequest{
		CostCenterID: cc.ID,
		Entries:      twoStepEntries(),
	})
	var aerr *workflow.AuthorizationError
	require.ErrorAs(t, err, &aerr)
}

func TestValidateFromTemplate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	cc := env.seedCostCenter(t, 100000000)
	view := env.createMR(t)

	tpl, err := env.templateSvc.Create(ctx, admin, &SaveTemplateRequest{
		Name:    "IT standard",
		Entries: twoStepEntries(),
	})
	require.NoError(t, err)

	validated, err := env.mrSvc.Validate(ctx, purchaser, view.ID, &ValidateMRRequest{
		CostCenterID: cc.ID,
		TemplateID:   tpl.ID,
	})
	require.NoError(t, err)
	require.Len(t, validated.Approvals, 2)
	for _, e := range validated.Approvals {
		assert.Equal(t, workflow.ApprovalStatusPending, e.Status)
	}
}

func TestRejectValidationReturnsToRequester(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	view := env.createMR(t)

	_, err := env.mrSvc.RejectValidation(ctx, purchaser, view.ID, "")
	var verr *workflow.ValidationError
	require.ErrorAs(t, err, &verr)

	rejected, err := env.mrSvc.RejectValidation(ctx, purchaser, view.ID, "item tidak jelas")
	require.NoError(t, err)
	assert.Equal(t, workflow.MRStatusRejected, rejected.Status)
	require.NotEmpty(t, rejected.Discussions)
	assert.True(t, rejected.Discussions[len(rejected.Discussions)-1].System)
}

func TestDeleteOnlyRequesterBeforeValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	cc := env.seedCostCenter(t, 100000000)

	view := env.createMR(t)
	err := env.mrSvc.Delete(ctx, purchaser, view.ID)
	var aerr *workflow.AuthorizationError
	require.ErrorAs(t, err, &aerr)

	require.NoError(t, env.mrSvc.Delete(ctx, requester, view.ID))

	second := env.createMR(t)
	env.validateMR(t, second.ID, cc.ID)
	err = env.mrSvc.Delete(ctx, requester, second.ID)
	require.ErrorAs(t, err, &aerr)
}

func TestUpdateItemStatusTransitions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	view := env.createMR(t)

	_, err := env.mrSvc.UpdateItemStatus(ctx, requester, view.ID, &UpdateItemStatusRequest{
		ItemIndex: 0, Status: workflow.ItemStatusOnProcess,
	})
	var aerr *workflow.AuthorizationError
	require.ErrorAs(t, err, &aerr)

	// Pending cannot jump straight to Fulfilled
	_, err = env.mrSvc.UpdateItemStatus(ctx, purchaser, view.ID, &UpdateItemStatusRequest{
		ItemIndex: 0, Status: workflow.ItemStatusFulfilled,
	})
	var verr *workflow.ValidationError
	require.ErrorAs(t, err, &verr)

	updated, err := env.mrSvc.UpdateItemStatus(ctx, purchaser, view.ID, &UpdateItemStatusRequest{
		ItemIndex: 0, Status: workflow.ItemStatusOnProcess,
	})
	require.NoError(t, err)
	assert.Equal(t, workflow.ItemStatusOnProcess, updated.Orders[0].Status)

	// cancelling requires an explanation
	_, err = env.mrSvc.UpdateItemStatus(ctx, purchaser, view.ID, &UpdateItemStatusRequest{
		ItemIndex: 0, Status: workflow.ItemStatusCancelled,
	})
	require.ErrorAs(t, err, &verr)

	cancelled, err := env.mrSvc.UpdateItemStatus(ctx, purchaser, view.ID, &UpdateItemStatusRequest{
		ItemIndex: 0, Status: workflow.ItemStatusCancelled, StatusNote: "discontinued",
	})
	require.NoError(t, err)
	assert.Equal(t, workflow.ItemStatusCancelled, cancelled.Orders[0].Status)
	assert.Equal(t, "discontinued", cancelled.Orders[0].StatusNote)
}

// Settling the last open line item promotes the document from Waiting PO to
// Pending BAST, from where the requester closes it.
func TestGoodsReceiptPromotesToPendingBAST(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	cc := env.seedCostCenter(t, 100000000)

	view := env.createMR(t)
	env.validateMR(t, view.ID, cc.ID)
	env.approveMRFully(t, view.ID)

	_, err := env.mrSvc.UpdateItemStatus(ctx, purchaser, view.ID, &UpdateItemStatusRequest{
		ItemIndex: 0, Status: workflow.ItemStatusOnProcess,
	})
	require.NoError(t, err)
	partial, err := env.mrSvc.UpdateItemStatus(ctx, purchaser, view.ID, &UpdateItemStatusRequest{
		ItemIndex: 0, Status: workflow.ItemStatusFulfilled,
	})
	require.NoError(t, err)
	// one item still open, the document keeps waiting
	assert.Equal(t, workflow.MRStatusWaitingPO, partial.Status)

	// a cancelled item counts as settled too
	settled, err := env.mrSvc.UpdateItemStatus(ctx, purchaser, view.ID, &UpdateItemStatusRequest{
		ItemIndex: 1, Status: workflow.ItemStatusCancelled, StatusNote: "no longer needed",
	})
	require.NoError(t, err)
	assert.Equal(t, workflow.MRStatusPendingBAST, settled.Status)

	history, err := env.mrSvc.StateHistory(view.ID)
	require.NoError(t, err)
	promoted := false
	for _, h := range history {
		if h.FromStatus == string(workflow.MRStatusWaitingPO) && h.ToStatus == string(workflow.MRStatusPendingBAST) {
			promoted = true
		}
	}
	assert.True(t, promoted)

	closed, err := env.mrSvc.CloseWithBAST(ctx, requester, view.ID, &workflow.Attachment{
		Name: "bast.pdf", Path: view.KodeMR + "/bast.pdf",
	})
	require.NoError(t, err)
	assert.Equal(t, workflow.MRStatusCompleted, closed.Status)
}

func TestCloseWithBASTCascadesToLinkedPOs(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	cc := env.seedCostCenter(t, 100000000)

	view := env.createMR(t)
	env.validateMR(t, view.ID, cc.ID)
	env.approveMRFully(t, view.ID)

	mrItem := 0
	poView, err := env.poSvc.Create(ctx, purchaser, &CreatePORequest{
		MRID: view.ID,
		Items: []workflow.POItem{
			{Name: "Laptop", Qty: 2, UOM: "unit", Price: 14500000, MRItem: &mrItem},
		},
		TaxMode:    workflow.TaxModePercent,
		TaxPercent: 11,
		TujuanSite: "HO",
	})
	require.NoError(t, err)
	assert.Equal(t, view.KodeMR, poView.KodeMR)

	// the linkage moved the matched item to On Process and stamped the PO code
	linked, err := env.mrSvc.Get(view.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.ItemStatusOnProcess, linked.Orders[0].Status)
	assert.Contains(t, linked.Orders[0].PORefs, poView.KodePO)
	assert.Equal(t, workflow.ItemStatusPending, linked.Orders[1].Status)

	// an in-flight PO blocks the close, and the whole close rolls back
	_, err = env.mrSvc.CloseWithBAST(ctx, requester, view.ID, &workflow.Attachment{
		Name: "bast.pdf", Path: view.KodeMR + "/bast.pdf",
	})
	var casc *workflow.CascadeError
	require.ErrorAs(t, err, &casc)
	assert.Contains(t, casc.Failed, poView.KodePO)

	unchanged, err := env.mrSvc.Get(view.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.MRStatusWaitingPO, unchanged.Status)
	assert.Empty(t, unchanged.Attachments)

	// walk the PO to a closable state
	_, err = env.poSvc.Validate(ctx, purchaser, poView.ID, &ValidatePORequest{
		Entries: []workflow.TemplateEntry{
			{UserID: approverA.ID, Name: approverA.Name, Type: workflow.ApprovalTypeMenyetujui},
		},
	})
	require.NoError(t, err)
	_, err = env.poSvc.Approve(ctx, approverA, poView.ID, "ok")
	require.NoError(t, err)

	closed, err := env.mrSvc.CloseWithBAST(ctx, requester, view.ID, &workflow.Attachment{
		Name: "bast.pdf", Path: view.KodeMR + "/bast.pdf",
	})
	require.NoError(t, err)
	assert.Equal(t, workflow.MRStatusCompleted, closed.Status)
	require.Len(t, closed.Attachments, 1)
	assert.Equal(t, "bast", closed.Attachments[0].Type)

	// the linked PO was completed in the same transaction
	poAfter, err := env.poSvc.Get(poView.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.POStatusCompleted, poAfter.Status)
}

func TestCloseWithBASTSkipsRejectedPOs(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	cc := env.seedCostCenter(t, 100000000)

	view := env.createMR(t)
	env.validateMR(t, view.ID, cc.ID)
	env.approveMRFully(t, view.ID)

	poView, err := env.poSvc.Create(ctx, purchaser, &CreatePORequest{
		MRID: view.ID,
		Items: []workflow.POItem{
			{Name: "Laptop", Qty: 2, UOM: "unit", Price: 14500000},
		},
		TujuanSite: "HO",
	})
	require.NoError(t, err)
	_, err = env.poSvc.RejectValidation(ctx, purchaser, poView.ID, "wrong vendor")
	require.NoError(t, err)

	closed, err := env.mrSvc.CloseWithBAST(ctx, requester, view.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, workflow.MRStatusCompleted, closed.Status)

	// rejected POs are left untouched by the cascade
	poAfter, err := env.poSvc.Get(poView.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.POStatusRejected, poAfter.Status)
}

func TestCloseWithBASTOnlyRequester(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	cc := env.seedCostCenter(t, 100000000)

	view := env.createMR(t)
	env.validateMR(t, view.ID, cc.ID)
	env.approveMRFully(t, view.ID)

	// even the administrator cannot close somebody else's document
	_, err := env.mrSvc.CloseWithBAST(ctx, admin, view.ID, nil)
	var aerr *workflow.AuthorizationError
	require.ErrorAs(t, err, &aerr)

	_, err = env.mrSvc.CloseWithBAST(ctx, purchaser, view.ID, nil)
	require.ErrorAs(t, err, &aerr)
}

func TestReassignCostCenterIsAdminOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	cc := env.seedCostCenter(t, 100000000)
	other, err := env.ccSvc.Create(ctx, admin, &CreateCostCenterRequest{
		Code: "CC-OTHER", Name: "Cadangan", InitialBudget: 50000000,
	})
	require.NoError(t, err)

	view := env.createMR(t)
	env.validateMR(t, view.ID, cc.ID)

	_, err = env.mrSvc.ReassignCostCenter(ctx, purchaser, view.ID, &ReassignCostCenterRequest{
		CostCenterID: other.ID, Reason: "salah input",
	})
	var aerr *workflow.AuthorizationError
	require.ErrorAs(t, err, &aerr)

	reassigned, err := env.mrSvc.ReassignCostCenter(ctx, admin, view.ID, &ReassignCostCenterRequest{
		CostCenterID: other.ID, Reason: "salah input",
	})
	require.NoError(t, err)
	assert.Equal(t, other.ID, reassigned.CostCenterID)
	require.NotEmpty(t, reassigned.Discussions)
	assert.True(t, reassigned.Discussions[len(reassigned.Discussions)-1].System)
}

func TestDiscussionAndAttachments(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	view := env.createMR(t)

	_, err := env.mrSvc.AddDiscussion(ctx, requester, view.ID, " ")
	var verr *workflow.ValidationError
	require.ErrorAs(t, err, &verr)

	withMsg, err := env.mrSvc.AddDiscussion(ctx, approverA, view.ID, "mohon detail spesifikasi")
	require.NoError(t, err)
	require.Len(t, withMsg.Discussions, 1)
	assert.False(t, withMsg.Discussions[0].System)

	att := workflow.Attachment{Name: "penawaran.pdf", Path: view.KodeMR + "/penawaran.pdf", Type: "po"}
	withAtt, err := env.mrSvc.AddAttachment(ctx, purchaser, view.ID, att)
	require.NoError(t, err)
	require.Len(t, withAtt.Attachments, 1)

	_, err = env.mrSvc.RemoveAttachment(ctx, purchaser, view.ID, "unknown/path.pdf")
	require.ErrorAs(t, err, &verr)

	removed, err := env.mrSvc.RemoveAttachment(ctx, purchaser, view.ID, att.Path)
	require.NoError(t, err)
	assert.Empty(t, removed.Attachments)
}

func TestSequencePerDepartmentAndSite(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first := env.createMR(t)
	second := env.createMR(t)
	assert.Equal(t, "IT-HO-0001", first.KodeMR)
	assert.Equal(t, "IT-HO-0002", second.KodeMR)

	// a different site starts its own sequence
	other, err := env.mrSvc.Create(ctx, requester, &CreateMRRequest{
		Orders:     []workflow.OrderItem{{Name: "Kabel", Qty: 10, UOM: "m", EstimasiHarga: 25000}},
		DueDate:    time.Now().AddDate(0, 0, 14),
		TujuanSite: "site 2",
	})
	require.NoError(t, err)
	assert.Equal(t, "IT-SITE2-0001", other.KodeMR)
}

func TestListFilters(t *testing.T) {
	env := newTestEnv(t)
	cc := env.seedCostCenter(t, 100000000)

	first := env.createMR(t)
	env.createMR(t)
	env.validateMR(t, first.ID, cc.ID)

	status := string(workflow.MRStatusPendingApproval)
	views, err := env.mrSvc.List(&repository.MaterialRequestFilter{Status: &status})
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, first.ID, views[0].ID)

	all, err := env.mrSvc.List(nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
