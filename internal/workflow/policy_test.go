package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testMR(status MRStatus, owner string, chain []ApprovalEntry) *MaterialRequest {
	return &MaterialRequest{Status: status, CreatedBy: owner, Approvals: chain}
}

func TestPolicyValidate(t *testing.T) {
	mr := testMR(MRStatusPendingValidation, "user-001", nil)

	ga := Actor{ID: "ga-001", Role: RolePurchasing}
	requester := Actor{ID: "user-001", Role: RoleRequester}
	admin := Actor{ID: "adm-001", Role: RoleAdmin}

	assert.True(t, CanTransition(ga, mr, TransitionValidate))
	assert.True(t, CanTransition(ga, mr, TransitionRejectValidation))
	assert.False(t, CanTransition(requester, mr, TransitionValidate))
	assert.True(t, CanTransition(admin, mr, TransitionValidate))
}

func TestPolicyApproveRequiresChainSlot(t *testing.T) {
	chain := []ApprovalEntry{{UserID: "appr-001", Status: ApprovalStatusPending}}
	mr := testMR(MRStatusPendingApproval, "user-001", chain)

	member := Actor{ID: "appr-001", Role: RoleApprover}
	outsider := Actor{ID: "appr-999", Role: RoleApprover}
	admin := Actor{ID: "adm-001", Role: RoleAdmin}

	assert.True(t, CanTransition(member, mr, TransitionApprove))
	assert.False(t, CanTransition(outsider, mr, TransitionApprove))
	// role alone is not enough, not even admin: approving needs a chain slot
	assert.False(t, CanTransition(admin, mr, TransitionApprove))
}

func TestPolicyCloseBASTOwnerOnly(t *testing.T) {
	mr := testMR(MRStatusPendingBAST, "user-001", nil)

	owner := Actor{ID: "user-001", Role: RoleRequester}
	other := Actor{ID: "user-002", Role: RoleRequester}
	admin := Actor{ID: "adm-001", Role: RoleAdmin}

	assert.True(t, CanTransition(owner, mr, TransitionCloseBAST))
	assert.False(t, CanTransition(other, mr, TransitionCloseBAST))
	assert.False(t, CanTransition(admin, mr, TransitionCloseBAST))
}

func TestPolicyEditWindows(t *testing.T) {
	owner := Actor{ID: "user-001", Role: RoleRequester}
	approver := Actor{ID: "appr-001", Role: RoleApprover}

	pendingValidation := testMR(MRStatusPendingValidation, "user-001", nil)
	assert.True(t, CanTransition(owner, pendingValidation, TransitionEdit))
	assert.False(t, CanTransition(approver, pendingValidation, TransitionEdit))

	chain := []ApprovalEntry{{UserID: "appr-001", Status: ApprovalStatusPending}}
	pendingApproval := testMR(MRStatusPendingApproval, "user-001", chain)
	assert.True(t, CanTransition(approver, pendingApproval, TransitionEdit))
	assert.False(t, CanTransition(owner, pendingApproval, TransitionEdit))

	waitingPO := testMR(MRStatusWaitingPO, "user-001", chain)
	assert.False(t, CanTransition(owner, waitingPO, TransitionEdit))
}

func TestPolicyDeleteEarliestStateOnly(t *testing.T) {
	owner := Actor{ID: "user-001", Role: RoleRequester}

	assert.True(t, CanTransition(owner, testMR(MRStatusPendingValidation, "user-001", nil), TransitionDelete))
	assert.False(t, CanTransition(owner, testMR(MRStatusPendingApproval, "user-001", nil), TransitionDelete))
	assert.False(t, CanTransition(Actor{ID: "user-002"}, testMR(MRStatusPendingValidation, "user-001", nil), TransitionDelete))
}

func TestPolicyPrivilegedOperations(t *testing.T) {
	mr := testMR(MRStatusWaitingPO, "user-001", nil)
	ga := Actor{ID: "ga-001", Role: RolePurchasing}
	admin := Actor{ID: "adm-001", Role: RoleAdmin}

	assert.False(t, CanTransition(ga, mr, TransitionReassignCC))
	assert.True(t, CanTransition(admin, mr, TransitionReassignCC))
	assert.False(t, CanTransition(ga, mr, TransitionAdjustBudget))
	assert.True(t, CanTransition(admin, mr, TransitionAdjustBudget))

	assert.True(t, CanTransition(ga, mr, TransitionCreatePO))
	assert.True(t, CanTransition(ga, mr, TransitionUpdateItem))
}

// Privileged transitions carry no document; every other transition with a
// nil document is denied instead of dereferencing it.
func TestPolicyNilDocument(t *testing.T) {
	ga := Actor{ID: "ga-001", Role: RolePurchasing}
	admin := Actor{ID: "adm-001", Role: RoleAdmin}

	assert.True(t, CanTransition(admin, nil, TransitionAdjustBudget))
	assert.True(t, CanTransition(admin, nil, TransitionReassignCC))
	assert.False(t, CanTransition(ga, nil, TransitionAdjustBudget))

	assert.False(t, CanTransition(admin, nil, TransitionApprove))
	assert.False(t, CanTransition(admin, nil, TransitionCloseBAST))
	assert.False(t, CanTransition(ga, nil, TransitionValidate))
}
