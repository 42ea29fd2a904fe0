package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMRStatusTransitions(t *testing.T) {
	assert.True(t, MRStatusPendingValidation.CanTransitionTo(MRStatusPendingApproval))
	assert.True(t, MRStatusPendingValidation.CanTransitionTo(MRStatusRejected))
	assert.True(t, MRStatusPendingApproval.CanTransitionTo(MRStatusWaitingPO))
	assert.True(t, MRStatusWaitingPO.CanTransitionTo(MRStatusCompleted))
	assert.True(t, MRStatusPendingBAST.CanTransitionTo(MRStatusCompleted))

	assert.False(t, MRStatusPendingValidation.CanTransitionTo(MRStatusWaitingPO))
	assert.False(t, MRStatusCompleted.CanTransitionTo(MRStatusPendingApproval))
	assert.False(t, MRStatusRejected.CanTransitionTo(MRStatusPendingValidation))

	assert.True(t, MRStatusCompleted.IsTerminal())
	assert.True(t, MRStatusRejected.IsTerminal())
	assert.False(t, MRStatusWaitingPO.IsTerminal())
}

func TestPOStatusTransitions(t *testing.T) {
	assert.True(t, POStatusDraft.CanTransitionTo(POStatusPendingValidation))
	assert.True(t, POStatusPendingApproval.CanTransitionTo(POStatusPendingBAST))
	assert.True(t, POStatusPendingBAST.CanTransitionTo(POStatusOrdered))
	assert.True(t, POStatusOrdered.CanTransitionTo(POStatusCompleted))
	assert.True(t, POStatusPendingBAST.CanTransitionTo(POStatusCompleted))

	assert.False(t, POStatusDraft.CanTransitionTo(POStatusPendingApproval))
	assert.False(t, POStatusRejected.CanTransitionTo(POStatusPendingValidation))
	assert.False(t, POStatusCompleted.CanTransitionTo(POStatusOrdered))
}

func TestItemStatusTransitions(t *testing.T) {
	assert.True(t, ItemStatusPending.CanTransitionTo(ItemStatusOnProcess))
	assert.True(t, ItemStatusOnProcess.CanTransitionTo(ItemStatusFulfilled))
	assert.True(t, ItemStatusOnProcess.CanTransitionTo(ItemStatusCancelled))
	assert.True(t, ItemStatusPending.CanTransitionTo(ItemStatusCancelled))

	// fulfillment is explicit, never automatic and never reversible
	assert.False(t, ItemStatusPending.CanTransitionTo(ItemStatusFulfilled))
	assert.False(t, ItemStatusFulfilled.CanTransitionTo(ItemStatusPending))
	assert.False(t, ItemStatusCancelled.CanTransitionTo(ItemStatusOnProcess))
}

func TestStatusValidity(t *testing.T) {
	assert.True(t, MRStatusWaitingPO.IsValid())
	assert.False(t, MRStatus("Unknown").IsValid())
	assert.True(t, POStatusOrdered.IsValid())
	assert.False(t, POStatus("Unknown").IsValid())
}
