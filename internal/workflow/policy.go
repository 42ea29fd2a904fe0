package workflow

// Role gates which transitions an actor may perform. Roles come from the
// identity provider, the policy below is the single place they are checked.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleApprover   Role = "approver"
	RoleRequester  Role = "requester"
	RolePurchasing Role = "purchasing" // General Affair
)

// Actor is the acting user as yielded by the identity provider.
type Actor struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Role       Role   `json:"role"`
	Department string `json:"department"`
	Company    string `json:"company"`
}

// Transition names every guarded operation on a document.
type Transition string

const (
	TransitionCreate           Transition = "create"
	TransitionEdit             Transition = "edit"
	TransitionDelete           Transition = "delete"
	TransitionValidate         Transition = "validate"
	TransitionRejectValidation Transition = "reject_validation"
	TransitionApprove          Transition = "approve"
	TransitionReject           Transition = "reject"
	TransitionCloseBAST        Transition = "close_bast"
	TransitionMarkOrdered      Transition = "mark_ordered"
	TransitionCreatePO         Transition = "create_po"
	TransitionUpdateItem       Transition = "update_item"
	TransitionReassignCC       Transition = "reassign_cost_center"
	TransitionAdjustBudget     Transition = "adjust_budget"
)

// Document is the policy-facing view of an MR or PO.
type Document interface {
	DocStatus() string
	OwnerID() string
	Chain() []ApprovalEntry
}

// inChain reports whether the actor holds a slot in the approval chain.
func inChain(actor Actor, doc Document) bool {
	for _, e := range doc.Chain() {
		if e.UserID == actor.ID {
			return true
		}
	}
	return false
}

// CanTransition is the explicit role policy. UI visibility rules derive from
// this function, never the other way around.
func CanTransition(actor Actor, doc Document, tr Transition) bool {
	// privileged transitions are pure role checks and need no document
	switch tr {
	case TransitionReassignCC, TransitionAdjustBudget:
		return actor.Role == RoleAdmin
	}
	if doc == nil {
		return false
	}

	if actor.Role == RoleAdmin {
		switch tr {
		// even an admin cannot approve a chain slot that is not theirs,
		// nor close somebody else's document with BAST
		case TransitionApprove, TransitionReject:
			return inChain(actor, doc)
		case TransitionCloseBAST:
			return doc.OwnerID() == actor.ID
		default:
			return true
		}
	}

	switch tr {
	case TransitionEdit:
		// owners edit while waiting for validation; chain members edit
		// together with their decision during approval
		switch doc.DocStatus() {
		case string(MRStatusPendingValidation), string(POStatusDraft):
			return doc.OwnerID() == actor.ID
		case string(MRStatusPendingApproval):
			return inChain(actor, doc)
		}
		return false
	case TransitionDelete:
		// only the original requester, and only in the earliest pending state
		return doc.OwnerID() == actor.ID &&
			(doc.DocStatus() == string(MRStatusPendingValidation) || doc.DocStatus() == string(POStatusDraft))
	case TransitionValidate, TransitionRejectValidation:
		return actor.Role == RolePurchasing
	case TransitionApprove, TransitionReject:
		return inChain(actor, doc)
	case TransitionCloseBAST:
		return doc.OwnerID() == actor.ID
	case TransitionCreatePO, TransitionMarkOrdered, TransitionUpdateItem:
		return actor.Role == RolePurchasing
	default:
		return false
	}
}
