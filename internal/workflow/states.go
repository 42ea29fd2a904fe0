package workflow

// MRStatus is the document-level status of a material request.
type MRStatus string

const (
	MRStatusPendingValidation MRStatus = "Pending Validation"
	MRStatusPendingApproval   MRStatus = "Pending Approval"
	MRStatusWaitingPO         MRStatus = "Waiting PO"
	MRStatusPendingBAST       MRStatus = "Pending BAST"
	MRStatusCompleted         MRStatus = "Completed"
	MRStatusRejected          MRStatus = "Rejected"
)

// mrTransitions lists the allowed document-level transitions for an MR.
var mrTransitions = map[MRStatus][]MRStatus{
	MRStatusPendingValidation: {MRStatusPendingApproval, MRStatusRejected},
	MRStatusPendingApproval:   {MRStatusWaitingPO, MRStatusRejected},
	MRStatusWaitingPO:         {MRStatusPendingBAST, MRStatusCompleted},
	MRStatusPendingBAST:       {MRStatusCompleted},
	MRStatusCompleted:         {},
	MRStatusRejected:          {},
}

// IsValid reports whether the status is a known MR status.
func (s MRStatus) IsValid() bool {
	_, ok := mrTransitions[s]
	return ok
}

// CanTransitionTo reports whether the MR status may move to target.
func (s MRStatus) CanTransitionTo(target MRStatus) bool {
	for _, t := range mrTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible.
func (s MRStatus) IsTerminal() bool {
	return len(mrTransitions[s]) == 0
}

func (s MRStatus) String() string {
	return string(s)
}

// POStatus is the document-level status of a purchase order.
type POStatus string

const (
	POStatusDraft             POStatus = "Draft"
	POStatusPendingValidation POStatus = "Pending Validation"
	POStatusPendingApproval   POStatus = "Pending Approval"
	POStatusPendingBAST       POStatus = "Pending BAST"
	POStatusOrdered           POStatus = "Ordered"
	POStatusCompleted         POStatus = "Completed"
	POStatusRejected          POStatus = "Rejected"
)

// poTransitions lists the allowed document-level transitions for a PO.
// A fully approved PO is already the procurement instrument, so approval
// lands on Pending BAST; Ordered marks the PO as sent to the vendor.
var poTransitions = map[POStatus][]POStatus{
	POStatusDraft:             {POStatusPendingValidation},
	POStatusPendingValidation: {POStatusPendingApproval, POStatusRejected},
	POStatusPendingApproval:   {POStatusPendingBAST, POStatusRejected},
	POStatusPendingBAST:       {POStatusOrdered, POStatusCompleted},
	POStatusOrdered:           {POStatusCompleted},
	POStatusCompleted:         {},
	POStatusRejected:          {},
}

// IsValid reports whether the status is a known PO status.
func (s POStatus) IsValid() bool {
	_, ok := poTransitions[s]
	return ok
}

// CanTransitionTo reports whether the PO status may move to target.
func (s POStatus) CanTransitionTo(target POStatus) bool {
	for _, t := range poTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible.
func (s POStatus) IsTerminal() bool {
	return len(poTransitions[s]) == 0
}

func (s POStatus) String() string {
	return string(s)
}

// ItemStatus tracks fulfillment of a single MR line item, independent of
// the parent document status.
type ItemStatus string

const (
	ItemStatusPending   ItemStatus = "Pending"
	ItemStatusOnProcess ItemStatus = "On Process"
	ItemStatusFulfilled ItemStatus = "Fulfilled"
	ItemStatusCancelled ItemStatus = "Cancelled"
)

var itemTransitions = map[ItemStatus][]ItemStatus{
	ItemStatusPending:   {ItemStatusOnProcess, ItemStatusCancelled},
	ItemStatusOnProcess: {ItemStatusFulfilled, ItemStatusCancelled},
	ItemStatusFulfilled: {},
	ItemStatusCancelled: {},
}

// CanTransitionTo reports whether the item status may move to target.
func (s ItemStatus) CanTransitionTo(target ItemStatus) bool {
	for _, t := range itemTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

func (s ItemStatus) String() string {
	return string(s)
}
