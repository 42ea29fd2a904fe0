package workflow

import (
	"strings"
	"time"
)

// TemplateEntry is one slot of a reusable approval template. Templates are
// skeletons only: any status carried by the source is discarded when the
// chain is built.
type TemplateEntry struct {
	UserID     string         `json:"user_id"`
	Name       string         `json:"name"`
	Department string         `json:"department"`
	Type       ApprovalType   `json:"type"`
	Status     ApprovalStatus `json:"status,omitempty"` // stale execution state, ignored
}

// BuildChain materializes a template into a concrete approval chain. Every
// entry starts as pending regardless of the status embedded in the source.
func BuildChain(entries []TemplateEntry) []ApprovalEntry {
	chain := make([]ApprovalEntry, 0, len(entries))
	for _, e := range entries {
		chain = append(chain, ApprovalEntry{
			UserID:     e.UserID,
			Name:       e.Name,
			Department: e.Department,
			Type:       e.Type,
			Status:     ApprovalStatusPending,
		})
	}
	return chain
}

// ValidateChain checks that a chain is committable: non-empty, every entry
// carrying a user and a non-empty type.
func ValidateChain(chain []ApprovalEntry) error {
	if len(chain) == 0 {
		return NewValidationError("incomplete approval path: chain is empty")
	}
	for i, e := range chain {
		if strings.TrimSpace(e.UserID) == "" {
			return NewValidationError("incomplete approval path: entry %d has no user", i+1)
		}
		if strings.TrimSpace(string(e.Type)) == "" {
			return NewValidationError("incomplete approval path: entry %d has no type", i+1)
		}
	}
	return nil
}

// ActionableIndex locates the chain entry the acting user may process right
// now. The entry must be pending and every preceding entry must already be
// approved; acting out of turn is an authorization error, not a state change.
func ActionableIndex(chain []ApprovalEntry, userID string) (int, error) {
	idx := -1
	for i, e := range chain {
		if e.UserID == userID && e.Status == ApprovalStatusPending {
			idx = i
			break
		}
	}
	if idx < 0 {
		return -1, NewAuthorizationError("user %s has no pending approval on this document", userID)
	}
	for i := 0; i < idx; i++ {
		if chain[i].Status != ApprovalStatusApproved {
			return -1, NewAuthorizationError("approval is not yet your turn: waiting on %s", chain[i].Name)
		}
	}
	return idx, nil
}

// ApplyApproval marks the entry at idx as approved. It returns true when the
// entry was the last one in the chain, i.e. the document is fully approved.
func ApplyApproval(chain []ApprovalEntry, idx int, note string, now time.Time) bool {
	chain[idx].Status = ApprovalStatusApproved
	chain[idx].Note = note
	chain[idx].ProcessedAt = &now
	for _, e := range chain {
		if e.Status != ApprovalStatusApproved {
			return false
		}
	}
	return true
}

// ApplyRejection marks the entry at idx as rejected. The first rejection is
// terminal for the whole document; remaining entries stay pending untouched.
func ApplyRejection(chain []ApprovalEntry, idx int, note string, now time.Time) {
	chain[idx].Status = ApprovalStatusRejected
	chain[idx].Note = note
	chain[idx].ProcessedAt = &now
}

// NextPending returns the first pending entry of the chain, if any.
func NextPending(chain []ApprovalEntry) (*ApprovalEntry, bool) {
	for i := range chain {
		if chain[i].Status == ApprovalStatusPending {
			return &chain[i], true
		}
	}
	return nil, false
}
