package workflow

import "time"

// Priority is the derived urgency band of a material request, P0 being the
// most urgent. It is a pure function of the due date and is recomputed on
// read or whenever the due date changes; it is never stored as editable
// truth.
type Priority string

const (
	PriorityP0 Priority = "P0"
	PriorityP1 Priority = "P1"
	PriorityP2 Priority = "P2"
	PriorityP3 Priority = "P3"
	PriorityP4 Priority = "P4"
)

// PriorityFor bands the day distance to the due date. An overdue or same-day
// due date is P0.
func PriorityFor(dueDate, now time.Time) Priority {
	days := int(dueDate.Sub(now).Hours() / 24)
	switch {
	case days <= 3:
		return PriorityP0
	case days <= 7:
		return PriorityP1
	case days <= 14:
		return PriorityP2
	case days <= 30:
		return PriorityP3
	default:
		return PriorityP4
	}
}
