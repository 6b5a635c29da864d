package domain

import "time"

// Status is a catalog entry describing one lifecycle stage a complaint can
// occupy. FlowOrder bounds transition admissibility; it is not a strict
// linear sequence.
type Status struct {
	ID          string
	Name        string
	Description string
	FlowOrder   int
	CreatedAt   time.Time
}

// StatusNameRegistered is the catalog entry every new complaint starts in.
const StatusNameRegistered = "Registered"

// Transition window bounds. A proposed status is admissible when its flow
// order lies within [current-TransitionWindowBack, current+TransitionWindowAhead]
// inclusive. Authorities may revert or skip steps; only out-of-band jumps
// are blocked.
const (
	TransitionWindowBack  = 10
	TransitionWindowAhead = 20
)

// IsTransitionAllowed reports whether moving from current to proposed falls
// inside the flow-order window.
func IsTransitionAllowed(current, proposed Status) bool {
	return proposed.FlowOrder >= current.FlowOrder-TransitionWindowBack &&
		proposed.FlowOrder <= current.FlowOrder+TransitionWindowAhead
}

// DefaultStatuses returns the catalog seeded into a fresh deployment.
func DefaultStatuses() []Status {
	return []Status{
		{Name: StatusNameRegistered, Description: "Complaint received and recorded", FlowOrder: 1},
		{Name: "In Review", Description: "Under review by the receiving office", FlowOrder: 2},
		{Name: "Assigned", Description: "Assigned to a responsible department", FlowOrder: 3},
		{Name: "In Progress", Description: "Actively being worked", FlowOrder: 4},
		{Name: "Resolved", Description: "Resolution recorded by the authority", FlowOrder: 5},
		{Name: "Closed", Description: "Confirmed and archived", FlowOrder: 6},
	}
}
