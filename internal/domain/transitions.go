package domain

// TransitionActor identifies the capability driving a lifecycle edge.
// Capabilities replace role-specific service classes: every engine entry
// point resolves its caller to one of these before consulting the table.
type TransitionActor string

const (
	ActorRequester TransitionActor = "REQUESTER" // ticket owner
	ActorAssignee  TransitionActor = "ASSIGNEE"  // staff the ticket is assigned to
	ActorAdmin     TransitionActor = "ADMIN"
	ActorSystem    TransitionActor = "SYSTEM" // deadline sweep
)

// transitions holds every legal edge and the actors allowed to drive it.
// Statuses absent as keys (CLOSED, CANCELLED, OVERDUE) are terminal.
var transitions = map[TicketStatus]map[TicketStatus][]TransitionActor{
	TicketStatusNew: {
		TicketStatusAssigned:  {ActorAdmin},
		TicketStatusCancelled: {ActorRequester, ActorAdmin},
		TicketStatusOverdue:   {ActorSystem},
	},
	TicketStatusAssigned: {
		TicketStatusInProgress: {ActorAssignee},
		TicketStatusCancelled:  {ActorAdmin},
		TicketStatusOverdue:    {ActorSystem},
	},
	TicketStatusInProgress: {
		TicketStatusResolved:  {ActorAssignee},
		TicketStatusCancelled: {ActorAdmin},
		TicketStatusOverdue:   {ActorSystem},
	},
	TicketStatusResolved: {
		TicketStatusClosed:    {ActorRequester},
		TicketStatusCancelled: {ActorAdmin},
	},
}

// TransitionAllowed reports whether any actor may move a ticket from one
// status to the other.
func TransitionAllowed(from, to TicketStatus) bool {
	_, ok := transitions[from][to]
	return ok
}

// CanTransition reports whether the given actor may drive the edge.
func CanTransition(actor TransitionActor, from, to TicketStatus) bool {
	for _, allowed := range transitions[from][to] {
		if allowed == actor {
			return true
		}
	}
	return false
}

// NextStatuses returns the statuses reachable from the given one.
func NextStatuses(from TicketStatus) []TicketStatus {
	edges := transitions[from]
	out := make([]TicketStatus, 0, len(edges))
	for to := range edges {
		out = append(out, to)
	}
	return out
}
