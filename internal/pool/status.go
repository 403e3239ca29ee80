package pool

// Resource statuses
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

// transitions maps each status to the statuses a PATCH may move it to.
// Terminal statuses have no outgoing transitions.
var transitions = map[string][]string{
	StatusPending:    {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
	StatusCompleted:  {},
	StatusCancelled:  {},
}

// ValidStatus reports whether s is a recognized status value.
func ValidStatus(s string) bool {
	_, ok := transitions[s]
	return ok
}

// Terminal reports whether s has no outgoing transitions.
func Terminal(s string) bool {
	next, ok := transitions[s]
	return ok && len(next) == 0
}

// NextStatuses returns the statuses reachable from s. The returned slice is
// shared; callers must not mutate it.
func NextStatuses(s string) []string {
	return transitions[s]
}

// ValidTransition reports whether from -> to is allowed by the table.
func ValidTransition(from, to string) bool {
	for _, n := range transitions[from] {
		if n == to {
			return true
		}
	}
	return false
}
