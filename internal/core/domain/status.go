package domain

// ApplicationStatus represents where an application sits in the review lifecycle
type ApplicationStatus string

const (
	StatusPending     ApplicationStatus = "pending"
	StatusUnderReview ApplicationStatus = "under_review"
	StatusApproved    ApplicationStatus = "approved"
	StatusRejected    ApplicationStatus = "rejected"
	StatusCompleted   ApplicationStatus = "completed"
)

// AllStatuses lists every legal status value
var AllStatuses = []ApplicationStatus{
	StatusPending,
	StatusUnderReview,
	StatusApproved,
	StatusRejected,
	StatusCompleted,
}

// ActiveStatuses are the states that block a second submission for the same
// (applicant, service) pair
var ActiveStatuses = []ApplicationStatus{
	StatusPending,
	StatusUnderReview,
	StatusApproved,
}

// strictTransitions is the forward-only review graph used when strict mode is
// enabled. Rejection stays reachable from any non-terminal state; completed is
// only reachable through official-document issuance, never through review.
var strictTransitions = map[ApplicationStatus][]ApplicationStatus{
	StatusPending:     {StatusUnderReview, StatusRejected},
	StatusUnderReview: {StatusApproved, StatusRejected},
	StatusApproved:    {StatusRejected},
}

// ValidStatus reports whether s is one of the five legal values
func ValidStatus(s ApplicationStatus) bool {
	for _, v := range AllStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further review-driven change is allowed
func (s ApplicationStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusRejected
}

// IsActive reports whether the status counts against the one-active-application rule
func (s ApplicationStatus) IsActive() bool {
	for _, v := range ActiveStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// CanTransition reports whether a review call may move from one status to
// another. Terminal states are always closed. In permissive mode (the default,
// matching historical reviewer behavior) any other target is allowed; strict
// mode enforces the forward-only graph.
func CanTransition(from, to ApplicationStatus, strict bool) bool {
	if from.IsTerminal() {
		return false
	}
	if !ValidStatus(to) {
		return false
	}
	if !strict {
		return true
	}
	for _, v := range strictTransitions[from] {
		if v == to {
			return true
		}
	}
	return false
}
