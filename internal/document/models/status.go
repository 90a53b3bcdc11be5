package models

// DocumentStatus is the closed set of lifecycle states. Wire values match the
// persisted store records, which use display casing.
type DocumentStatus string

const (
	StatusDraft           DocumentStatus = "Draft"
	StatusPendingApproval DocumentStatus = "Pending Approval"
	StatusApproved        DocumentStatus = "Approved"
	StatusPublished       DocumentStatus = "Published"
	StatusArchived        DocumentStatus = "Archived"
	StatusExpired         DocumentStatus = "Expired"
)

// userTransitions enumerates the transitions reachable through explicit user
// actions. Expiry is a time-driven override handled by Recompute, not a user
// action, so it does not appear here.
var userTransitions = map[DocumentStatus][]DocumentStatus{
	StatusDraft:           {StatusPendingApproval, StatusArchived},
	StatusPendingApproval: {StatusApproved, StatusDraft, StatusArchived},
	StatusApproved:        {StatusPublished, StatusArchived},
	StatusPublished:       {StatusArchived},
	StatusArchived:        {},
	StatusExpired:         {},
}

// CanTransitionTo reports whether a user action may move a document from s to
// target.
func (s DocumentStatus) CanTransitionTo(target DocumentStatus) bool {
	for _, allowed := range userTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status admits no further user transitions.
// Archived and Expired are absorbing.
func (s DocumentStatus) IsTerminal() bool {
	return s == StatusArchived || s == StatusExpired
}

// IsValid reports whether s is one of the closed enumeration values.
func (s DocumentStatus) IsValid() bool {
	switch s {
	case StatusDraft, StatusPendingApproval, StatusApproved, StatusPublished, StatusArchived, StatusExpired:
		return true
	}
	return false
}
