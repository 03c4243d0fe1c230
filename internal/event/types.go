package event

// Type identifies a kind of event on the bus.
type Type string

const (
	// ApprovalsUpdated fires after any successful approval-state
	// mutation, in any scope. Zero payload beyond the scope hint;
	// observers re-read the engine.
	ApprovalsUpdated Type = "approvals.updated"
	// ConfigReloaded fires after the store reloads documents because
	// of an external edit.
	ConfigReloaded Type = "config.reloaded"
	// ProjectsChanged fires when the set of open project roots is
	// resynchronized.
	ProjectsChanged Type = "projects.changed"
	// ApprovalRequired fires when an interactive approval request is
	// about to be presented.
	ApprovalRequired Type = "approval.required"
	// ApprovalResolved fires when an interactive approval request has
	// been decided.
	ApprovalResolved Type = "approval.resolved"
)

// Event is a single occurrence published on the bus.
type Event struct {
	Type Type `json:"type"`
	Data any  `json:"data,omitempty"`
}

// ApprovalRequiredData accompanies ApprovalRequired.
type ApprovalRequiredData struct {
	ID        string `json:"id"`
	SessionID string `json:"sessionID"`
	Kind      string `json:"kind"`
	Title     string `json:"title"`
}

// ApprovalResolvedData accompanies ApprovalResolved.
type ApprovalResolvedData struct {
	ID      string `json:"id"`
	Granted bool   `json:"granted"`
}
