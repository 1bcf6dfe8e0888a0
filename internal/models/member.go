package models

// Role is a member's role within a mess.
type Role string

const (
	RoleManager Role = "manager"
	RoleCook    Role = "cook"
	RoleMember  Role = "member"
)

// MemberStatus is a member's activity status within a mess.
type MemberStatus string

const (
	StatusActive   MemberStatus = "active"
	StatusInactive MemberStatus = "inactive"
	StatusOnLeave  MemberStatus = "on_leave"
)

// Member represents one person's membership in one mess for one continuous
// tenure. Exactly one manager exists per mess at any time; the role moves
// between members as a single atomic swap.
type Member struct {
	// ID is the unique identifier for the membership (UUID format).
	ID string `json:"id"`

	// MessID is the mess this membership belongs to.
	MessID string `json:"mess_id"`

	// UserID links the membership to a User account.
	UserID string `json:"user_id"`

	// Role is manager, cook or member.
	Role Role `json:"role"`

	// Status is active, inactive or on_leave. Only active members share
	// fixed costs and receive snapshots at month close.
	Status MemberStatus `json:"status"`

	// JoinDate is the calendar date ("2006-01-02") the member joined.
	JoinDate string `json:"join_date"`

	// LeaveDate is set when the tenure ends; empty while current.
	LeaveDate string `json:"leave_date,omitempty"`

	// CreatedAt is the Unix timestamp when the row was created.
	CreatedAt int64 `json:"created_at"`

	// UpdatedAt is the Unix timestamp of the last change.
	UpdatedAt int64 `json:"updated_at"`
}
