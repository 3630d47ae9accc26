package entities

import "time"

// Vote is immutable once recorded: at most one per (UserID, ElectionID).
type Vote struct {
	VoteID     string
	UserID     string
	ElectionID string
	OptionID   string
	Timestamp  time.Time
}

type Role string

const (
	RoleAdmin Role = "admin"
	RoleVoter Role = "voter"
)

// Principal is the acting user as reported by the identity provider.
type Principal struct {
	UserID string
	Role   Role
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}
