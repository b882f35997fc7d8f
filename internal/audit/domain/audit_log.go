package domain

import "time"

// AuditLog represents an audit event scoped to a team.
type AuditLog struct {
	ID        string
	TeamID    string
	UserID    string
	Action    string
	Resource  string
	IP        string
	Metadata  string
	CreatedAt time.Time
}
