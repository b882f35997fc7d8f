package domain

import (
	"strings"
	"time"
)

// MaxNameLen bounds a policy's display name.
const MaxNameLen = 100

// Policy is a team-level Rego module that can deny actions the default access policy allows.
type Policy struct {
	ID        string
	TeamID    string
	Name      string
	Rules     string
	Enabled   bool
	CreatedBy string
	CreatedAt time.Time
}

// NewPolicy returns an enabled policy with trimmed name and rules.
func NewPolicy(id, teamID, name, rules, createdBy string, now time.Time) *Policy {
	return &Policy{
		ID:        id,
		TeamID:    teamID,
		Name:      strings.TrimSpace(name),
		Rules:     strings.TrimSpace(rules),
		Enabled:   true,
		CreatedBy: createdBy,
		CreatedAt: now,
	}
}
