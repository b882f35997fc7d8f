// Package domain defines activity events published when boards, cards,
// invites and memberships change.
package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType names what happened.
type EventType string

const (
	EventBoardCreated    EventType = "board.created"
	EventBoardUpdated    EventType = "board.updated"
	EventBoardDeleted    EventType = "board.deleted"
	EventBoardReconciled EventType = "board.reconciled"
	EventCardCreated     EventType = "card.created"
	EventCardUpdated     EventType = "card.updated"
	EventCardMoved       EventType = "card.moved"
	EventCardDeleted     EventType = "card.deleted"
	EventInviteCreated   EventType = "invite.created"
	EventInviteAccepted  EventType = "invite.accepted"
	EventInviteDeclined  EventType = "invite.declined"
	EventInviteExpired   EventType = "invite.expired"
	EventTeamCreated     EventType = "team.created"
	EventTeamUpdated     EventType = "team.updated"
	EventTeamDeleted     EventType = "team.deleted"
	EventTeamMemberAdded EventType = "team.member_added"
)

// IsCardEvent reports whether the event touches a card's placement on a board.
func (t EventType) IsCardEvent() bool {
	switch t {
	case EventCardCreated, EventCardUpdated, EventCardMoved, EventCardDeleted:
		return true
	}
	return false
}

// Event is a single activity record. It is serialized as JSON onto Kafka and into Loki.
type Event struct {
	ID        string          `json:"id"`
	Type      EventType       `json:"type"`
	TeamID    string          `json:"teamId,omitempty"`
	BoardID   string          `json:"boardId,omitempty"`
	CardID    string          `json:"cardId,omitempty"`
	InviteID  string          `json:"inviteId,omitempty"`
	UserID    string          `json:"userId,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// NewEvent returns an event of the given type with a fresh id and timestamp.
func NewEvent(typ EventType, userID string) *Event {
	return &Event{
		ID:        uuid.New().String(),
		Type:      typ,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}
}

// WithPayload marshals v into the event payload. Marshal failures leave the payload empty.
func (e *Event) WithPayload(v any) *Event {
	if raw, err := json.Marshal(v); err == nil {
		e.Payload = raw
	}
	return e
}

// Key is the partition key: board id when present so events for one board stay ordered.
func (e *Event) Key() string {
	if e.BoardID != "" {
		return e.BoardID
	}
	return e.TeamID
}
