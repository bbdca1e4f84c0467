package events

import (
	"time"

	"github.com/go-monolith/mono/pkg/helper"
)

// MessageBroadcastEvent is emitted when a user or system message must be
// fanned out to a room. ExcludeID names a connection to skip (the sender of
// a system notice never receives its own join/leave announcement).
type MessageBroadcastEvent struct {
	Room      string    `json:"room"`
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	Kind      string    `json:"kind"`
	ExcludeID string    `json:"exclude_id,omitempty"`
}

// PresenceUpdatedEvent is emitted after every membership mutation with the
// authoritative member count of the room at that instant.
type PresenceUpdatedEvent struct {
	Room      string `json:"room"`
	Count     int    `json:"count"`
	ExcludeID string `json:"exclude_id,omitempty"`
}

// UserTypingEvent is emitted when a member's typing state changes.
type UserTypingEvent struct {
	Room        string `json:"room"`
	DisplayName string `json:"display_name"`
	IsTyping    bool   `json:"is_typing"`
	ExcludeID   string `json:"exclude_id,omitempty"`
}

// Event definitions for the rooms domain.
var (
	MessageBroadcastV1 = helper.EventDefinition[MessageBroadcastEvent](
		"rooms",
		"MessageBroadcast",
		"v1",
	)

	PresenceUpdatedV1 = helper.EventDefinition[PresenceUpdatedEvent](
		"rooms",
		"PresenceUpdated",
		"v1",
	)

	UserTypingV1 = helper.EventDefinition[UserTypingEvent](
		"rooms",
		"UserTyping",
		"v1",
	)
)
