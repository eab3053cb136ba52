package core

import "time"

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventAuth acknowledges authentication with the assigned id.
	EventAuth EventKind = iota
	// EventSetChannel tells a client which channel it now points at
	// (empty ChannelID means none).
	EventSetChannel
	// EventChannelList carries the full channel list.
	EventChannelList
	// EventChannelData carries a channel's messages, members, and
	// vitality to its members.
	EventChannelData
	// EventChannelMessage is a single new message in a channel.
	EventChannelMessage
	// EventLifeUpdate announces an empty channel's vitality tick.
	EventLifeUpdate
	// EventPasswordPrompt challenges a join against a gated channel.
	EventPasswordPrompt
	// EventChannelSaved acknowledges an owner's channel update.
	EventChannelSaved
	// EventRenamed acknowledges a display-name change to its issuer.
	EventRenamed
	// EventPing is the periodic liveness signal.
	EventPing
)

// ChannelSummary is a channel's entry in list broadcasts.
type ChannelSummary struct {
	ID       string
	Name     string
	Vitality int
	OwnerID  string
}

// MemberInfo is a member entry in channel-data payloads.
type MemberInfo struct {
	ID   string
	Name string
}

// MessageView is a message rendered for delivery: system-message
// templates are resolved against current display names, so stored
// text is never mutated on rename.
type MessageView struct {
	ID        string
	Author    MemberInfo
	Content   string
	Timestamp time.Time
}

// Event is sent to clients to describe what happened in the system.
type Event struct {
	Kind EventKind

	ClientID  string
	Token     string
	Name      string
	ChannelID string
	Vitality  int
	Channels  []ChannelSummary
	Members   []MemberInfo
	Messages  []MessageView
	Message   *MessageView
	Error     *CoreError
	Timestamp time.Time
}
