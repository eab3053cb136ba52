package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
// Channel actions carry an action discriminator; join may carry the
// channel password at the envelope level.
type Inbound struct {
	Type     string          `json:"type"`
	Action   string          `json:"action,omitempty"`
	Data     json.RawMessage `json:"data"`
	Password string          `json:"password,omitempty"`
}

const (
	InboundTypeAuth     = "auth"
	InboundTypeUser     = "user"
	InboundTypeMessage  = "message"
	InboundTypeChannels = "channels"

	ActionAdd    = "add"
	ActionGet    = "get"
	ActionJoin   = "join"
	ActionDelete = "delete"
	ActionUpdate = "update"

	OutboundTypeAuth           = "auth"
	OutboundTypeSetChannel     = "set-channel"
	OutboundTypeChannels       = "channels"
	OutboundTypeChannelData    = "channel-data"
	OutboundTypeChannelMessage = "new-channel-message"
	OutboundTypeLifeUpdate     = "channel-life-update"
	OutboundTypePasswordPrompt = "channel-password-prompt"
	OutboundTypeChannelSaved   = "channel-saved"
	OutboundTypeUser           = "user"
	OutboundTypePing           = "ping"
)

// AuthData introduces a client: a display name plus an optional
// identity to reuse, either raw or as a signed resume token.
type AuthData struct {
	Name  string `json:"name"`
	ID    string `json:"id,omitempty"`
	Token string `json:"token,omitempty"`
}

// MessageData is a chat message from the client to its current channel.
type MessageData struct {
	Content string `json:"content"`
}

// JoinData selects the channel to join.
type JoinData struct {
	Channel string `json:"channel"`
}

// UpdateChannelData is an owner's rename/repassword request. An empty
// password clears the gate.
type UpdateChannelData struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// Outbound is the envelope for messages sent to the client. Data is
// always present; set-channel deliberately sends null for "none".
type Outbound struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// AuthAck carries the assigned client id and a resume token.
type AuthAck struct {
	ID    string `json:"id"`
	Token string `json:"token,omitempty"`
}

// ChannelSummary is one entry in a channel list.
type ChannelSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Vitality int    `json:"vitality"`
	OwnerID  string `json:"ownerId"`
}

// UserRef identifies a message author or channel member.
type UserRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// MessageBody is the content/timestamp pair of a delivered message.
type MessageBody struct {
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
}

// ChannelMessage is a delivered chat or system message.
type ChannelMessage struct {
	ID      string      `json:"id"`
	User    UserRef     `json:"user"`
	Message MessageBody `json:"message"`
}

// ChannelData is the full state of the client's current channel.
type ChannelData struct {
	Messages []ChannelMessage `json:"messages"`
	Members  []UserRef        `json:"members"`
	Vitality int              `json:"vitality"`
}

// LifeUpdate announces one vitality tick of an empty channel.
type LifeUpdate struct {
	ID       string `json:"id"`
	Vitality int    `json:"vitality"`
}

// PasswordPrompt challenges a join against a password-gated channel.
// Error is empty on the initial challenge and set when a supplied
// password was wrong.
type PasswordPrompt struct {
	Channel string `json:"channel"`
	Error   string `json:"error,omitempty"`
}

// ChannelSaved acknowledges an owner's channel update.
type ChannelSaved struct {
	ID string `json:"id"`
}
