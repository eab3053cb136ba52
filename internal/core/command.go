package core

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandAuth registers or reclaims a client identity.
	CommandAuth CommandKind = iota
	// CommandRename changes the client's display name and propagates it.
	CommandRename
	// CommandSendMessage posts to the sender's current channel.
	CommandSendMessage
	// CommandAddChannel creates a channel and auto-joins the creator.
	CommandAddChannel
	// CommandListChannels requests the current channel list.
	CommandListChannels
	// CommandJoinChannel runs the join protocol against a channel.
	CommandJoinChannel
	// CommandDeleteChannel is an owner-only destruction request.
	CommandDeleteChannel
	// CommandUpdateChannel is an owner-only rename/repassword request.
	CommandUpdateChannel

	// Internal commands, enqueued by the hub itself so that timer
	// ticks and connection lifecycle share the single actor queue.
	commandRegister
	commandDisconnect
	commandVitalityTick
	commandSnapshot
)

// Command represents one unit of work for the hub actor.
type Command struct {
	Kind   CommandKind
	Client *Client

	// Name carries the display name (auth, rename) or the channel
	// name (add, update).
	Name string
	// IdentityHint is a caller-supplied client id to reuse (auth).
	IdentityHint string
	// Content is the chat message body.
	Content string
	// ChannelID targets join, delete, update, and vitality ticks.
	ChannelID string
	// Password accompanies join (gate check) and update (new secret).
	Password string

	// reply receives the channel snapshot for commandSnapshot.
	reply chan []ChannelSummary
}
