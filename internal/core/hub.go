package core

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// PasswordGate hashes and verifies channel passwords.
type PasswordGate interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// TokenIssuer signs resume tokens binding a client identity, so a
// reconnecting client can reclaim its id without trusting a raw id.
type TokenIssuer interface {
	Issue(clientID, displayName string) (string, error)
}

// Options tunes the hub's lifecycle behavior.
type Options struct {
	// VitalityMax is the countdown an empty channel starts from.
	VitalityMax int
	// TickInterval is how often an empty channel loses one vitality.
	TickInterval time.Duration
	// PingInterval is how often every client receives a ping.
	PingInterval time.Duration
}

// DefaultOptions returns the production lifecycle settings: an empty
// channel survives ten one-second ticks before destruction.
func DefaultOptions() Options {
	return Options{
		VitalityMax:  10,
		TickInterval: time.Second,
		PingInterval: time.Second,
	}
}

// Hub coordinates every client and channel. A single actor goroutine
// (Run) drains one command queue carrying client actions, connection
// lifecycle, and vitality ticks, so all registry and channel mutation
// is run-to-completion with no interleaving. Event delivery to
// clients is non-blocking and best-effort.
type Hub struct {
	commands  chan *Command
	clients   map[string]*Client
	channels  map[string]*Channel
	order     []string // channel ids in creation order
	lifecycle *lifecycleScheduler
	gate      PasswordGate
	tokens    TokenIssuer
	opts      Options
	log       zerolog.Logger
}

// NewHub constructs a hub. The token issuer may be nil, in which case
// auth acknowledgments carry no resume token.
func NewHub(gate PasswordGate, tokens TokenIssuer, opts Options, logger *zerolog.Logger) *Hub {
	if opts.VitalityMax <= 0 {
		opts.VitalityMax = DefaultOptions().VitalityMax
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = DefaultOptions().TickInterval
	}
	if opts.PingInterval <= 0 {
		opts.PingInterval = DefaultOptions().PingInterval
	}
	l := zerolog.Nop()
	if logger != nil {
		l = *logger
	}
	h := &Hub{
		commands: make(chan *Command, 256),
		clients:  make(map[string]*Client),
		channels: make(map[string]*Channel),
		gate:     gate,
		tokens:   tokens,
		opts:     opts,
		log:      l,
	}
	h.lifecycle = newLifecycleScheduler(opts.TickInterval, func(channelID string) {
		h.commands <- &Command{Kind: commandVitalityTick, ChannelID: channelID}
	})
	return h
}

// Run processes commands until the context is cancelled. Call it in
// its own goroutine; everything else enqueues.
func (h *Hub) Run(ctx context.Context) {
	ping := time.NewTicker(h.opts.PingInterval)
	defer ping.Stop()
	defer h.lifecycle.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-h.commands:
			h.handle(cmd)
		case now := <-ping.C:
			h.broadcastGlobal(&Event{Kind: EventPing, Timestamp: now})
		}
	}
}

// RegisterClient adds a connection's client record to the registry.
func (h *Hub) RegisterClient(c *Client) {
	h.commands <- &Command{Kind: commandRegister, Client: c}
}

// UnregisterClient removes a client on disconnect. Its channel
// membership is removed as part of the same command.
func (h *Hub) UnregisterClient(c *Client) {
	h.commands <- &Command{Kind: commandDisconnect, Client: c}
}

// Dispatch enqueues a client command for the actor.
func (h *Hub) Dispatch(cmd *Command) {
	h.commands <- cmd
}

// Channels returns a point-in-time channel list, computed on the
// actor so readers outside it never observe a mid-operation state.
func (h *Hub) Channels(ctx context.Context) ([]ChannelSummary, error) {
	reply := make(chan []ChannelSummary, 1)
	select {
	case h.commands <- &Command{Kind: commandSnapshot, reply: reply}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case summaries := <-reply:
		return summaries, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (h *Hub) handle(cmd *Command) {
	switch cmd.Kind {
	case commandRegister:
		h.handleRegister(cmd.Client)
	case commandDisconnect:
		h.handleDisconnect(cmd.Client)
	case commandVitalityTick:
		h.handleTick(cmd.ChannelID)
	case commandSnapshot:
		cmd.reply <- h.channelSummaries()
	case CommandAuth:
		h.handleAuth(cmd)
	case CommandRename:
		h.handleRename(cmd)
	case CommandSendMessage:
		h.handleSendMessage(cmd)
	case CommandAddChannel:
		h.handleAddChannel(cmd)
	case CommandListChannels:
		cmd.Client.trySend(&Event{Kind: EventChannelList, Channels: h.channelSummaries()})
	case CommandJoinChannel:
		h.handleJoinChannel(cmd)
	case CommandDeleteChannel:
		h.handleDeleteChannel(cmd)
	case CommandUpdateChannel:
		h.handleUpdateChannel(cmd)
	default:
		h.log.Debug().Int("kind", int(cmd.Kind)).Msg("unknown command dropped")
	}
}

func (h *Hub) handleRegister(c *Client) {
	h.clients[c.ID] = c
	h.log.Debug().Str("client_id", c.ID).Msg("client registered")
}

func (h *Hub) handleDisconnect(c *Client) {
	cur, ok := h.clients[c.ID]
	if !ok || cur != c {
		// Identity was reclaimed by a newer connection; the
		// membership now belongs to that record.
		return
	}
	delete(h.clients, c.ID)
	h.leaveCurrent(c)
	h.log.Debug().Str("client_id", c.ID).Msg("client disconnected")
}

func (h *Hub) handleAuth(cmd *Command) {
	c := cmd.Client
	if name := strings.TrimSpace(cmd.Name); name != "" {
		c.Name = name
	}
	if hint := cmd.IdentityHint; hint != "" && hint != c.ID {
		if prior, ok := h.clients[hint]; ok && prior != c {
			// Duplicate explicit identity reuses the prior
			// record: inherit its channel pointer, no error.
			c.ChannelID = prior.ChannelID
		}
		delete(h.clients, c.ID)
		c.ID = hint
		h.clients[c.ID] = c
	}

	token := ""
	if h.tokens != nil {
		t, err := h.tokens.Issue(c.ID, c.Name)
		if err != nil {
			h.log.Warn().Err(err).Str("client_id", c.ID).Msg("issue resume token")
		} else {
			token = t
		}
	}
	c.trySend(&Event{Kind: EventAuth, ClientID: c.ID, Token: token})

	if ch, ok := h.channels[c.ChannelID]; ok {
		// Reclaimed identity rejoins its channel without re-running
		// the password gate; it was already a member.
		h.completeJoin(c, ch)
	} else if c.ChannelID != "" {
		c.ChannelID = ""
		c.trySend(&Event{Kind: EventSetChannel})
	}
}

func (h *Hub) handleRename(cmd *Command) {
	c := cmd.Client
	name := strings.TrimSpace(cmd.Name)
	if name == "" || name == c.Name {
		c.trySend(&Event{Kind: EventRenamed, Name: c.Name})
		return
	}
	c.Name = name

	// Identity propagation: member snapshots and message author
	// snapshots are rewritten in place (the documented mutation
	// exception); targeted system messages only update their render
	// fallback, the stored template text never changes.
	for _, id := range h.order {
		ch := h.channels[id]
		touched := ch.RenameMember(c.ID, name)
		for _, msg := range ch.Messages() {
			if msg.Author.ID == c.ID {
				msg.Author.Name = name
				touched = true
			}
			if msg.TargetID == c.ID {
				msg.TargetName = name
				touched = true
			}
		}
		if touched && !ch.Empty() {
			h.broadcastState(ch)
		}
	}
	c.trySend(&Event{Kind: EventRenamed, Name: name})
}

func (h *Hub) handleSendMessage(cmd *Command) {
	c := cmd.Client
	ch, ok := h.channels[c.ChannelID]
	if !ok || !ch.HasMember(c.ID) {
		return
	}
	content := cmd.Content
	if content == "" {
		return
	}
	msg := NewMessage(uuid.NewString(), Author{ID: c.ID, Name: c.Name}, content)
	h.appendAndBroadcast(ch, msg)
}

func (h *Hub) handleAddChannel(cmd *Command) {
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		return
	}
	if h.channelByName(name) != nil {
		// Channel names are unique; a duplicate add is a no-op.
		h.log.Debug().Str("name", name).Msg("duplicate channel name ignored")
		return
	}
	ch := NewChannel(uuid.NewString(), name, cmd.Client.ID, h.opts.VitalityMax)
	h.channels[ch.ID] = ch
	h.order = append(h.order, ch.ID)
	h.log.Info().Str("channel_id", ch.ID).Str("name", name).Str("owner_id", cmd.Client.ID).Msg("channel created")

	h.completeJoin(cmd.Client, ch)
	h.broadcastChannelList()
}

func (h *Hub) handleJoinChannel(cmd *Command) {
	c := cmd.Client
	ch, ok := h.channels[cmd.ChannelID]
	if !ok {
		// Unknown channel clears the pointer; not an error.
		h.leaveCurrent(c)
		c.ChannelID = ""
		c.trySend(&Event{Kind: EventSetChannel})
		return
	}
	if c.ChannelID == ch.ID && ch.HasMember(c.ID) {
		// Idempotent re-join: no state change, no second welcome.
		return
	}
	if ch.PasswordHash != "" && c.ID != ch.OwnerID {
		if cmd.Password == "" {
			c.trySend(&Event{
				Kind:      EventPasswordPrompt,
				ChannelID: ch.ID,
			})
			return
		}
		if err := h.gate.Compare(ch.PasswordHash, cmd.Password); err != nil {
			c.trySend(&Event{
				Kind:      EventPasswordPrompt,
				ChannelID: ch.ID,
				Error:     coreError(ErrCodePasswordIncorrect, "incorrect password"),
			})
			return
		}
	}
	h.completeJoin(c, ch)
}

// completeJoin performs the membership effects of a successful join:
// implicit leave of the previous channel, timer cancel and vitality
// reset, pointer update, state broadcast, and a one-time targeted
// welcome message.
func (h *Hub) completeJoin(c *Client, ch *Channel) {
	if c.ChannelID != "" && c.ChannelID != ch.ID {
		h.leaveCurrent(c)
	}
	first := !ch.HasJoinNoticeFor(c.ID)
	ch.AddMember(c.ID, c.Name)
	h.lifecycle.Cancel(ch.ID)
	ch.Vitality = h.opts.VitalityMax
	c.ChannelID = ch.ID

	c.trySend(&Event{Kind: EventSetChannel, ChannelID: ch.ID})
	h.broadcastState(ch)

	if first {
		msg := NewSystemMessage(uuid.NewString(), c.ID, c.Name, namePlaceholder+" joined the channel")
		h.appendAndBroadcast(ch, msg)
	}
}

// leaveCurrent removes the client from its current channel, entering
// the grace period if the channel becomes empty. The client's own
// pointer is left for the caller to update.
func (h *Hub) leaveCurrent(c *Client) {
	ch, ok := h.channels[c.ChannelID]
	if !ok {
		return
	}
	if !ch.RemoveMember(c.ID) {
		return
	}
	if ch.Empty() {
		h.enterGrace(ch)
	} else {
		h.broadcastState(ch)
	}
}

// enterGrace starts the destruction countdown for an empty channel.
func (h *Hub) enterGrace(ch *Channel) {
	ch.Vitality = h.opts.VitalityMax
	h.lifecycle.Schedule(ch.ID)
	h.log.Debug().Str("channel_id", ch.ID).Msg("channel entered grace period")
}

func (h *Hub) handleTick(channelID string) {
	ch, ok := h.channels[channelID]
	if !ok || !ch.Empty() {
		// Stale tick that raced a join or destruction.
		return
	}
	ch.Vitality--
	if ch.Vitality <= 0 {
		h.log.Info().Str("channel_id", ch.ID).Str("name", ch.Name).Msg("empty channel destroyed")
		h.destroyChannel(ch)
		return
	}
	h.broadcastGlobal(&Event{Kind: EventLifeUpdate, ChannelID: ch.ID, Vitality: ch.Vitality})
	h.lifecycle.Schedule(ch.ID)
}

func (h *Hub) handleDeleteChannel(cmd *Command) {
	ch, ok := h.channels[cmd.ChannelID]
	if !ok {
		return
	}
	if cmd.Client.ID != ch.OwnerID {
		h.log.Debug().Str("channel_id", ch.ID).Str("client_id", cmd.Client.ID).Msg("non-owner delete ignored")
		return
	}
	h.destroyChannel(ch)
}

func (h *Hub) handleUpdateChannel(cmd *Command) {
	ch, ok := h.channels[cmd.ChannelID]
	if !ok {
		return
	}
	if cmd.Client.ID != ch.OwnerID {
		h.log.Debug().Str("channel_id", ch.ID).Str("client_id", cmd.Client.ID).Msg("non-owner update ignored")
		return
	}
	if name := strings.TrimSpace(cmd.Name); name != "" && name != ch.Name && h.channelByName(name) == nil {
		ch.Name = name
	}
	if cmd.Password == "" {
		ch.PasswordHash = ""
	} else if hash, err := h.gate.Hash(cmd.Password); err != nil {
		h.log.Warn().Err(err).Str("channel_id", ch.ID).Msg("hash channel password")
	} else {
		ch.PasswordHash = hash
	}

	cmd.Client.trySend(&Event{Kind: EventChannelSaved, ChannelID: ch.ID})
	h.broadcastChannelList()
}

// destroyChannel removes a channel and announces the new channel list
// to every registered client, clearing stranded channel pointers.
func (h *Hub) destroyChannel(ch *Channel) {
	h.lifecycle.Cancel(ch.ID)
	delete(h.channels, ch.ID)
	for i, id := range h.order {
		if id == ch.ID {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
	for _, c := range h.clients {
		if c.ChannelID == ch.ID {
			c.ChannelID = ""
			c.trySend(&Event{Kind: EventSetChannel})
		}
	}
	h.broadcastChannelList()
}

// appendAndBroadcast adds a message to the channel log and fans the
// rendered view out to current members.
func (h *Hub) appendAndBroadcast(ch *Channel, msg *Message) {
	ch.Append(msg)
	view := h.renderMessage(msg)
	h.broadcastToChannel(ch, &Event{Kind: EventChannelMessage, ChannelID: ch.ID, Message: &view})
}

// broadcastToChannel delivers an event to members in insertion order.
// A member whose client record is gone is treated as an implicit
// leave and pruned.
func (h *Hub) broadcastToChannel(ch *Channel, ev *Event) {
	var stale []string
	for _, m := range ch.Members() {
		c, ok := h.clients[m.ClientID]
		if !ok {
			stale = append(stale, m.ClientID)
			continue
		}
		c.trySend(ev)
	}
	for _, id := range stale {
		ch.RemoveMember(id)
	}
	if len(stale) > 0 && ch.Empty() {
		h.enterGrace(ch)
	}
}

// broadcastGlobal delivers an event to every registered client.
func (h *Hub) broadcastGlobal(ev *Event) {
	for _, c := range h.clients {
		c.trySend(ev)
	}
}

func (h *Hub) broadcastChannelList() {
	h.broadcastGlobal(&Event{Kind: EventChannelList, Channels: h.channelSummaries()})
}

// broadcastState sends the channel's full state to its members.
func (h *Hub) broadcastState(ch *Channel) {
	msgs := ch.Messages()
	views := make([]MessageView, 0, len(msgs))
	for _, msg := range msgs {
		views = append(views, h.renderMessage(msg))
	}
	members := ch.Members()
	infos := make([]MemberInfo, 0, len(members))
	for _, m := range members {
		infos = append(infos, MemberInfo{ID: m.ClientID, Name: m.Name})
	}
	h.broadcastToChannel(ch, &Event{
		Kind:      EventChannelData,
		ChannelID: ch.ID,
		Messages:  views,
		Members:   infos,
		Vitality:  ch.Vitality,
	})
}

// renderMessage resolves a targeted system message's display name at
// delivery time against the live registry.
func (h *Hub) renderMessage(msg *Message) MessageView {
	content := msg.Content
	if msg.TargetID != "" {
		name := msg.TargetName
		if c, ok := h.clients[msg.TargetID]; ok {
			name = c.Name
		}
		content = strings.ReplaceAll(content, namePlaceholder, name)
	}
	return MessageView{
		ID:        msg.ID,
		Author:    MemberInfo{ID: msg.Author.ID, Name: msg.Author.Name},
		Content:   content,
		Timestamp: msg.Timestamp,
	}
}

func (h *Hub) channelSummaries() []ChannelSummary {
	out := make([]ChannelSummary, 0, len(h.order))
	for _, id := range h.order {
		ch := h.channels[id]
		out = append(out, ChannelSummary{
			ID:       ch.ID,
			Name:     ch.Name,
			Vitality: ch.Vitality,
			OwnerID:  ch.OwnerID,
		})
	}
	return out
}

func (h *Hub) channelByName(name string) *Channel {
	for _, ch := range h.channels {
		if ch.Name == name {
			return ch
		}
	}
	return nil
}
