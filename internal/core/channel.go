package core

// Member is a channel membership entry holding a display-name snapshot.
type Member struct {
	ClientID string
	Name     string
}

// Channel is a named room: an ordered member set, an append-only
// message log, a password gate, and a destruction countdown. All
// mutation happens on the hub actor; Channel itself owns no timers,
// the lifecycle scheduler does (keyed by channel id).
type Channel struct {
	ID           string
	Name         string
	OwnerID      string
	PasswordHash string
	Vitality     int

	members  []Member
	messages []*Message
}

// NewChannel constructs an empty channel owned by the creating client.
func NewChannel(id, name, ownerID string, vitality int) *Channel {
	return &Channel{
		ID:       id,
		Name:     name,
		OwnerID:  ownerID,
		Vitality: vitality,
	}
}

// HasMember reports whether the client is in the member set.
func (ch *Channel) HasMember(clientID string) bool {
	for _, m := range ch.members {
		if m.ClientID == clientID {
			return true
		}
	}
	return false
}

// AddMember appends a membership entry, preserving insertion order.
// Returns false if the client is already a member.
func (ch *Channel) AddMember(clientID, name string) bool {
	if ch.HasMember(clientID) {
		return false
	}
	ch.members = append(ch.members, Member{ClientID: clientID, Name: name})
	return true
}

// RemoveMember deletes a membership entry. Returns true if removed.
func (ch *Channel) RemoveMember(clientID string) bool {
	for i, m := range ch.members {
		if m.ClientID == clientID {
			ch.members = append(ch.members[:i], ch.members[i+1:]...)
			return true
		}
	}
	return false
}

// RenameMember updates the display-name snapshot for a member.
func (ch *Channel) RenameMember(clientID, name string) bool {
	for i, m := range ch.members {
		if m.ClientID == clientID {
			ch.members[i].Name = name
			return true
		}
	}
	return false
}

// Members returns a copy of the member set in insertion order.
func (ch *Channel) Members() []Member {
	out := make([]Member, len(ch.members))
	copy(out, ch.members)
	return out
}

// Empty returns true if no clients are members.
func (ch *Channel) Empty() bool {
	return len(ch.members) == 0
}

// Append adds a message to the end of the log. The log is append-only;
// nothing is ever removed or reordered.
func (ch *Channel) Append(msg *Message) {
	ch.messages = append(ch.messages, msg)
}

// Messages returns the log in append order.
func (ch *Channel) Messages() []*Message {
	return ch.messages
}

// HasJoinNoticeFor reports whether the log already holds a system
// message targeted at the client. Used to welcome a client only on
// their first ever join of this channel.
func (ch *Channel) HasJoinNoticeFor(clientID string) bool {
	for _, msg := range ch.messages {
		if msg.TargetID == clientID {
			return true
		}
	}
	return false
}
