package core

import "time"

// Identity of the server author used for system messages.
const (
	ServerAuthorID   = "server"
	ServerAuthorName = "Server"
)

// namePlaceholder marks where a targeted system message wants the
// subject's display name. It is substituted at render time so a rename
// never has to rewrite stored message text.
const namePlaceholder = "{name}"

// Author identifies who wrote a message. Name is a display-name
// snapshot taken at append time; it is the one field of an appended
// message that identity propagation rewrites in place.
type Author struct {
	ID   string
	Name string
}

// Message is an entry in a channel's append-only log. TargetID is set
// on system messages addressed to a single client; for those, Content
// holds a template containing namePlaceholder and TargetName keeps the
// subject's name at append time as a render fallback.
type Message struct {
	ID         string
	Author     Author
	Content    string
	Timestamp  time.Time
	TargetID   string
	TargetName string
}

// NewMessage builds a chat message authored by a client.
func NewMessage(id string, author Author, content string) *Message {
	return &Message{
		ID:        id,
		Author:    author,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewSystemMessage builds a server-authored message targeted at one
// client. The template should contain namePlaceholder where the
// subject's display name belongs.
func NewSystemMessage(id, targetID, targetName, template string) *Message {
	return &Message{
		ID:         id,
		Author:     Author{ID: ServerAuthorID, Name: ServerAuthorName},
		Content:    template,
		Timestamp:  time.Now(),
		TargetID:   targetID,
		TargetName: targetName,
	}
}
