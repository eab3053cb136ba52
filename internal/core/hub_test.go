package core

import (
	"strings"
	"testing"
	"time"
)

func TestCreateChannelAndJoin(t *testing.T) {
	hub, cancel := newTestHub(t, Options{})
	defer cancel()

	alice := authClient(t, hub, "a", "alice")
	bob := authClient(t, hub, "b", "bob")

	lobbyID := createChannel(t, hub, alice, "lobby")

	// The creator is welcomed into their own channel.
	welcome := mustEvent(t, alice.Events, EventChannelMessage)
	if welcome.Message.Author.ID != ServerAuthorID {
		t.Fatalf("expected server-authored welcome, got %+v", welcome.Message)
	}
	if welcome.Message.Content != "alice joined the channel" {
		t.Fatalf("unexpected welcome content: %q", welcome.Message.Content)
	}

	hub.Dispatch(&Command{Kind: CommandJoinChannel, Client: bob, ChannelID: lobbyID})

	setEv := mustEvent(t, bob.Events, EventSetChannel)
	if setEv.ChannelID != lobbyID {
		t.Fatalf("expected set-channel %q, got %q", lobbyID, setEv.ChannelID)
	}
	dataEv := mustEvent(t, bob.Events, EventChannelData)
	if len(dataEv.Members) != 2 {
		t.Fatalf("expected 2 members, got %+v", dataEv.Members)
	}
	if dataEv.Members[0].ID != "a" || dataEv.Members[1].ID != "b" {
		t.Fatalf("expected insertion-order members, got %+v", dataEv.Members)
	}

	// Alice sees bob's arrival.
	joinMsg := mustEvent(t, alice.Events, EventChannelMessage)
	if joinMsg.Message.Content != "bob joined the channel" {
		t.Fatalf("unexpected join notice: %q", joinMsg.Message.Content)
	}
}

func TestJoinIsIdempotent(t *testing.T) {
	hub, cancel := newTestHub(t, Options{})
	defer cancel()

	alice := authClient(t, hub, "a", "alice")
	bob := authClient(t, hub, "b", "bob")
	charlie := authClient(t, hub, "c", "charlie")

	lobbyID := createChannel(t, hub, alice, "lobby")

	hub.Dispatch(&Command{Kind: CommandJoinChannel, Client: bob, ChannelID: lobbyID})
	mustEvent(t, bob.Events, EventChannelData)
	drain(bob)

	// Second join is a complete no-op.
	hub.Dispatch(&Command{Kind: CommandJoinChannel, Client: bob, ChannelID: lobbyID})

	// Charlie's join broadcasts fresh state to everyone; inspect it.
	hub.Dispatch(&Command{Kind: CommandJoinChannel, Client: charlie, ChannelID: lobbyID})
	dataEv := mustEvent(t, bob.Events, EventChannelData)

	if len(dataEv.Members) != 3 {
		t.Fatalf("expected 3 members after double join, got %+v", dataEv.Members)
	}
	welcomes := 0
	for _, msg := range dataEv.Messages {
		if msg.Content == "bob joined the channel" {
			welcomes++
		}
	}
	if welcomes != 1 {
		t.Fatalf("expected exactly one join notice for bob, got %d", welcomes)
	}
}

func TestSendMessageFansOutInOrder(t *testing.T) {
	hub, cancel := newTestHub(t, Options{})
	defer cancel()

	alice := authClient(t, hub, "a", "alice")
	bob := authClient(t, hub, "b", "bob")

	lobbyID := createChannel(t, hub, alice, "lobby")
	hub.Dispatch(&Command{Kind: CommandJoinChannel, Client: bob, ChannelID: lobbyID})
	mustEvent(t, bob.Events, EventChannelData)
	drain(bob)

	hub.Dispatch(&Command{Kind: CommandSendMessage, Client: alice, Content: "first"})
	hub.Dispatch(&Command{Kind: CommandSendMessage, Client: alice, Content: "second"})

	// Skip any straggling system messages; only client-authored
	// messages carry the ordering assertion.
	nextChat := func() *Event {
		for {
			ev := mustEvent(t, bob.Events, EventChannelMessage)
			if ev.Message.Author.ID != ServerAuthorID {
				return ev
			}
		}
	}
	got1 := nextChat()
	got2 := nextChat()
	if got1.Message.Content != "first" || got2.Message.Content != "second" {
		t.Fatalf("messages out of order: %q then %q", got1.Message.Content, got2.Message.Content)
	}
	if got1.Message.Author.Name != "alice" {
		t.Fatalf("unexpected author: %+v", got1.Message.Author)
	}
}

func TestMessageWithoutChannelIgnored(t *testing.T) {
	hub, cancel := newTestHub(t, Options{})
	defer cancel()

	alice := authClient(t, hub, "a", "alice")
	drain(alice)

	hub.Dispatch(&Command{Kind: CommandSendMessage, Client: alice, Content: "into the void"})
	hub.Dispatch(&Command{Kind: CommandListChannels, Client: alice})

	// The list reply proves the message command was processed and
	// produced nothing.
	ev := mustEvent(t, alice.Events, EventChannelList)
	if len(ev.Channels) != 0 {
		t.Fatalf("expected no channels, got %+v", ev.Channels)
	}
}

func TestUnknownChannelJoinClearsPointer(t *testing.T) {
	hub, cancel := newTestHub(t, Options{})
	defer cancel()

	alice := authClient(t, hub, "a", "alice")
	createChannel(t, hub, alice, "lobby")
	drain(alice)

	hub.Dispatch(&Command{Kind: CommandJoinChannel, Client: alice, ChannelID: "no-such-channel"})

	ev := mustEvent(t, alice.Events, EventSetChannel)
	if ev.ChannelID != "" {
		t.Fatalf("expected cleared channel pointer, got %q", ev.ChannelID)
	}
}

func TestDuplicateChannelNameIgnored(t *testing.T) {
	hub, cancel := newTestHub(t, Options{})
	defer cancel()

	alice := authClient(t, hub, "a", "alice")
	bob := authClient(t, hub, "b", "bob")

	createChannel(t, hub, alice, "lobby")

	hub.Dispatch(&Command{Kind: CommandAddChannel, Client: bob, Name: "lobby"})
	hub.Dispatch(&Command{Kind: CommandListChannels, Client: bob})

	ev := mustEvent(t, bob.Events, EventChannelList)
	if len(ev.Channels) != 1 {
		t.Fatalf("expected a single lobby channel, got %+v", ev.Channels)
	}
	if ev.Channels[0].OwnerID != "a" {
		t.Fatalf("duplicate add must not steal ownership: %+v", ev.Channels[0])
	}
}

func TestPasswordGate(t *testing.T) {
	hub, cancel := newTestHub(t, Options{})
	defer cancel()

	alice := authClient(t, hub, "a", "alice")
	bob := authClient(t, hub, "b", "bob")

	secretID := createChannel(t, hub, alice, "secret")
	hub.Dispatch(&Command{Kind: CommandUpdateChannel, Client: alice, ChannelID: secretID, Password: "hunter2"})
	mustEvent(t, alice.Events, EventChannelSaved)

	// Join without password: challenge, no membership change.
	hub.Dispatch(&Command{Kind: CommandJoinChannel, Client: bob, ChannelID: secretID})
	prompt := mustEvent(t, bob.Events, EventPasswordPrompt)
	if prompt.ChannelID != secretID || prompt.Error != nil {
		t.Fatalf("expected bare challenge, got %+v", prompt)
	}

	// Wrong password: error challenge, no membership change.
	hub.Dispatch(&Command{Kind: CommandJoinChannel, Client: bob, ChannelID: secretID, Password: "wrong"})
	prompt = mustEvent(t, bob.Events, EventPasswordPrompt)
	if prompt.Error == nil || prompt.Error.Code != ErrCodePasswordIncorrect {
		t.Fatalf("expected incorrect-password challenge, got %+v", prompt)
	}

	// Correct password: membership changes.
	hub.Dispatch(&Command{Kind: CommandJoinChannel, Client: bob, ChannelID: secretID, Password: "hunter2"})
	dataEv := mustEvent(t, bob.Events, EventChannelData)
	found := false
	for _, m := range dataEv.Members {
		if m.ID == "b" {
			found = true
		}
	}
	if !found {
		t.Fatalf("bob missing from members after correct password: %+v", dataEv.Members)
	}
	welcomes := 0
	for _, msg := range dataEv.Messages {
		if msg.Content == "bob joined the channel" {
			welcomes++
		}
	}
	if welcomes != 1 {
		t.Fatalf("expected one join notice despite failed attempts, got %d", welcomes)
	}
}

func TestOwnerBypassesPasswordGate(t *testing.T) {
	hub, cancel := newTestHub(t, Options{})
	defer cancel()

	alice := authClient(t, hub, "a", "alice")

	secretID := createChannel(t, hub, alice, "secret")
	hub.Dispatch(&Command{Kind: CommandUpdateChannel, Client: alice, ChannelID: secretID, Password: "hunter2"})
	mustEvent(t, alice.Events, EventChannelSaved)

	// Leaving by creating another channel, then rejoining without a
	// password, must succeed for the owner.
	createChannel(t, hub, alice, "annex")
	drain(alice)

	hub.Dispatch(&Command{Kind: CommandJoinChannel, Client: alice, ChannelID: secretID})
	ev := mustEvent(t, alice.Events, EventSetChannel)
	if ev.ChannelID != secretID {
		t.Fatalf("owner rejoin failed: %+v", ev)
	}
}

func TestVitalityCountdownAndDestruction(t *testing.T) {
	hub, cancel := newTestHub(t, Options{VitalityMax: 3, TickInterval: 5 * time.Millisecond})
	defer cancel()

	alice := authClient(t, hub, "a", "alice")
	observer := authClient(t, hub, "o", "observer")
	drain(observer)

	lobbyID := createChannel(t, hub, alice, "lobby")

	// Sole member leaves; lobby enters its grace period.
	hub.Dispatch(&Command{Kind: CommandJoinChannel, Client: alice, ChannelID: "gone"})
	mustEvent(t, alice.Events, EventSetChannel)

	// Vitality ticks go to every client, channel member or not.
	tick := mustEvent(t, observer.Events, EventLifeUpdate)
	if tick.ChannelID != lobbyID || tick.Vitality >= 3 {
		t.Fatalf("unexpected life update: %+v", tick)
	}

	// Countdown exhaustion removes lobby from the registry.
	waitForChannels(t, hub, func(channels []ChannelSummary) bool {
		return len(channels) == 0
	})

	// And the destruction was announced globally.
	deadline := time.Now().Add(2 * time.Second)
	for {
		ev := mustEvent(t, observer.Events, EventChannelList)
		if len(ev.Channels) == 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("destruction never announced: %+v", ev.Channels)
		}
	}
}

func TestRejoinDuringGraceResetsVitality(t *testing.T) {
	hub, cancel := newTestHub(t, Options{VitalityMax: 5, TickInterval: 10 * time.Millisecond})
	defer cancel()

	alice := authClient(t, hub, "a", "alice")
	lobbyID := createChannel(t, hub, alice, "lobby")
	createChannel(t, hub, alice, "other") // implicit leave; lobby enters grace

	// Wait until the countdown has visibly started.
	tick := mustEvent(t, alice.Events, EventLifeUpdate)
	if tick.ChannelID != lobbyID {
		t.Fatalf("unexpected life update: %+v", tick)
	}

	hub.Dispatch(&Command{Kind: CommandJoinChannel, Client: alice, ChannelID: lobbyID})
	mustEvent(t, alice.Events, EventChannelData)

	summaries := waitForChannels(t, hub, func(channels []ChannelSummary) bool { return true })
	for _, ch := range summaries {
		if ch.ID == lobbyID && ch.Vitality != 5 {
			t.Fatalf("vitality not reset on rejoin: %+v", ch)
		}
	}

	// An occupied channel never decays.
	time.Sleep(50 * time.Millisecond)
	summaries = waitForChannels(t, hub, func(channels []ChannelSummary) bool { return true })
	foundLobby := false
	for _, ch := range summaries {
		if ch.ID == lobbyID {
			foundLobby = true
			if ch.Vitality != 5 {
				t.Fatalf("occupied channel decayed: %+v", ch)
			}
		}
	}
	if !foundLobby {
		t.Fatalf("occupied lobby was destroyed")
	}
}

func TestRenamePropagation(t *testing.T) {
	hub, cancel := newTestHub(t, Options{})
	defer cancel()

	alice := authClient(t, hub, "a", "alice")
	bob := authClient(t, hub, "b", "bob")

	lobbyID := createChannel(t, hub, alice, "lobby")
	hub.Dispatch(&Command{Kind: CommandJoinChannel, Client: bob, ChannelID: lobbyID})
	mustEvent(t, bob.Events, EventChannelData)

	hub.Dispatch(&Command{Kind: CommandSendMessage, Client: alice, Content: "hello there"})
	// Bob's message contains the old name as a substring; structured
	// rename propagation must leave it untouched.
	hub.Dispatch(&Command{Kind: CommandSendMessage, Client: bob, Content: "alice in wonderland"})
	mustEvent(t, bob.Events, EventChannelMessage)
	drain(bob)
	drain(alice)

	hub.Dispatch(&Command{Kind: CommandRename, Client: alice, Name: "alicia"})

	ack := mustEvent(t, alice.Events, EventRenamed)
	if ack.Name != "alicia" {
		t.Fatalf("unexpected rename ack: %+v", ack)
	}

	dataEv := mustEvent(t, bob.Events, EventChannelData)

	for _, m := range dataEv.Members {
		if m.ID == "a" && m.Name != "alicia" {
			t.Fatalf("member snapshot not renamed: %+v", m)
		}
	}
	for _, msg := range dataEv.Messages {
		if msg.Author.ID == "a" && msg.Author.Name != "alicia" {
			t.Fatalf("author snapshot not renamed: %+v", msg)
		}
		if msg.Author.ID == ServerAuthorID && strings.Contains(msg.Content, "alice ") {
			t.Fatalf("system message still names alice: %q", msg.Content)
		}
	}

	// The join notice for alice now reads with the new name.
	foundNotice := false
	for _, msg := range dataEv.Messages {
		if msg.Content == "alicia joined the channel" {
			foundNotice = true
		}
	}
	if !foundNotice {
		t.Fatalf("renamed join notice missing: %+v", dataEv.Messages)
	}

	// Bob's own message is outside the rename's subset.
	foundBob := false
	for _, msg := range dataEv.Messages {
		if msg.Author.ID == "b" {
			foundBob = true
			if msg.Content != "alice in wonderland" {
				t.Fatalf("unrelated content mutated: %q", msg.Content)
			}
		}
	}
	if !foundBob {
		t.Fatalf("bob's message missing from log")
	}
}

func TestDeleteChannelOwnerOnly(t *testing.T) {
	hub, cancel := newTestHub(t, Options{})
	defer cancel()

	alice := authClient(t, hub, "a", "alice")
	bob := authClient(t, hub, "b", "bob")

	lobbyID := createChannel(t, hub, alice, "lobby")
	hub.Dispatch(&Command{Kind: CommandJoinChannel, Client: bob, ChannelID: lobbyID})
	mustEvent(t, bob.Events, EventChannelData)
	drain(bob)

	// A non-owner delete is silently ignored.
	hub.Dispatch(&Command{Kind: CommandDeleteChannel, Client: bob, ChannelID: lobbyID})
	summaries := waitForChannels(t, hub, func(channels []ChannelSummary) bool { return true })
	if len(summaries) != 1 {
		t.Fatalf("non-owner delete took effect: %+v", summaries)
	}

	hub.Dispatch(&Command{Kind: CommandDeleteChannel, Client: alice, ChannelID: lobbyID})

	// Members are detached and the new list is announced globally.
	setEv := mustEvent(t, bob.Events, EventSetChannel)
	if setEv.ChannelID != "" {
		t.Fatalf("expected cleared pointer after destruction, got %q", setEv.ChannelID)
	}
	listEv := mustEvent(t, bob.Events, EventChannelList)
	if len(listEv.Channels) != 0 {
		t.Fatalf("destroyed channel still listed: %+v", listEv.Channels)
	}
}

func TestUpdateChannelOwnerOnly(t *testing.T) {
	hub, cancel := newTestHub(t, Options{})
	defer cancel()

	alice := authClient(t, hub, "a", "alice")
	bob := authClient(t, hub, "b", "bob")

	lobbyID := createChannel(t, hub, alice, "lobby")

	hub.Dispatch(&Command{Kind: CommandUpdateChannel, Client: bob, ChannelID: lobbyID, Name: "hijacked"})
	hub.Dispatch(&Command{Kind: CommandUpdateChannel, Client: alice, ChannelID: lobbyID, Name: "den"})

	mustEvent(t, alice.Events, EventChannelSaved)
	summaries := waitForChannels(t, hub, func(channels []ChannelSummary) bool { return true })
	if len(summaries) != 1 || summaries[0].Name != "den" {
		t.Fatalf("expected rename to den only, got %+v", summaries)
	}
}

func TestAuthReclaimsIdentity(t *testing.T) {
	hub, cancel := newTestHub(t, Options{})
	defer cancel()

	alice := authClient(t, hub, "a", "alice")
	bob := authClient(t, hub, "b", "bob")
	lobbyID := createChannel(t, hub, alice, "lobby")
	hub.Dispatch(&Command{Kind: CommandJoinChannel, Client: bob, ChannelID: lobbyID})
	mustEvent(t, bob.Events, EventChannelData)

	// A fresh connection reclaims alice's identity.
	second := NewClient("conn-2", "")
	hub.RegisterClient(second)
	hub.Dispatch(&Command{Kind: CommandAuth, Client: second, Name: "alice", IdentityHint: "a"})

	authEv := mustEvent(t, second.Events, EventAuth)
	if authEv.ClientID != "a" {
		t.Fatalf("expected reclaimed id a, got %q", authEv.ClientID)
	}
	setEv := mustEvent(t, second.Events, EventSetChannel)
	if setEv.ChannelID != lobbyID {
		t.Fatalf("expected automatic rejoin of lobby, got %q", setEv.ChannelID)
	}
	dataEv := mustEvent(t, second.Events, EventChannelData)
	welcomes := 0
	for _, msg := range dataEv.Messages {
		if msg.Content == "alice joined the channel" {
			welcomes++
		}
	}
	if welcomes != 1 {
		t.Fatalf("reconnect must not produce a second welcome, got %d", welcomes)
	}

	// The stale connection's disconnect must not evict the new one.
	hub.UnregisterClient(alice)
	hub.Dispatch(&Command{Kind: CommandSendMessage, Client: second, Content: "back"})
	for {
		msgEv := mustEvent(t, bob.Events, EventChannelMessage)
		if msgEv.Message.Author.ID == ServerAuthorID {
			continue
		}
		if msgEv.Message.Content != "back" || msgEv.Message.Author.ID != "a" {
			t.Fatalf("reclaimed identity cannot speak: %+v", msgEv.Message)
		}
		break
	}
}

func TestDisconnectOfSoleMemberStartsGrace(t *testing.T) {
	hub, cancel := newTestHub(t, Options{VitalityMax: 2, TickInterval: 5 * time.Millisecond})
	defer cancel()

	observer := authClient(t, hub, "o", "observer")
	drain(observer)

	alice := authClient(t, hub, "a", "alice")
	createChannel(t, hub, alice, "lobby")

	hub.UnregisterClient(alice)

	waitForChannels(t, hub, func(channels []ChannelSummary) bool {
		return len(channels) == 0
	})
}

func TestPingBroadcast(t *testing.T) {
	hub, cancel := newTestHub(t, Options{PingInterval: 5 * time.Millisecond})
	defer cancel()

	alice := authClient(t, hub, "a", "alice")
	ev := mustEvent(t, alice.Events, EventPing)
	if ev.Timestamp.IsZero() {
		t.Fatalf("ping without timestamp")
	}
}

func TestMembershipSymmetryInvariant(t *testing.T) {
	hub, cancel := newTestHub(t, Options{})
	defer cancel()

	alice := authClient(t, hub, "a", "alice")
	bob := authClient(t, hub, "b", "bob")

	lobbyID := createChannel(t, hub, alice, "lobby")
	createChannel(t, hub, bob, "annex")
	hub.Dispatch(&Command{Kind: CommandJoinChannel, Client: bob, ChannelID: lobbyID})
	mustEvent(t, bob.Events, EventChannelData)

	// Stop the actor, then inspect final state race-free.
	cancel()
	time.Sleep(20 * time.Millisecond)

	for id, c := range hub.clients {
		if c.ChannelID == "" {
			continue
		}
		ch, ok := hub.channels[c.ChannelID]
		if !ok {
			t.Fatalf("client %s points at missing channel %s", id, c.ChannelID)
		}
		if !ch.HasMember(id) {
			t.Fatalf("client %s points at %s but is not a member", id, ch.Name)
		}
	}
}
