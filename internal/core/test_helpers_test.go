package core

import (
	"context"
	"errors"
	"testing"
	"time"
)

// plainGate hashes with a marker prefix so tests avoid bcrypt cost.
type plainGate struct{}

func (plainGate) Hash(password string) (string, error) {
	return "plain:" + password, nil
}

func (plainGate) Compare(hash, password string) error {
	if hash == "plain:"+password {
		return nil
	}
	return errors.New("password mismatch")
}

func newTestHub(t *testing.T, opts Options) (*Hub, context.CancelFunc) {
	t.Helper()

	if opts.PingInterval == 0 {
		opts.PingInterval = time.Minute // keep pings out of short tests
	}
	hub := NewHub(plainGate{}, nil, opts, nil)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	return hub, cancel
}

// authClient registers a connection and authenticates it, returning
// the client once the auth ack arrives.
func authClient(t *testing.T, hub *Hub, id, name string) *Client {
	t.Helper()

	c := NewClient(id, "")
	hub.RegisterClient(c)
	hub.Dispatch(&Command{Kind: CommandAuth, Client: c, Name: name})
	ev := mustEvent(t, c.Events, EventAuth)
	if ev.ClientID != id {
		t.Fatalf("expected assigned id %q, got %q", id, ev.ClientID)
	}
	return c
}

// createChannel has the client create a channel and returns its id
// from the resulting set-channel event.
func createChannel(t *testing.T, hub *Hub, c *Client, name string) string {
	t.Helper()

	hub.Dispatch(&Command{Kind: CommandAddChannel, Client: c, Name: name})
	ev := mustEvent(t, c.Events, EventSetChannel)
	if ev.ChannelID == "" {
		t.Fatalf("expected channel id in set-channel event")
	}
	return ev.ChannelID
}

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

// drain discards every pending event.
func drain(c *Client) {
	for {
		select {
		case <-c.Events:
		default:
			return
		}
	}
}

// waitForChannels polls the hub snapshot until the predicate holds.
func waitForChannels(t *testing.T, hub *Hub, pred func([]ChannelSummary) bool) []ChannelSummary {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		summaries, err := hub.Channels(ctx)
		if err != nil {
			t.Fatalf("snapshot failed: %v", err)
		}
		if pred(summaries) {
			return summaries
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("channel snapshot predicate never satisfied")
	return nil
}
