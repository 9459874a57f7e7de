package ws

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillmatch/internal/domain/match"
	"skillmatch/internal/domain/matching"
)

func newTestClient(hub *Hub, userID uuid.UUID) *Client {
	return &Client{hub: hub, userID: userID, send: make(chan []byte, sendBuffer)}
}

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func receive(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case msg := <-c.send:
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message delivered")
		return nil
	}
}

func TestHub_SendToUserOnlyReachesThatUser(t *testing.T) {
	hub := startHub(t)
	alice, bob := uuid.New(), uuid.New()

	a1, a2, b1 := newTestClient(hub, alice), newTestClient(hub, alice), newTestClient(hub, bob)
	hub.Register(a1)
	hub.Register(a2)
	hub.Register(b1)
	require.Eventually(t, func() bool { return hub.ClientCount() == 3 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 2, hub.UserClientCount(alice))

	hub.SendToUser(alice, []byte("hello"))
	assert.Equal(t, "hello", string(receive(t, a1)))
	assert.Equal(t, "hello", string(receive(t, a2)))

	select {
	case <-b1.send:
		t.Fatal("bob received alice's message")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_Unregister(t *testing.T) {
	hub := startHub(t)
	id := uuid.New()
	c := newTestClient(hub, id)

	hub.Register(c)
	require.Eventually(t, func() bool { return hub.UserClientCount(id) == 1 }, time.Second, 5*time.Millisecond)

	hub.Unregister(c)
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)

	_, open := <-c.send
	assert.False(t, open)
}

func TestHub_StoppedHubDoesNotBlock(t *testing.T) {
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	live := newTestClient(hub, uuid.New())
	hub.Register(live)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	<-stopped
	_, open := <-live.send
	assert.False(t, open)

	finished := make(chan struct{})
	go func() {
		// more than the unregister buffer holds
		for i := 0; i < 300; i++ {
			hub.Unregister(newTestClient(hub, uuid.New()))
		}
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("Unregister blocked after the hub stopped")
	}

	late := newTestClient(hub, uuid.New())
	hub.Register(late)
	_, open = <-late.send
	assert.False(t, open)
	assert.Zero(t, hub.ClientCount())
}

func TestHub_NilSafe(t *testing.T) {
	var hub *Hub
	hub.SendToUser(uuid.New(), []byte("x"))
	hub.Register(nil)
	assert.Zero(t, hub.ClientCount())
}

type fakeSource struct {
	updates []match.Update
}

func (f fakeSource) SubscribeUpdates(_ context.Context, handle func(match.Update)) error {
	for _, u := range f.updates {
		handle(u)
	}
	return nil
}

func TestForward(t *testing.T) {
	hub := startHub(t)
	userID, matchID := uuid.New(), uuid.New()
	c := newTestClient(hub, userID)
	hub.Register(c)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	src := fakeSource{updates: []match.Update{{
		MatchID: matchID,
		UserID:  userID,
		Status:  match.StatusCompleted,
		Message: "analysis completed",
		Result:  &matching.Result{MatchScore: 55},
	}}}
	require.NoError(t, Forward(context.Background(), src, hub, nil))

	var evt struct {
		Type    string       `json:"type"`
		MatchID uuid.UUID    `json:"match_id"`
		Status  match.Status `json:"status"`
		Result  struct {
			MatchScore float64 `json:"match_score"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(receive(t, c), &evt))
	assert.Equal(t, EventMatchUpdate, evt.Type)
	assert.Equal(t, matchID, evt.MatchID)
	assert.Equal(t, match.StatusCompleted, evt.Status)
	assert.Equal(t, 55.0, evt.Result.MatchScore)
}
