package core

import (
	"context"
	"testing"
	"time"
)

func TestHubJoinAndLeaveAcknowledged(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	hub := testHub(t)
	go hub.Run(ctx)

	alice := NewClient("a")
	hub.RegisterClient(alice)

	alice.Commands <- &Command{Kind: CommandJoinRoom, Room: "general"}
	joinEv := mustEvent(t, alice.Events, EventJoinAck)
	if joinEv.Status != StatusJoinAcknowledged {
		t.Fatalf("unexpected join ack status: %q", joinEv.Status)
	}

	waitFor(t, func() bool {
		return len(hub.Members("general")) == 1
	}, "expected alice in room channel")

	alice.Commands <- &Command{Kind: CommandLeaveRoom, Room: "general"}
	leaveEv := mustEvent(t, alice.Events, EventLeaveAck)
	if leaveEv.Status != StatusLeaveAcknowledged {
		t.Fatalf("unexpected leave ack status: %q", leaveEv.Status)
	}

	waitFor(t, func() bool {
		return len(hub.Members("general")) == 0
	}, "expected empty room channel after leave")
}

func TestHubLeaveWithoutJoinStillAcknowledges(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	hub := testHub(t)
	go hub.Run(ctx)

	alice := NewClient("a")
	hub.RegisterClient(alice)

	alice.Commands <- &Command{Kind: CommandLeaveRoom, Room: "ghost"}
	ev := mustEvent(t, alice.Events, EventLeaveAck)
	if ev.Status != StatusLeaveAcknowledged {
		t.Fatalf("unexpected leave ack status: %q", ev.Status)
	}
}

func TestHubJoinRequiresRoomName(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	hub := testHub(t)
	go hub.Run(ctx)

	alice := NewClient("a")
	hub.RegisterClient(alice)

	alice.Commands <- &Command{Kind: CommandJoinRoom, Room: ""}
	ev := mustEvent(t, alice.Events, EventError)
	if ev.Error == nil || ev.Error.Code != ErrCodeBadRequest {
		t.Fatalf("expected bad_request error, got %+v", ev)
	}
}

func TestHubDoubleJoinIsIdempotent(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	hub := testHub(t)
	go hub.Run(ctx)

	alice := NewClient("a")
	hub.RegisterClient(alice)

	alice.Commands <- &Command{Kind: CommandJoinRoom, Room: "general"}
	mustEvent(t, alice.Events, EventJoinAck)
	alice.Commands <- &Command{Kind: CommandJoinRoom, Room: "general"}
	mustEvent(t, alice.Events, EventJoinAck)

	waitFor(t, func() bool {
		return len(hub.Members("general")) == 1
	}, "double join should keep a single channel membership")
}

func TestHubAuthenticateBroadcastsPresence(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	hub := testHub(t)
	go hub.Run(ctx)

	alice := NewClient("a")
	bob := NewClient("b")
	hub.RegisterClient(alice)
	hub.RegisterClient(bob)

	alice.Commands <- &Command{Kind: CommandAuthenticate, UserID: "u1"}

	// Both connections observe the distinct-user count.
	mustPresenceCount(t, bob.Events, 1)

	// A second tab of the same user must not change the distinct count.
	bob.Commands <- &Command{Kind: CommandAuthenticate, UserID: "u1"}
	waitFor(t, func() bool {
		return hub.ConnectedUsers() == 1
	}, "same user on two connections should count once")

	carol := NewClient("c")
	hub.RegisterClient(carol)
	carol.Commands <- &Command{Kind: CommandAuthenticate, UserID: "u2"}
	mustPresenceCount(t, alice.Events, 2)
}

func TestHubDisconnectReleasesRoomsAndPresence(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	hub := testHub(t)
	go hub.Run(ctx)

	alice := NewClient("a")
	bob := NewClient("b")
	hub.RegisterClient(alice)
	hub.RegisterClient(bob)

	alice.Commands <- &Command{Kind: CommandAuthenticate, UserID: "u1"}
	alice.Commands <- &Command{Kind: CommandJoinRoom, Room: "general"}
	mustEvent(t, alice.Events, EventJoinAck)

	hub.UnregisterClient(alice)

	waitFor(t, func() bool {
		return len(hub.Members("general")) == 0
	}, "disconnect should remove the connection from its rooms")
	waitFor(t, func() bool {
		return hub.ConnectedUsers() == 0
	}, "disconnect should release the presence slot")

	// The remaining connection hears about the transition to zero.
	mustPresenceCount(t, bob.Events, 0)
}

func TestHubAcknowledgeUnknownDelivery(t *testing.T) {
	hub := testHub(t)
	if hub.Acknowledge("no-such-delivery") {
		t.Fatal("acknowledging an unknown delivery should report false")
	}
}

func TestHubMembersAfterShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	hub := testHub(t)
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	cancel()
	<-done

	// Calls after shutdown must not block.
	if members := hub.Members("general"); members != nil {
		t.Fatalf("expected nil members after shutdown, got %v", members)
	}
	hub.RegisterClient(NewClient("late"))
	hub.UnregisterClient(NewClient("later"))
}
