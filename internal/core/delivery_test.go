package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mkorobov/roomcast-server/internal/log"
)

func testMessage(room string) *Message {
	return &Message{
		ID:      "m1",
		Content: "hi",
		Created: time.Now(),
		RoomID:  room,
		User:    UserView{ID: "u1", Name: "alice"},
	}
}

func TestBroadcasterResolvesOnAck(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	hub := testHub(t)
	go hub.Run(ctx)

	alice := NewClient("a")
	hub.RegisterClient(alice)
	alice.Commands <- &Command{Kind: CommandJoinRoom, Room: "general"}
	mustEvent(t, alice.Events, EventJoinAck)

	b := NewBroadcaster(hub, 50*time.Millisecond, 3, log.Nop())

	errCh := make(chan error, 1)
	go func() {
		errCh <- b.Deliver(ctx, EventNameChatMessage, testMessage("general"))
	}()

	ev := mustEvent(t, alice.Events, EventChatMessage)
	if ev.DeliveryID == "" {
		t.Fatal("broadcast event missing delivery id")
	}
	if ev.Message == nil || ev.Message.Content != "hi" {
		t.Fatalf("unexpected broadcast message: %+v", ev.Message)
	}
	if !hub.Acknowledge(ev.DeliveryID) {
		t.Fatal("acknowledge of an in-flight delivery should report true")
	}

	if err := <-errCh; err != nil {
		t.Fatalf("acknowledged delivery failed: %v", err)
	}
}

func TestBroadcasterExhaustsRetriesWithoutAck(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	hub := testHub(t)
	go hub.Run(ctx)

	b := NewBroadcaster(hub, 20*time.Millisecond, 3, log.Nop())

	start := time.Now()
	err := b.Deliver(ctx, EventNameChatMessage, testMessage("empty-room"))
	elapsed := time.Since(start)

	var de *DeliveryError
	if !errors.As(err, &de) {
		t.Fatalf("expected DeliveryError, got %v", err)
	}
	if de.Attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", de.Attempts)
	}
	if elapsed < 60*time.Millisecond {
		t.Fatalf("delivery gave up too early: %v", elapsed)
	}
}

func TestBroadcasterReachesLateJoiner(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	hub := testHub(t)
	go hub.Run(ctx)

	b := NewBroadcaster(hub, 60*time.Millisecond, 5, log.Nop())

	errCh := make(chan error, 1)
	go func() {
		errCh <- b.Deliver(ctx, EventNameChatMessage, testMessage("general"))
	}()

	// Join after the first attempt has already fanned out to nobody.
	time.Sleep(80 * time.Millisecond)
	bob := NewClient("b")
	hub.RegisterClient(bob)
	bob.Commands <- &Command{Kind: CommandJoinRoom, Room: "general"}
	mustEvent(t, bob.Events, EventJoinAck)

	ev := mustEvent(t, bob.Events, EventChatMessage)
	hub.Acknowledge(ev.DeliveryID)

	if err := <-errCh; err != nil {
		t.Fatalf("late joiner should resolve the delivery, got %v", err)
	}
}

func TestBroadcasterStopsOnContextCancel(t *testing.T) {
	hub := testHub(t)
	runCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go hub.Run(runCtx)

	b := NewBroadcaster(hub, 500*time.Millisecond, 3, log.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- b.Deliver(ctx, EventNameChatMessage, testMessage("general"))
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestBroadcasterDefaultsOnBadParameters(t *testing.T) {
	b := NewBroadcaster(testHub(t), 0, -1, log.Nop())
	if b.retryInterval != DefaultRetryInterval || b.maxAttempts != DefaultMaxAttempts {
		t.Fatalf("expected defaults, got interval=%v attempts=%d", b.retryInterval, b.maxAttempts)
	}
	if b.Deadline() != DefaultRetryInterval*DefaultMaxAttempts {
		t.Fatalf("unexpected deadline: %v", b.Deadline())
	}
}

func TestAckRegistrySingleAckPerRound(t *testing.T) {
	r := newAckRegistry()

	ch := r.arm("d1")
	if !r.signal("d1") {
		t.Fatal("signal on armed delivery should report true")
	}
	// Second ack for the same round is dropped but still known.
	if !r.signal("d1") {
		t.Fatal("second signal on armed delivery should report true")
	}

	select {
	case <-ch:
	default:
		t.Fatal("armed channel should carry the ack")
	}

	r.disarm("d1")
	if r.signal("d1") {
		t.Fatal("signal after disarm should report false")
	}
	if r.signal("never-armed") {
		t.Fatal("signal on unknown delivery should report false")
	}
}
