package core

import "testing"

func TestPresenceCountsDistinctUsers(t *testing.T) {
	p := NewPresence()

	count, transitioned := p.Connect("u1")
	if count != 1 || !transitioned {
		t.Fatalf("first connect: got count=%d transitioned=%v", count, transitioned)
	}

	// Second connection of the same user is not a transition.
	count, transitioned = p.Connect("u1")
	if count != 1 || transitioned {
		t.Fatalf("second connect same user: got count=%d transitioned=%v", count, transitioned)
	}

	count, transitioned = p.Connect("u2")
	if count != 2 || !transitioned {
		t.Fatalf("second user: got count=%d transitioned=%v", count, transitioned)
	}
}

func TestPresenceDisconnectTransitions(t *testing.T) {
	p := NewPresence()
	p.Connect("u1")
	p.Connect("u1")

	count, transitioned := p.Disconnect("u1")
	if count != 1 || transitioned {
		t.Fatalf("first disconnect: got count=%d transitioned=%v", count, transitioned)
	}

	count, transitioned = p.Disconnect("u1")
	if count != 0 || !transitioned {
		t.Fatalf("last disconnect: got count=%d transitioned=%v", count, transitioned)
	}
}

func TestPresenceDisconnectUnknownUser(t *testing.T) {
	p := NewPresence()
	p.Connect("u1")

	count, transitioned := p.Disconnect("ghost")
	if count != 1 || transitioned {
		t.Fatalf("unknown disconnect: got count=%d transitioned=%v", count, transitioned)
	}
	if p.Count() != 1 {
		t.Fatalf("count drifted after unknown disconnect: %d", p.Count())
	}
}
