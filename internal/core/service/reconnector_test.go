package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/tracking-live/internal/core/domain"
	"github.com/99minutos/tracking-live/internal/core/ports"
)

var fastReconnect = ReconnectOptions{MinBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond}

func runReconnector(t *testing.T, r *Reconnector) <-chan error {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()
	return done
}

func TestReconnector_ReopensAfterDropAndTrackerRejoins(t *testing.T) {
	f := newTrackerFixture(t, seededBackend(), nil)
	runReconnector(t, NewReconnector(f.channel, "token", fastReconnect, zerolog.Nop()))

	if err := f.channel.Open(context.Background(), "token"); err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := f.tracker.Track(context.Background(), "TRK-1"); err != nil {
		t.Fatalf("track: %v", err)
	}
	first := f.transport.last()

	first.fail <- errors.New("connection reset by peer")

	eventually(t, func() bool { return f.transport.dialCount() == 2 }, "second dial")
	eventually(t, func() bool { return f.channel.State() == domain.StateConnected }, "connected again")
	eventually(t, func() bool {
		return len(f.transport.last().emitted(ports.EventJoin)) == 1
	}, "join re-issued on the new connection")
	if f.transport.last() == first {
		t.Fatal("expected a new connection")
	}
	f.transport.mu.Lock()
	defer f.transport.mu.Unlock()
	if got := f.transport.dials[1]; got != "token" {
		t.Errorf("reconnect credential = %q, want token", got)
	}
}

func TestReconnector_GivesUpAfterMaxAttempts(t *testing.T) {
	transport := &stubTransport{}
	ch := startedChannel(t, transport)
	opts := fastReconnect
	opts.MaxAttempts = 3
	done := runReconnector(t, NewReconnector(ch, "token", opts, zerolog.Nop()))

	if err := ch.Open(context.Background(), "token"); err != nil {
		t.Fatalf("open: %v", err)
	}
	transport.mu.Lock()
	transport.dialErr = errors.New("connection refused")
	transport.mu.Unlock()
	transport.last().fail <- errors.New("eof")

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("expected an error once attempts are exhausted")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("reconnector did not give up")
	}
	if n := transport.dialCount(); n != 4 {
		t.Errorf("dials = %d, want 1 open + 3 attempts", n)
	}
}

func TestReconnector_StopsWithContext(t *testing.T) {
	transport := &stubTransport{}
	ch := startedChannel(t, transport)
	r := NewReconnector(ch, "token", ReconnectOptions{MinBackoff: time.Hour}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	if err := ch.Open(context.Background(), "token"); err != nil {
		t.Fatalf("open: %v", err)
	}
	transport.last().fail <- errors.New("eof")
	eventually(t, func() bool { return ch.State() == domain.StateDisconnected }, "disconnect")

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("reconnector ignored cancellation while backing off")
	}
	if n := transport.dialCount(); n != 1 {
		t.Errorf("dials = %d, want no reconnect after cancellation", n)
	}
}
