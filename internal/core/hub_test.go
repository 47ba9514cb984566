package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vovakirdan/linechat-server/internal/proto"
	"github.com/vovakirdan/linechat-server/internal/store"
)

func TestBroadcastSkipsFullRecipient(t *testing.T) {
	hub := newTestHub(Options{})

	slow := hub.NewSession(NewClient("slow", "", 1))
	fast := hub.NewSession(NewClient("fast", "", 8))
	mustLogin(t, slow, "slow")
	mustLogin(t, fast, "fast")

	// Fill the slow client's queue so the next delivery cannot fit.
	if !slow.Client().Deliver([]byte(`{}`)) {
		t.Fatalf("priming delivery failed")
	}

	done := make(chan Delivery, 1)
	go func() {
		done <- hub.broadcast(proto.Chat(fixedNow, "fast", "hi"), fast.Client())
	}()

	select {
	case d := <-done:
		if d.Recipients != 2 || d.Dropped != 1 {
			t.Fatalf("unexpected delivery: %+v", d)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("broadcast blocked on a full recipient")
	}

	if got := mustPayload(t, fast.Client()); got.Content != "hi" {
		t.Fatalf("unexpected payload: %+v", got)
	}
}

func TestBroadcastSkipsClosedRecipient(t *testing.T) {
	hub := newTestHub(Options{})
	gone := newTestSession(hub, "gone")
	live := newTestSession(hub, "live")
	mustLogin(t, gone, "gone")
	mustLogin(t, live, "live")

	gone.Client().Close()

	d := hub.broadcast(proto.Chat(fixedNow, "live", "anyone?"), nil)
	if d.Recipients != 2 || d.Dropped != 1 {
		t.Fatalf("unexpected delivery: %+v", d)
	}
	if got := mustPayload(t, live.Client()); got.Content != "anyone?" {
		t.Fatalf("unexpected payload: %+v", got)
	}
}

func TestClientSendAfterClose(t *testing.T) {
	c := NewClient("a", "", 1)
	c.Close()
	c.Close()

	if err := c.Send(context.Background(), []byte(`{}`)); !errors.Is(err, ErrClientClosed) {
		t.Fatalf("expected ErrClientClosed, got %v", err)
	}
	if c.Deliver([]byte(`{}`)) {
		t.Fatalf("deliver succeeded on closed client")
	}
}

func TestClientSendHonorsContext(t *testing.T) {
	c := NewClient("a", "", 1)
	if err := c.Send(context.Background(), []byte(`1`)); err != nil {
		t.Fatalf("first send: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := c.Send(ctx, []byte(`2`)); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestHistoryIsBounded(t *testing.T) {
	h := NewHistory(2)
	for _, text := range []string{"one", "two", "three"} {
		h.Append(proto.Chat(fixedNow, "alice", text))
	}

	got := h.Snapshot()
	if len(got) != 2 || got[0].Content != "two" || got[1].Content != "three" {
		t.Fatalf("unexpected history: %+v", got)
	}

	disabled := NewHistory(-1)
	disabled.Append(proto.Chat(fixedNow, "alice", "x"))
	if len(disabled.Snapshot()) != 0 {
		t.Fatalf("disabled history recorded a line")
	}
}

type recordingAudit struct {
	events []store.SessionEvent
}

func (r *recordingAudit) RecordEvent(_ context.Context, ev *store.SessionEvent) error {
	r.events = append(r.events, *ev)
	return nil
}

func (r *recordingAudit) ListEvents(context.Context, store.EventFilter) ([]*store.SessionEvent, error) {
	return nil, nil
}

func TestHubRecordsSessionLifecycle(t *testing.T) {
	audit := &recordingAudit{}
	hub := NewHub(Options{}, audit, nil)

	a := hub.NewSession(hub.NewClient("10.0.0.1:5000"))
	mustLogin(t, a, "alice")
	a.Dispatch(proto.RequestLogout, "")
	mustLogin(t, a, "alice")
	a.Close()

	want := []store.EventKind{store.EventLogin, store.EventLogout, store.EventLogin, store.EventDisconnect}
	if len(audit.events) != len(want) {
		t.Fatalf("expected %d events, got %+v", len(want), audit.events)
	}
	for i, kind := range want {
		ev := audit.events[i]
		if ev.Kind != kind || ev.Username != "alice" || ev.RemoteAddr != "10.0.0.1:5000" || ev.SessionID == "" {
			t.Fatalf("event %d: unexpected %+v", i, ev)
		}
	}
}
