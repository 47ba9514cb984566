package core

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/vovakirdan/linechat-server/internal/proto"
)

var fixedNow = time.Date(2024, 5, 17, 13, 37, 42, 0, time.Local)

func newTestHub(opts Options) *Hub {
	hub := NewHub(opts, nil, nil)
	hub.now = func() time.Time { return fixedNow }
	return hub
}

func newTestSession(hub *Hub, id string) *Session {
	return hub.NewSession(NewClient(id, "127.0.0.1:0", 8))
}

func mustLogin(t *testing.T, s *Session, name string) {
	t.Helper()

	resps := s.Dispatch(proto.RequestLogin, name)
	if len(resps) != 2 || resps[1].Content != "Login successful" {
		t.Fatalf("login %q failed: %+v", name, resps)
	}
}

func mustSingle(t *testing.T, resps []proto.Response, kind, content string) {
	t.Helper()

	if len(resps) != 1 {
		t.Fatalf("expected one response, got %d: %+v", len(resps), resps)
	}
	if resps[0].Response != kind || resps[0].Content != content {
		t.Fatalf("expected %s %q, got %s %q", kind, content, resps[0].Response, resps[0].Content)
	}
}

func mustPayload(t *testing.T, c *Client) proto.Response {
	t.Helper()

	select {
	case data := <-c.Outbound():
		var resp proto.Response
		if err := json.Unmarshal(data, &resp); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		return resp
	case <-time.After(2 * time.Second):
		t.Fatalf("expected payload for client %s not received", c.ID)
	}
	return proto.Response{}
}

func mustNoPayload(t *testing.T, c *Client) {
	t.Helper()

	select {
	case data := <-c.Outbound():
		t.Fatalf("unexpected payload for client %s: %s", c.ID, data)
	default:
	}
}
