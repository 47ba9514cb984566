package tcp

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/linechat-server/internal/config"
	"github.com/vovakirdan/linechat-server/internal/core"
	"github.com/vovakirdan/linechat-server/internal/proto"
)

func startTestServer(t *testing.T, opts core.Options) (*Server, *core.Hub) {
	t.Helper()

	return startTestServerWithConfig(t, opts, nil)
}

func startTestServerWithConfig(t *testing.T, opts core.Options, tweak func(*config.Config)) (*Server, *core.Hub) {
	t.Helper()

	logger := zerolog.Nop()
	hub := core.NewHub(opts, nil, &logger)

	cfg := config.Default()
	cfg.Addr = "127.0.0.1:0"
	cfg.WriteTimeout = time.Second
	if tweak != nil {
		tweak(&cfg)
	}

	srv := NewServer(hub, &cfg, &logger)
	if err := srv.Listen(); err != nil {
		t.Fatalf("listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = srv.Serve(ctx) }()

	t.Cleanup(func() {
		cancel()
		shutdownCtx, done := context.WithTimeout(context.Background(), 2*time.Second)
		defer done()
		_ = srv.Shutdown(shutdownCtx)
	})

	return srv, hub
}

type testClient struct {
	t    *testing.T
	conn net.Conn
	r    *bufio.Reader
}

func dial(t *testing.T, srv *Server) *testClient {
	t.Helper()

	conn, err := net.DialTimeout("tcp", srv.Addr().String(), 2*time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	return &testClient{t: t, conn: conn, r: bufio.NewReader(conn)}
}

func (c *testClient) send(command string, content any) {
	c.t.Helper()

	data, err := json.Marshal(map[string]any{"request": command, "content": content})
	if err != nil {
		c.t.Fatalf("marshal: %v", err)
	}
	if _, err := c.conn.Write(data); err != nil {
		c.t.Fatalf("write: %v", err)
	}
}

func (c *testClient) read() proto.Response {
	c.t.Helper()

	_ = c.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	line, err := c.r.ReadBytes('\n')
	if err != nil {
		c.t.Fatalf("read: %v", err)
	}

	var resp proto.Response
	if err := json.Unmarshal(line, &resp); err != nil {
		c.t.Fatalf("decode %q: %v", line, err)
	}
	return resp
}

func (c *testClient) expect(kind, content string) proto.Response {
	c.t.Helper()

	resp := c.read()
	if resp.Response != kind || resp.Content != content {
		c.t.Fatalf("expected %s %q, got %+v", kind, content, resp)
	}
	return resp
}

func (c *testClient) login(name string) {
	c.t.Helper()

	c.send(proto.RequestLogin, name)
	c.expect(proto.ResponseInfo, "Name approved.")
	c.expect(proto.ResponseInfo, "Login successful")
}

func waitForNames(t *testing.T, hub *core.Hub, want string) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if strings.Join(hub.Names(), ",") == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected names %q, got %v", want, hub.Names())
}

func TestLoginNamesAndMessage(t *testing.T) {
	srv, _ := startTestServer(t, core.Options{})

	alice := dial(t, srv)
	bob := dial(t, srv)

	alice.login("alice")
	bob.login("bob")

	alice.send(proto.RequestNames, nil)
	alice.expect(proto.ResponseInfo, "Online users: alice,bob")

	alice.send(proto.RequestMessage, "hi bob")

	got := bob.read()
	if got.Sender != "alice" || got.Content != "hi bob" || got.Response != proto.ResponseInfo {
		t.Fatalf("unexpected broadcast: %+v", got)
	}
	if _, err := time.Parse(proto.TimestampLayout, got.Timestamp); err != nil {
		t.Fatalf("bad timestamp %q: %v", got.Timestamp, err)
	}

	alice.expect(proto.ResponseInfo, "hi bob")
	alice.expect(proto.ResponseInfo, "Message sent to all.")
}

func TestNullContentAndUnknownRequest(t *testing.T) {
	srv, _ := startTestServer(t, core.Options{})
	c := dial(t, srv)

	c.send(proto.RequestHelp, nil)
	c.expect(proto.ResponseInfo, core.HelpText)

	c.send("foo", nil)
	c.expect(proto.ResponseError, "Unknown request: foo")

	c.send(proto.RequestMessage, "nobody hears this")
	c.expect(proto.ResponseError, "Not logged in.")
}

func TestDuplicateLoginOverTCP(t *testing.T) {
	srv, _ := startTestServer(t, core.Options{})

	first := dial(t, srv)
	second := dial(t, srv)

	first.login("alice")
	second.send(proto.RequestLogin, "alice")
	second.expect(proto.ResponseError, "Username already taken")

	second.send(proto.RequestLogin, "bad name!")
	second.expect(proto.ResponseError, "Username invalid, must contain only characters or numbers")
}

func TestDisconnectWithoutLogoutReleasesName(t *testing.T) {
	srv, hub := startTestServer(t, core.Options{})

	leaver := dial(t, srv)
	stayer := dial(t, srv)
	leaver.login("leaver")
	stayer.login("stayer")
	waitForNames(t, hub, "leaver,stayer")

	_ = leaver.conn.Close()
	waitForNames(t, hub, "stayer")

	stayer.send(proto.RequestNames, nil)
	stayer.expect(proto.ResponseInfo, "Online users: stayer")

	// The name can be reused by a new connection.
	dial(t, srv).login("leaver")
}

func TestMalformedInputClosesOnlyThatSession(t *testing.T) {
	srv, hub := startTestServer(t, core.Options{})

	bad := dial(t, srv)
	good := dial(t, srv)
	bad.login("bad")
	good.login("good")

	if _, err := bad.conn.Write([]byte("this is not json")); err != nil {
		t.Fatalf("write: %v", err)
	}
	waitForNames(t, hub, "good")

	_ = bad.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, err := bad.r.ReadBytes('\n'); err == nil {
		t.Fatalf("expected the malformed session to be closed")
	}

	good.send(proto.RequestNames, nil)
	good.expect(proto.ResponseInfo, "Online users: good")
}

func TestShutdownClosesSessions(t *testing.T) {
	srv, hub := startTestServer(t, core.Options{})

	c := dial(t, srv)
	c.login("alice")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if len(hub.Names()) != 0 {
		t.Fatalf("sessions survived shutdown: %v", hub.Names())
	}
}

func TestOversizedRequestClosesOnlyThatSession(t *testing.T) {
	srv, hub := startTestServerWithConfig(t, core.Options{}, func(cfg *config.Config) {
		cfg.MaxMessageSize = 256
	})

	loud := dial(t, srv)
	quiet := dial(t, srv)
	loud.login("loud")
	quiet.login("quiet")

	// Several requests in a row stay within the per-request budget.
	for i := 0; i < 5; i++ {
		loud.send(proto.RequestMessage, strings.Repeat("a", 100))
		loud.expect(proto.ResponseInfo, strings.Repeat("a", 100))
		loud.expect(proto.ResponseInfo, "Message sent to all.")
		quiet.expect(proto.ResponseInfo, strings.Repeat("a", 100))
	}

	// The server may reset the connection before the whole payload is sent.
	big, err := json.Marshal(proto.Request{Request: proto.RequestMessage, Content: strings.Repeat("b", 64*1024)})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	_ = loud.conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
	_, _ = loud.conn.Write(big)
	waitForNames(t, hub, "quiet")

	_ = loud.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, err := loud.r.ReadBytes('\n'); err == nil {
		t.Fatalf("expected the oversized session to be closed")
	}

	for _, line := range hub.History() {
		if len(line.Content) > 256 {
			t.Fatalf("oversized message reached the chat log")
		}
	}

	quiet.send(proto.RequestNames, nil)
	quiet.expect(proto.ResponseInfo, "Online users: quiet")
}
