package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	stdhttp "net/http"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/linechat-server/internal/core"
	"github.com/vovakirdan/linechat-server/internal/proto"
	"github.com/vovakirdan/linechat-server/internal/transport"
)

// WSHandler upgrades HTTP connections and runs a chat session per socket.
type WSHandler struct {
	hub            *core.Hub
	maxRequestSize int64
	writeTimeout   time.Duration
	log            *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler. maxRequestSize caps one
// request frame.
func NewWSHandler(hub *core.Hub, maxRequestSize int64, writeTimeout time.Duration, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{
		hub:            hub,
		maxRequestSize: maxRequestSize,
		writeTimeout:   writeTimeout,
		log:            logger,
	}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}

	// Our own budget trips first; the library limit only backs it up.
	conn.SetReadLimit(h.maxRequestSize + 1)

	wc := &wsConn{
		conn:           conn,
		remoteAddr:     r.RemoteAddr,
		maxRequestSize: h.maxRequestSize,
		writeTimeout:   h.writeTimeout,
	}
	wc.closeStatus.Store(int64(websocket.StatusNormalClosure))

	_ = transport.Serve(r.Context(), h.hub, wc, h.log)
}

// wsConn carries one JSON request or response per text frame.
type wsConn struct {
	conn           *websocket.Conn
	remoteAddr     string
	maxRequestSize int64
	writeTimeout   time.Duration
	closeStatus    atomic.Int64
}

func (c *wsConn) ReadRequest(ctx context.Context) (proto.Request, error) {
	typ, r, err := c.conn.Reader(ctx)
	if err != nil {
		if s := websocket.CloseStatus(err); s == websocket.StatusNormalClosure || s == websocket.StatusGoingAway {
			return proto.Request{}, fmt.Errorf("peer closed: %w", context.Canceled)
		}
		return proto.Request{}, err
	}
	if typ != websocket.MessageText {
		c.closeStatus.Store(int64(websocket.StatusUnsupportedData))
		return proto.Request{}, fmt.Errorf("%w: expected text frame, got %v", transport.ErrMalformed, typ)
	}

	data, err := io.ReadAll(transport.NewBudgetReader(r, c.maxRequestSize))
	if err != nil {
		if errors.Is(err, transport.ErrTooLarge) {
			c.closeStatus.Store(int64(websocket.StatusMessageTooBig))
		}
		return proto.Request{}, err
	}

	var req proto.Request
	if err := json.Unmarshal(data, &req); err != nil {
		c.closeStatus.Store(int64(websocket.StatusInvalidFramePayloadData))
		return proto.Request{}, fmt.Errorf("%w: %v", transport.ErrMalformed, err)
	}
	return req, nil
}

func (c *wsConn) Write(ctx context.Context, payload []byte) error {
	if c.writeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.writeTimeout)
		defer cancel()
	}
	return c.conn.Write(ctx, websocket.MessageText, payload)
}

func (c *wsConn) Close() error {
	return c.conn.Close(websocket.StatusCode(c.closeStatus.Load()), "closing")
}

func (c *wsConn) RemoteAddr() string {
	return c.remoteAddr
}
