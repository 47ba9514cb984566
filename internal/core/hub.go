package core

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/linechat-server/internal/proto"
	"github.com/vovakirdan/linechat-server/internal/store"
	"github.com/vovakirdan/linechat-server/internal/utils"
)

const auditTimeout = 2 * time.Second

// Options tunes hub behavior.
type Options struct {
	// ExcludeSender keeps broadcast chat lines away from their author.
	ExcludeSender bool
	// OutboundBuffer is the per-client queue size.
	OutboundBuffer int
	// HistorySize bounds the in-memory chat log; negative disables it.
	HistorySize int
}

// Hub owns the identity registry, the broadcaster and the chat log shared by
// every session it creates.
type Hub struct {
	registry    *Registry
	broadcaster *Broadcaster
	history     *History
	audit       store.EventStore
	opts        Options
	log         *zerolog.Logger
	now         func() time.Time
}

// NewHub creates a hub. audit may be nil to disable session auditing.
func NewHub(opts Options, audit store.EventStore, logger *zerolog.Logger) *Hub {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	registry := NewRegistry()
	return &Hub{
		registry:    registry,
		broadcaster: NewBroadcaster(registry, logger),
		history:     NewHistory(opts.HistorySize),
		audit:       audit,
		opts:        opts,
		log:         logger,
		now:         time.Now,
	}
}

// NewClient creates a client handle for a freshly accepted connection.
func (h *Hub) NewClient(remoteAddr string) *Client {
	return NewClient(utils.NewID(), remoteAddr, h.opts.OutboundBuffer)
}

// NewSession binds a new unauthenticated session to client.
func (h *Hub) NewSession(c *Client) *Session {
	return &Session{hub: h, client: c}
}

// Names returns the logged-in display names.
func (h *Hub) Names() []string {
	return h.registry.Names()
}

// Online returns how many clients are logged in.
func (h *Hub) Online() int {
	return h.registry.Len()
}

// History returns the in-memory chat log.
func (h *Hub) History() []proto.Response {
	return h.history.Snapshot()
}

func (h *Hub) broadcast(resp proto.Response, sender *Client) Delivery {
	var except *Client
	if h.opts.ExcludeSender {
		except = sender
	}

	d, err := h.broadcaster.Broadcast(resp, except)
	if err != nil {
		h.log.Error().Err(err).Str("user", resp.Sender).Msg("broadcast failed")
		return d
	}
	h.history.Append(resp)
	return d
}

func (h *Hub) record(kind store.EventKind, name string, c *Client) {
	if h.audit == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), auditTimeout)
	defer cancel()

	err := h.audit.RecordEvent(ctx, &store.SessionEvent{
		SessionID:  c.ID,
		Username:   name,
		Kind:       kind,
		RemoteAddr: c.RemoteAddr,
	})
	if err != nil {
		h.log.Warn().Err(err).Str("user", name).Str("event", string(kind)).Msg("failed to record session event")
	}
}
