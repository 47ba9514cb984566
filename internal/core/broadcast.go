package core

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/linechat-server/internal/proto"
)

// Delivery summarizes one broadcast.
type Delivery struct {
	Recipients int
	Dropped    int
}

// Broadcaster fans a payload out to every registered client.
type Broadcaster struct {
	registry *Registry
	log      *zerolog.Logger
}

// NewBroadcaster builds a broadcaster over registry.
func NewBroadcaster(registry *Registry, logger *zerolog.Logger) *Broadcaster {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Broadcaster{registry: registry, log: logger}
}

// Broadcast encodes resp once and enqueues it on every client registered at
// call time except the optional except client. Recipients that cannot take
// the payload are logged and skipped.
func (b *Broadcaster) Broadcast(resp proto.Response, except *Client) (Delivery, error) {
	payload, err := proto.Encode(resp)
	if err != nil {
		return Delivery{}, fmt.Errorf("encode broadcast: %w", err)
	}

	var d Delivery
	b.registry.ForEach(func(name string, c *Client) {
		if c == except {
			return
		}
		d.Recipients++
		if !c.Deliver(payload) {
			d.Dropped++
			b.log.Warn().
				Str("user", name).
				Str("session_id", c.ID).
				Msg("broadcast recipient unavailable, dropping payload")
		}
	})

	return d, nil
}
