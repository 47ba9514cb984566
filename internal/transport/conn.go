// Package transport drives one chat connection: it reads requests, runs them
// through a core.Session and writes every reply and broadcast back through a
// single writer.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/linechat-server/internal/core"
	"github.com/vovakirdan/linechat-server/internal/proto"
)

// ErrMalformed marks input that could not be decoded as a request.
// It ends the session.
var ErrMalformed = errors.New("malformed request")

// Conn is one client connection, independent of the wire transport.
type Conn interface {
	// ReadRequest blocks until one request has been decoded.
	// Decode failures are wrapped with ErrMalformed.
	ReadRequest(ctx context.Context) (proto.Request, error)

	// Write sends one encoded response unit.
	Write(ctx context.Context, payload []byte) error

	// Close closes the connection and unblocks pending reads.
	Close() error

	// RemoteAddr returns the peer address for logging.
	RemoteAddr() string
}

// Serve runs a session over conn until the peer disconnects, the input turns
// malformed or ctx is cancelled. The session's identity is released before
// Serve returns. A clean disconnect returns nil.
func Serve(ctx context.Context, hub *core.Hub, conn Conn, logger *zerolog.Logger) error {
	client := hub.NewClient(conn.RemoteAddr())
	session := hub.NewSession(client)

	log := logger.With().
		Str("session_id", client.ID).
		Str("remote_addr", conn.RemoteAddr()).
		Logger()
	log.Info().Msg("client connected")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- readLoop(ctx, conn, session, &log)
	}()
	go func() {
		errCh <- writeLoop(ctx, conn, client)
	}()

	err := <-errCh
	cancel()
	_ = conn.Close()
	<-errCh

	session.Close()
	client.Close()

	if isDisconnect(err) {
		log.Info().Msg("client disconnected")
		return nil
	}
	if errors.Is(err, ErrMalformed) {
		log.Warn().Err(err).Msg("closing session on malformed request")
		return err
	}
	log.Warn().Err(err).Msg("connection closed with error")
	return err
}

func readLoop(ctx context.Context, conn Conn, session *core.Session, log *zerolog.Logger) error {
	client := session.Client()
	for {
		req, err := conn.ReadRequest(ctx)
		if err != nil {
			return err
		}
		log.Debug().Str("request", req.Request).Str("user", session.Identity()).Msg("request received")

		for _, resp := range session.Dispatch(req.Request, req.Content) {
			payload, err := proto.Encode(resp)
			if err != nil {
				return fmt.Errorf("encode response: %w", err)
			}
			if err := client.Send(ctx, payload); err != nil {
				return err
			}
		}
	}
}

func writeLoop(ctx context.Context, conn Conn, client *core.Client) error {
	for {
		select {
		case payload := <-client.Outbound():
			if err := conn.Write(ctx, payload); err != nil {
				return fmt.Errorf("write response: %w", err)
			}
		case <-client.Done():
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func isDisconnect(err error) bool {
	return err == nil ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, core.ErrClientClosed)
}
