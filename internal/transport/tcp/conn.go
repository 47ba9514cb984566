package tcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/vovakirdan/linechat-server/internal/proto"
	"github.com/vovakirdan/linechat-server/internal/transport"
)

// Conn reads a stream of JSON requests from a TCP connection and writes one
// JSON response per line.
type Conn struct {
	conn         net.Conn
	budget       *transport.BudgetReader
	dec          *json.Decoder
	writeTimeout time.Duration
}

// NewConn wraps c. maxRequestSize caps the bytes read per request and a zero
// writeTimeout disables write deadlines.
func NewConn(c net.Conn, maxRequestSize int64, writeTimeout time.Duration) *Conn {
	budget := transport.NewBudgetReader(c, maxRequestSize)
	return &Conn{
		conn:         c,
		budget:       budget,
		dec:          json.NewDecoder(budget),
		writeTimeout: writeTimeout,
	}
}

// ReadRequest decodes the next JSON value from the stream.
// Cancellation is handled by closing the connection.
func (c *Conn) ReadRequest(_ context.Context) (proto.Request, error) {
	defer c.budget.Reset()

	var req proto.Request
	if err := c.dec.Decode(&req); err != nil {
		if errors.Is(err, transport.ErrTooLarge) {
			return proto.Request{}, err
		}
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
			return proto.Request{}, fmt.Errorf("%w: %v", transport.ErrMalformed, err)
		}
		return proto.Request{}, err
	}
	return req, nil
}

// Write sends payload followed by a newline in a single write.
func (c *Conn) Write(_ context.Context, payload []byte) error {
	if c.writeTimeout > 0 {
		if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
			return err
		}
	}

	line := make([]byte, 0, len(payload)+1)
	line = append(line, payload...)
	line = append(line, '\n')
	_, err := c.conn.Write(line)
	return err
}

// Close closes the underlying connection.
func (c *Conn) Close() error {
	return c.conn.Close()
}

// RemoteAddr returns the peer address.
func (c *Conn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}
