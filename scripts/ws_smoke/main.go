package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/linechat-server/internal/proto"
)

const sentAck = "Message sent to all."

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	user := flag.String("user", "tester", "name to log in with")
	text := flag.String("text", "hello from smoke test", "message text to send")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	requests := []proto.Request{
		{Request: proto.RequestLogin, Content: *user},
		{Request: proto.RequestNames},
		{Request: proto.RequestMessage, Content: *text},
	}
	for _, req := range requests {
		if err := wsjson.Write(ctx, conn, req); err != nil {
			return fmt.Errorf("send %s: %w", req.Request, err)
		}
	}

	for {
		var resp proto.Response
		if err := wsjson.Read(ctx, conn, &resp); err != nil {
			return fmt.Errorf("read: %w", err)
		}

		fmt.Printf("Received: ts=%s sender=%s kind=%s content=%q\n",
			resp.Timestamp, resp.Sender, resp.Response, resp.Content)

		switch {
		case resp.Response == proto.ResponseError:
			return fmt.Errorf("server error: %s", resp.Content)
		case resp.Response == proto.ResponseInfo && resp.Content == sentAck:
			if err := wsjson.Write(ctx, conn, proto.Request{Request: proto.RequestLogout}); err != nil {
				return fmt.Errorf("send logout: %w", err)
			}
			return nil
		}
	}
}
