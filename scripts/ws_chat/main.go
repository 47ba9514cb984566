package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/linechat-server/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_chat: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	user := flag.String("user", "", "log in with this name right after connecting")
	flag.Parse()

	baseCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	if *user != "" {
		if err := wsjson.Write(ctx, conn, proto.Request{Request: proto.RequestLogin, Content: *user}); err != nil {
			return fmt.Errorf("send login: %w", err)
		}
	}

	fmt.Printf("Connected to %s\n", *addr)
	fmt.Println("Type /login <name>, /logout, /names, /help or a message. Ctrl+C to exit.")

	go func() {
		defer cancel()
		readLoop(ctx, conn)
	}()

	writeLoop(ctx, conn)

	stop()
	cancel()
	_ = conn.Close(websocket.StatusNormalClosure, "bye")
	return nil
}

func readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		var resp proto.Response
		if err := wsjson.Read(ctx, conn, &resp); err != nil {
			// Treat expected shutdowns quietly.
			if errors.Is(err, context.Canceled) {
				return
			}
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return
			}
			log.Printf("read error: %v", err)
			return
		}

		switch {
		case resp.Sender != proto.SenderServer:
			fmt.Printf("[%s] %s: %s\n", resp.Timestamp, resp.Sender, resp.Content)
		case resp.Response == proto.ResponseError:
			fmt.Printf("[%s] error: %s\n", resp.Timestamp, resp.Content)
		default:
			fmt.Printf("[%s] %s\n", resp.Timestamp, resp.Content)
		}
	}
}

// parseLine maps a typed line onto a request. Lines not starting with a
// slash are chat messages.
func parseLine(line string) proto.Request {
	if !strings.HasPrefix(line, "/") {
		return proto.Request{Request: proto.RequestMessage, Content: line}
	}
	cmd, arg, _ := strings.Cut(strings.TrimPrefix(line, "/"), " ")
	return proto.Request{Request: cmd, Content: strings.TrimSpace(arg)}
}

func writeLoop(ctx context.Context, conn *websocket.Conn) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			text := strings.TrimSpace(line)
			if text == "" {
				continue
			}
			if err := wsjson.Write(ctx, conn, parseLine(text)); err != nil {
				log.Printf("send error: %v", err)
				return
			}
		}
	}
}
