package proto

import (
	"encoding/json"
	"time"
)

const (
	RequestLogin   = "login"
	RequestLogout  = "logout"
	RequestMessage = "message"
	RequestNames   = "names"
	RequestHelp    = "help"

	// Chat lines broadcast to users are info responses whose sender is the
	// author, not SenderServer.
	ResponseInfo  = "info"
	ResponseError = "error"

	// SenderServer is the sender of every reply the server generates itself.
	SenderServer = "server"

	// TimestampLayout renders wall-clock time as HH:MM:SS.
	TimestampLayout = "15:04:05"
)

// Request is the envelope for units coming from the client.
// A null content decodes to the empty string.
type Request struct {
	Request string `json:"request"`
	Content string `json:"content"`
}

// Response is the envelope for units sent to clients.
type Response struct {
	Timestamp string `json:"timestamp"`
	Sender    string `json:"sender"`
	Response  string `json:"response"`
	Content   string `json:"content"`
}

// NewResponse stamps a response with the local wall-clock time of now.
func NewResponse(now time.Time, sender, kind, content string) Response {
	return Response{
		Timestamp: now.Local().Format(TimestampLayout),
		Sender:    sender,
		Response:  kind,
		Content:   content,
	}
}

// Info builds a server info reply.
func Info(now time.Time, content string) Response {
	return NewResponse(now, SenderServer, ResponseInfo, content)
}

// Error builds a server error reply.
func Error(now time.Time, content string) Response {
	return NewResponse(now, SenderServer, ResponseError, content)
}

// Chat builds a broadcast chat line from author.
func Chat(now time.Time, author, content string) Response {
	return NewResponse(now, author, ResponseInfo, content)
}

// Encode marshals a response into one JSON unit.
func Encode(resp Response) ([]byte, error) {
	return json.Marshal(resp)
}
