package core

import (
	"errors"
	"regexp"
	"strings"

	"github.com/vovakirdan/linechat-server/internal/proto"
	"github.com/vovakirdan/linechat-server/internal/store"
)

const (
	maxNameLength = 15

	HelpText = "Available commands: login <username>, logout, message <msg>, names, help"

	msgInvalidFormat   = "Username invalid, must contain only characters or numbers"
	msgInvalidLength   = "Username invalid, too long or too short."
	msgNameTaken       = "Username already taken"
	msgAlreadyLoggedIn = "Already logged in."
	msgNotLoggedIn     = "Not logged in."
	msgLogoutNotLogged = "Not already logged in."
)

var namePattern = regexp.MustCompile(`^[A-Za-z0-9]+$`)

// ValidateName checks a display name: format first, then length.
func ValidateName(name string) error {
	if !namePattern.MatchString(name) {
		return coreError(ErrCodeInvalidFormat, msgInvalidFormat, ErrInvalidFormat)
	}
	if len(name) < 1 || len(name) > maxNameLength {
		return coreError(ErrCodeInvalidLength, msgInvalidLength, ErrInvalidLength)
	}
	return nil
}

// Session is the protocol state of one connection. An empty identity means
// the session is not logged in. A session is driven by a single goroutine.
type Session struct {
	hub      *Hub
	client   *Client
	identity string
	closed   bool
}

// Identity returns the bound display name, or "" when not logged in.
func (s *Session) Identity() string {
	return s.identity
}

// Client returns the handle this session delivers through.
func (s *Session) Client() *Client {
	return s.client
}

// Dispatch runs one request and returns the replies for the requesting client.
func (s *Session) Dispatch(command, content string) []proto.Response {
	switch command {
	case proto.RequestLogin:
		return s.handleLogin(content)
	case proto.RequestLogout:
		return s.handleLogout()
	case proto.RequestMessage:
		return s.handleMessage(content)
	case proto.RequestNames:
		return s.handleNames()
	case proto.RequestHelp:
		return []proto.Response{proto.Info(s.hub.now(), HelpText)}
	default:
		return []proto.Response{proto.Error(s.hub.now(), "Unknown request: "+command)}
	}
}

// Close releases the bound identity, if any. Safe to call more than once.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.closed = true

	if s.identity == "" {
		return
	}
	name := s.identity
	s.identity = ""
	s.hub.registry.Unregister(name)
	s.hub.record(store.EventDisconnect, name, s.client)
	s.hub.log.Info().Str("user", name).Str("session_id", s.client.ID).Msg("user disconnected")
}

func (s *Session) handleLogin(name string) []proto.Response {
	now := s.hub.now()
	if s.identity != "" {
		return []proto.Response{s.errorReply(coreError(ErrCodeAlreadyLoggedIn, msgAlreadyLoggedIn, ErrAlreadyLoggedIn))}
	}
	if err := ValidateName(name); err != nil {
		return []proto.Response{s.errorReply(err)}
	}
	if err := s.hub.registry.Register(name, s.client); err != nil {
		if errors.Is(err, ErrNameTaken) {
			return []proto.Response{s.errorReply(coreError(ErrCodeNameTaken, msgNameTaken, err))}
		}
		return []proto.Response{s.errorReply(err)}
	}

	s.identity = name
	s.hub.record(store.EventLogin, name, s.client)
	s.hub.log.Info().Str("user", name).Str("session_id", s.client.ID).Msg("user logged in")

	return []proto.Response{
		proto.Info(now, "Name approved."),
		proto.Info(now, "Login successful"),
	}
}

func (s *Session) handleLogout() []proto.Response {
	if s.identity == "" {
		return []proto.Response{s.errorReply(coreError(ErrCodeNotLoggedIn, msgLogoutNotLogged, ErrNotLoggedIn))}
	}

	name := s.identity
	s.hub.registry.Unregister(name)
	s.identity = ""
	s.hub.record(store.EventLogout, name, s.client)
	s.hub.log.Info().Str("user", name).Str("session_id", s.client.ID).Msg("user logged out")

	return []proto.Response{proto.Info(s.hub.now(), "Logout successful.")}
}

func (s *Session) handleMessage(text string) []proto.Response {
	if s.identity == "" {
		return []proto.Response{s.errorReply(coreError(ErrCodeNotLoggedIn, msgNotLoggedIn, ErrNotLoggedIn))}
	}

	now := s.hub.now()
	d := s.hub.broadcast(proto.Chat(now, s.identity, text), s.client)
	s.hub.log.Debug().
		Str("user", s.identity).
		Int("recipients", d.Recipients).
		Int("dropped", d.Dropped).
		Msg("message broadcast")

	return []proto.Response{proto.Info(now, "Message sent to all.")}
}

func (s *Session) handleNames() []proto.Response {
	return []proto.Response{proto.Info(s.hub.now(), "Online users: "+strings.Join(s.hub.registry.Names(), ","))}
}

func (s *Session) errorReply(err error) proto.Response {
	var ce *CoreError
	if errors.As(err, &ce) {
		return proto.Error(s.hub.now(), ce.Message)
	}
	return proto.Error(s.hub.now(), err.Error())
}
