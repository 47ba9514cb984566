package core

import (
	"sync"

	"github.com/gammazero/deque"

	"github.com/vovakirdan/linechat-server/internal/proto"
)

const defaultHistorySize = 100

// History is the in-memory log of broadcast chat lines, oldest first.
type History struct {
	mu    sync.Mutex
	limit int
	lines deque.Deque[proto.Response]
}

// NewHistory keeps at most limit lines. A negative limit disables the log.
func NewHistory(limit int) *History {
	if limit == 0 {
		limit = defaultHistorySize
	}
	return &History{limit: limit}
}

// Append records a line, evicting the oldest one when full.
func (h *History) Append(line proto.Response) {
	if h.limit < 0 {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.lines.PushBack(line)
	for h.lines.Len() > h.limit {
		h.lines.PopFront()
	}
}

// Snapshot returns a copy of the log.
func (h *History) Snapshot() []proto.Response {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]proto.Response, 0, h.lines.Len())
	for i := 0; i < h.lines.Len(); i++ {
		out = append(out, h.lines.At(i))
	}
	return out
}
