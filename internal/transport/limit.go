package transport

import (
	"fmt"
	"io"
)

// ErrTooLarge marks a request that exceeded the configured size. It is a
// malformed-input error and ends the session.
var ErrTooLarge = fmt.Errorf("%w: request too large", ErrMalformed)

// BudgetReader caps how many bytes may be read for one request. Reset
// restores the budget before the next request.
type BudgetReader struct {
	r         io.Reader
	limit     int64
	remaining int64
}

// NewBudgetReader wraps r with a per-request budget of limit bytes.
// A limit of zero or less disables the cap.
func NewBudgetReader(r io.Reader, limit int64) *BudgetReader {
	return &BudgetReader{r: r, limit: limit, remaining: limit}
}

func (b *BudgetReader) Read(p []byte) (int, error) {
	if b.limit <= 0 {
		return b.r.Read(p)
	}
	if b.remaining <= 0 {
		return 0, ErrTooLarge
	}
	if int64(len(p)) > b.remaining {
		p = p[:b.remaining]
	}
	n, err := b.r.Read(p)
	b.remaining -= int64(n)
	return n, err
}

// Reset restores the full budget.
func (b *BudgetReader) Reset() {
	b.remaining = b.limit
}
