// Package notice keeps transient user messages that auto-dismiss after
// a short TTL, the channel validation failures are surfaced through.
package notice

import (
	"sync"
	"time"

	"github.com/avetrov/geodesk/internal/logger"
)

type Level string

const (
	Info  Level = "info"
	Error Level = "error"
)

type Notice struct {
	ID      string    `json:"id"`
	Level   Level     `json:"level"`
	Text    string    `json:"text"`
	Expires time.Time `json:"expires"`
}

// Board holds the currently live notices. Expired entries are pruned
// on read.
type Board struct {
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time // for tests
	items []Notice
}

func NewBoard(ttl time.Duration) *Board {
	if ttl <= 0 {
		ttl = 4 * time.Second
	}
	return &Board{ttl: ttl, now: time.Now}
}

// Post publishes a transient message and returns it.
func (b *Board) Post(level Level, text string) Notice {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := Notice{
		ID:      logger.NewID(),
		Level:   level,
		Text:    text,
		Expires: b.now().Add(b.ttl),
	}
	b.items = append(b.items, n)
	return n
}

// Active returns the not-yet-expired notices, oldest first.
func (b *Board) Active() []Notice {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := b.now()
	kept := b.items[:0:0]
	for _, n := range b.items {
		if n.Expires.After(now) {
			kept = append(kept, n)
		}
	}
	b.items = kept
	out := make([]Notice, len(kept))
	copy(out, kept)
	return out
}
