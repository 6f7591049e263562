package notice

import (
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Add(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func newBoardForTest(ttl time.Duration, fc *fakeClock) *Board {
	b := NewBoard(ttl)
	b.now = fc.Now
	return b
}

func TestPost_VisibleUntilTTL(t *testing.T) {
	fc := &fakeClock{now: time.Unix(0, 0).UTC()}
	b := newBoardForTest(4*time.Second, fc)

	b.Post(Error, "a district needs at least 3 points")

	got := b.Active()
	if len(got) != 1 || got[0].Text != "a district needs at least 3 points" {
		t.Fatalf("active = %+v", got)
	}

	fc.Add(3 * time.Second)
	if len(b.Active()) != 1 {
		t.Fatalf("notice dropped before TTL")
	}

	// the 4 second auto-dismiss
	fc.Add(1001 * time.Millisecond)
	if len(b.Active()) != 0 {
		t.Fatalf("notice survived past TTL")
	}
}

func TestActive_PrunesOnlyExpired(t *testing.T) {
	fc := &fakeClock{now: time.Unix(0, 0).UTC()}
	b := newBoardForTest(4*time.Second, fc)

	b.Post(Error, "first")
	fc.Add(3 * time.Second)
	b.Post(Info, "second")
	fc.Add(2 * time.Second) // first expired, second alive

	got := b.Active()
	if len(got) != 1 || got[0].Text != "second" {
		t.Fatalf("active = %+v, want only the second notice", got)
	}
}

func TestPost_AssignsDistinctIDs(t *testing.T) {
	fc := &fakeClock{now: time.Unix(0, 0).UTC()}
	b := newBoardForTest(time.Minute, fc)
	a := b.Post(Info, "x")
	c := b.Post(Info, "y")
	if a.ID == "" || a.ID == c.ID {
		t.Fatalf("ids not distinct: %q %q", a.ID, c.ID)
	}
}
