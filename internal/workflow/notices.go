package workflow

import (
	"sync"
	"time"
)

// NoticeLevel classifies a notice for display.
type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeSuccess NoticeLevel = "success"
	NoticeError   NoticeLevel = "error"
)

// Notice is a transient message raised by an operation. Seq increases by one
// per raised notice, so readers can tell which ones they have already shown.
type Notice struct {
	Seq       uint64
	Level     NoticeLevel
	Message   string
	ExpiresAt time.Time
}

// noticeBoard keeps notices until they expire.
type noticeBoard struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	seq     uint64
	notices []Notice
}

func (b *noticeBoard) raise(level NoticeLevel, message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := b.now()
	b.pruneLocked(now)
	b.seq++
	b.notices = append(b.notices, Notice{Seq: b.seq, Level: level, Message: message, ExpiresAt: now.Add(b.ttl)})
}

func (b *noticeBoard) live() []Notice {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pruneLocked(b.now())
	out := make([]Notice, len(b.notices))
	copy(out, b.notices)
	return out
}

func (b *noticeBoard) pruneLocked(now time.Time) {
	kept := b.notices[:0]
	for _, n := range b.notices {
		if now.Before(n.ExpiresAt) {
			kept = append(kept, n)
		}
	}
	b.notices = kept
}
