package api

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ChatLimiter applies a token bucket per chat and periodically evicts idle chats
type ChatLimiter struct {
	limit   rate.Limit
	burst   int
	idleTTL time.Duration

	mu     sync.Mutex
	byChat map[int64]*chatEntry
	hits   uint64
}

type chatEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewChatLimiter returns nil (allow everything) when rps or burst is not positive
func NewChatLimiter(rps float64, burst int, idleTTL time.Duration) *ChatLimiter {
	if rps <= 0 || burst <= 0 {
		return nil
	}
	if idleTTL <= 0 {
		idleTTL = 10 * time.Minute
	}
	return &ChatLimiter{
		limit:   rate.Limit(rps),
		burst:   burst,
		idleTTL: idleTTL,
		byChat:  make(map[int64]*chatEntry),
	}
}

// Allow reports whether the chat may be served at now
func (l *ChatLimiter) Allow(chatID int64, now time.Time) bool {
	if l == nil {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.byChat[chatID]
	if !ok {
		e = &chatEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.byChat[chatID] = e
	}
	e.lastSeen = now
	allowed := e.limiter.AllowN(now, 1)

	l.hits++
	if l.hits%512 == 0 {
		cutoff := now.Add(-l.idleTTL)
		for id, v := range l.byChat {
			if v.lastSeen.Before(cutoff) {
				delete(l.byChat, id)
			}
		}
	}
	return allowed
}
