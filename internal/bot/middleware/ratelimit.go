package middleware

import (
	"sync"
	"time"
)

// bucket — счётчик команд игрока в текущем окне.
type bucket struct {
	windowStart time.Time
	count       int
}

// RateLimiter ограничивает частоту команд на игрока фиксированным
// окном. Окна на игрока дешевле скользящего списка меток: при флуде
// в игровом чате список меток на каждого спамера растёт, счётчик — нет.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[int64]*bucket
	limit   int
	window  time.Duration

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewRateLimiter создаёт лимитер: не больше limit команд за window.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		buckets: make(map[int64]*bucket),
		limit:   limit,
		window:  window,
		stopCh:  make(chan struct{}),
	}
	go rl.sweep()
	return rl
}

// Close останавливает фоновую уборку. Вызывается на shutdown.
func (rl *RateLimiter) Close() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

// Allow сообщает, пропускать ли очередную команду игрока.
func (rl *RateLimiter) Allow(userID int64) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	b, ok := rl.buckets[userID]
	if !ok || now.Sub(b.windowStart) >= rl.window {
		rl.buckets[userID] = &bucket{windowStart: now, count: 1}
		return true
	}

	if b.count >= rl.limit {
		return false
	}
	b.count++
	return true
}

// sweep периодически убирает счётчики замолчавших игроков.
func (rl *RateLimiter) sweep() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stopCh:
			return
		case <-ticker.C:
			rl.mu.Lock()
			cutoff := time.Now().Add(-rl.window)
			for userID, b := range rl.buckets {
				if b.windowStart.Before(cutoff) {
					delete(rl.buckets, userID)
				}
			}
			rl.mu.Unlock()
		}
	}
}
