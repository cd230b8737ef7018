package middleware

import (
	"testing"
	"time"
)

func TestRateLimiterAllowsUpToLimit(t *testing.T) {
	rl := NewRateLimiter(3, time.Hour)
	defer rl.Close()

	for i := 0; i < 3; i++ {
		if !rl.Allow(1) {
			t.Fatalf("команда %d должна пройти", i+1)
		}
	}
	if rl.Allow(1) {
		t.Fatal("четвёртая команда должна быть отклонена")
	}

	// Другой игрок не делит окно с первым
	if !rl.Allow(2) {
		t.Fatal("лимит не должен распространяться на другого игрока")
	}
}

func TestRateLimiterResetsAfterWindow(t *testing.T) {
	rl := NewRateLimiter(1, 50*time.Millisecond)
	defer rl.Close()

	if !rl.Allow(1) {
		t.Fatal("первая команда должна пройти")
	}
	if rl.Allow(1) {
		t.Fatal("вторая команда в том же окне отклоняется")
	}

	time.Sleep(100 * time.Millisecond)
	if !rl.Allow(1) {
		t.Fatal("после истечения окна команда должна пройти")
	}
}
