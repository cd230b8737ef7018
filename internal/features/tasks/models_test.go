package tasks

import (
	"testing"
	"time"
)

func TestDue(t *testing.T) {
	now := time.Now()
	task := &Task{CompletionTime: now.Add(time.Hour)}

	if task.Due(now) {
		t.Error("задача со сроком в будущем не созрела")
	}
	if !task.Due(now.Add(time.Hour)) {
		t.Error("задача созревает ровно в срок")
	}
	if !task.Due(now.Add(2 * time.Hour)) {
		t.Error("просроченная задача созрела")
	}
}

func TestRemaining(t *testing.T) {
	now := time.Now()
	task := &Task{CompletionTime: now.Add(30 * time.Minute)}

	if got := task.Remaining(now); got != 30*time.Minute {
		t.Errorf("Remaining = %v, ожидалось 30m", got)
	}
	if got := task.Remaining(now.Add(time.Hour)); got != 0 {
		t.Errorf("Remaining после срока = %v, ожидалось 0", got)
	}
}

func TestCompletedRatio(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	task := &Task{StartTime: start, CompletionTime: start.Add(time.Hour)}

	tests := []struct {
		name string
		now  time.Time
		want float64
	}{
		{"до начала", start.Add(-time.Minute), 0},
		{"в начале", start, 0},
		{"четверть", start.Add(15 * time.Minute), 0.25},
		{"половина", start.Add(30 * time.Minute), 0.5},
		{"в срок", start.Add(time.Hour), 1},
		{"после срока", start.Add(2 * time.Hour), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := task.CompletedRatio(tt.now); got != tt.want {
				t.Errorf("CompletedRatio = %v, ожидалось %v", got, tt.want)
			}
		})
	}
}

func TestCompletedRatioDegenerateWindow(t *testing.T) {
	now := time.Now()
	// Нулевой срок считается полностью пройденным
	task := &Task{StartTime: now, CompletionTime: now}
	if got := task.CompletedRatio(now); got != 1 {
		t.Errorf("нулевой срок: %v, ожидалось 1", got)
	}
}
