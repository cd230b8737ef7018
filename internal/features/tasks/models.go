// Package tasks — планировщик отложенных задач: записанные намерения
// получить исход в будущий момент (закрытие, сбор ресурсов).
// models.go описывает структуру задачи и её жизненный цикл.
//
// Жизненный цикл: Pending (создана, срок в будущем) → Due (срок прошёл,
// не завершена) → Resolved (исход применён ровно один раз) → Claimed
// (строка удалена после доставки уведомления).
// «Due» — это чисто сравнение настенных часов с сохранённым сроком,
// никакого живого таймера: после любого простоя процесса развёртка
// корректно дозревает всё, что созрело оффлайн.
package tasks

import "time"

// Категории задач. Пара (игрок, категория, предмет задачи) может иметь
// не более одной незавершённой задачи — это обеспечивает частичный
// уникальный индекс в БД.
const (
	CategoryCultivation = "cultivation" // закрытие и глубокое закрытие
	CategoryCollection  = "collection"  // сбор с ресурсной жилы
)

// Предметы задач категории cultivation.
const (
	SubjectClosedDoor  = "closed_door"
	SubjectDeepClosing = "deep_closing"
)

// Task представляет отложенную задачу.
// Quantity — зафиксированная при создании величина исхода; она
// неизменна, поэтому медленный резолвер не может пересчитать другую,
// потенциально эксплуатируемую награду.
type Task struct {
	ID             int64      `db:"id"`
	UserID         int64      `db:"user_id"`
	Category       string     `db:"category"`
	Subject        string     `db:"subject"`
	RewardItem     *string    `db:"reward_item"` // nil для задач, дающих опыт
	Quantity       int64      `db:"quantity"`
	StartTime      time.Time  `db:"start_time"`
	CompletionTime time.Time  `db:"completion_time"`
	Resolved       bool       `db:"resolved"`
	CreatedAt      time.Time  `db:"created_at"`
}

// Due сообщает, созрела ли задача к моменту now.
func (t *Task) Due(now time.Time) bool {
	return !now.Before(t.CompletionTime)
}

// Remaining возвращает остаток до созревания (0, если уже созрела).
func (t *Task) Remaining(now time.Time) time.Duration {
	if t.Due(now) {
		return 0
	}
	return t.CompletionTime.Sub(now)
}

// CompletedRatio возвращает долю пройденного срока в [0, 1].
// Используется при досрочном завершении с уценкой.
func (t *Task) CompletedRatio(now time.Time) float64 {
	total := t.CompletionTime.Sub(t.StartTime)
	if total <= 0 {
		return 1
	}
	elapsed := now.Sub(t.StartTime)
	if elapsed <= 0 {
		return 0
	}
	if elapsed >= total {
		return 1
	}
	return float64(elapsed) / float64(total)
}

// ResolvedOutcome — результат завершения задачи, отдаваемый вызывающему
// для уведомления игрока.
type ResolvedOutcome struct {
	TaskID     int64
	UserID     int64
	Category   string
	Subject    string
	RewardItem *string
	Quantity   int64
}

// CheckResult — ответ проверки «по требованию».
type CheckResult struct {
	// Ровно одно из трёх состояний
	NoSuchTask bool
	Remaining  time.Duration    // > 0, пока задача зреет
	Outcome    *ResolvedOutcome // не nil, когда задача завершена этой проверкой
}
