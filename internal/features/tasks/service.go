// Package tasks — service.go содержит операции планировщика:
// постановка, проверка по требованию, глобальная развёртка, заявление.
package tasks

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"taolong.ru/xiuxian-bot/internal/common"
	"taolong.ru/xiuxian-bot/internal/db/postgres"
)

// Service управляет отложенными задачами.
type Service struct {
	repo *Repository
}

// NewService создаёт сервис планировщика.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// Schedule ставит задачу с зафиксированным исходом quantity и сроком
// now + duration. Возвращает common.ErrTaskAlreadyActive, если по тройке
// (игрок, категория, предмет) уже есть незавершённая задача.
func (s *Service) Schedule(ctx context.Context, userID int64, category, subject string, rewardItem *string, quantity int64, duration time.Duration) (*Task, error) {
	// Отрицательная величина допустима: закрытие может закончиться
	// откатом совершенствования, и этот исход тоже фиксируется заранее.
	if duration <= 0 {
		return nil, common.ErrInvalidAmount
	}
	now := time.Now()
	t, err := s.repo.Insert(ctx, userID, category, subject, rewardItem, quantity, now, now.Add(duration))
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"user_id":  userID,
		"category": category,
		"subject":  subject,
		"quantity": quantity,
		"due_at":   t.CompletionTime,
	}).Info("Задача поставлена")
	return t, nil
}

// GetActive возвращает незавершённую задачу по тройке ключа.
func (s *Service) GetActive(ctx context.Context, userID int64, category, subject string) (*Task, error) {
	return s.repo.GetActive(ctx, userID, category, subject)
}

// ListActive возвращает все незавершённые задачи игрока.
func (s *Service) ListActive(ctx context.Context, userID int64) ([]*Task, error) {
	return s.repo.ListActive(ctx, userID)
}

// CheckAndResolve — проверка «по требованию» при обращении игрока:
// нет задачи → NoSuchTask; зреет → остаток; созрела → завершает её
// (идемпотентно) и возвращает исход.
func (s *Service) CheckAndResolve(ctx context.Context, userID int64, category, subject string) (*CheckResult, error) {
	t, err := s.repo.GetActive(ctx, userID, category, subject)
	if err != nil {
		if errors.Is(err, common.ErrTaskNotFound) {
			return &CheckResult{NoSuchTask: true}, nil
		}
		return nil, err
	}

	now := time.Now()
	if !t.Due(now) {
		return &CheckResult{Remaining: t.Remaining(now)}, nil
	}

	outcome, err := s.resolveWithRetry(ctx, t.ID, nil)
	if err != nil {
		if errors.Is(err, common.ErrTaskAlreadyResolved) {
			// Глобальная развёртка успела первой; награда уже выдана
			return &CheckResult{NoSuchTask: true}, nil
		}
		return nil, err
	}
	return &CheckResult{Outcome: outcome}, nil
}

// CheckAndResolveCategory — та же проверка по требованию, но по
// категории в целом: предмет задачи вызывающему не известен
// (например, обычное или глубокое закрытие).
func (s *Service) CheckAndResolveCategory(ctx context.Context, userID int64, category string) (*CheckResult, error) {
	t, err := s.repo.GetActiveInCategory(ctx, userID, category)
	if err != nil {
		if errors.Is(err, common.ErrTaskNotFound) {
			return &CheckResult{NoSuchTask: true}, nil
		}
		return nil, err
	}

	now := time.Now()
	if !t.Due(now) {
		return &CheckResult{Remaining: t.Remaining(now)}, nil
	}

	outcome, err := s.resolveWithRetry(ctx, t.ID, nil)
	if err != nil {
		if errors.Is(err, common.ErrTaskAlreadyResolved) {
			return &CheckResult{NoSuchTask: true}, nil
		}
		return nil, err
	}
	return &CheckResult{Outcome: outcome}, nil
}

// Resolve завершает задачу с исходом, зафиксированным при постановке.
func (s *Service) Resolve(ctx context.Context, taskID int64) (*ResolvedOutcome, error) {
	return s.resolveWithRetry(ctx, taskID, nil)
}

// ResolveEarly завершает задачу немедленно с переданной уценённой
// величиной (досрочный выход из глубокого закрытия). Уценка считается
// в момент завершения — это осознанное исключение из правила
// «исход фиксируется при постановке».
func (s *Service) ResolveEarly(ctx context.Context, taskID int64, discounted int64) (*ResolvedOutcome, error) {
	if discounted < 0 {
		discounted = 0
	}
	return s.resolveWithRetry(ctx, taskID, &discounted)
}

func (s *Service) resolveWithRetry(ctx context.Context, taskID int64, override *int64) (*ResolvedOutcome, error) {
	var outcome *ResolvedOutcome
	err := postgres.WithinRetry(ctx, func() error {
		var rerr error
		outcome, rerr = s.repo.Resolve(ctx, taskID, override)
		return rerr
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"task_id":  outcome.TaskID,
		"user_id":  outcome.UserID,
		"category": outcome.Category,
		"quantity": outcome.Quantity,
	}).Info("Задача завершена, исход применён")
	return outcome, nil
}

// SweepDue завершает ВСЕ созревшие задачи независимо от активности их
// владельцев. Вызывается кроном и один раз при старте процесса —
// задачи, созревшие за время простоя, дозревают здесь (срок — это
// сравнение с сохранённым временем, а не живой таймер).
// Возвращает исходы для доставки уведомлений.
func (s *Service) SweepDue(ctx context.Context) ([]*ResolvedOutcome, error) {
	due, err := s.repo.ListDue(ctx, nil, time.Now())
	if err != nil {
		return nil, err
	}

	outcomes := s.resolveAll(ctx, due)
	if len(outcomes) > 0 {
		log.WithField("count", len(outcomes)).Info("Развёртка завершила созревшие задачи")
	}
	return outcomes, nil
}

// PollDue завершает созревшие задачи одного игрока. Та же развёртка,
// но с фильтром по владельцу.
func (s *Service) PollDue(ctx context.Context, userID int64) ([]*ResolvedOutcome, error) {
	due, err := s.repo.ListDue(ctx, &userID, time.Now())
	if err != nil {
		return nil, err
	}
	return s.resolveAll(ctx, due), nil
}

func (s *Service) resolveAll(ctx context.Context, due []*Task) []*ResolvedOutcome {
	var outcomes []*ResolvedOutcome
	for _, t := range due {
		outcome, err := s.resolveWithRetry(ctx, t.ID, nil)
		if err != nil {
			if errors.Is(err, common.ErrTaskAlreadyResolved) {
				continue // конкурентная проверка игрока успела первой
			}
			// Одна сломанная задача не должна останавливать развёртку
			log.WithError(err).WithField("task_id", t.ID).Error("Ошибка завершения задачи в развёртке")
			continue
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

// Claim удаляет завершённые задачи после доставки уведомлений.
func (s *Service) Claim(ctx context.Context, taskIDs []int64) error {
	return s.repo.DeleteResolved(ctx, taskIDs)
}
