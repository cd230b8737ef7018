// Package jobs управляет фоновыми задачами (cron).
// scheduler.go настраивает расписание: развёртка созревших задач,
// уборка и спавн мировых боссов.
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"taolong.ru/xiuxian-bot/internal/config"
	"taolong.ru/xiuxian-bot/internal/features/boss"
	"taolong.ru/xiuxian-bot/internal/features/tasks"
)

// Scheduler управляет фоновыми задачами.
type Scheduler struct {
	cron     *cron.Cron
	tasks    *tasks.Service
	bosses   *boss.Service
	cfg      *config.Config
	sendFunc func(userID int64, text string)
	announce func(text string)
}

// NewScheduler создаёт планировщик задач с московским часовым поясом.
// sendFunc доставляет личные уведомления, announce пишет в игровой чат.
func NewScheduler(
	taskSvc *tasks.Service,
	bossSvc *boss.Service,
	cfg *config.Config,
	sendFunc func(userID int64, text string),
	announce func(text string),
) *Scheduler {
	loc, err := time.LoadLocation("Europe/Moscow")
	if err != nil {
		log.WithError(err).Warn("Не удалось загрузить Europe/Moscow, используем UTC+3")
		loc = time.FixedZone("MSK", 3*60*60)
	}

	return &Scheduler{
		cron:     cron.New(cron.WithLocation(loc)),
		tasks:    taskSvc,
		bosses:   bossSvc,
		cfg:      cfg,
		sendFunc: sendFunc,
		announce: announce,
	}
}

// Start запускает фоновые задачи.
func (s *Scheduler) Start(ctx context.Context) {
	// Развёртка созревших задач. Игрок получает исход, даже если сам
	// так и не спросил.
	s.cron.AddFunc(s.cfg.SweepSpec, func() {
		s.sweepDueTasks(ctx)
	})

	// Уборка истёкших боссов каждые десять минут
	s.cron.AddFunc("*/10 * * * *", func() {
		if _, err := s.bosses.SweepExpired(ctx); err != nil {
			log.WithError(err).Error("[CRON] Ошибка уборки боссов")
		}
	})

	// Спавн мирового босса трижды в день
	s.cron.AddFunc("0 10,16,21 * * *", func() {
		b, err := s.bosses.SpawnRandom(ctx)
		if err != nil {
			log.WithError(err).Error("[CRON] Ошибка спавна босса")
			return
		}
		if b != nil && s.announce != nil {
			s.announce("⚔️ В зоне «" + b.MapName + "» появился мировой босс: " + b.Name + "!")
		}
	})

	s.cron.Start()
	log.Info("Планировщик задач запущен (Europe/Moscow)")
}

// RunStartupSweep дозревает всё, что созрело за время простоя
// процесса. Срок задачи — сравнение настенных часов с сохранённым
// временем, поэтому перезапуск ничего не теряет.
func (s *Scheduler) RunStartupSweep(ctx context.Context) {
	log.Info("Развёртка задач, созревших за время простоя")
	s.sweepDueTasks(ctx)
	if _, err := s.bosses.SweepExpired(ctx); err != nil {
		log.WithError(err).Error("Ошибка уборки боссов при старте")
	}
}

func (s *Scheduler) sweepDueTasks(ctx context.Context) {
	outcomes, err := s.tasks.SweepDue(ctx)
	if err != nil {
		log.WithError(err).Error("[CRON] Ошибка развёртки задач")
		return
	}
	if len(outcomes) == 0 {
		return
	}

	claimed := make([]int64, 0, len(outcomes))
	for _, out := range outcomes {
		if s.sendFunc != nil {
			s.sendFunc(out.UserID, outcomeText(out))
		}
		claimed = append(claimed, out.TaskID)
	}
	// Уведомления доставлены, завершённые строки можно убирать
	if err := s.tasks.Claim(ctx, claimed); err != nil {
		log.WithError(err).Error("[CRON] Ошибка заявления задач")
	}
}

func outcomeText(out *tasks.ResolvedOutcome) string {
	switch out.Category {
	case tasks.CategoryCultivation:
		if out.Quantity < 0 {
			return "⚡ Искажение ци! Закрытие обернулось откатом совершенствования."
		}
		if out.Quantity == 0 {
			return "🧘 Закрытие завершено, но прозрения не случилось."
		}
		return "🧘 Закрытие завершено! Совершенствование растёт."
	case tasks.CategoryCollection:
		return "⛏ Сбор завершён: " + out.Subject + " отправился в мешок."
	default:
		return "Задача завершена."
	}
}

// Stop останавливает планировщик.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Планировщик задач остановлен")
}
