// Package cultivation — exp.go содержит расчёт наград совершенствования.
// Все величины считаются В МОМЕНТ ПОСТАНОВКИ задачи и фиксируются:
// изменение конфигурации или состояния игрока между постановкой и
// завершением не меняет выплату.
package cultivation

import (
	"math"

	"taolong.ru/xiuxian-bot/internal/features/player"
)

// Исходы броска обычного закрытия.
type rollKind int

const (
	rollSuccess  rollKind = iota // 70%: прирост совершенствования
	rollNothing                  // 20%: ничего
	rollBackfire                 // 10%: искажение ци, потеря 10% накопленного
)

// classifyRoll переводит равномерный бросок [0, 1) в исход закрытия.
func classifyRoll(r float64) rollKind {
	switch {
	case r < 0.7:
		return rollSuccess
	case r < 0.9:
		return rollNothing
	default:
		return rollBackfire
	}
}

// sessionExp возвращает прирост за одно успешное закрытие:
// база × ступень × духовный корень.
func sessionExp(baseExp int64, p *player.Player) int64 {
	gain := float64(baseExp) * player.RealmMultiplier(p.Realm) * player.TalentMultiplier(p.Talent)
	return int64(gain)
}

// closingOutcome возвращает зафиксированный исход обычного закрытия
// по броску r: положительный прирост, ноль или отрицательный откат.
func closingOutcome(r float64, baseExp int64, p *player.Player) int64 {
	switch classifyRoll(r) {
	case rollSuccess:
		return sessionExp(baseExp, p)
	case rollNothing:
		return 0
	default:
		loss := p.Cultivation / 10
		return -loss
	}
}

// deepClosingExp возвращает суммарный прирост глубокого закрытия:
// эквивалент серии обычных сессий с затуханием 5% за каждую.
func deepClosingExp(baseExp int64, p *player.Player, sessions int64) int64 {
	if sessions <= 0 {
		return 0
	}
	per := float64(sessionExp(baseExp, p))
	var total float64
	decay := 1.0
	for i := int64(0); i < sessions; i++ {
		total += per * decay
		decay *= 0.95
	}
	return int64(total)
}

// discountedEarlyExit возвращает уценённую выплату досрочного выхода:
// пропорционально пройденной доле срока, с дополнительным штрафным
// множителем factor.
func discountedEarlyExit(committed int64, completedRatio, factor float64) int64 {
	if completedRatio < 0 {
		completedRatio = 0
	}
	if completedRatio > 1 {
		completedRatio = 1
	}
	return int64(math.Floor(float64(committed) * completedRatio * factor))
}
