package jobs

import (
	"strings"
	"testing"

	"taolong.ru/xiuxian-bot/internal/features/tasks"
)

func TestOutcomeText(t *testing.T) {
	tests := []struct {
		name string
		out  *tasks.ResolvedOutcome
		want string
	}{
		{
			"успешное закрытие",
			&tasks.ResolvedOutcome{Category: tasks.CategoryCultivation, Quantity: 15},
			"растёт",
		},
		{
			"пустое закрытие",
			&tasks.ResolvedOutcome{Category: tasks.CategoryCultivation, Quantity: 0},
			"прозрения не случилось",
		},
		{
			"искажение ци",
			&tasks.ResolvedOutcome{Category: tasks.CategoryCultivation, Quantity: -25},
			"Искажение ци",
		},
		{
			"сбор",
			&tasks.ResolvedOutcome{Category: tasks.CategoryCollection, Subject: "Лунный цветок", Quantity: 3},
			"Лунный цветок",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := outcomeText(tt.out)
			if !strings.Contains(got, tt.want) {
				t.Errorf("outcomeText = %q, должно содержать %q", got, tt.want)
			}
		})
	}
}
