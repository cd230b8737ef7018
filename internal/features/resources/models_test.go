package resources

import (
	"testing"
	"time"
)

func TestRefreshedQuantity(t *testing.T) {
	spec := NodeSpec{MaxQuantity: 10, RefreshInterval: time.Hour}
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// Интервал не истёк: остаток как есть
	got, refreshed := RefreshedQuantity(3, base, base.Add(30*time.Minute), spec)
	if got != 3 || refreshed {
		t.Errorf("до истечения интервала: (%d, %v), ожидалось (3, false)", got, refreshed)
	}

	// Интервал истёк ровно: жила полна
	got, refreshed = RefreshedQuantity(3, base, base.Add(time.Hour), spec)
	if got != 10 || !refreshed {
		t.Errorf("ровно в момент восстановления: (%d, %v), ожидалось (10, true)", got, refreshed)
	}

	// Восстановление полное, не пропорциональное
	got, _ = RefreshedQuantity(0, base, base.Add(2*time.Hour), spec)
	if got != 10 {
		t.Errorf("после долгого простоя: %d, ожидалось 10", got)
	}
}

func TestDefaultCatalogSane(t *testing.T) {
	catalog := DefaultCatalog()
	if len(catalog) == 0 {
		t.Fatal("картотека жил пуста")
	}
	for mapName, nodes := range catalog {
		for nodeName, spec := range nodes {
			if spec.MaxQuantity <= 0 {
				t.Errorf("%s / %s: максимум жилы должен быть положительным", mapName, nodeName)
			}
			if spec.RefreshInterval <= 0 {
				t.Errorf("%s / %s: интервал восстановления должен быть положительным", mapName, nodeName)
			}
			if spec.ItemID == "" {
				t.Errorf("%s / %s: жила без предмета", mapName, nodeName)
			}
		}
	}
}

func TestSpecLookup(t *testing.T) {
	svc := NewService(nil, DefaultCatalog())

	if _, err := svc.Spec("Деревня у горы", "Жила духовных камней"); err != nil {
		t.Errorf("известная жила: %v", err)
	}
	if _, err := svc.Spec("Деревня у горы", "нет такой"); err == nil {
		t.Error("неизвестная жила должна давать ошибку")
	}
	if _, err := svc.Spec("нет такой зоны", "Жила духовных камней"); err == nil {
		t.Error("неизвестная зона должна давать ошибку")
	}
}
