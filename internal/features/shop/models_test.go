package shop

import (
	"testing"

	"taolong.ru/xiuxian-bot/internal/features/resources"
)

func TestDefaultCatalogIDsMatch(t *testing.T) {
	for id, item := range DefaultCatalog() {
		if item.ID != id {
			t.Errorf("предмет %q хранится под ключом, не совпадающим с ID %q", item.ID, id)
		}
		if item.Name == "" {
			t.Errorf("предмет %q без имени", id)
		}
	}
}

func TestCatalogCoversResourceItems(t *testing.T) {
	// Каждый предмет, добываемый с жил, должен быть известен лавке:
	// иначе инвентарь покажет голый идентификатор.
	catalog := DefaultCatalog()
	for mapName, nodes := range resources.DefaultCatalog() {
		for nodeName, spec := range nodes {
			if _, ok := catalog[spec.ItemID]; !ok {
				t.Errorf("жила %s / %s даёт неизвестный лавке предмет %q",
					mapName, nodeName, spec.ItemID)
			}
		}
	}
}

func TestConsumable(t *testing.T) {
	catalog := DefaultCatalog()

	if !catalog["qi_pill"].Consumable() {
		t.Error("пилюля должна употребляться")
	}
	if catalog["ironwood"].Consumable() {
		t.Error("материал не употребляется")
	}

	// Всё, что продаётся, должно иметь эффект: бесполезных покупок нет
	for id, item := range catalog {
		if item.Price > 0 && !item.Consumable() {
			t.Errorf("продаваемый предмет %q без эффекта", id)
		}
	}
}
