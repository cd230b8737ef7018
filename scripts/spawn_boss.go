//go:build ignore

// spawn_boss.go — утилита для ручного спавна мирового босса.
// Запуск: go run scripts/spawn_boss.go [template_id]
//
// Без аргумента печатает доступные шаблоны. Удобно для проверки
// рейдового цикла без ожидания крона.
package main

import (
	"context"
	"fmt"
	"os"

	"taolong.ru/xiuxian-bot/internal/config"
	"taolong.ru/xiuxian-bot/internal/db/postgres"
	"taolong.ru/xiuxian-bot/internal/features/boss"
)

func main() {
	templates := boss.DefaultTemplates()

	if len(os.Args) < 2 {
		fmt.Println("Использование: go run scripts/spawn_boss.go <template_id>")
		fmt.Println("Доступные шаблоны:")
		for _, t := range templates {
			fmt.Printf("  %-14s %s (%s, HP %d)\n", t.ID, t.Name, t.MapName, t.MaxHP)
		}
		os.Exit(1)
	}

	var tpl *boss.Template
	for i := range templates {
		if templates[i].ID == os.Args[1] {
			tpl = &templates[i]
			break
		}
	}
	if tpl == nil {
		fmt.Printf("Неизвестный шаблон %q\n", os.Args[1])
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Ошибка конфигурации: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		fmt.Printf("Ошибка подключения к БД: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	b, err := boss.NewRepository(pool).Spawn(ctx, *tpl, cfg.BossLifetime)
	if err != nil {
		fmt.Printf("Ошибка спавна: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Босс %s появился в зоне «%s» (HP %d, живёт до %s)\n",
		b.Name, b.MapName, b.MaxHP, b.ExpiresAt.Format("15:04:05"))
}
