// Package common — errors.go определяет пользовательские ошибки,
// которые используются во всех модулях бота.
// Эти ошибки позволяют обработчикам различать типы проблем
// и отправлять игроку понятные сообщения.
//
// Все ожидаемые игровые отказы (нехватка камней, занятость, истощённая жила)
// возвращаются как обычный отрицательный результат, а не как авария:
// обработчик сравнивает через errors.Is и формирует ответ.
// Жёсткие сбои хранилища пробрасываются наверх и откатывают транзакцию.
package common

import "errors"

// Ошибки экономики (духовные камни, инвентарь)
var (
	// ErrInsufficientStones — недостаточно духовных камней на счету
	ErrInsufficientStones = errors.New("недостаточно духовных камней")
	// ErrInsufficientItems — недостаточно предметов в инвентаре
	ErrInsufficientItems = errors.New("недостаточно предметов в инвентаре")
	// ErrInvalidAmount — некорректное количество (ноль или отрицательное)
	ErrInvalidAmount = errors.New("количество должно быть положительным")
	// ErrSelfTransfer — попытка перевести камни самому себе
	ErrSelfTransfer = errors.New("нельзя переводить камни самому себе")
	// ErrPlayerNotFound — игрок не найден в базе
	ErrPlayerNotFound = errors.New("игрок не найден")
)

// Ошибки отложенных задач (закрытие, сбор ресурсов)
var (
	// ErrTaskAlreadyActive — у игрока уже есть незавершённая задача этого вида
	ErrTaskAlreadyActive = errors.New("задача такого вида уже выполняется")
	// ErrTaskNotFound — задача не найдена
	ErrTaskNotFound = errors.New("задача не найдена")
	// ErrTaskAlreadyResolved — задача уже завершена, повторное завершение — no-op
	ErrTaskAlreadyResolved = errors.New("задача уже завершена")
	// ErrOnCooldown — действие на перезарядке
	ErrOnCooldown = errors.New("действие на перезарядке")
	// ErrRealmPeak — игрок на вершине лестницы ступеней, прорываться некуда
	ErrRealmPeak = errors.New("достигнута вершина пути совершенствования")
)

// Ошибки лавки и инвентаря
var (
	// ErrItemUnknown — предмета нет в каталоге или он не продаётся
	ErrItemUnknown = errors.New("такого предмета здесь нет")
	// ErrItemNotConsumable — предмет нельзя употребить
	ErrItemNotConsumable = errors.New("этот предмет нельзя употребить")
)

// Ошибки ресурсных жил
var (
	// ErrNodeDepleted — жила истощена до следующего восстановления
	ErrNodeDepleted = errors.New("ресурсная жила истощена")
	// ErrNodeUnknown — на этой карте нет такой жилы
	ErrNodeUnknown = errors.New("такой ресурсной жилы здесь нет")
)

// Ошибки боссов и арены
var (
	// ErrBossNotFound — босс не существует или уже повержен
	ErrBossNotFound = errors.New("босс не найден")
	// ErrBossAlreadyDead — босс повержен между чтением и ударом
	ErrBossAlreadyDead = errors.New("босс уже повержен")
	// ErrHermitMode — игрок в уединении и не участвует в боях
	ErrHermitMode = errors.New("в режиме отшельника сражаться нельзя")
	// ErrSelfBattle — попытка вызвать на бой самого себя
	ErrSelfBattle = errors.New("нельзя сражаться с самим собой")
)

// Ошибки сект
var (
	// ErrAlreadyInSect — игрок уже состоит в секте
	ErrAlreadyInSect = errors.New("вы уже состоите в секте")
	// ErrNotInSect — игрок не состоит в секте
	ErrNotInSect = errors.New("вы не состоите в секте")
	// ErrSectNotFound — секта не найдена
	ErrSectNotFound = errors.New("секта не найдена")
	// ErrSectNameTaken — секта с таким именем уже есть
	ErrSectNameTaken = errors.New("секта с таким именем уже существует")
	// ErrRollCallDone — сегодняшняя перекличка уже пройдена
	ErrRollCallDone = errors.New("сегодня вы уже отмечались")
)

// ErrCorruptedState — нарушение инварианта хранилища (например, завершённая
// задача без соответствующей записи эффекта). Не чинится молча: логируется
// как фатальный дефект целостности и требует внимания оператора.
var ErrCorruptedState = errors.New("нарушение целостности игрового состояния")
