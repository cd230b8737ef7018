package cultivation

// realmStep — одна ступень лестницы совершенствования:
// имя и порог очков, требуемый для прорыва на СЛЕДУЮЩУЮ ступень.
type realmStep struct {
	Name      string
	Threshold int64
}

// realmLadder — лестница ступеней по возрастанию. Порог последней
// ступени не используется: выше прорываться некуда.
var realmLadder = []realmStep{
	{"Конденсация ци I", 100},
	{"Конденсация ци II", 300},
	{"Конденсация ци III", 700},
	{"Заложение основ I", 1500},
	{"Заложение основ II", 3000},
	{"Заложение основ III", 6000},
	{"Золотое ядро I", 12000},
	{"Золотое ядро II", 25000},
	{"Золотое ядро III", 50000},
	{"Зарождающаяся душа", 0},
}

// NextRealm возвращает следующую ступень после current и порог
// совершенствования для прорыва. ok == false, если current —
// вершина лестницы или неизвестная ступень.
func NextRealm(current string) (next string, threshold int64, ok bool) {
	for i, step := range realmLadder {
		if step.Name != current {
			continue
		}
		if i+1 >= len(realmLadder) {
			return "", 0, false
		}
		return realmLadder[i+1].Name, step.Threshold, true
	}
	return "", 0, false
}
