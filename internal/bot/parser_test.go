package bot

import (
	"reflect"
	"testing"
)

func TestParseCommand(t *testing.T) {
	p := NewCommandParser()

	tests := []struct {
		name     string
		text     string
		wantCmd  string
		wantArgs []string
		wantOK   bool
	}{
		{"восклицательный префикс", "!профиль", "профиль", nil, true},
		{"точка", ".закрыться", "закрыться", nil, true},
		{"слэш", "/помощь", "помощь", nil, true},
		{"аргументы", "!передать @ivan 50", "передать", []string{"@ivan", "50"}, true},
		{"регистр команды", "!ПРОФИЛЬ", "профиль", nil, true},
		{"лишние пробелы", "  !собрать   Лунный цветок  ", "собрать", []string{"Лунный", "цветок"}, true},
		{"без префикса", "профиль", "", nil, false},
		{"только префикс", "!", "", nil, false},
		{"пустая строка", "", "", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, args, ok := p.ParseCommand(tt.text)
			if cmd != tt.wantCmd || ok != tt.wantOK || !reflect.DeepEqual(args, tt.wantArgs) {
				t.Errorf("ParseCommand(%q) = (%q, %v, %v), ожидалось (%q, %v, %v)",
					tt.text, cmd, args, ok, tt.wantCmd, tt.wantArgs, tt.wantOK)
			}
		})
	}
}
