package rbac

import (
	"os"
	"path/filepath"
	"testing"
)

func TestHighestRole(t *testing.T) {
	tests := []struct {
		name  string
		roles []string
		want  string
	}{
		{name: "пустой набор", roles: nil, want: ""},
		{name: "один admin", roles: []string{RoleAdmin}, want: RoleAdmin},
		{name: "enfermeria + talento_humano", roles: []string{RoleNurse, RoleHR}, want: RoleHR},
		{name: "consulta + enfermeria", roles: []string{RoleReadonly, RoleNurse}, want: RoleNurse},
		{name: "talento_humano + admin", roles: []string{RoleHR, RoleAdmin}, want: RoleAdmin},
		{name: "все consulta", roles: []string{RoleReadonly, RoleReadonly}, want: RoleReadonly},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HighestRole(tt.roles); got != tt.want {
				t.Errorf("HighestRole(%v) = %q, хотели %q", tt.roles, got, tt.want)
			}
		})
	}
}

func TestMapGroupsToRole(t *testing.T) {
	mapping := GroupMapping{
		Admin:    []string{"so-admins"},
		HR:       []string{"so-talento-humano"},
		Nurse:    []string{"so-enfermeria"},
		Readonly: []string{"so-consulta"},
	}

	tests := []struct {
		name   string
		groups []string
		want   string
	}{
		{"группа admins -> admin", []string{"so-admins"}, RoleAdmin},
		{"группа enfermeria", []string{"so-enfermeria"}, RoleNurse},
		{"enfermeria + talento humano -> talento_humano", []string{"so-enfermeria", "so-talento-humano"}, RoleHR},
		{"consulta + admins -> admin", []string{"so-consulta", "so-admins"}, RoleAdmin},
		{"нет совпадений", []string{"other"}, ""},
		{"пустой список групп", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MapGroupsToRole(tt.groups, mapping); got != tt.want {
				t.Errorf("MapGroupsToRole(%v) = %q, хотели %q", tt.groups, got, tt.want)
			}
		})
	}
}

func TestIsValidRole(t *testing.T) {
	tests := []struct {
		role string
		want bool
	}{
		{RoleAdmin, true},
		{RoleHR, true},
		{RoleNurse, true},
		{RoleReadonly, true},
		{"readonly", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			if got := IsValidRole(tt.role); got != tt.want {
				t.Errorf("IsValidRole(%q) = %v, хотели %v", tt.role, got, tt.want)
			}
		})
	}
}

func TestGate_DefaultPolicy(t *testing.T) {
	gate, err := NewGate("")
	if err != nil {
		t.Fatalf("NewGate: %v", err)
	}

	tests := []struct {
		role     string
		resource Resource
		action   Action
		want     bool
	}{
		{RoleAdmin, ResourceCatalogs, ActionDelete, true},
		{RoleAdmin, ResourceAbsences, ActionCreate, true},
		{RoleHR, ResourceAbsences, ActionDelete, true},
		{RoleHR, ResourceAccidents, ActionUpdate, true},
		{RoleHR, ResourceInfirmary, ActionCreate, false},
		{RoleHR, ResourceCatalogs, ActionUpdate, false},
		{RoleNurse, ResourceInfirmary, ActionDelete, true},
		{RoleNurse, ResourceAccidents, ActionCreate, true},
		{RoleNurse, ResourceAccidents, ActionDelete, false},
		{RoleNurse, ResourceAbsences, ActionCreate, false},
		{RoleReadonly, ResourceAbsences, ActionCreate, false},
		{"", ResourceAbsences, ActionCreate, false},
		{"unknown", ResourceAbsences, ActionCreate, false},
	}

	for _, tt := range tests {
		name := tt.role + "/" + string(tt.resource) + "/" + string(tt.action)
		t.Run(name, func(t *testing.T) {
			if got := gate.Allow(tt.role, tt.resource, tt.action); got != tt.want {
				t.Errorf("Allow = %v, хотели %v", got, tt.want)
			}
		})
	}
}

func TestGate_Deterministic(t *testing.T) {
	gate, err := NewGate("")
	if err != nil {
		t.Fatalf("NewGate: %v", err)
	}
	first := gate.Allow(RoleNurse, ResourceAccidents, ActionUpdate)
	for i := 0; i < 10; i++ {
		if gate.Allow(RoleNurse, ResourceAccidents, ActionUpdate) != first {
			t.Fatal("повторный вызов Allow вернул другой результат")
		}
	}
}

func TestGate_PolicyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.csv")
	content := "# только чтение для всех, кроме записи в enfermeria\np, consulta, enfermeria, create\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("запись политики: %v", err)
	}

	gate, err := NewGate(path)
	if err != nil {
		t.Fatalf("NewGate: %v", err)
	}
	if !gate.Allow(RoleReadonly, ResourceInfirmary, ActionCreate) {
		t.Error("consulta должна иметь право create на enfermeria по файлу политики")
	}
	if gate.Allow(RoleAdmin, ResourceCatalogs, ActionCreate) {
		t.Error("файл политики не даёт admin прав, встроенная политика не должна применяться")
	}
}

func TestGate_Permissions(t *testing.T) {
	gate, err := NewGate("")
	if err != nil {
		t.Fatalf("NewGate: %v", err)
	}

	perms := gate.Permissions(RoleNurse)
	if len(perms[ResourceInfirmary]) != 3 {
		t.Errorf("enfermeria: %v, ожидается 3 действия", perms[ResourceInfirmary])
	}
	if got := perms[ResourceAccidents]; len(got) != 2 || got[0] != ActionCreate || got[1] != ActionUpdate {
		t.Errorf("accidentes_trabajo: %v, ожидается [create update]", got)
	}
	if _, ok := perms[ResourceCatalogs]; ok {
		t.Error("catalogos не должен присутствовать для enfermeria")
	}
	if len(gate.Permissions(RoleReadonly)) != 0 {
		t.Error("consulta не должна иметь изменяющих прав")
	}
}

func TestNewGate_MissingPolicyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.csv")
	if _, err := NewGate(path); err == nil {
		t.Errorf("NewGate(%s) без файла не вернул ошибку", path)
	}
}
