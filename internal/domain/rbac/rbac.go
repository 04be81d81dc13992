// Пакет rbac — роли операторов и проверка прав на изменение записей.
// Роль определяется по группам IdP: при нескольких совпадениях
// побеждает роль с максимальными привилегиями.
package rbac

// Роли в порядке возрастания привилегий.
const (
	RoleReadonly = "consulta"
	RoleNurse    = "enfermeria"
	RoleHR       = "talento_humano"
	RoleAdmin    = "admin"
)

// Resource — защищаемый ресурс (экран приложения).
type Resource string

const (
	ResourceAbsences  Resource = "novedades"
	ResourceAccidents Resource = "accidentes_trabajo"
	ResourceInfirmary Resource = "enfermeria"
	ResourceCatalogs  Resource = "catalogos"
)

// Action — изменяющее действие над ресурсом.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Resources возвращает все ресурсы в порядке отображения.
func Resources() []Resource {
	return []Resource{ResourceAbsences, ResourceAccidents, ResourceInfirmary, ResourceCatalogs}
}

// Actions возвращает все изменяющие действия.
func Actions() []Action {
	return []Action{ActionCreate, ActionUpdate, ActionDelete}
}

// roleWeight — вес роли для сравнения.
// Чем выше вес, тем больше привилегий.
var roleWeight = map[string]int{
	RoleReadonly: 1,
	RoleNurse:    2,
	RoleHR:       3,
	RoleAdmin:    4,
}

// GroupMapping — соответствие групп IdP ролям.
type GroupMapping struct {
	Admin    []string
	HR       []string
	Nurse    []string
	Readonly []string
}

// maxRole возвращает роль с максимальными привилегиями из двух.
func maxRole(a, b string) string {
	if roleWeight[a] >= roleWeight[b] {
		return a
	}
	return b
}

// HighestRole возвращает максимальную роль из набора.
// Если набор пуст — возвращает пустую строку.
func HighestRole(roles []string) string {
	if len(roles) == 0 {
		return ""
	}
	highest := roles[0]
	for _, r := range roles[1:] {
		highest = maxRole(highest, r)
	}
	return highest
}

// MapGroupsToRole определяет роль пользователя на основе его групп IdP.
// Если ни одна группа не совпала — возвращает пустую строку.
func MapGroupsToRole(groups []string, m GroupMapping) string {
	sets := []struct {
		role  string
		items map[string]bool
	}{
		{RoleAdmin, toSet(m.Admin)},
		{RoleHR, toSet(m.HR)},
		{RoleNurse, toSet(m.Nurse)},
		{RoleReadonly, toSet(m.Readonly)},
	}

	var roles []string
	for _, g := range groups {
		for _, s := range sets {
			if s.items[g] {
				roles = append(roles, s.role)
			}
		}
	}

	return HighestRole(roles)
}

// IsValidRole проверяет, является ли строка допустимой ролью.
func IsValidRole(role string) bool {
	_, ok := roleWeight[role]
	return ok
}

func toSet(items []string) map[string]bool {
	s := make(map[string]bool, len(items))
	for _, item := range items {
		s[item] = true
	}
	return s
}
