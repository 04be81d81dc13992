package rbac

import (
	_ "embed"
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/casbin/casbin/v2/persist"
	fileadapter "github.com/casbin/casbin/v2/persist/file-adapter"
	stringadapter "github.com/casbin/casbin/v2/persist/string-adapter"
)

// gateModel — модель casbin: субъект (роль), объект (ресурс), действие.
const gateModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && (p.obj == "*" || r.obj == p.obj) && (p.act == "*" || r.act == p.act)
`

//go:embed policy.csv
var defaultPolicy string

// Gate — проверка прав (роль, ресурс, действие) перед каждой мутацией.
// Политика загружается один раз при старте, проверка выполняется в памяти.
type Gate struct {
	enforcer *casbin.Enforcer
}

// NewGate создаёт Gate. Если policyPath пуст, используется встроенная политика.
func NewGate(policyPath string) (*Gate, error) {
	m, err := model.NewModelFromString(gateModel)
	if err != nil {
		return nil, fmt.Errorf("модель доступа: %w", err)
	}

	var adapter persist.Adapter = stringadapter.NewAdapter(defaultPolicy)
	source := "встроенной политики"
	if policyPath != "" {
		adapter = fileadapter.NewAdapter(policyPath)
		source = "политики " + policyPath
	}

	enf, err := casbin.NewEnforcer(m, adapter)
	if err != nil {
		return nil, fmt.Errorf("загрузка %s: %w", source, err)
	}
	return &Gate{enforcer: enf}, nil
}

// Allow сообщает, разрешено ли роли выполнить действие над ресурсом.
// Ошибка вычисления политики трактуется как отказ.
func (g *Gate) Allow(role string, resource Resource, action Action) bool {
	if role == "" {
		return false
	}
	ok, err := g.enforcer.Enforce(role, string(resource), string(action))
	return err == nil && ok
}

// Permissions возвращает разрешённые роли действия по каждому ресурсу.
// Ресурсы без разрешённых действий не включаются.
func (g *Gate) Permissions(role string) map[Resource][]Action {
	result := make(map[Resource][]Action)
	for _, res := range Resources() {
		for _, act := range Actions() {
			if g.Allow(role, res, act) {
				result[res] = append(result[res], act)
			}
		}
	}
	return result
}
