package crud

import (
	"errors"
	"fmt"

	"github.com/Maicol2810/sistemanovedades2.0/internal/domain/rbac"
)

// Sentinel-ошибки контроллера.
var (
	// ErrPermissionDenied — роль не имеет права на действие.
	ErrPermissionDenied = errors.New("недостаточно прав")
	// ErrInvalidTransition — действие недопустимо в текущем состоянии.
	ErrInvalidTransition = errors.New("недопустимый переход состояния")
	// ErrNotFound — запись отсутствует в загруженной коллекции.
	ErrNotFound = errors.New("запись не найдена")
	// ErrUnsupported — экран не поддерживает операцию.
	ErrUnsupported = errors.New("операция не поддерживается")
)

// PermissionError — отказ PermissionGate. Состояние контроллера не меняется,
// обращений к хранилищу не выполняется.
type PermissionError struct {
	Role     string
	Resource rbac.Resource
	Action   rbac.Action
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("роль %q: действие %s над %s запрещено", e.Role, e.Action, e.Resource)
}

// Is позволяет сравнивать через errors.Is(err, ErrPermissionDenied).
func (e *PermissionError) Is(target error) bool {
	return target == ErrPermissionDenied
}

// TransitionError — попытка действия, недопустимого в текущем состоянии.
type TransitionError struct {
	From  State
	Event string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("INVALID_TRANSITION: %s недопустимо в состоянии %s", e.Event, e.From)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// ValidationError — черновик не прошёл проверку. Модальное окно остаётся
// открытым, черновик не меняется.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return "черновик не прошёл проверку: " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }

// PersistenceError — хранилище отклонило мутацию.
type PersistenceError struct {
	Action rbac.Action
	Err    error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("хранилище: %s: %v", e.Action, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// LoadError — не удалась параллельная загрузка записей и справочников.
// Предыдущий снимок данных сохраняется.
type LoadError struct {
	Err error
}

func (e *LoadError) Error() string {
	return "загрузка данных: " + e.Err.Error()
}

func (e *LoadError) Unwrap() error { return e.Err }
