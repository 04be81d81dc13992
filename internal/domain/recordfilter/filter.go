// Пакет recordfilter — отбор записей по подстроке и диапазону дат.
//
// Поиск выполняется без учёта регистра по нескольким полям (совпадение
// в любом поле). Диапазон дат включительный, даты сравниваются как
// строки ISO (YYYY-MM-DD). Порядок входных записей сохраняется.
package recordfilter

import "strings"

// MissingDatePolicy — обработка записей без даты при активной границе диапазона.
type MissingDatePolicy int

const (
	// ExcludeMissing — запись без даты не проходит ни одну активную границу.
	ExcludeMissing MissingDatePolicy = iota
	// IncludeMissing — запись без даты всегда проходит фильтр по датам.
	IncludeMissing
)

// ParseMissingDatePolicy преобразует значение конфигурации в политику.
// Неизвестное значение трактуется как ExcludeMissing.
func ParseMissingDatePolicy(s string) MissingDatePolicy {
	if strings.EqualFold(s, "include") {
		return IncludeMissing
	}
	return ExcludeMissing
}

// Query — параметры фильтрации, введённые оператором.
type Query struct {
	Text string
	From string
	To   string
}

// Active сообщает, задан ли хотя бы один критерий.
func (q Query) Active() bool {
	return q.Text != "" || q.From != "" || q.To != ""
}

// Spec описывает, как фильтр читает записи типа T.
type Spec[T any] struct {
	// Fields — поля, по которым ищется подстрока.
	Fields []func(T) string
	// Date возвращает дату записи; пустая строка означает отсутствие даты.
	// Если Date == nil, границы диапазона игнорируются.
	Date func(T) string
	// MissingDate — политика для записей без даты.
	MissingDate MissingDatePolicy
}

// Apply возвращает записи, удовлетворяющие запросу, в исходном порядке.
// Входной срез не изменяется.
func Apply[T any](records []T, q Query, spec Spec[T]) []T {
	text := strings.ToLower(q.Text)
	result := make([]T, 0, len(records))
	for _, r := range records {
		if matchesText(r, text, spec) && inRange(r, q, spec) {
			result = append(result, r)
		}
	}
	return result
}

// Matches проверяет одну запись.
func Matches[T any](r T, q Query, spec Spec[T]) bool {
	return matchesText(r, strings.ToLower(q.Text), spec) && inRange(r, q, spec)
}

// InRange проверяет вхождение даты в включительный диапазон [from, to].
// Пустая граница не ограничивает.
func InRange(date, from, to string) bool {
	if from != "" && date < from {
		return false
	}
	if to != "" && date > to {
		return false
	}
	return true
}

func matchesText[T any](r T, lowered string, spec Spec[T]) bool {
	if lowered == "" {
		return true
	}
	for _, field := range spec.Fields {
		if strings.Contains(strings.ToLower(field(r)), lowered) {
			return true
		}
	}
	return false
}

func inRange[T any](r T, q Query, spec Spec[T]) bool {
	if spec.Date == nil || (q.From == "" && q.To == "") {
		return true
	}
	date := spec.Date(r)
	if date == "" {
		return spec.MissingDate == IncludeMissing
	}
	return InRange(date, q.From, q.To)
}
