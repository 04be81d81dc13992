// Пакет lookup — автозаполнение данных сотрудника по cedula
// из справочника активных сотрудников.
package lookup

import "github.com/Maicol2810/sistemanovedades2.0/internal/domain/model"

// Match — поля, переносимые из справочника в черновик.
type Match struct {
	Name  string
	Title string
	Unit  string
}

// Directory — снимок активных сотрудников, индексированный по cedula.
// Только для чтения, заменяется целиком при каждой перезагрузке экрана.
type Directory struct {
	byNationalID map[string]model.Employee
}

// NewDirectory строит индекс по точному значению cedula.
// Неактивные записи пропускаются, при дубликатах побеждает первая.
func NewDirectory(entries []model.Employee) *Directory {
	d := &Directory{byNationalID: make(map[string]model.Employee, len(entries))}
	for _, e := range entries {
		if !e.Active || e.NationalID == "" {
			continue
		}
		if _, exists := d.byNationalID[e.NationalID]; exists {
			continue
		}
		d.byNationalID[e.NationalID] = e
	}
	return d
}

// Resolve ищет сотрудника по точному совпадению cedula.
// При отсутствии совпадения возвращает false: вызывающий код
// обновляет только cedula и не трогает введённые вручную поля.
func (d *Directory) Resolve(nationalID string) (Match, bool) {
	if d == nil {
		return Match{}, false
	}
	e, ok := d.byNationalID[nationalID]
	if !ok {
		return Match{}, false
	}
	return Match{Name: e.Name, Title: e.Title, Unit: e.Unit}, true
}

// Len возвращает число активных сотрудников в снимке.
func (d *Directory) Len() int {
	if d == nil {
		return 0
	}
	return len(d.byNationalID)
}
