// Пакет validate — проверка обязательных полей и форматов
// черновиков записей и элементов справочников.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New(validator.WithRequiredStructEnabled())

	// Имена полей в ошибках — JSON-имена (совпадают с колонками БД)
	val.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// isodate — дата в формате YYYY-MM-DD
	_ = val.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		_, err := time.Parse("2006-01-02", fl.Field().String())
		return err == nil
	})

	// clock — время HH:MM или HH:MM:SS
	_ = val.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if _, err := time.Parse("15:04", s); err == nil {
			return true
		}
		_, err := time.Parse("15:04:05", s)
		return err == nil
	})

	return val
}

// FieldsError — список некорректных полей с причинами.
type FieldsError struct {
	Fields map[string]string
}

func (e *FieldsError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+e.Fields[name])
	}
	return strings.Join(parts, "; ")
}

// Add добавляет причину для поля.
func (e *FieldsError) Add(field, reason string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = reason
}

// Struct проверяет структуру по тегам validate.
// Возвращает *FieldsError или nil.
func Struct(s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("проверка %T: %w", s, err)
	}

	fe := &FieldsError{}
	for _, ve := range verrs {
		fe.Add(ve.Field(), reason(ve))
	}
	return fe
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "obligatorio"
	case "max":
		return "máximo " + fe.Param() + " caracteres"
	case "oneof":
		return "valor permitido: " + fe.Param()
	case "isodate":
		return "fecha inválida, formato AAAA-MM-DD"
	case "clock":
		return "hora inválida, formato HH:MM"
	default:
		return "valor inválido"
	}
}
