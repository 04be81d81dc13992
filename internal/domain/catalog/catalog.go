// Пакет catalog — описание справочников.
//
// Каждый справочник описывается вариантом схемы: простой (nombre),
// кодированный (codigo + nombre) или справочник сотрудников
// (cedula + nombre + cargo + dependencia). Схемы задаются таблицей,
// имя таблицы берётся только из неё.
package catalog

import (
	"errors"
	"fmt"

	"github.com/Maicol2810/sistemanovedades2.0/internal/domain/model"
	"github.com/Maicol2810/sistemanovedades2.0/internal/domain/validate"
)

// ErrUnknownKind — запрошен неизвестный справочник.
var ErrUnknownKind = errors.New("неизвестный справочник")

// Kind — идентификатор справочника, совпадает с именем таблицы.
type Kind string

const (
	AbsenceTypes    Kind = "tipos_novedad"
	Diagnoses       Kind = "diagnosticos"
	DisabilityTypes Kind = "tipos_incapacidad"
	Symptoms        Kind = "sintomas"
	HealthHistory   Kind = "antecedentes_salud"
	Employees       Kind = "funcionarios"
	AccidentTypes   Kind = "tipos_at"
	InjuryTypes     Kind = "tipos_lesion"
	BodyParts       Kind = "partes_cuerpo"
	JobTitles       Kind = "cargos"
	Units           Kind = "dependencias"
)

// Variant — форма записей справочника.
type Variant int

const (
	VariantPlain Variant = iota
	VariantCoded
	VariantDirectory
)

func (v Variant) String() string {
	switch v {
	case VariantCoded:
		return "coded"
	case VariantDirectory:
		return "directory"
	default:
		return "plain"
	}
}

// Schema — описание одного справочника.
type Schema struct {
	Kind    Kind
	Table   string
	Label   string
	Variant Variant
}

// schemas — порядок совпадает с порядком вкладок экрана настроек.
var schemas = []Schema{
	{Kind: AbsenceTypes, Table: "tipos_novedad", Label: "Tipos de Novedad", Variant: VariantPlain},
	{Kind: Diagnoses, Table: "diagnosticos", Label: "Diagnósticos", Variant: VariantCoded},
	{Kind: DisabilityTypes, Table: "tipos_incapacidad", Label: "Tipos de Incapacidad", Variant: VariantPlain},
	{Kind: Symptoms, Table: "sintomas", Label: "Síntomas", Variant: VariantPlain},
	{Kind: HealthHistory, Table: "antecedentes_salud", Label: "Antecedentes de Salud", Variant: VariantPlain},
	{Kind: Employees, Table: "funcionarios", Label: "Funcionarios", Variant: VariantDirectory},
	{Kind: AccidentTypes, Table: "tipos_at", Label: "Tipos de AT", Variant: VariantPlain},
	{Kind: InjuryTypes, Table: "tipos_lesion", Label: "Tipos de Lesión", Variant: VariantPlain},
	{Kind: BodyParts, Table: "partes_cuerpo", Label: "Partes del Cuerpo", Variant: VariantPlain},
	{Kind: JobTitles, Table: "cargos", Label: "Cargos", Variant: VariantPlain},
	{Kind: Units, Table: "dependencias", Label: "Dependencias", Variant: VariantPlain},
}

var byKind = func() map[Kind]Schema {
	m := make(map[Kind]Schema, len(schemas))
	for _, s := range schemas {
		m[s.Kind] = s
	}
	return m
}()

// Lookup возвращает схему справочника по идентификатору.
func Lookup(kind string) (Schema, error) {
	s, ok := byKind[Kind(kind)]
	if !ok {
		return Schema{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return s, nil
}

// MustLookup — как Lookup, но паникует на неизвестном справочнике.
// Используется только с константами пакета.
func MustLookup(kind Kind) Schema {
	s, err := Lookup(string(kind))
	if err != nil {
		panic(err)
	}
	return s
}

// All возвращает все схемы в порядке отображения.
func All() []Schema {
	out := make([]Schema, len(schemas))
	copy(out, schemas)
	return out
}

// --- Проверка записей по варианту ---

type plainEntry struct {
	Name string `json:"nombre" validate:"required,max=200"`
}

type codedEntry struct {
	Code string `json:"codigo" validate:"required,max=20"`
	Name string `json:"nombre" validate:"required,max=200"`
}

type directoryEntry struct {
	NationalID string `json:"cedula" validate:"required,max=20"`
	Name       string `json:"nombre" validate:"required,max=200"`
	Title      string `json:"cargo" validate:"required"`
	Unit       string `json:"dependencia" validate:"required"`
}

// ValidateEntry проверяет элемент простого или кодированного справочника.
func (s Schema) ValidateEntry(e model.CatalogEntry) error {
	switch s.Variant {
	case VariantPlain:
		return validate.Struct(plainEntry{Name: e.Name})
	case VariantCoded:
		return validate.Struct(codedEntry{Code: e.Code, Name: e.Name})
	default:
		return fmt.Errorf("справочник %s хранит сотрудников, а не элементы", s.Kind)
	}
}

// ValidateEmployee проверяет запись справочника сотрудников.
func (s Schema) ValidateEmployee(e model.Employee) error {
	if s.Variant != VariantDirectory {
		return fmt.Errorf("справочник %s не является справочником сотрудников", s.Kind)
	}
	return validate.Struct(directoryEntry{
		NationalID: e.NationalID,
		Name:       e.Name,
		Title:      e.Title,
		Unit:       e.Unit,
	})
}

// Normalize приводит элемент к форме варианта: у простых справочников
// codigo не хранится.
func (s Schema) Normalize(e model.CatalogEntry) model.CatalogEntry {
	if s.Variant != VariantCoded {
		e.Code = ""
	}
	return e
}
