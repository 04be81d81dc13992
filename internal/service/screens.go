package service

import (
	"time"

	"github.com/Maicol2810/sistemanovedades2.0/internal/crud"
	"github.com/Maicol2810/sistemanovedades2.0/internal/domain/catalog"
	"github.com/Maicol2810/sistemanovedades2.0/internal/domain/duration"
	"github.com/Maicol2810/sistemanovedades2.0/internal/domain/lookup"
	"github.com/Maicol2810/sistemanovedades2.0/internal/domain/model"
	"github.com/Maicol2810/sistemanovedades2.0/internal/domain/rbac"
	"github.com/Maicol2810/sistemanovedades2.0/internal/domain/recordfilter"
	"github.com/Maicol2810/sistemanovedades2.0/internal/domain/validate"
	"github.com/Maicol2810/sistemanovedades2.0/internal/export"
)

// Notices — сообщения пользователю по итогам действий экрана.
type Notices struct {
	Created      string
	Updated      string
	Deleted      string
	SaveFailed   string
	DeleteFailed string
	Activated    string
	Deactivated  string
	ToggleFailed string
}

// Общие сообщения всех экранов.
const (
	NoticeLoadFailed      = "Error al cargar los datos"
	NoticeForbidden       = "No tienes permisos para esta acción"
	NoticeForbiddenEdit   = "No tienes permisos para editar"
	NoticeForbiddenDelete = "No tienes permisos para eliminar"
	NoticeExported        = "Archivo exportado exitosamente"
)

// Definition — экран: поведение контроллера, выгрузка и сообщения.
type Definition[T any] struct {
	Screen  crud.Screen[T]
	Label   string
	Sheet   string
	Export  string
	Columns []export.Column[T]
	Notices Notices
	// FileName — постоянное имя файла выгрузки; пустое — имя по диапазону дат.
	FileName string
	// Options — фиксированные наборы значений полей формы.
	Options map[string][]string
}

// ScreenOptions — параметры экранов из конфигурации.
type ScreenOptions struct {
	Location    *time.Location
	MissingDate recordfilter.MissingDatePolicy
}

func str[T any](f func(T) string) func(T) any {
	return func(r T) any { return f(r) }
}

// AbsenceScreen — экран новостей об отсутствии.
func AbsenceScreen(opts ScreenOptions) Definition[model.Absence] {
	return Definition[model.Absence]{
		Label:  "Novedades",
		Sheet:  "Novedades",
		Export: "novedades",
		Screen: crud.Screen[model.Absence]{
			Resource: rbac.ResourceAbsences,
			Catalogs: []catalog.Kind{catalog.Units, catalog.AbsenceTypes},
			New: func() model.Absence {
				return model.Absence{StaffType: "Docente", AbsenceType: "Permiso"}
			},
			ID: func(a model.Absence) string { return a.ID },
			Derive: func(a *model.Absence) {
				// При неполном интервале показывается 0.
				h, err := duration.ComputeHours(a.StartDate, a.StartTime, a.EndDate, a.EndTime, opts.Location)
				if err != nil {
					h = 0
				}
				a.Hours = h
			},
			Validate: func(a model.Absence) error { return validate.Struct(a) },
			Categorical: func(a model.Absence) []crud.CategoricalField {
				return []crud.CategoricalField{
					{Field: "dependencia", Kind: catalog.Units, Value: a.Unit},
					{Field: "tipo_novedad", Kind: catalog.AbsenceTypes, Value: a.AbsenceType},
				}
			},
			Stamp: func(a *model.Absence, subject string) { a.CreatedBy = subject },
			Filter: recordfilter.Spec[model.Absence]{
				Fields: []func(model.Absence) string{
					func(a model.Absence) string { return a.NationalID },
					func(a model.Absence) string { return a.Name },
					func(a model.Absence) string { return a.AbsenceType },
					func(a model.Absence) string { return a.Unit },
				},
				Date:        func(a model.Absence) string { return a.StartDate },
				MissingDate: opts.MissingDate,
			},
		},
		Columns: []export.Column[model.Absence]{
			{Header: "id", Value: str(func(a model.Absence) string { return a.ID })},
			{Header: "cedula", Value: str(func(a model.Absence) string { return a.NationalID })},
			{Header: "nombre", Value: str(func(a model.Absence) string { return a.Name })},
			{Header: "tipo_planta", Value: str(func(a model.Absence) string { return a.StaffType })},
			{Header: "dependencia", Value: str(func(a model.Absence) string { return a.Unit })},
			{Header: "fecha_inicio", Value: str(func(a model.Absence) string { return a.StartDate })},
			{Header: "hora_inicio", Value: str(func(a model.Absence) string { return a.StartTime })},
			{Header: "fecha_fin", Value: str(func(a model.Absence) string { return a.EndDate })},
			{Header: "hora_fin", Value: str(func(a model.Absence) string { return a.EndTime })},
			{Header: "horas_ausencia", Value: func(a model.Absence) any { return a.Hours }},
			{Header: "tipo_novedad", Value: str(func(a model.Absence) string { return a.AbsenceType })},
			{Header: "observacion", Value: str(func(a model.Absence) string { return a.Notes })},
			{Header: "created_at", Value: func(a model.Absence) any { return a.CreatedAt }},
		},
		Notices: Notices{
			Created:      "Novedad creada exitosamente",
			Updated:      "Novedad actualizada exitosamente",
			Deleted:      "Novedad eliminada exitosamente",
			SaveFailed:   "Error al guardar la novedad",
			DeleteFailed: "Error al eliminar la novedad",
		},
		Options: map[string][]string{"tipo_planta": model.StaffTypes},
	}
}

// applyDirectoryMatch заполняет nombre, cargo и dependencia из справочника.
func applyDirectoryMatch(name, title, unit *string, m lookup.Match) {
	*name = m.Name
	*title = m.Title
	*unit = m.Unit
}

// AccidentScreen — экран несчастных случаев на производстве.
func AccidentScreen(opts ScreenOptions) Definition[model.Accident] {
	return Definition[model.Accident]{
		Label:  "Accidentes de Trabajo",
		Sheet:  "AccidentesTrabajo",
		Export: "accidentes_trabajo",
		Screen: crud.Screen[model.Accident]{
			Resource:   rbac.ResourceAccidents,
			Catalogs:   []catalog.Kind{catalog.AccidentTypes, catalog.InjuryTypes, catalog.BodyParts},
			Directory:  true,
			New:        func() model.Accident { return model.Accident{} },
			ID:         func(a model.Accident) string { return a.ID },
			NaturalKey: func(a model.Accident) string { return a.NationalID },
			ApplyMatch: func(a *model.Accident, m lookup.Match) {
				applyDirectoryMatch(&a.Name, &a.Title, &a.Unit, m)
			},
			Validate: func(a model.Accident) error { return validate.Struct(a) },
			Categorical: func(a model.Accident) []crud.CategoricalField {
				return []crud.CategoricalField{
					{Field: "tipo_at", Kind: catalog.AccidentTypes, Value: a.AccidentType},
					{Field: "tipo_lesion", Kind: catalog.InjuryTypes, Value: a.InjuryType},
					{Field: "parte_cuerpo_afectada", Kind: catalog.BodyParts, Value: a.BodyPart},
				}
			},
			Stamp: func(a *model.Accident, subject string) { a.CreatedBy = subject },
			Filter: recordfilter.Spec[model.Accident]{
				Fields: []func(model.Accident) string{
					func(a model.Accident) string { return a.NationalID },
					func(a model.Accident) string { return a.Name },
					func(a model.Accident) string { return a.AccidentType },
					func(a model.Accident) string { return a.InjuryType },
					func(a model.Accident) string { return a.Unit },
				},
				Date:        func(a model.Accident) string { return a.Date },
				MissingDate: opts.MissingDate,
			},
		},
		Columns: []export.Column[model.Accident]{
			{Header: "id", Value: str(func(a model.Accident) string { return a.ID })},
			{Header: "cedula", Value: str(func(a model.Accident) string { return a.NationalID })},
			{Header: "nombre", Value: str(func(a model.Accident) string { return a.Name })},
			{Header: "cargo", Value: str(func(a model.Accident) string { return a.Title })},
			{Header: "dependencia", Value: str(func(a model.Accident) string { return a.Unit })},
			{Header: "tipo_at", Value: str(func(a model.Accident) string { return a.AccidentType })},
			{Header: "tipo_lesion", Value: str(func(a model.Accident) string { return a.InjuryType })},
			{Header: "parte_cuerpo_afectada", Value: str(func(a model.Accident) string { return a.BodyPart })},
			{Header: "fecha", Value: str(func(a model.Accident) string { return a.Date })},
			{Header: "hora", Value: str(func(a model.Accident) string { return a.Time })},
			{Header: "created_at", Value: func(a model.Accident) any { return a.CreatedAt }},
		},
		Notices: Notices{
			Created:      "Accidente de trabajo registrado exitosamente",
			Updated:      "Accidente de trabajo actualizado exitosamente",
			Deleted:      "Accidente de trabajo eliminado exitosamente",
			SaveFailed:   "Error al guardar el accidente de trabajo",
			DeleteFailed: "Error al eliminar el accidente de trabajo",
		},
	}
}

// InfirmaryScreen — экран обращений в медпункт.
func InfirmaryScreen(opts ScreenOptions) Definition[model.InfirmaryVisit] {
	return Definition[model.InfirmaryVisit]{
		Label:    "Enfermería",
		Sheet:    "Enfermeria",
		Export:   "enfermeria",
		FileName: "enfermeria_filtrado.xlsx",
		Screen: crud.Screen[model.InfirmaryVisit]{
			Resource:   rbac.ResourceInfirmary,
			Catalogs:   []catalog.Kind{catalog.JobTitles, catalog.Units, catalog.Symptoms, catalog.HealthHistory},
			Directory:  true,
			New:        func() model.InfirmaryVisit { return model.InfirmaryVisit{SentHome: "No"} },
			ID:         func(v model.InfirmaryVisit) string { return v.ID },
			NaturalKey: func(v model.InfirmaryVisit) string { return v.NationalID },
			ApplyMatch: func(v *model.InfirmaryVisit, m lookup.Match) {
				applyDirectoryMatch(&v.Name, &v.Title, &v.Unit, m)
			},
			Validate: func(v model.InfirmaryVisit) error { return validate.Struct(v) },
			// cargo и dependencia могут прийти из справочника сотрудников
			// и не проверяются по активным элементам.
			Categorical: func(v model.InfirmaryVisit) []crud.CategoricalField {
				return []crud.CategoricalField{
					{Field: "sintomas", Kind: catalog.Symptoms, Value: v.Symptoms},
					{Field: "antecedentes_salud", Kind: catalog.HealthHistory, Value: v.HealthHistory},
				}
			},
			Stamp: func(v *model.InfirmaryVisit, subject string) { v.CreatedBy = subject },
			Filter: recordfilter.Spec[model.InfirmaryVisit]{
				Fields: []func(model.InfirmaryVisit) string{
					func(v model.InfirmaryVisit) string { return v.NationalID },
					func(v model.InfirmaryVisit) string { return v.Name },
					func(v model.InfirmaryVisit) string { return v.Title },
					func(v model.InfirmaryVisit) string { return v.Unit },
					func(v model.InfirmaryVisit) string { return v.Symptoms },
				},
				Date:        func(v model.InfirmaryVisit) string { return v.Date },
				MissingDate: opts.MissingDate,
			},
		},
		Columns: []export.Column[model.InfirmaryVisit]{
			{Header: "id", Value: str(func(v model.InfirmaryVisit) string { return v.ID })},
			{Header: "cedula", Value: str(func(v model.InfirmaryVisit) string { return v.NationalID })},
			{Header: "nombre", Value: str(func(v model.InfirmaryVisit) string { return v.Name })},
			{Header: "cargo", Value: str(func(v model.InfirmaryVisit) string { return v.Title })},
			{Header: "dependencia", Value: str(func(v model.InfirmaryVisit) string { return v.Unit })},
			{Header: "sintomas", Value: str(func(v model.InfirmaryVisit) string { return v.Symptoms })},
			{Header: "antecedentes_salud", Value: str(func(v model.InfirmaryVisit) string { return v.HealthHistory })},
			{Header: "salida", Value: str(func(v model.InfirmaryVisit) string { return v.SentHome })},
			{Header: "observaciones", Value: str(func(v model.InfirmaryVisit) string { return v.Notes })},
			{Header: "fecha", Value: str(func(v model.InfirmaryVisit) string { return v.Date })},
			{Header: "created_at", Value: func(v model.InfirmaryVisit) any { return v.CreatedAt }},
		},
		Notices: Notices{
			Created:      "Registro creado exitosamente",
			Updated:      "Registro actualizado exitosamente",
			Deleted:      "Registro eliminado exitosamente",
			SaveFailed:   "Error al guardar el registro",
			DeleteFailed: "Error al eliminar el registro",
		},
		Options: map[string][]string{"salida": model.SentHomeOptions},
	}
}

var catalogNotices = Notices{
	Created:      "Elemento creado exitosamente",
	Updated:      "Elemento actualizado exitosamente",
	Deleted:      "Elemento eliminado exitosamente",
	SaveFailed:   "Error al guardar el elemento",
	DeleteFailed: "Error al eliminar el elemento",
	Activated:    "Elemento activado exitosamente",
	Deactivated:  "Elemento desactivado exitosamente",
	ToggleFailed: "Error al cambiar el estado del elemento",
}

// CatalogScreen — экран простого или кодированного справочника.
// Список содержит отключённые элементы, поиск по codigo и nombre.
func CatalogScreen(schema catalog.Schema) Definition[model.CatalogEntry] {
	return Definition[model.CatalogEntry]{
		Label:  schema.Label,
		Sheet:  string(schema.Kind),
		Export: string(schema.Kind),
		Screen: crud.Screen[model.CatalogEntry]{
			Resource: rbac.ResourceCatalogs,
			New:      func() model.CatalogEntry { return model.CatalogEntry{Active: true} },
			ID:       func(e model.CatalogEntry) string { return e.ID },
			Derive:   func(e *model.CatalogEntry) { *e = schema.Normalize(*e) },
			Validate: schema.ValidateEntry,
			Active:   func(e model.CatalogEntry) bool { return e.Active },
			Filter: recordfilter.Spec[model.CatalogEntry]{
				Fields: []func(model.CatalogEntry) string{
					func(e model.CatalogEntry) string { return e.Code },
					func(e model.CatalogEntry) string { return e.Name },
				},
			},
		},
		Columns: []export.Column[model.CatalogEntry]{
			{Header: "id", Value: str(func(e model.CatalogEntry) string { return e.ID })},
			{Header: "codigo", Value: str(func(e model.CatalogEntry) string { return e.Code })},
			{Header: "nombre", Value: str(func(e model.CatalogEntry) string { return e.Name })},
			{Header: "activo", Value: func(e model.CatalogEntry) any { return e.Active }},
			{Header: "created_at", Value: func(e model.CatalogEntry) any { return e.CreatedAt }},
		},
		Notices: catalogNotices,
	}
}

// EmployeeScreen — экран справочника сотрудников.
func EmployeeScreen() Definition[model.Employee] {
	schema := catalog.MustLookup(catalog.Employees)
	return Definition[model.Employee]{
		Label:  schema.Label,
		Sheet:  string(schema.Kind),
		Export: string(schema.Kind),
		Screen: crud.Screen[model.Employee]{
			Resource: rbac.ResourceCatalogs,
			New:      func() model.Employee { return model.Employee{Active: true} },
			ID:       func(e model.Employee) string { return e.ID },
			Validate: schema.ValidateEmployee,
			Active:   func(e model.Employee) bool { return e.Active },
			Filter: recordfilter.Spec[model.Employee]{
				Fields: []func(model.Employee) string{
					func(e model.Employee) string { return e.NationalID },
					func(e model.Employee) string { return e.Name },
					func(e model.Employee) string { return e.Title },
					func(e model.Employee) string { return e.Unit },
				},
			},
		},
		Columns: []export.Column[model.Employee]{
			{Header: "id", Value: str(func(e model.Employee) string { return e.ID })},
			{Header: "cedula", Value: str(func(e model.Employee) string { return e.NationalID })},
			{Header: "nombre", Value: str(func(e model.Employee) string { return e.Name })},
			{Header: "cargo", Value: str(func(e model.Employee) string { return e.Title })},
			{Header: "dependencia", Value: str(func(e model.Employee) string { return e.Unit })},
			{Header: "activo", Value: func(e model.Employee) any { return e.Active }},
			{Header: "created_at", Value: func(e model.Employee) any { return e.CreatedAt }},
		},
		Notices: catalogNotices,
	}
}
