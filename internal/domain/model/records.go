// Пакет model — доменные модели учёта охраны труда.
// JSON-имена полей совпадают с именами колонок в PostgreSQL.
package model

import "time"

// Значения поля tipo_planta.
var StaffTypes = []string{"Docente", "Administrativo", "Aprendiz"}

// Значения поля salida (направлен домой после осмотра).
var SentHomeOptions = []string{"Sí", "No"}

// Absence — новость об отсутствии сотрудника (таблица novedades).
// Hours вычисляется из интервала при каждом изменении черновика.
type Absence struct {
	ID          string    `json:"id"`
	NationalID  string    `json:"cedula" validate:"required,max=20"`
	Name        string    `json:"nombre" validate:"required,max=200"`
	StaffType   string    `json:"tipo_planta" validate:"required,oneof=Docente Administrativo Aprendiz"`
	Unit        string    `json:"dependencia" validate:"required"`
	StartDate   string    `json:"fecha_inicio" validate:"required,isodate"`
	StartTime   string    `json:"hora_inicio" validate:"required,clock"`
	EndDate     string    `json:"fecha_fin" validate:"required,isodate"`
	EndTime     string    `json:"hora_fin" validate:"required,clock"`
	Hours       float64   `json:"horas_ausencia"`
	AbsenceType string    `json:"tipo_novedad" validate:"required"`
	Notes       string    `json:"observacion"`
	CreatedAt   time.Time `json:"created_at"`
	CreatedBy   string    `json:"created_by"`
}

// Accident — несчастный случай на производстве (таблица accidentes_trabajo).
type Accident struct {
	ID           string    `json:"id"`
	NationalID   string    `json:"cedula" validate:"required,max=20"`
	Name         string    `json:"nombre" validate:"required,max=200"`
	Title        string    `json:"cargo" validate:"required"`
	Unit         string    `json:"dependencia" validate:"required"`
	AccidentType string    `json:"tipo_at" validate:"required"`
	InjuryType   string    `json:"tipo_lesion" validate:"required"`
	BodyPart     string    `json:"parte_cuerpo_afectada" validate:"required"`
	Date         string    `json:"fecha" validate:"required,isodate"`
	Time         string    `json:"hora" validate:"required,clock"`
	CreatedAt    time.Time `json:"created_at"`
	CreatedBy    string    `json:"created_by"`
}

// InfirmaryVisit — обращение в медпункт (таблица enfermeria).
// В исторических данных дата может отсутствовать, новые записи
// создаются только с датой.
type InfirmaryVisit struct {
	ID            string    `json:"id"`
	NationalID    string    `json:"cedula" validate:"required,max=20"`
	Name          string    `json:"nombre" validate:"required,max=200"`
	Title         string    `json:"cargo" validate:"required"`
	Unit          string    `json:"dependencia" validate:"required"`
	Symptoms      string    `json:"sintomas" validate:"required"`
	HealthHistory string    `json:"antecedentes_salud" validate:"required"`
	SentHome      string    `json:"salida" validate:"required,oneof=Sí No"`
	Notes         string    `json:"observaciones"`
	Date          string    `json:"fecha" validate:"required,isodate"`
	CreatedAt     time.Time `json:"created_at"`
	CreatedBy     string    `json:"created_by"`
}
