package validate

import (
	"errors"
	"testing"

	"github.com/Maicol2810/sistemanovedades2.0/internal/domain/model"
)

func validAbsence() model.Absence {
	return model.Absence{
		NationalID:  "1010",
		Name:        "Ana Pérez",
		StaffType:   "Docente",
		Unit:        "Rectoría",
		StartDate:   "2024-03-01",
		StartTime:   "08:00",
		EndDate:     "2024-03-01",
		EndTime:     "12:00:00",
		AbsenceType: "Permiso",
	}
}

func TestStruct_Valid(t *testing.T) {
	if err := Struct(validAbsence()); err != nil {
		t.Fatalf("Struct вернул ошибку для корректной записи: %v", err)
	}
}

func TestStruct_Fields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(a *model.Absence)
		field  string
	}{
		{"пустая cedula", func(a *model.Absence) { a.NationalID = "" }, "cedula"},
		{"неизвестный tipo_planta", func(a *model.Absence) { a.StaffType = "Contratista" }, "tipo_planta"},
		{"дата не ISO", func(a *model.Absence) { a.StartDate = "01/03/2024" }, "fecha_inicio"},
		{"время без минут", func(a *model.Absence) { a.EndTime = "8" }, "hora_fin"},
		{"пустой tipo_novedad", func(a *model.Absence) { a.AbsenceType = "" }, "tipo_novedad"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := validAbsence()
			tt.mutate(&a)

			err := Struct(a)
			var fe *FieldsError
			if !errors.As(err, &fe) {
				t.Fatalf("ожидался *FieldsError, получили %v", err)
			}
			if _, ok := fe.Fields[tt.field]; !ok {
				t.Errorf("поле %s отсутствует в ошибке: %v", tt.field, fe)
			}
			if len(fe.Fields) != 1 {
				t.Errorf("ожидалась одна ошибка, получили %v", fe.Fields)
			}
		})
	}
}

func TestStruct_VisitSentHome(t *testing.T) {
	visit := model.InfirmaryVisit{
		NationalID: "1010", Name: "Ana", Title: "Docente", Unit: "Rectoría",
		Symptoms: "Cefalea", HealthHistory: "Ninguno", SentHome: "Quizás", Date: "2024-03-01",
	}
	err := Struct(visit)
	var fe *FieldsError
	if !errors.As(err, &fe) || fe.Fields["salida"] == "" {
		t.Fatalf("ожидалась ошибка поля salida, получили %v", err)
	}

	visit.SentHome = "Sí"
	if err := Struct(visit); err != nil {
		t.Errorf("salida=Sí должна проходить: %v", err)
	}
}

func TestFieldsError_Message(t *testing.T) {
	fe := &FieldsError{}
	fe.Add("nombre", "obligatorio")
	fe.Add("cedula", "obligatorio")
	want := "cedula: obligatorio; nombre: obligatorio"
	if fe.Error() != want {
		t.Errorf("Error() = %q, хотели %q", fe.Error(), want)
	}
}
