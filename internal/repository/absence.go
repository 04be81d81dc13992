package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Maicol2810/sistemanovedades2.0/internal/domain/model"
)

// AbsenceRepository — CRUD для таблицы novedades.
type AbsenceRepository interface {
	// List возвращает все новости, новые первыми.
	List(ctx context.Context) ([]model.Absence, error)
	GetByID(ctx context.Context, id string) (*model.Absence, error)
	// Create сохраняет новость; ID и CreatedAt заполняются.
	Create(ctx context.Context, a *model.Absence) error
	// Update обновляет изменяемые поля; created_at и created_by не меняются.
	Update(ctx context.Context, id string, a *model.Absence) error
	Delete(ctx context.Context, id string) error
}

type absenceRepo struct {
	db DBTX
}

// NewAbsenceRepository создаёт репозиторий новостей.
func NewAbsenceRepository(db DBTX) AbsenceRepository {
	return &absenceRepo{db: db}
}

var absenceColumns = `id, cedula, nombre, tipo_planta, dependencia,
	to_char(fecha_inicio, ` + sqlDate + `), to_char(hora_inicio, ` + sqlTime + `),
	to_char(fecha_fin, ` + sqlDate + `), to_char(hora_fin, ` + sqlTime + `),
	horas_ausencia, tipo_novedad, COALESCE(observacion, ''),
	created_at, COALESCE(created_by, '')`

func scanAbsence(row pgx.Row) (model.Absence, error) {
	var a model.Absence
	err := row.Scan(
		&a.ID, &a.NationalID, &a.Name, &a.StaffType, &a.Unit,
		&a.StartDate, &a.StartTime, &a.EndDate, &a.EndTime,
		&a.Hours, &a.AbsenceType, &a.Notes,
		&a.CreatedAt, &a.CreatedBy,
	)
	return a, err
}

func (r *absenceRepo) List(ctx context.Context) ([]model.Absence, error) {
	rows, err := r.db.Query(ctx, `SELECT `+absenceColumns+` FROM novedades ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка новостей: %w", err)
	}
	defer rows.Close()

	result := make([]model.Absence, 0)
	for rows.Next() {
		a, err := scanAbsence(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования новости: %w", err)
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

func (r *absenceRepo) GetByID(ctx context.Context, id string) (*model.Absence, error) {
	a, err := scanAbsence(r.db.QueryRow(ctx, `SELECT `+absenceColumns+` FROM novedades WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения новости: %w", err)
	}
	return &a, nil
}

func (r *absenceRepo) Create(ctx context.Context, a *model.Absence) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	query := `
		INSERT INTO novedades (id, cedula, nombre, tipo_planta, dependencia,
			fecha_inicio, hora_inicio, fecha_fin, hora_fin,
			horas_ausencia, tipo_novedad, observacion, created_by)
		VALUES ($1, $2, $3, $4, $5, $6::date, $7::time, $8::date, $9::time,
			$10, $11, NULLIF($12, ''), NULLIF($13, ''))
		RETURNING created_at`

	err := r.db.QueryRow(ctx, query,
		a.ID, a.NationalID, a.Name, a.StaffType, a.Unit,
		a.StartDate, a.StartTime, a.EndDate, a.EndTime,
		a.Hours, a.AbsenceType, a.Notes, a.CreatedBy,
	).Scan(&a.CreatedAt)
	if err != nil {
		return wrapWriteError("создания новости", err)
	}
	return nil
}

func (r *absenceRepo) Update(ctx context.Context, id string, a *model.Absence) error {
	query := `
		UPDATE novedades
		SET cedula = $2, nombre = $3, tipo_planta = $4, dependencia = $5,
			fecha_inicio = $6::date, hora_inicio = $7::time,
			fecha_fin = $8::date, hora_fin = $9::time,
			horas_ausencia = $10, tipo_novedad = $11, observacion = NULLIF($12, '')
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		id, a.NationalID, a.Name, a.StaffType, a.Unit,
		a.StartDate, a.StartTime, a.EndDate, a.EndTime,
		a.Hours, a.AbsenceType, a.Notes,
	)
	if err != nil {
		return wrapWriteError("обновления новости", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *absenceRepo) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.db, "novedades", id)
}

// deleteByID удаляет строку по id. table — только константы пакета.
func deleteByID(ctx context.Context, db DBTX, table, id string) error {
	tag, err := db.Exec(ctx, `DELETE FROM `+table+` WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления из %s: %w", table, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// wrapWriteError переводит ошибки PostgreSQL в ошибки слоя.
func wrapWriteError(op string, err error) error {
	switch {
	case isUniqueViolation(err):
		return fmt.Errorf("%w: %v", ErrConflict, err)
	case isInvalidInput(err):
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	default:
		return fmt.Errorf("ошибка %s: %w", op, err)
	}
}
