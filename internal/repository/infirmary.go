package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Maicol2810/sistemanovedades2.0/internal/domain/model"
)

// InfirmaryRepository — CRUD для таблицы enfermeria.
// Отсутствующая дата (NULL) читается как пустая строка.
type InfirmaryRepository interface {
	List(ctx context.Context) ([]model.InfirmaryVisit, error)
	GetByID(ctx context.Context, id string) (*model.InfirmaryVisit, error)
	Create(ctx context.Context, v *model.InfirmaryVisit) error
	Update(ctx context.Context, id string, v *model.InfirmaryVisit) error
	Delete(ctx context.Context, id string) error
}

type infirmaryRepo struct {
	db DBTX
}

// NewInfirmaryRepository создаёт репозиторий обращений в медпункт.
func NewInfirmaryRepository(db DBTX) InfirmaryRepository {
	return &infirmaryRepo{db: db}
}

var infirmaryColumns = `id, cedula, nombre, cargo, dependencia,
	sintomas, antecedentes_salud, salida, COALESCE(observaciones, ''),
	COALESCE(to_char(fecha, ` + sqlDate + `), ''),
	created_at, COALESCE(created_by, '')`

func scanVisit(row pgx.Row) (model.InfirmaryVisit, error) {
	var v model.InfirmaryVisit
	err := row.Scan(
		&v.ID, &v.NationalID, &v.Name, &v.Title, &v.Unit,
		&v.Symptoms, &v.HealthHistory, &v.SentHome, &v.Notes,
		&v.Date,
		&v.CreatedAt, &v.CreatedBy,
	)
	return v, err
}

func (r *infirmaryRepo) List(ctx context.Context) ([]model.InfirmaryVisit, error) {
	rows, err := r.db.Query(ctx, `SELECT `+infirmaryColumns+` FROM enfermeria ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка обращений: %w", err)
	}
	defer rows.Close()

	result := make([]model.InfirmaryVisit, 0)
	for rows.Next() {
		v, err := scanVisit(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования обращения: %w", err)
		}
		result = append(result, v)
	}
	return result, rows.Err()
}

func (r *infirmaryRepo) GetByID(ctx context.Context, id string) (*model.InfirmaryVisit, error) {
	v, err := scanVisit(r.db.QueryRow(ctx, `SELECT `+infirmaryColumns+` FROM enfermeria WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения обращения: %w", err)
	}
	return &v, nil
}

func (r *infirmaryRepo) Create(ctx context.Context, v *model.InfirmaryVisit) error {
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	query := `
		INSERT INTO enfermeria (id, cedula, nombre, cargo, dependencia,
			sintomas, antecedentes_salud, salida, observaciones, fecha, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''), NULLIF($10, '')::date, NULLIF($11, ''))
		RETURNING created_at`

	err := r.db.QueryRow(ctx, query,
		v.ID, v.NationalID, v.Name, v.Title, v.Unit,
		v.Symptoms, v.HealthHistory, v.SentHome, v.Notes, v.Date, v.CreatedBy,
	).Scan(&v.CreatedAt)
	if err != nil {
		return wrapWriteError("создания обращения", err)
	}
	return nil
}

func (r *infirmaryRepo) Update(ctx context.Context, id string, v *model.InfirmaryVisit) error {
	query := `
		UPDATE enfermeria
		SET cedula = $2, nombre = $3, cargo = $4, dependencia = $5,
			sintomas = $6, antecedentes_salud = $7, salida = $8,
			observaciones = NULLIF($9, ''), fecha = NULLIF($10, '')::date
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		id, v.NationalID, v.Name, v.Title, v.Unit,
		v.Symptoms, v.HealthHistory, v.SentHome, v.Notes, v.Date,
	)
	if err != nil {
		return wrapWriteError("обновления обращения", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *infirmaryRepo) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.db, "enfermeria", id)
}
