package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Maicol2810/sistemanovedades2.0/internal/domain/model"
)

// AccidentRepository — CRUD для таблицы accidentes_trabajo.
type AccidentRepository interface {
	List(ctx context.Context) ([]model.Accident, error)
	GetByID(ctx context.Context, id string) (*model.Accident, error)
	Create(ctx context.Context, a *model.Accident) error
	Update(ctx context.Context, id string, a *model.Accident) error
	Delete(ctx context.Context, id string) error
}

type accidentRepo struct {
	db DBTX
}

// NewAccidentRepository создаёт репозиторий несчастных случаев.
func NewAccidentRepository(db DBTX) AccidentRepository {
	return &accidentRepo{db: db}
}

var accidentColumns = `id, cedula, nombre, cargo, dependencia,
	tipo_at, tipo_lesion, parte_cuerpo_afectada,
	to_char(fecha, ` + sqlDate + `), to_char(hora, ` + sqlTime + `),
	created_at, COALESCE(created_by, '')`

func scanAccident(row pgx.Row) (model.Accident, error) {
	var a model.Accident
	err := row.Scan(
		&a.ID, &a.NationalID, &a.Name, &a.Title, &a.Unit,
		&a.AccidentType, &a.InjuryType, &a.BodyPart,
		&a.Date, &a.Time,
		&a.CreatedAt, &a.CreatedBy,
	)
	return a, err
}

func (r *accidentRepo) List(ctx context.Context) ([]model.Accident, error) {
	rows, err := r.db.Query(ctx, `SELECT `+accidentColumns+` FROM accidentes_trabajo ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка несчастных случаев: %w", err)
	}
	defer rows.Close()

	result := make([]model.Accident, 0)
	for rows.Next() {
		a, err := scanAccident(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования несчастного случая: %w", err)
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

func (r *accidentRepo) GetByID(ctx context.Context, id string) (*model.Accident, error) {
	a, err := scanAccident(r.db.QueryRow(ctx, `SELECT `+accidentColumns+` FROM accidentes_trabajo WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения несчастного случая: %w", err)
	}
	return &a, nil
}

func (r *accidentRepo) Create(ctx context.Context, a *model.Accident) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	query := `
		INSERT INTO accidentes_trabajo (id, cedula, nombre, cargo, dependencia,
			tipo_at, tipo_lesion, parte_cuerpo_afectada, fecha, hora, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::date, $10::time, NULLIF($11, ''))
		RETURNING created_at`

	err := r.db.QueryRow(ctx, query,
		a.ID, a.NationalID, a.Name, a.Title, a.Unit,
		a.AccidentType, a.InjuryType, a.BodyPart, a.Date, a.Time, a.CreatedBy,
	).Scan(&a.CreatedAt)
	if err != nil {
		return wrapWriteError("создания несчастного случая", err)
	}
	return nil
}

func (r *accidentRepo) Update(ctx context.Context, id string, a *model.Accident) error {
	query := `
		UPDATE accidentes_trabajo
		SET cedula = $2, nombre = $3, cargo = $4, dependencia = $5,
			tipo_at = $6, tipo_lesion = $7, parte_cuerpo_afectada = $8,
			fecha = $9::date, hora = $10::time
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		id, a.NationalID, a.Name, a.Title, a.Unit,
		a.AccidentType, a.InjuryType, a.BodyPart, a.Date, a.Time,
	)
	if err != nil {
		return wrapWriteError("обновления несчастного случая", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *accidentRepo) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.db, "accidentes_trabajo", id)
}
