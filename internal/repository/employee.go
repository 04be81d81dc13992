package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Maicol2810/sistemanovedades2.0/internal/domain/model"
)

// EmployeeRepository — справочник сотрудников (таблица funcionarios).
type EmployeeRepository interface {
	ListAll(ctx context.Context) ([]model.Employee, error)
	ListActive(ctx context.Context) ([]model.Employee, error)
	Create(ctx context.Context, e *model.Employee) error
	Update(ctx context.Context, id string, e *model.Employee) error
	Delete(ctx context.Context, id string) error
	SetActive(ctx context.Context, id string, active bool) error
}

type employeeRepo struct {
	db DBTX
}

// NewEmployeeRepository создаёт репозиторий сотрудников.
func NewEmployeeRepository(db DBTX) EmployeeRepository {
	return &employeeRepo{db: db}
}

func (r *employeeRepo) list(ctx context.Context, activeOnly bool) ([]model.Employee, error) {
	query := `SELECT id, cedula, nombre, cargo, dependencia, activo, created_at FROM funcionarios`
	if activeOnly {
		query += ` WHERE activo = TRUE`
	}
	query += ` ORDER BY nombre`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения сотрудников: %w", err)
	}
	defer rows.Close()

	result, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Employee, error) {
		var e model.Employee
		err := row.Scan(&e.ID, &e.NationalID, &e.Name, &e.Title, &e.Unit, &e.Active, &e.CreatedAt)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования сотрудника: %w", err)
	}
	return result, nil
}

func (r *employeeRepo) ListAll(ctx context.Context) ([]model.Employee, error) {
	return r.list(ctx, false)
}

func (r *employeeRepo) ListActive(ctx context.Context) ([]model.Employee, error) {
	return r.list(ctx, true)
}

func (r *employeeRepo) Create(ctx context.Context, e *model.Employee) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	query := `
		INSERT INTO funcionarios (id, cedula, nombre, cargo, dependencia, activo)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`

	err := r.db.QueryRow(ctx, query, e.ID, e.NationalID, e.Name, e.Title, e.Unit, e.Active).Scan(&e.CreatedAt)
	if err != nil {
		return wrapWriteError("создания сотрудника", err)
	}
	return nil
}

func (r *employeeRepo) Update(ctx context.Context, id string, e *model.Employee) error {
	query := `
		UPDATE funcionarios
		SET cedula = $2, nombre = $3, cargo = $4, dependencia = $5, activo = $6
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, e.NationalID, e.Name, e.Title, e.Unit, e.Active)
	if err != nil {
		return wrapWriteError("обновления сотрудника", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *employeeRepo) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.db, "funcionarios", id)
}

func (r *employeeRepo) SetActive(ctx context.Context, id string, active bool) error {
	return setActive(ctx, r.db, "funcionarios", id, active)
}
